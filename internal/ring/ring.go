// Package ring provides a fixed-capacity ring buffer that serializes to JSON.
// Once full, each push overwrites the oldest entry; capacity is a structural
// property of the buffer, not something callers enforce after the fact.
package ring

// Buffer is a fixed-capacity ring. The zero value is unusable; create one
// with New or let JSON unmarshalling restore a persisted buffer.
type Buffer[T any] struct {
	Capacity int `json:"capacity"`
	Items    []T `json:"items"`
	Start    int `json:"start"` // index of the oldest item
}

// New creates an empty buffer with the given capacity.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{Capacity: capacity}
}

// Push appends an item, overwriting the oldest when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.Capacity < 1 {
		b.Capacity = 1
	}
	if len(b.Items) < b.Capacity {
		b.Items = append(b.Items, v)
		return
	}
	b.Items[b.Start] = v
	b.Start = (b.Start + 1) % b.Capacity
}

// Len returns the number of items currently held.
func (b *Buffer[T]) Len() int {
	return len(b.Items)
}

// Values returns the items oldest-first.
func (b *Buffer[T]) Values() []T {
	out := make([]T, 0, len(b.Items))
	for i := 0; i < len(b.Items); i++ {
		out = append(out, b.Items[(b.Start+i)%len(b.Items)])
	}
	return out
}

// Last returns the most recently pushed item, or false when empty.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if len(b.Items) == 0 {
		return zero, false
	}
	idx := b.Start - 1
	if idx < 0 {
		idx = len(b.Items) - 1
	}
	if len(b.Items) < b.Capacity {
		idx = len(b.Items) - 1
	}
	return b.Items[idx], true
}

// Reset drops all items, keeping the capacity.
func (b *Buffer[T]) Reset() {
	b.Items = nil
	b.Start = 0
}
