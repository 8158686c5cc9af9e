package ring

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

func TestBuffer_PushBelowCapacity(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)

	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
	got := b.Values()
	want := []int{1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBuffer_OverwritesOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	got := b.Values()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBuffer_Last(t *testing.T) {
	b := New[string](2)
	if _, ok := b.Last(); ok {
		t.Error("Last() on empty buffer reported ok")
	}
	b.Push("a")
	b.Push("b")
	b.Push("c")
	if last, _ := b.Last(); last != "c" {
		t.Errorf("Last() = %q, want %q", last, "c")
	}
}

func TestBuffer_JSONRoundTrip(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 4; i++ {
		b.Push(i)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var restored Buffer[int]
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	restored.Push(5)
	got := restored.Values()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestBuffer_CapacityInvariant checks that the length never exceeds the
// capacity regardless of push count, and that Values always ends with the
// most recent push.
func TestBuffer_CapacityInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 10).Draw(rt, "capacity")
		pushes := rapid.IntRange(0, 50).Draw(rt, "pushes")

		b := New[int](capacity)
		for i := 0; i < pushes; i++ {
			b.Push(i)
		}

		if b.Len() > capacity {
			rt.Fatalf("Len() = %d exceeds capacity %d", b.Len(), capacity)
		}
		if pushes > 0 {
			vals := b.Values()
			if vals[len(vals)-1] != pushes-1 {
				rt.Fatalf("newest value = %d, want %d", vals[len(vals)-1], pushes-1)
			}
		}
	})
}
