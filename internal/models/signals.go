package models

import (
	"time"

	"github.com/example/foreman/internal/ring"
)

// signalCapacity bounds each exit-signal list to the most recent entries.
const signalCapacity = 10

// SignalEntry records one soft completion signal observed in worker output.
type SignalEntry struct {
	Sprint int       `json:"sprint"`
	Loop   int       `json:"loop"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// ExitSignals is the persisted exit-signals document consumed by the
// completion detector. Each list keeps only its most recent entries;
// the lists are reset at the start of a new session.
type ExitSignals struct {
	IdleLoops            *ring.Buffer[SignalEntry] `json:"idle_loops"`
	DoneSignals          *ring.Buffer[SignalEntry] `json:"done_signals"`
	CompletionIndicators *ring.Buffer[SignalEntry] `json:"completion_indicators"`
	TestOnlyLoops        *ring.Buffer[SignalEntry] `json:"test_only_loops"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// NewExitSignals returns an empty exit-signals document.
func NewExitSignals() *ExitSignals {
	return &ExitSignals{
		IdleLoops:            ring.New[SignalEntry](signalCapacity),
		DoneSignals:          ring.New[SignalEntry](signalCapacity),
		CompletionIndicators: ring.New[SignalEntry](signalCapacity),
		TestOnlyLoops:        ring.New[SignalEntry](signalCapacity),
	}
}

// Normalize repairs nil buffers after unmarshalling a partial document.
func (es *ExitSignals) Normalize() {
	if es.IdleLoops == nil {
		es.IdleLoops = ring.New[SignalEntry](signalCapacity)
	}
	if es.DoneSignals == nil {
		es.DoneSignals = ring.New[SignalEntry](signalCapacity)
	}
	if es.CompletionIndicators == nil {
		es.CompletionIndicators = ring.New[SignalEntry](signalCapacity)
	}
	if es.TestOnlyLoops == nil {
		es.TestOnlyLoops = ring.New[SignalEntry](signalCapacity)
	}
}
