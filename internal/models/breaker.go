package models

import (
	"time"

	"github.com/example/foreman/internal/ring"
)

// outcomeCapacity bounds the recent-outcome history kept for diagnosis.
const outcomeCapacity = 10

// InvocationOutcome is one invocation's observable result as seen by the
// circuit breaker.
type InvocationOutcome struct {
	Loop         int       `json:"loop"`
	FilesChanged int       `json:"files_changed"`
	HadError     bool      `json:"had_error"`
	OutputLength int       `json:"output_length"`
	At           time.Time `json:"at"`
}

// BreakerState is the persisted circuit-breaker document. Once Open is set
// it stays set until an explicit reset; the breaker does not auto-heal.
type BreakerState struct {
	Outcomes              *ring.Buffer[InvocationOutcome] `json:"outcomes"`
	ConsecutiveFailures   int                             `json:"consecutive_failures"`
	ConsecutiveNoProgress int                             `json:"consecutive_no_progress"`
	Open                  bool                            `json:"open"`
	Reason                string                          `json:"reason,omitempty"`
	OpenedAt              *time.Time                      `json:"opened_at,omitempty"`
	UpdatedAt             time.Time                       `json:"updated_at"`
}

// NewBreakerState returns a closed breaker with empty history.
func NewBreakerState() *BreakerState {
	return &BreakerState{Outcomes: ring.New[InvocationOutcome](outcomeCapacity)}
}

// Normalize repairs a nil outcome buffer after unmarshalling.
func (bs *BreakerState) Normalize() {
	if bs.Outcomes == nil {
		bs.Outcomes = ring.New[InvocationOutcome](outcomeCapacity)
	}
}

// LimiterState is the persisted rate-limiter document: an hourly bucket
// keyed by calendar hour plus a session-lifetime counter.
type LimiterState struct {
	HourKey       string    `json:"hour_key"` // e.g. 2026-08-29T14
	CallsThisHour int       `json:"calls_this_hour"`
	Ceiling       int       `json:"ceiling"`
	SessionCalls  int       `json:"session_calls"`
	UpdatedAt     time.Time `json:"updated_at"`
}
