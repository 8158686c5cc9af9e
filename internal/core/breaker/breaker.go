// Package breaker detects stagnation in the invocation loop.
//
// This is not a fault-tolerance breaker in the classical sense: it exists to
// stop burning invocation quota on a worker that keeps looping without
// making changes. Once open it stays open until an explicit reset; it does
// not auto-heal.
package breaker

import (
	"fmt"
	"time"

	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
)

// Default ceilings for the two stagnation counters.
const (
	DefaultFailureCeiling    = 3
	DefaultNoProgressCeiling = 5
)

// Breaker tracks consecutive failures and consecutive no-progress loops
// across recent invocations, persisting through the store.
type Breaker struct {
	store             *store.Store
	failureCeiling    int
	noProgressCeiling int
}

// New creates a breaker with the given ceilings. Non-positive ceilings fall
// back to the defaults.
func New(st *store.Store, failureCeiling, noProgressCeiling int) *Breaker {
	if failureCeiling < 1 {
		failureCeiling = DefaultFailureCeiling
	}
	if noProgressCeiling < 1 {
		noProgressCeiling = DefaultNoProgressCeiling
	}
	return &Breaker{
		store:             st,
		failureCeiling:    failureCeiling,
		noProgressCeiling: noProgressCeiling,
	}
}

// RecordOutcome feeds one invocation outcome into the breaker and reports
// whether this outcome opened it. Failures increment the consecutive-failure
// counter; zero files changed increments the consecutive-no-progress
// counter; each resets to zero when its condition clears.
func (b *Breaker) RecordOutcome(loop, filesChanged int, hadError bool, outputLength int) (bool, error) {
	st, err := b.store.LoadBreakerState()
	if err != nil {
		return false, err
	}

	st.Outcomes.Push(models.InvocationOutcome{
		Loop:         loop,
		FilesChanged: filesChanged,
		HadError:     hadError,
		OutputLength: outputLength,
		At:           time.Now().UTC(),
	})

	if hadError {
		st.ConsecutiveFailures++
	} else {
		st.ConsecutiveFailures = 0
	}
	if filesChanged == 0 {
		st.ConsecutiveNoProgress++
	} else {
		st.ConsecutiveNoProgress = 0
	}

	opened := false
	if !st.Open {
		switch {
		case st.ConsecutiveFailures >= b.failureCeiling:
			opened = true
			st.Reason = fmt.Sprintf("%d consecutive failed invocations", st.ConsecutiveFailures)
		case st.ConsecutiveNoProgress >= b.noProgressCeiling:
			opened = true
			st.Reason = fmt.Sprintf("%d consecutive invocations with no file changes", st.ConsecutiveNoProgress)
		}
		if opened {
			st.Open = true
			now := time.Now().UTC()
			st.OpenedAt = &now
		}
	}

	if err := b.store.SaveBreakerState(st); err != nil {
		return false, err
	}
	return opened, nil
}

// ShouldHalt reports whether the breaker is open.
func (b *Breaker) ShouldHalt() (bool, error) {
	st, err := b.store.LoadBreakerState()
	if err != nil {
		return false, err
	}
	return st.Open, nil
}

// State returns the persisted breaker state.
func (b *Breaker) State() (*models.BreakerState, error) {
	return b.store.LoadBreakerState()
}

// Reset closes the breaker and zeroes both counters. The reason is recorded
// for the audit trail (operator reset, sprint start).
func (b *Breaker) Reset(reason string) error {
	st, err := b.store.LoadBreakerState()
	if err != nil {
		return err
	}
	st.Open = false
	st.Reason = reason
	st.OpenedAt = nil
	st.ConsecutiveFailures = 0
	st.ConsecutiveNoProgress = 0
	st.Outcomes.Reset()
	return b.store.SaveBreakerState(st)
}
