// Package ratelimit throttles worker invocations against an hourly quota.
//
// The bucket is keyed by calendar hour, not a sliding window: a call at
// minute 59 and another at minute 1 of the next hour land in different
// buckets even though only two minutes elapsed. This is an intentional,
// simple, auditable quota, not precise rate control.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/example/foreman/internal/models"
	"github.com/example/foreman/internal/store"
)

// HourKeyFormat renders a time into its calendar-hour bucket key.
const HourKeyFormat = "2006-01-02T15"

// Clock abstracts wall-clock time so tests can roll the hour over without
// sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Limiter is the hourly invocation quota. State is persisted through the
// store so the quota survives process restarts within the same hour.
type Limiter struct {
	store   *store.Store
	ceiling int
	clock   Clock
	out     io.Writer
}

// New creates a limiter with the given hourly ceiling. Countdown output
// during WaitForReset goes to out; pass nil to discard it.
func New(st *store.Store, ceiling int, clock Clock, out io.Writer) *Limiter {
	if clock == nil {
		clock = SystemClock()
	}
	if out == nil {
		out = io.Discard
	}
	return &Limiter{store: st, ceiling: ceiling, clock: clock, out: out}
}

// CanInvoke reports whether another invocation fits in the current hour's
// bucket.
func (l *Limiter) CanInvoke() (bool, error) {
	st, err := l.sync()
	if err != nil {
		return false, err
	}
	return st.CallsThisHour < l.ceiling, nil
}

// RecordInvocation counts one invocation against the current hour.
func (l *Limiter) RecordInvocation() error {
	st, err := l.sync()
	if err != nil {
		return err
	}
	st.CallsThisHour++
	st.SessionCalls++
	return l.store.SaveLimiterState(st)
}

// State returns the current limiter state after hour-rollover sync.
func (l *Limiter) State() (*models.LimiterState, error) {
	return l.sync()
}

// WaitForReset blocks until the wall-clock hour rolls over, printing a
// countdown once a minute, then zeroes the bucket. It returns early only
// when the context is cancelled.
func (l *Limiter) WaitForReset(ctx context.Context) error {
	start := l.clock.Now()
	startKey := start.Format(HourKeyFormat)
	for {
		now := l.clock.Now()
		if now.Format(HourKeyFormat) != startKey {
			st, err := l.sync()
			if err != nil {
				return err
			}
			fmt.Fprintf(l.out, "quota window reset (%d calls available)\n", l.ceiling-st.CallsThisHour)
			return nil
		}

		remaining := nextHour(now).Sub(now)
		fmt.Fprintf(l.out, "hourly quota exhausted (%d/%d); resets in %s\n",
			l.ceiling, l.ceiling, remaining.Round(time.Second))

		tick := remaining
		if tick > time.Minute {
			tick = time.Minute
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(tick):
		}
	}
}

// sync loads the limiter state and rolls the bucket over when the hour key
// no longer matches the clock.
func (l *Limiter) sync() (*models.LimiterState, error) {
	st, err := l.store.LoadLimiterState()
	if err != nil {
		return nil, err
	}
	key := l.clock.Now().Format(HourKeyFormat)
	if st.HourKey != key || st.Ceiling != l.ceiling {
		rolled := st.HourKey != key
		st.HourKey = key
		st.Ceiling = l.ceiling
		if rolled {
			st.CallsThisHour = 0
		}
		if err := l.store.SaveLimiterState(st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
