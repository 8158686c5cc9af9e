package ratelimit

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/example/foreman/internal/store"
)

// fakeClock advances itself whenever the limiter sleeps, so WaitForReset
// completes without real waiting.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.now = f.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

func newTestLimiter(t *testing.T, ceiling int, clock Clock) *Limiter {
	t.Helper()
	return New(store.New(t.TempDir(), nil), ceiling, clock, nil)
}

func TestLimiter_CanInvokeUnderCeiling(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC)}
	l := newTestLimiter(t, 3, clock)

	for i := 0; i < 2; i++ {
		ok, err := l.CanInvoke()
		if err != nil {
			t.Fatalf("CanInvoke failed: %v", err)
		}
		if !ok {
			t.Fatalf("CanInvoke() = false after %d calls, want true", i)
		}
		if err := l.RecordInvocation(); err != nil {
			t.Fatalf("RecordInvocation failed: %v", err)
		}
	}
}

// Scenario: ceiling 2, two invocations, third denied; after the hour rolls
// over the counter is zero and invocation is allowed again.
func TestLimiter_CeilingAndRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 10, 59, 0, 0, time.UTC)}
	l := newTestLimiter(t, 2, clock)

	for i := 0; i < 2; i++ {
		if err := l.RecordInvocation(); err != nil {
			t.Fatalf("RecordInvocation failed: %v", err)
		}
	}
	ok, err := l.CanInvoke()
	if err != nil {
		t.Fatalf("CanInvoke failed: %v", err)
	}
	if ok {
		t.Fatal("CanInvoke() = true at ceiling, want false")
	}

	// Two minutes later: different calendar hour, fresh bucket.
	clock.now = clock.now.Add(2 * time.Minute)
	ok, err = l.CanInvoke()
	if err != nil {
		t.Fatalf("CanInvoke failed: %v", err)
	}
	if !ok {
		t.Fatal("CanInvoke() = false after rollover, want true")
	}
	st, err := l.State()
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.CallsThisHour != 0 {
		t.Errorf("CallsThisHour = %d after rollover, want 0", st.CallsThisHour)
	}
	if st.SessionCalls != 2 {
		t.Errorf("SessionCalls = %d, want 2 (rollover must not reset it)", st.SessionCalls)
	}
}

func TestLimiter_WaitForReset(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 10, 58, 30, 0, time.UTC)}
	l := newTestLimiter(t, 1, clock)

	if err := l.RecordInvocation(); err != nil {
		t.Fatal(err)
	}
	if err := l.WaitForReset(context.Background()); err != nil {
		t.Fatalf("WaitForReset failed: %v", err)
	}

	ok, err := l.CanInvoke()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("CanInvoke() = false after WaitForReset, want true")
	}
}

func TestLimiter_WaitForResetCancelled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(t, 1, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.WaitForReset(ctx); err == nil {
		t.Error("WaitForReset with cancelled context returned nil error")
	}
}

func TestLimiter_CorruptStateRecreated(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(t, 5, clock)

	// No state document exists yet; the limiter must start from zero.
	st, err := l.State()
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.CallsThisHour != 0 {
		t.Errorf("fresh limiter CallsThisHour = %d, want 0", st.CallsThisHour)
	}
	if st.Ceiling != 5 {
		t.Errorf("fresh limiter Ceiling = %d, want 5", st.Ceiling)
	}
}

// Property: strictly under the ceiling CanInvoke is true; at the ceiling it
// is false; after any hour rollover it is true again with a zero counter.
func TestLimiter_QuotaProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ceiling := rapid.IntRange(1, 10).Draw(rt, "ceiling")
		calls := rapid.IntRange(0, 15).Draw(rt, "calls")

		clock := &fakeClock{now: time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)}
		l := New(store.New(t.TempDir(), nil), ceiling, clock, nil)

		for i := 0; i < calls; i++ {
			if err := l.RecordInvocation(); err != nil {
				rt.Fatalf("RecordInvocation failed: %v", err)
			}
		}

		ok, err := l.CanInvoke()
		if err != nil {
			rt.Fatalf("CanInvoke failed: %v", err)
		}
		if want := calls < ceiling; ok != want {
			rt.Fatalf("CanInvoke() = %v with %d/%d calls, want %v", ok, calls, ceiling, want)
		}

		clock.now = clock.now.Add(time.Hour)
		ok, err = l.CanInvoke()
		if err != nil {
			rt.Fatalf("CanInvoke after rollover failed: %v", err)
		}
		if !ok {
			rt.Fatalf("CanInvoke() = false after rollover")
		}
	})
}
