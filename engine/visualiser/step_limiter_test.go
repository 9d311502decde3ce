package visualiser

import (
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps or the test says so.
type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func newFakeLimiter(rate float64) (*StepLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := NewStepLimiter(rate)
	l.now = clock.now
	l.sleep = clock.sleep
	return l, clock
}

func TestStepLimiterUnlimited(t *testing.T) {
	l, clock := newFakeLimiter(0)
	for i := 0; i < 10; i++ {
		l.Wait()
	}
	if len(clock.slept) != 0 {
		t.Errorf("unlimited limiter slept %d times", len(clock.slept))
	}
}

func TestStepLimiterHoldsRate(t *testing.T) {
	l, clock := newFakeLimiter(100)
	start := clock.t
	for i := 0; i < 100; i++ {
		clock.t = clock.t.Add(3 * time.Millisecond) // the step's own work
		l.Wait()
	}
	// The schedule starts at the first Wait, after the first step's work.
	if got := clock.t.Sub(start); got != time.Second+3*time.Millisecond {
		t.Errorf("100 steps at 100/s took %v, want 1.003s", got)
	}
}

func TestStepLimiterCatchesUpShortStalls(t *testing.T) {
	l, clock := newFakeLimiter(100)
	l.Wait()
	clock.slept = nil

	// Three intervals late: the next three waits return immediately.
	clock.t = clock.t.Add(30 * time.Millisecond)
	l.Wait()
	l.Wait()
	l.Wait()
	if len(clock.slept) != 0 {
		t.Fatalf("slept %v while behind schedule", clock.slept)
	}
	l.Wait()
	if len(clock.slept) != 1 {
		t.Errorf("expected a sleep once caught up, got %v", clock.slept)
	}
}

func TestStepLimiterResyncsAfterLongStall(t *testing.T) {
	l, clock := newFakeLimiter(100)
	l.Wait()

	clock.t = clock.t.Add(time.Second)
	l.Wait()
	clock.slept = nil

	// After resync the very next wait sleeps a full interval instead of bursting.
	l.Wait()
	if len(clock.slept) != 1 || clock.slept[0] != 10*time.Millisecond {
		t.Errorf("slept %v, want one 10ms sleep", clock.slept)
	}
}
