package visualiser

import "time"

// DefaultMaxLagTicks is how many step intervals the limiter may fall behind before it stops
// catching up and resynchronizes to the current time.
const DefaultMaxLagTicks = 5

// StepLimiter caps a loop to a fixed number of iterations per second.
//
// The next tick time accumulates by whole intervals so the average rate holds even when single
// steps run long. After a stall longer than maxLagTicks intervals the schedule restarts from
// now instead of bursting through the missed ticks.
type StepLimiter struct {
	interval    time.Duration
	maxLagTicks int
	next        time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewStepLimiter creates a limiter for the given rate. A rate <= 0 disables limiting.
//
// Parameters:
//   - stepsPerSecond: the target rate
//
// Returns:
//   - *StepLimiter: the limiter
func NewStepLimiter(stepsPerSecond float64) *StepLimiter {
	l := &StepLimiter{
		maxLagTicks: DefaultMaxLagTicks,
		now:         time.Now,
		sleep:       time.Sleep,
	}
	if stepsPerSecond > 0 {
		l.interval = time.Duration(float64(time.Second) / stepsPerSecond)
	}
	return l
}

// Interval returns the time between ticks, 0 when unlimited.
func (l *StepLimiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the next tick is due.
func (l *StepLimiter) Wait() {
	if l.interval <= 0 {
		return
	}
	now := l.now()
	if l.next.IsZero() {
		l.next = now
	}
	l.next = l.next.Add(l.interval)

	if behind := now.Sub(l.next); behind >= 0 {
		if behind > time.Duration(l.maxLagTicks)*l.interval {
			l.next = now
		}
		return
	}
	l.sleep(l.next.Sub(now))
}
