package core

import "time"

// PollInterval is the sleep granularity of the pacing wait loop.
const PollInterval = 10 * time.Microsecond

// Instant is a point on a monotonic timeline, in microseconds.
type Instant int64

// Add returns t shifted by us microseconds.
func (t Instant) Add(us int64) Instant {
	return t + Instant(us)
}

// Sub returns t-u in microseconds.
func (t Instant) Sub(u Instant) int64 {
	return int64(t - u)
}

// Clock is the monotonic time source used for pacing.
type Clock interface {
	// Now returns the current monotonic time
	Now() Instant

	// SleepFor suspends the caller for at least d
	SleepFor(d time.Duration)
}

// SystemClock is a Clock backed by the runtime monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose zero is the moment of the call.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns microseconds since the clock was created.
func (c *SystemClock) Now() Instant {
	return Instant(time.Since(c.start) / time.Microsecond)
}

// SleepFor sleeps for d.
func (c *SystemClock) SleepFor(d time.Duration) {
	time.Sleep(d)
}

// waitUntil polls the clock until it reaches t, sleeping at most
// PollInterval between polls. This is not a real-time guarantee: the
// wakeup can be late by the scheduler latency of the platform.
func waitUntil(c Clock, t Instant) {
	for {
		remaining := t.Sub(c.Now())
		if remaining <= 0 {
			return
		}
		d := time.Duration(remaining) * time.Microsecond
		if d > PollInterval {
			d = PollInterval
		}
		c.SleepFor(d)
	}
}
