package core

// Stepper step sequencing and pacing.
// A Sequencer owns a saturating step counter and paces a StepperBackend
// against a monotonic clock. Pacing is a poll-and-sleep loop, not a hard
// real-time guarantee.

import (
	"context"
)

// Defaults used by configuration loaders. The core never substitutes
// these for invalid values.
const (
	DefaultStepsPerSecond = 200
	DefaultMaxSteps       = 10240
	DefaultMinSteps       = -10240
)

// Config holds the options shared by every sequencer variant.
type Config struct {
	StepsPerSecond   int  // Default rate when Step is called with 0
	MinSteps         int  // Lower bound of the step counter, <= 0
	MaxSteps         int  // Upper bound of the step counter, >= 0
	ReverseDirection bool // Swap forward and backward once at construction
	StartAsleep      bool // Begin with outputs released
}

func (c Config) validate() error {
	if c.StepsPerSecond <= 0 {
		return configError("steps per second must be positive, got " + itoa(c.StepsPerSecond))
	}
	if c.MinSteps > c.MaxSteps {
		return configError("min steps " + itoa(c.MinSteps) + " exceeds max steps " + itoa(c.MaxSteps))
	}
	if c.MinSteps > 0 || c.MaxSteps < 0 {
		return configError("step bounds must contain zero")
	}
	return nil
}

// Sequencer paces unit steps through a backend and tracks the absolute
// step count. It is not safe for concurrent use.
type Sequencer struct {
	backend StepperBackend
	clock   Clock

	sps      int
	minSteps int
	maxSteps int

	// State
	stepCount int     // Current position in steps (signed)
	lastEmit  Instant // Time of the most recent paced emission
	awake     bool
}

func newSequencer(backend StepperBackend, clock Clock, cfg Config) (*Sequencer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		return nil, configError("nil clock")
	}
	return &Sequencer{
		backend:  backend,
		clock:    clock,
		sps:      cfg.StepsPerSecond,
		minSteps: cfg.MinSteps,
		maxSteps: cfg.MaxSteps,
		lastEmit: clock.Now(),
		awake:    !cfg.StartAsleep,
	}, nil
}

// StepCount returns the current step count.
func (s *Sequencer) StepCount() int {
	return s.stepCount
}

// Awake reports whether the outputs are energized.
func (s *Sequencer) Awake() bool {
	return s.awake
}

// Bounds returns the configured step count limits.
func (s *Sequencer) Bounds() (lo, hi int) {
	return s.minSteps, s.maxSteps
}

// Backend returns the output strategy this sequencer drives.
func (s *Sequencer) Backend() StepperBackend {
	return s.backend
}

// Zero resets the step count. Outputs are not touched.
func (s *Sequencer) Zero() {
	s.stepCount = 0
}

// Sleep releases the outputs immediately, without pacing.
func (s *Sequencer) Sleep() error {
	if err := s.backend.Sleep(); err != nil {
		return err
	}
	s.awake = false
	RecordEvent(EvtSleep, 0, 0)
	return nil
}

// Wake energizes the outputs at the current position, without pacing.
func (s *Sequencer) Wake() error {
	if err := s.backend.Wake(); err != nil {
		return err
	}
	s.awake = true
	RecordEvent(EvtWake, 0, 0)
	return nil
}

// Interval returns the time between steps in microseconds for the given
// rate. A zero rate selects the configured default; anything below one
// step per second is treated as one.
func (s *Sequencer) Interval(stepsPerSecond int) int64 {
	if stepsPerSecond == 0 {
		stepsPerSecond = s.sps
	}
	if stepsPerSecond < 1 {
		stepsPerSecond = 1
	}
	return roundDiv(1000000, int64(stepsPerSecond))
}

// Step moves the motor by steps (negative for reverse) at stepsPerSecond
// (0 for the configured default) and returns the new step count.
// Requests that would leave the configured bounds are clamped silently.
// Step blocks until every step has been emitted.
func (s *Sequencer) Step(steps, stepsPerSecond int, sleepAfter bool) (int, error) {
	return s.StepContext(context.Background(), steps, stepsPerSecond, sleepAfter)
}

// StepContext is Step with cooperative cancellation: ctx is checked before
// each emission. Steps emitted before a cancellation or a pin failure stay
// applied to the step count.
func (s *Sequencer) StepContext(ctx context.Context, steps, stepsPerSecond int, sleepAfter bool) (int, error) {
	if !s.awake {
		if err := s.Wake(); err != nil {
			return s.stepCount, err
		}
	}

	interval := s.Interval(stepsPerSecond)
	effective := s.clamp(steps)
	if effective != steps {
		RecordEvent(EvtSaturate, uint32(int32(steps)), uint32(int32(effective)))
	}

	dir := 1
	count := uint(effective)
	if effective < 0 {
		dir = -1
		count = uint(-effective)
	}
	if err := s.backend.SetDirection(dir > 0); err != nil {
		return s.stepCount, err
	}

	next := s.schedule(interval)
	for i := uint(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			s.stepCount += int(i) * dir
			RecordEvent(EvtCancel, uint32(i), uint32(int32(s.stepCount)))
			return s.stepCount, err
		}
		if err := s.emitAt(next, s.backend.Step); err != nil {
			s.stepCount += int(i) * dir
			return s.stepCount, err
		}
		RecordEvent(EvtEmit, uint32(i), uint32(int32(s.stepCount+int(i+1)*dir)))
		next = next.Add(interval)
	}
	s.stepCount += effective

	if sleepAfter {
		if err := s.Sleep(); err != nil {
			return s.stepCount, err
		}
	}
	return s.stepCount, nil
}

// clamp limits a request so the step count stays within bounds. The
// distances to the bounds are taken as unsigned values so that bounds at
// the ends of the int range cannot overflow.
func (s *Sequencer) clamp(steps int) int {
	if steps < 0 {
		room := uint(s.stepCount) - uint(s.minSteps)
		if uint(-steps) > room {
			return -int(room)
		}
		return steps
	}
	room := uint(s.maxSteps) - uint(s.stepCount)
	if uint(steps) > room {
		return int(room)
	}
	return steps
}

// schedule returns the first emission time for a run paced at interval.
// A run issued soon after the previous one continues its cadence rather
// than starting immediately.
func (s *Sequencer) schedule(interval int64) Instant {
	now := s.clock.Now()
	due := s.lastEmit.Add(interval)
	if now >= due {
		return now
	}
	return due
}

// emitAt waits for at, then runs emit. The emission start time becomes
// the pacing reference for the next run.
func (s *Sequencer) emitAt(at Instant, emit func() error) error {
	waitUntil(s.clock, at)
	start := s.clock.Now()
	if err := emit(); err != nil {
		return err
	}
	s.lastEmit = start
	return nil
}

// roundDiv returns n/d rounded half away from zero, for positive d.
func roundDiv(n, d int64) int64 {
	if n < 0 {
		return -((-n + d/2) / d)
	}
	return (n + d/2) / d
}
