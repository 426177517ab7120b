package core

import (
	"context"
	"time"
)

// PulseWidth is how long the step line is held high. A4988-class drivers
// need at least 1us.
const PulseWidth = 10 * time.Microsecond

// StepDirConfig configures a sequencer for step/direction driver chips.
type StepDirConfig struct {
	Config

	StepPin   GPIOPin
	DirPin    GPIOPin
	EnablePin GPIOPin // Active low: high disables the driver
	UseEnable bool    // Set when EnablePin is wired
}

// StepDir is a Sequencer that pulses a step line and sets a direction
// line once per run. Sleep and Wake drive the enable line.
type StepDir struct {
	*Sequencer
	out *stepDirBackend
}

// NewStepDir creates a step/direction sequencer. The step line is driven
// low, the direction line to forward, and the enable line to match
// StartAsleep.
func NewStepDir(pins PinDriver, clock Clock, cfg StepDirConfig) (*StepDir, error) {
	if pins == nil {
		return nil, configError("nil pin driver")
	}
	table, _ := Table(ModeStepDirection)
	if cfg.ReverseDirection {
		table = table.Reversed()
	}
	out := &stepDirBackend{
		pins:      pins,
		clock:     clock,
		stepPin:   cfg.StepPin,
		dirPin:    cfg.DirPin,
		enablePin: cfg.EnablePin,
		useEnable: cfg.UseEnable,
		forward:   table.At(0)[1],
		reverse:   table.At(1)[1],
	}
	seq, err := newSequencer(out, clock, cfg.Config)
	if err != nil {
		return nil, err
	}

	if err := setPin(pins, out.stepPin, false); err != nil {
		return nil, err
	}
	if err := out.SetDirection(true); err != nil {
		return nil, err
	}
	if cfg.StartAsleep {
		err = seq.Sleep()
	} else {
		err = seq.Wake()
	}
	if err != nil {
		return nil, err
	}
	return &StepDir{Sequencer: seq, out: out}, nil
}

// Beep uses the motor as a speaker: it oscillates one step forward and
// one step back at frequencyHz for durationMs, then pauses for pauseMs.
// The step count is unchanged and returned.
func (d *StepDir) Beep(frequencyHz, durationMs, pauseMs int, sleepAfter bool) (int, error) {
	return d.BeepContext(context.Background(), frequencyHz, durationMs, pauseMs, sleepAfter)
}

// BeepContext is Beep with cooperative cancellation. ctx is checked
// between cycles, so a cancelled beep returns the motor to where it
// started. A pin failure between the two pulses of a cycle leaves the
// motor one step off, and the returned count includes that step.
func (d *StepDir) BeepContext(ctx context.Context, frequencyHz, durationMs, pauseMs int, sleepAfter bool) (int, error) {
	s := d.Sequencer
	if frequencyHz < 1 {
		frequencyHz = 1
	}
	// Each cycle is a forward and a backward pulse, so both are paced
	// at half the audio period.
	half := roundDiv(500000, int64(frequencyHz))
	cycles := int(roundDiv(int64(durationMs)*500, half))
	if cycles < 0 {
		cycles = 0
	}
	RecordEvent(EvtBeep, uint32(half), uint32(cycles))

	if !s.awake {
		if err := s.Wake(); err != nil {
			return s.stepCount, err
		}
	}

	// The first pulse of each cycle moves away from the nearer bound, so a
	// cycle cut short still leaves the count within bounds.
	first := s.stepCount < s.maxSteps
	next := s.schedule(half)
	for i := 0; i < cycles; i++ {
		if err := ctx.Err(); err != nil {
			return s.stepCount, err
		}
		for n, forward := range [2]bool{first, !first} {
			err := d.out.SetDirection(forward)
			if err == nil {
				err = s.emitAt(next, d.out.Step)
			}
			if err != nil {
				if n == 1 {
					// Stranded one step away from the cycle's start
					if first {
						s.stepCount += s.clamp(1)
					} else {
						s.stepCount += s.clamp(-1)
					}
				}
				return s.stepCount, err
			}
			next = next.Add(half)
		}
	}

	if sleepAfter {
		if err := s.Sleep(); err != nil {
			return s.stepCount, err
		}
	}
	if pauseMs > 0 {
		s.clock.SleepFor(time.Duration(pauseMs) * time.Millisecond)
	}
	return s.stepCount, nil
}

// stepDirBackend pulses a step line for each unit step.
type stepDirBackend struct {
	pins      PinDriver
	clock     Clock
	stepPin   GPIOPin
	dirPin    GPIOPin
	enablePin GPIOPin
	useEnable bool

	// Direction line levels, fixed at construction
	forward bool
	reverse bool
}

func (b *stepDirBackend) SetDirection(forward bool) error {
	level := b.reverse
	if forward {
		level = b.forward
	}
	return setPin(b.pins, b.dirPin, level)
}

func (b *stepDirBackend) Step() error {
	if err := setPin(b.pins, b.stepPin, true); err != nil {
		return err
	}
	b.clock.SleepFor(PulseWidth)
	return setPin(b.pins, b.stepPin, false)
}

func (b *stepDirBackend) Wake() error {
	if !b.useEnable {
		return nil
	}
	return setPin(b.pins, b.enablePin, false)
}

func (b *stepDirBackend) Sleep() error {
	if !b.useEnable {
		return nil
	}
	return setPin(b.pins, b.enablePin, true)
}

func (b *stepDirBackend) GetName() string {
	return "stepdir"
}
