package core

import (
	"context"
	"errors"
	"testing"
)

const (
	stepPin   GPIOPin = 2
	dirPin    GPIOPin = 3
	enablePin GPIOPin = 4
)

func newTestStepDir(t *testing.T, mutate func(*StepDirConfig)) (*StepDir, *fakePins, *fakeClock) {
	t.Helper()
	cfg := StepDirConfig{
		Config: Config{
			StepsPerSecond: 200,
			MinSteps:       DefaultMinSteps,
			MaxSteps:       DefaultMaxSteps,
		},
		StepPin:   stepPin,
		DirPin:    dirPin,
		EnablePin: enablePin,
		UseEnable: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	clock := &fakeClock{}
	pins := newFakePins(clock)
	d, err := NewStepDir(pins, clock, cfg)
	if err != nil {
		t.Fatalf("NewStepDir failed: %v", err)
	}
	return d, pins, clock
}

func TestStepDirInitialLines(t *testing.T) {
	_, pins, _ := newTestStepDir(t, nil)
	if pins.levels[stepPin] || pins.levels[dirPin] || pins.levels[enablePin] {
		t.Errorf("Expected step, dir and enable low, got %v", pins.levels)
	}

	_, pins, _ = newTestStepDir(t, func(cfg *StepDirConfig) {
		cfg.StartAsleep = true
		cfg.ReverseDirection = true
	})
	if !pins.levels[enablePin] {
		t.Error("Expected enable high (disabled) when starting asleep")
	}
	if !pins.levels[dirPin] {
		t.Error("Expected reversed forward direction to be high")
	}
}

func TestStepDirPulses(t *testing.T) {
	d, pins, _ := newTestStepDir(t, nil)

	count, err := d.Step(5, 0, false)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected step count 5, got %d", count)
	}
	edges := pins.risingEdges(stepPin)
	if len(edges) != 5 {
		t.Fatalf("Expected 5 step pulses, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if d := edges[i].Sub(edges[i-1]); d != 5000 {
			t.Errorf("Pulse %d spaced %dus, want 5000", i, d)
		}
	}
	if pins.levels[stepPin] {
		t.Error("Step line left high")
	}
	if pins.levels[dirPin] {
		t.Error("Expected forward direction (low)")
	}

	count, _ = d.Step(-3, 0, false)
	if count != 2 {
		t.Errorf("Expected step count 2, got %d", count)
	}
	if !pins.levels[dirPin] {
		t.Error("Expected reverse direction (high)")
	}
	if got := len(pins.risingEdges(stepPin)); got != 8 {
		t.Errorf("Expected 8 pulses total, got %d", got)
	}
}

func TestStepDirEnableLine(t *testing.T) {
	d, pins, _ := newTestStepDir(t, func(cfg *StepDirConfig) {
		cfg.StartAsleep = true
	})

	d.Step(1, 0, false)
	if pins.levels[enablePin] || !d.Awake() {
		t.Error("Expected Step to assert enable (low)")
	}

	d.Step(1, 0, true)
	if !pins.levels[enablePin] || d.Awake() {
		t.Error("Expected sleepAfter to deassert enable (high)")
	}
}

func TestStepDirWithoutEnable(t *testing.T) {
	d, pins, _ := newTestStepDir(t, func(cfg *StepDirConfig) {
		cfg.UseEnable = false
	})
	if err := d.Sleep(); err != nil {
		t.Fatalf("Sleep failed: %v", err)
	}
	if _, ok := pins.levels[enablePin]; ok {
		t.Error("Enable pin written although not wired")
	}
	if d.Awake() {
		t.Error("Expected sequencer asleep")
	}
}

func TestStepDirClamp(t *testing.T) {
	d, pins, _ := newTestStepDir(t, func(cfg *StepDirConfig) {
		cfg.MinSteps = -10
		cfg.MaxSteps = 10
	})
	count, _ := d.Step(15, 0, false)
	if count != 10 {
		t.Errorf("Expected step count 10, got %d", count)
	}
	if got := len(pins.risingEdges(stepPin)); got != 10 {
		t.Errorf("Expected 10 pulses, got %d", got)
	}
}

func TestBeep(t *testing.T) {
	d, pins, _ := newTestStepDir(t, nil)
	d.Step(7, 0, false)
	base := len(pins.writes)

	count, err := d.Beep(440, 250, 0, false)
	if err != nil {
		t.Fatalf("Beep failed: %v", err)
	}
	if count != 7 || d.StepCount() != 7 {
		t.Errorf("Beep changed step count to %d", count)
	}

	forward, backward := 0, 0
	dir := pins.levels[dirPin]
	var edges []Instant
	for _, w := range pins.writes[base:] {
		switch {
		case w.pin == dirPin:
			dir = w.value
		case w.pin == stepPin && w.value:
			edges = append(edges, w.at)
			if dir {
				backward++
			} else {
				forward++
			}
		}
	}
	// half period = round(500000/440) = 1136us, cycles = round(250*500/1136) = 110
	if forward != 110 || backward != 110 {
		t.Errorf("Expected 110 forward and 110 backward pulses, got %d and %d", forward, backward)
	}
	for i := 1; i < len(edges); i++ {
		if d := edges[i].Sub(edges[i-1]); d != 1136 {
			t.Fatalf("Beep pulse %d spaced %dus, want 1136", i, d)
		}
	}
}

func TestBeepPauseAndSleep(t *testing.T) {
	d, pins, clock := newTestStepDir(t, nil)

	d.Beep(1000, 0, 50, true)
	if d.Awake() || !pins.levels[enablePin] {
		t.Error("Expected Beep sleepAfter to disable the driver")
	}
	if clock.Now() < 50000 {
		t.Errorf("Expected a 50ms pause, clock at %dus", clock.Now())
	}
}

func TestStepDirPinFailure(t *testing.T) {
	d, pins, _ := newTestStepDir(t, nil)
	// Each pulse is two writes after one direction write
	pins.failAt = len(pins.writes) + 1 + 2*3 + 1

	count, err := d.Step(6, 0, false)
	var pinErr *PinError
	if !errors.As(err, &pinErr) || pinErr.Pin != stepPin {
		t.Fatalf("Expected PinError on step pin, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 completed steps, got %d", count)
	}
}

func TestBeepCancelFinishesCycle(t *testing.T) {
	d, pins, _ := newTestStepDir(t, nil)
	base := len(pins.writes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel as the first forward pulse goes out
	pins.onWrite = func(n int) {
		if n == base+2 {
			cancel()
		}
	}

	count, err := d.BeepContext(ctx, 440, 250, 0, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected step count 0, got %d", count)
	}
	if got := len(pins.risingEdges(stepPin)); got != 2 {
		t.Errorf("Expected one forward and one backward pulse, got %d pulses", got)
	}
	if !pins.levels[dirPin] {
		t.Error("Expected the last pulse to be backward")
	}
}

func TestBeepFailureCountsStrandedStep(t *testing.T) {
	d, pins, _ := newTestStepDir(t, nil)
	// Forward half is dir, step high, step low; fail the backward dir write
	pins.failAt = len(pins.writes) + 4

	count, err := d.Beep(440, 250, 0, false)
	if !errors.Is(err, errBusFault) {
		t.Fatalf("Expected bus fault, got %v", err)
	}
	if count != 1 || d.StepCount() != 1 {
		t.Errorf("Expected step count 1, got %d", count)
	}
}

func TestBeepAtUpperBoundStartsBackward(t *testing.T) {
	d, pins, _ := newTestStepDir(t, func(cfg *StepDirConfig) {
		cfg.MinSteps = -10
		cfg.MaxSteps = 10
	})
	if count, _ := d.Step(10, 0, false); count != 10 {
		t.Fatalf("Expected step count 10, got %d", count)
	}
	pins.failAt = len(pins.writes) + 4

	count, err := d.Beep(440, 250, 0, false)
	if !errors.Is(err, errBusFault) {
		t.Fatalf("Expected bus fault, got %v", err)
	}
	if count != 9 {
		t.Errorf("Expected step count 9, got %d", count)
	}
}
