package core

import (
	"context"
	"errors"
	"testing"
)

func TestInterleave(t *testing.T) {
	clock := &fakeClock{}
	pins := newFakePins(clock)
	table, _ := Table(ModeHalfStep)
	cfg := Config{StepsPerSecond: 200, MinSteps: -100, MaxSteps: 100}

	left, err := NewHBridge(pins, clock, HBridgeConfig{Config: cfg, Table: table, Pins: []GPIOPin{0, 1, 2, 3}})
	if err != nil {
		t.Fatalf("NewHBridge failed: %v", err)
	}
	right, err := NewHBridge(pins, clock, HBridgeConfig{Config: cfg, Table: table, Pins: []GPIOPin{4, 5, 6, 7}})
	if err != nil {
		t.Fatalf("NewHBridge failed: %v", err)
	}

	counts, err := Interleave(context.Background(),
		Move{Sequencer: left.Sequencer, Steps: 3},
		Move{Sequencer: right.Sequencer, Steps: -2},
	)
	if err != nil {
		t.Fatalf("Interleave failed: %v", err)
	}
	if len(counts) != 2 || counts[0] != 3 || counts[1] != -2 {
		t.Errorf("Expected counts [3 -2], got %v", counts)
	}

	// Emissions alternate left, right, left, right, left
	var order []GPIOPin
	for i := 0; i < len(pins.writes); i += 4 {
		order = append(order, pins.writes[i].pin)
	}
	want := []GPIOPin{0, 4, 0, 4, 0}
	if len(order) != len(want) {
		t.Fatalf("Expected %d emissions, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Emission %d on pin group %d, want %d", i, order[i], want[i])
		}
	}
	if right.PhaseIndex() != 6 {
		t.Errorf("Expected right phase index 6, got %d", right.PhaseIndex())
	}
}

func TestInterleaveStopsOnError(t *testing.T) {
	clock := &fakeClock{}
	pins := newFakePins(clock)
	table, _ := Table(ModeSingleCoil)
	cfg := Config{StepsPerSecond: 200, MinSteps: -100, MaxSteps: 100}
	a, _ := NewHBridge(pins, clock, HBridgeConfig{Config: cfg, Table: table, Pins: []GPIOPin{0, 1, 2, 3}})
	b, _ := NewHBridge(pins, clock, HBridgeConfig{Config: cfg, Table: table, Pins: []GPIOPin{4, 5, 6, 7}})

	pins.failAt = 5 // first write of b's first step
	counts, err := Interleave(context.Background(),
		Move{Sequencer: a.Sequencer, Steps: 4},
		Move{Sequencer: b.Sequencer, Steps: 4},
	)
	if !errors.Is(err, errBusFault) {
		t.Fatalf("Expected bus fault, got %v", err)
	}
	if counts[0] != 1 || counts[1] != 0 {
		t.Errorf("Expected counts [1 0], got %v", counts)
	}

	if _, err := Interleave(context.Background(), Move{Steps: 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil sequencer, got %v", err)
	}
}
