package core

import (
	"errors"
	"testing"
)

func TestBuiltinTables(t *testing.T) {
	testCases := []struct {
		mode  Mode
		len   int
		width int
	}{
		{ModeSingleCoil, 4, 4},
		{ModeDualCoil, 4, 4},
		{ModeHalfStep, 8, 4},
		{ModeStepDirection, 2, 2},
	}

	for _, tc := range testCases {
		table, err := Table(tc.mode)
		if err != nil {
			t.Fatalf("Table(%v) failed: %v", tc.mode, err)
		}
		if table.Len() != tc.len || table.Width() != tc.width {
			t.Errorf("%v: expected %dx%d, got %dx%d", tc.mode, tc.len, tc.width, table.Len(), table.Width())
		}
		if table.Mode() != tc.mode {
			t.Errorf("%v: table reports mode %v", tc.mode, table.Mode())
		}
	}

	if _, err := Table(Mode(42)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown mode, got %v", err)
	}
}

func TestHalfStepAlternatesCoilCount(t *testing.T) {
	table, _ := Table(ModeHalfStep)
	for i := 0; i < table.Len(); i++ {
		active := 0
		for _, level := range table.At(i) {
			if level {
				active++
			}
		}
		want := 2
		if i%2 == 1 {
			want = 1
		}
		if active != want {
			t.Errorf("Half-step phase %d energizes %d coils, want %d", i, active, want)
		}
	}
}

func TestReversedAndInverted(t *testing.T) {
	table, _ := Table(ModeDualCoil)
	rev := table.Reversed()
	for i := 0; i < table.Len(); i++ {
		if !rev.At(i).Equal(table.At(table.Len() - 1 - i)) {
			t.Errorf("Reversed phase %d = %v, want %v", i, rev.At(i), table.At(table.Len()-1-i))
		}
	}

	inv := table.Inverted()
	for i := 0; i < table.Len(); i++ {
		for j, level := range table.At(i) {
			if inv.At(i)[j] == level {
				t.Errorf("Inverted phase %d line %d not complemented", i, j)
			}
		}
	}

	// The source table must not change
	if !table.At(0).Equal(PhaseVector{true, true, false, false}) {
		t.Errorf("Source table modified: %v", table.At(0))
	}
}

func TestOffVector(t *testing.T) {
	table, _ := Table(ModeSingleCoil)
	if !table.OffVector(false).Equal(PhaseVector{false, false, false, false}) {
		t.Errorf("Unexpected off vector %v", table.OffVector(false))
	}
	if !table.OffVector(true).Equal(PhaseVector{true, true, true, true}) {
		t.Errorf("Unexpected inverted off vector %v", table.OffVector(true))
	}
}

func TestNewPhaseTable(t *testing.T) {
	if _, err := NewPhaseTable(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for empty table, got %v", err)
	}
	if _, err := NewPhaseTable(PhaseVector{true, false}, PhaseVector{true}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for ragged table, got %v", err)
	}

	src := PhaseVector{true, false, false, true}
	table, err := NewPhaseTable(src, PhaseVector{false, true, true, false})
	if err != nil {
		t.Fatalf("NewPhaseTable failed: %v", err)
	}
	src[0] = false
	if !table.At(0)[0] {
		t.Error("NewPhaseTable did not copy its input")
	}
	if table.Mode() != 0 {
		t.Errorf("Custom table reports mode %v", table.Mode())
	}
}
