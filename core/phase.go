package core

// Mode selects one of the built-in phase tables.
type Mode uint8

const (
	ModeSingleCoil    Mode = iota + 1 // full-step, single coil, 4 states
	ModeDualCoil                      // full-step, dual coil, 4 states
	ModeHalfStep                      // half-step, single and dual coil, 8 states
	ModeStepDirection                 // step/direction encoding, 2 states
)

func (m Mode) String() string {
	switch m {
	case ModeSingleCoil:
		return "single"
	case ModeDualCoil:
		return "dual"
	case ModeHalfStep:
		return "half"
	case ModeStepDirection:
		return "stepdir"
	default:
		return "unknown"
	}
}

// PhaseVector is the state of every output line for one phase.
type PhaseVector []bool

// H-bridge tables are ordered (A, B, a, b). For bipolar motors A-a and
// B-b are the two coils; for unipolar motors each entry is one coil.
var (
	singleCoilTable = []PhaseVector{
		{true, false, false, false},
		{false, true, false, false},
		{false, false, true, false},
		{false, false, false, true},
	}

	dualCoilTable = []PhaseVector{
		{true, true, false, false},
		{false, true, true, false},
		{false, false, true, true},
		{true, false, false, true},
	}

	halfStepTable = []PhaseVector{
		{true, true, false, false},
		{false, true, false, false},
		{false, true, true, false},
		{false, false, true, false},
		{false, false, true, true},
		{false, false, false, true},
		{true, false, false, true},
		{true, false, false, false},
	}

	// (step, direction): a forward pulse and a reverse pulse.
	stepDirectionTable = []PhaseVector{
		{true, false},
		{true, true},
	}
)

// PhaseTable is an immutable, non-empty list of equal-width phase vectors.
type PhaseTable struct {
	mode    Mode
	vectors []PhaseVector
}

// Table returns the built-in table for mode.
func Table(mode Mode) (PhaseTable, error) {
	switch mode {
	case ModeSingleCoil:
		return PhaseTable{mode: mode, vectors: singleCoilTable}, nil
	case ModeDualCoil:
		return PhaseTable{mode: mode, vectors: dualCoilTable}, nil
	case ModeHalfStep:
		return PhaseTable{mode: mode, vectors: halfStepTable}, nil
	case ModeStepDirection:
		return PhaseTable{mode: mode, vectors: stepDirectionTable}, nil
	}
	return PhaseTable{}, configError("unknown phase table mode " + itoa(int(mode)))
}

// NewPhaseTable builds a custom table. The vectors are copied.
func NewPhaseTable(vectors ...PhaseVector) (PhaseTable, error) {
	if len(vectors) == 0 {
		return PhaseTable{}, configError("empty phase table")
	}
	width := len(vectors[0])
	if width == 0 {
		return PhaseTable{}, configError("zero-width phase vector")
	}
	out := make([]PhaseVector, len(vectors))
	for i, v := range vectors {
		if len(v) != width {
			return PhaseTable{}, configError("phase vector " + itoa(i) + " has width " +
				itoa(len(v)) + ", want " + itoa(width))
		}
		out[i] = append(PhaseVector(nil), v...)
	}
	return PhaseTable{vectors: out}, nil
}

// Mode reports which built-in table this is, or 0 for a custom table.
func (t PhaseTable) Mode() Mode {
	return t.mode
}

// Len returns the number of phases.
func (t PhaseTable) Len() int {
	return len(t.vectors)
}

// Width returns the number of lines each vector drives.
func (t PhaseTable) Width() int {
	if len(t.vectors) == 0 {
		return 0
	}
	return len(t.vectors[0])
}

// At returns the vector at index i. The result must not be modified.
func (t PhaseTable) At(i int) PhaseVector {
	return t.vectors[i]
}

// Reversed returns the table traversed in the opposite order.
func (t PhaseTable) Reversed() PhaseTable {
	n := len(t.vectors)
	out := make([]PhaseVector, n)
	for i, v := range t.vectors {
		out[n-1-i] = v
	}
	return PhaseTable{mode: t.mode, vectors: out}
}

// Inverted returns the table with every line level complemented.
func (t PhaseTable) Inverted() PhaseTable {
	out := make([]PhaseVector, len(t.vectors))
	for i, v := range t.vectors {
		out[i] = v.complement()
	}
	return PhaseTable{mode: t.mode, vectors: out}
}

// OffVector returns the released state for this table: all lines low,
// or all high when the levels are inverted.
func (t PhaseTable) OffVector(inverted bool) PhaseVector {
	off := make(PhaseVector, t.Width())
	if inverted {
		for i := range off {
			off[i] = true
		}
	}
	return off
}

func (v PhaseVector) complement() PhaseVector {
	out := make(PhaseVector, len(v))
	for i, level := range v {
		out[i] = !level
	}
	return out
}

// Equal reports whether v and w drive the same levels.
func (v PhaseVector) Equal(w PhaseVector) bool {
	if len(v) != len(w) {
		return false
	}
	for i := range v {
		if v[i] != w[i] {
			return false
		}
	}
	return true
}
