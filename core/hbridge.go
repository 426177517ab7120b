package core

// HBridgeConfig configures a phase-table sequencer driving an H-bridge.
type HBridgeConfig struct {
	Config

	Table        PhaseTable // Phase table, one vector per state
	Pins         []GPIOPin  // One pin per vector entry, in table order (A, B, a, b)
	InvertLevels bool       // Drive LOW for an active coil
}

// HBridge is a Sequencer that walks a phase table over four (or more)
// output lines.
type HBridge struct {
	*Sequencer
	out *phaseBackend
}

// NewHBridge creates a phase-table sequencer. Inversion and direction
// reversal are applied to the table once, here.
func NewHBridge(pins PinDriver, clock Clock, cfg HBridgeConfig) (*HBridge, error) {
	if pins == nil {
		return nil, configError("nil pin driver")
	}
	if cfg.Table.Len() == 0 {
		return nil, configError("empty phase table")
	}
	if cfg.Table.Mode() == ModeStepDirection {
		return nil, configError("step/direction table needs a StepDir sequencer")
	}
	if len(cfg.Pins) != cfg.Table.Width() {
		return nil, configError("phase table drives " + itoa(cfg.Table.Width()) +
			" lines, got " + itoa(len(cfg.Pins)) + " pins")
	}

	table := cfg.Table
	if cfg.ReverseDirection {
		table = table.Reversed()
	}
	if cfg.InvertLevels {
		table = table.Inverted()
	}

	out := &phaseBackend{
		pins:    pins,
		lines:   append([]GPIOPin(nil), cfg.Pins...),
		table:   table,
		off:     table.OffVector(cfg.InvertLevels),
		forward: true,
	}
	seq, err := newSequencer(out, clock, cfg.Config)
	if err != nil {
		return nil, err
	}
	return &HBridge{Sequencer: seq, out: out}, nil
}

// PhaseIndex returns the index of the most recently emitted phase.
func (h *HBridge) PhaseIndex() int {
	return h.out.index
}

// Table returns the active table, after inversion and reversal.
func (h *HBridge) Table() PhaseTable {
	return h.out.table
}

// OffVector returns the released line state.
func (h *HBridge) OffVector() PhaseVector {
	return h.out.off
}

// phaseBackend emits phase-table vectors.
type phaseBackend struct {
	pins    PinDriver
	lines   []GPIOPin
	table   PhaseTable
	off     PhaseVector
	index   int
	forward bool
}

func (b *phaseBackend) SetDirection(forward bool) error {
	b.forward = forward
	return nil
}

func (b *phaseBackend) Step() error {
	last := b.table.Len() - 1
	next := b.index
	if b.forward {
		if next == last {
			next = 0
		} else {
			next++
		}
	} else {
		if next == 0 {
			next = last
		} else {
			next--
		}
	}
	if err := b.write(b.table.At(next)); err != nil {
		return err
	}
	b.index = next
	return nil
}

func (b *phaseBackend) Wake() error {
	return b.write(b.table.At(b.index))
}

func (b *phaseBackend) Sleep() error {
	return b.write(b.off)
}

func (b *phaseBackend) GetName() string {
	return "hbridge-" + b.table.Mode().String()
}

func (b *phaseBackend) write(v PhaseVector) error {
	for i, line := range b.lines {
		if err := setPin(b.pins, line, v[i]); err != nil {
			return err
		}
	}
	return nil
}
