package core

// StepperBackend is the output strategy a Sequencer paces.
// Two implementations exist: a phase-table backend for H-bridge drivers
// and a step/direction backend for pulse-driven driver chips.
type StepperBackend interface {
	// SetDirection prepares the outputs for the next run of steps.
	// Called once per run, before pacing starts.
	SetDirection(forward bool) error

	// Step emits exactly one unit step in the prepared direction.
	// Must leave internal state unchanged if the emission fails.
	Step() error

	// Wake energizes the outputs at the current position
	Wake() error

	// Sleep releases the outputs. The released state is variant specific:
	// an off-vector for phase tables, a deasserted enable line for
	// step/direction drivers.
	Sleep() error

	// GetName returns backend implementation name
	GetName() string
}
