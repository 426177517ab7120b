package core

// GPIOPin identifies a single output line. For expander-backed drivers
// this is the expander channel number.
type GPIOPin uint32

// PinDriver is the output interface the sequencer drives.
// Implementations that share a bus between several sequencers must
// serialize their own writes.
type PinDriver interface {
	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error
}

// PinError reports a failed line write. The physical motor position is
// unknown after one of these, so callers must not retry blindly.
type PinError struct {
	Pin GPIOPin
	Err error
}

func (e *PinError) Error() string {
	return "pin " + utoa(uint32(e.Pin)) + ": " + e.Err.Error()
}

func (e *PinError) Unwrap() error {
	return e.Err
}

// setPin writes one line and wraps any failure in a PinError.
func setPin(d PinDriver, pin GPIOPin, value bool) error {
	if err := d.SetPin(pin, value); err != nil {
		RecordEvent(EvtPinFault, uint32(pin), 0)
		return &PinError{Pin: pin, Err: err}
	}
	return nil
}
