// Package expander drives a PCA9685 16-channel PWM expander as a bank of
// digital output lines.
//
// Each channel is either fully on or fully off; the duty-cycle registers
// are never used for partial values. Several sequencers may share one
// Device: writes are serialized internally.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCA9685.pdf
package expander

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"gostep/core"
)

const (
	DefaultAddress   = 0x40
	DefaultFrequency = 50 // Hz
	Channels         = 16

	oscillatorHz = 25000000
)

// Registers
const (
	regMode1     = 0x00
	regMode2     = 0x01
	regLED0OnL   = 0x06
	regAllOffH   = 0xFD
	regPrescale  = 0xFE
	mode1Restart = 0x80
	mode1AutoInc = 0x20
	mode1Sleep   = 0x10
	mode2OutDrv  = 0x04
	fullBit      = 0x10 // bit 4 of ON_H / OFF_H
)

// ErrInvalidChannel is returned for channels outside 0-15.
var ErrInvalidChannel = errors.New("pca9685: invalid channel")

// Config selects the device address and PWM frequency.
type Config struct {
	Address   uint8
	Frequency uint32
}

// Device is a PCA9685 on an I2C bus.
type Device struct {
	mu   sync.Mutex
	bus  drivers.I2C
	addr uint16
	buf  [5]byte
}

var _ core.PinDriver = (*Device)(nil)

// New creates a driver on the specified preconfigured I2C bus.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: DefaultAddress}
}

// Configure sets the prescaler and wakes the oscillator with register
// auto-increment enabled.
func (d *Device) Configure(c Config) error {
	if c.Address == 0 {
		c.Address = DefaultAddress
	}
	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.addr = uint16(c.Address)

	// The prescaler can only be written while asleep
	if err := d.writeReg(regMode1, mode1Sleep|mode1AutoInc); err != nil {
		return err
	}
	if err := d.writeReg(regPrescale, Prescale(c.Frequency)); err != nil {
		return err
	}
	if err := d.writeReg(regMode2, mode2OutDrv); err != nil {
		return err
	}
	if err := d.writeReg(regMode1, mode1AutoInc); err != nil {
		return err
	}
	// Oscillator needs 500us to stabilize before restart
	time.Sleep(500 * time.Microsecond)
	return d.writeReg(regMode1, mode1Restart|mode1AutoInc)
}

// Prescale returns the PRE_SCALE register value for a PWM frequency.
func Prescale(frequency uint32) uint8 {
	if frequency == 0 {
		frequency = DefaultFrequency
	}
	div := uint32(4096) * frequency
	p := (oscillatorHz+div/2)/div - 1
	if p < 3 {
		return 3
	}
	if p > 255 {
		return 255
	}
	return uint8(p)
}

// SetPin drives a channel fully on or fully off.
func (d *Device) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= Channels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, pin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	reg := regLED0OnL + 4*uint8(pin)
	d.buf = [5]byte{reg, 0, 0, 0, fullBit}
	if value {
		d.buf = [5]byte{reg, 0, fullBit, 0, 0}
	}
	return d.bus.Tx(d.addr, d.buf[:], nil)
}

// AllOff forces every channel fully off.
func (d *Device) AllOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(regAllOffH, fullBit)
}

func (d *Device) writeReg(reg, value uint8) error {
	buf := [2]byte{reg, value}
	return d.bus.Tx(d.addr, buf[:], nil)
}
