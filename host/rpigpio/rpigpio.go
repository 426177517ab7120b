// Package rpigpio drives Raspberry Pi header GPIO lines through
// /dev/gpiomem using go-rpio.
package rpigpio

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stianeikeland/go-rpio/v4"

	"gostep/core"
)

// MaxPin is the highest BCM GPIO number on the BCM283x
const MaxPin = 53

// outputPin is the part of rpio.Pin the driver uses
type outputPin interface {
	Output()
	High()
	Low()
}

// Driver implements core.PinDriver for BCM GPIO numbers. Each pin is
// switched to output mode on first use.
type Driver struct {
	mu     sync.Mutex
	pins   map[core.GPIOPin]outputPin
	newPin func(core.GPIOPin) outputPin
	close  func() error
	log    logrus.FieldLogger
}

// Open maps the GPIO registers and returns a driver
func Open(log logrus.FieldLogger) (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpigpio: %w", err)
	}
	d := newDriver(func(p core.GPIOPin) outputPin { return rpio.Pin(p) }, rpio.Close, log)
	return d, nil
}

func newDriver(newPin func(core.GPIOPin) outputPin, close func() error, log logrus.FieldLogger) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{
		pins:   make(map[core.GPIOPin]outputPin),
		newPin: newPin,
		close:  close,
		log:    log,
	}
}

// SetPin drives a BCM GPIO line
func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	if pin > MaxPin {
		return fmt.Errorf("rpigpio: pin %d out of range 0-%d", pin, MaxPin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pins[pin]
	if !ok {
		p = d.newPin(pin)
		p.Output()
		d.pins[pin] = p
		d.log.WithField("pin", pin).Debug("configured output")
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Close drives every used line low, releasing the coils, and unmaps the
// GPIO registers
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for pin, p := range d.pins {
		p.Low()
		d.log.WithField("pin", pin).Debug("released output")
	}
	d.pins = make(map[core.GPIOPin]outputPin)
	return d.close()
}
