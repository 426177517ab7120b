// Package serialgpio drives the outputs of USB GPIO boards that take
// ASCII commands ("gpio set 4\r", "gpio clear A\r") over a serial port.
package serialgpio

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"gostep/core"
	"gostep/host/serial"
)

// MaxPins is the number of addressable lines. Indices above 9 use the
// letters A through V.
const MaxPins = 32

const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUV"

// Driver implements core.PinDriver on top of a serial port
type Driver struct {
	mu   sync.Mutex
	port io.WriteCloser
	log  logrus.FieldLogger
}

// Open opens the serial device and returns a driver for it
func Open(cfg *serial.Config, log logrus.FieldLogger) (*Driver, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return New(port, log), nil
}

// New wraps an already open port
func New(port io.WriteCloser, log logrus.FieldLogger) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{port: port, log: log}
}

// Command returns the line that sets pin to value
func Command(pin core.GPIOPin, value bool) (string, error) {
	if pin >= MaxPins {
		return "", fmt.Errorf("serialgpio: pin %d out of range 0-%d", pin, MaxPins-1)
	}
	verb := "clear"
	if value {
		verb = "set"
	}
	return "gpio " + verb + " " + string(digits[pin]) + "\r", nil
}

// SetPin writes one command line. Write failures, including short
// writes, are returned to the caller.
func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	cmd, err := Command(pin, value)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.port.Write([]byte(cmd))
	if err != nil {
		return fmt.Errorf("serialgpio: write pin %d: %w", pin, err)
	}
	if n != len(cmd) {
		return fmt.Errorf("serialgpio: write pin %d: %w", pin, io.ErrShortWrite)
	}
	d.log.WithFields(logrus.Fields{"pin": pin, "value": value}).Trace("gpio write")
	return nil
}

// Close closes the underlying port
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port.Close()
}
