// Package serial opens the serial links used by USB GPIO boards.
package serial

import (
	"errors"
	"io"
	"time"
)

const (
	DefaultBaud        = 19200
	DefaultReadTimeout = 100 * time.Millisecond
)

var (
	ErrNoDevice = errors.New("serial: no device given")
	ErrBaud     = errors.New("serial: baud rate must be positive")
)

// Port is an open serial link. Flush discards anything still queued in
// either direction, so a board starts from a clean command line.
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// Config selects the device and line settings
type Config struct {
	Device      string        // e.g. /dev/ttyACM0 or COM3
	Baud        int           // Ignored by USB CDC boards
	ReadTimeout time.Duration // 0 blocks
}

// DefaultConfig returns the settings for a USB GPIO board on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Validate checks the settings before a port is opened
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrBaud
	}
	return nil
}
