//go:build linux

// Package i2cdev implements the tinygo drivers.I2C interface on top of the
// Linux i2c-dev character device, so host builds can talk to the same
// peripherals as the firmware.
package i2cdev

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// ioctl request that selects the target address (linux/i2c-dev.h)
const i2cSlave = 0x0703

var _ drivers.I2C = (*Bus)(nil)

// Bus is an open /dev/i2c-N device
type Bus struct {
	mu      sync.Mutex
	dev     io.ReadWriteCloser
	setAddr func(addr uint16) error
	addr    uint16
	hasAddr bool
}

// Open opens an i2c-dev device such as /dev/i2c-1
func Open(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: %w", err)
	}
	fd := int(f.Fd())
	return newBus(f, func(addr uint16) error {
		return unix.IoctlSetInt(fd, i2cSlave, int(addr))
	}), nil
}

func newBus(dev io.ReadWriteCloser, setAddr func(uint16) error) *Bus {
	return &Bus{dev: dev, setAddr: setAddr}
}

// Tx writes w to the device at addr, then reads len(r) bytes into r.
// Either slice may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasAddr || b.addr != addr {
		if err := b.setAddr(addr); err != nil {
			return fmt.Errorf("i2cdev: select 0x%02x: %w", addr, err)
		}
		b.addr = addr
		b.hasAddr = true
	}

	if len(w) > 0 {
		n, err := b.dev.Write(w)
		if err != nil {
			return fmt.Errorf("i2cdev: write 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("i2cdev: write 0x%02x: %w", addr, io.ErrShortWrite)
		}
	}
	if len(r) > 0 {
		if _, err := io.ReadFull(b.dev, r); err != nil {
			return fmt.Errorf("i2cdev: read 0x%02x: %w", addr, err)
		}
	}
	return nil
}

// Close closes the device
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dev.Close()
}
