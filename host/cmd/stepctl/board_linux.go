//go:build linux

package main

import (
	"io"

	"gostep/core"
	"gostep/expander"
	"gostep/host/i2cdev"
	"gostep/standalone"
)

func openPCA9685(cfg *standalone.BoardConfig) (core.PinDriver, io.Closer, error) {
	bus, err := i2cdev.Open(cfg.I2CDevice)
	if err != nil {
		return nil, nil, err
	}
	dev := expander.New(bus)
	if err := dev.Configure(expander.Config{Address: cfg.Address, Frequency: cfg.Frequency}); err != nil {
		bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}
