//go:build !linux

package main

import (
	"errors"
	"io"

	"gostep/core"
	"gostep/standalone"
)

func openPCA9685(cfg *standalone.BoardConfig) (core.PinDriver, io.Closer, error) {
	return nil, nil, errors.New("pca9685 backend needs Linux i2c-dev")
}
