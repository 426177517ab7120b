//go:build rp2040

package main

import (
	"io"
	"machine"
)

// serialPort is the part of machine.Serial the console uses
type serialPort interface {
	Configure(config machine.UARTConfig) error
	Buffered() int
	ReadByte() (byte, error)
	Write(data []byte) (int, error)
}

// console is the USB CDC link carrying protocol lines and debug output
type console struct {
	port serialPort
}

func openConsole(port serialPort) (*console, error) {
	// USB CDC ignores the UART settings
	if err := port.Configure(machine.UARTConfig{}); err != nil {
		return nil, err
	}
	return &console{port: port}, nil
}

// poll hands every pending input byte to handle
func (c *console) poll(handle func(byte)) {
	for c.port.Buffered() > 0 {
		b, err := c.port.ReadByte()
		if err != nil {
			return
		}
		handle(b)
	}
}

// Write sends all of p. The CDC endpoint may take less per call.
func (c *console) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := c.port.Write(p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

func (c *console) println(line string) {
	c.Write([]byte(line + "\n"))
}
