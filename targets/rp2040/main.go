//go:build rp2040

package main

import (
	"errors"
	"machine"
	"time"

	"gostep/core"
	"gostep/expander"
	"gostep/standalone"
	"gostep/standalone/config"
	"gostep/standalone/manager"
)

// boardConfig selects the motor wiring. Edit and reflash to change it.
func boardConfig() *standalone.BoardConfig {
	return config.DefaultMakerbitConfig()
}

func main() {
	// Disable watchdog on boot to clear any previous state
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	con, err := openConsole(machine.Serial)
	if err != nil {
		fail(nil, err)
	}

	cfg := boardConfig()
	pins, err := openPins(cfg)
	if err != nil {
		fail(con, err)
	}

	mgr, err := manager.NewManagerWithConfig(cfg)
	if err != nil {
		fail(con, err)
	}
	if err := mgr.Initialize(pins, hwClock{}); err != nil {
		fail(con, err)
	}

	core.SetDebugWriter(func(msg string) {
		con.println("# " + msg)
	})

	if err := mgr.Start(); err != nil {
		fail(con, err)
	}
	blink(3, 200*time.Millisecond)

	for {
		// ProcessByte queues the "!!" response itself
		con.poll(func(b byte) { mgr.ProcessByte(b) })

		if output := mgr.GetOutput(); len(output) > 0 {
			con.Write(output)
		}

		time.Sleep(10 * time.Microsecond)
	}
}

// openPins returns the pin driver for the configured backend: the
// PCA9685 on I2C0 or the RP2040's own GPIO.
func openPins(cfg *standalone.BoardConfig) (core.PinDriver, error) {
	switch cfg.Backend {
	case config.BackendGPIO:
		return NewRPGPIODriver(), nil
	case config.BackendPCA9685:
	default:
		return nil, errors.New("backend " + cfg.Backend + " is not available on the RP2040")
	}

	// I2C0 - Default pins: SDA=GP4, SCL=GP5
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		return nil, err
	}
	dev := expander.New(bus)
	if err := dev.Configure(expander.Config{Address: cfg.Address, Frequency: cfg.Frequency}); err != nil {
		return nil, err
	}
	return dev, nil
}

// fail reports err on the console, when there is one, and flashes the
// LED rapidly forever
func fail(con *console, err error) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		if con != nil {
			con.println("!! " + err.Error())
		}
		for i := 0; i < 10; i++ {
			led.High()
			time.Sleep(100 * time.Millisecond)
			led.Low()
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func blink(n int, period time.Duration) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < n; i++ {
		led.High()
		time.Sleep(period)
		led.Low()
		time.Sleep(period)
	}
}
