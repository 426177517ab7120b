package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"gostep/core"
	"gostep/host/rpigpio"
	"gostep/host/serial"
	"gostep/host/serialgpio"
	"gostep/standalone"
	"gostep/standalone/config"
	"gostep/standalone/manager"
)

const (
	configEnv     = "STEPCTL_CONFIG"
	defaultConfig = "stepctl.json"
)

// openFunc connects to the board described by cfg
type openFunc func(cfg *standalone.BoardConfig, log logrus.FieldLogger) (core.PinDriver, io.Closer, error)

// app holds the state shared by every subcommand, including the nested
// command trees the shell runs.
type app struct {
	log *logrus.Logger

	configPath string
	backend    string
	verbose    bool

	open  openFunc
	clock core.Clock

	mgr    *manager.Manager
	closer io.Closer
}

func newApp(log *logrus.Logger) *app {
	path := os.Getenv(configEnv)
	if path == "" {
		path = defaultConfig
	}
	return &app{
		log:        log,
		configPath: path,
		open:       openBoard,
		clock:      core.NewSystemClock(),
	}
}

// setupLogging routes sequencer debug output into logrus
func (a *app) setupLogging() {
	if a.verbose {
		a.log.SetLevel(logrus.DebugLevel)
	} else {
		a.log.SetLevel(logrus.InfoLevel)
	}
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	core.SetDebugWriter(func(msg string) {
		a.log.Debug(msg)
	})
	core.SetDebugEnabled(a.verbose)
	core.SetEventsEnabled(a.verbose)
}

// manager loads the configuration and connects to the board on first use
func (a *app) manager() (*manager.Manager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}

	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.configPath, err)
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}

	mgr, err := manager.NewManagerWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	pins, closer, err := a.open(cfg, a.log)
	if err != nil {
		return nil, err
	}
	if err := mgr.Initialize(pins, a.clock); err != nil {
		closer.Close()
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"motors":  len(cfg.Motors),
	}).Debug("board ready")

	a.mgr = mgr
	a.closer = closer
	return mgr, nil
}

// dumpEvents logs the sequencer event ring in verbose mode
func (a *app) dumpEvents() {
	if a.verbose {
		core.DumpEvents()
		core.ClearEvents()
	}
}

func (a *app) close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.log.WithError(err).Warn("close board")
	}
	a.closer = nil
	a.mgr = nil
}

// openBoard connects to the configured backend
func openBoard(cfg *standalone.BoardConfig, log logrus.FieldLogger) (core.PinDriver, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendPCA9685:
		return openPCA9685(cfg)
	case config.BackendRPIO:
		d, err := rpigpio.Open(log)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	case config.BackendSerialGPIO:
		sc := serial.DefaultConfig(cfg.SerialDevice)
		sc.Baud = cfg.Baud
		d, err := serialgpio.Open(sc, log)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	case config.BackendGPIO:
		return nil, nil, fmt.Errorf("backend %q is only available on the firmware", cfg.Backend)
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
