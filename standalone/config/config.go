package config

import (
	"encoding/json"
	"errors"
	"sort"

	"gostep/core"
	"gostep/standalone"
)

// Driver names
const (
	DriverHBridge = "hbridge"
	DriverStepDir = "stepdir"
)

// Backend names
const (
	BackendPCA9685    = "pca9685"
	BackendRPIO       = "rpio"
	BackendSerialGPIO = "serialgpio"
	BackendGPIO       = "gpio" // Microcontroller's own pins (firmware only)
)

// Steps in one output revolution of the geared 28BYJ-48 (4075.77 half-steps)
const (
	HalfStepsPerRev28BYJ48 = 4076
	FullStepsPerRev28BYJ48 = 2038
	StepsPerRev17HS        = 200
)

// ErrNoMotors is returned when a configuration defines no motors
var ErrNoMotors = errors.New("config: no motors defined")

// LoadConfig parses a JSON configuration and returns a validated BoardConfig
func LoadConfig(jsonData []byte) (*standalone.BoardConfig, error) {
	var config standalone.BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	ApplyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills in missing configuration values with sensible defaults
func ApplyDefaults(config *standalone.BoardConfig) {
	if config.Backend == "" {
		config.Backend = BackendPCA9685
	}
	if config.Address == 0 {
		config.Address = 0x40
	}
	if config.Frequency == 0 {
		config.Frequency = 50
	}
	if config.I2CDevice == "" {
		config.I2CDevice = "/dev/i2c-1"
	}
	if config.Baud == 0 {
		config.Baud = 19200
	}

	for name, motor := range config.Motors {
		if motor.Driver == "" {
			motor.Driver = DriverHBridge
		}
		if motor.Mode == "" && motor.Driver == DriverHBridge {
			motor.Mode = "single"
		}
		if motor.SPS == 0 {
			motor.SPS = core.DefaultStepsPerSecond
		}
		if motor.SMin == nil {
			v := core.DefaultMinSteps
			motor.SMin = &v
		}
		if motor.SMax == nil {
			v := core.DefaultMaxSteps
			motor.SMax = &v
		}
		if motor.StepsPerRev == 0 {
			switch {
			case motor.Driver == DriverStepDir:
				motor.StepsPerRev = StepsPerRev17HS
			case motor.Mode == "half":
				motor.StepsPerRev = HalfStepsPerRev28BYJ48
			default:
				motor.StepsPerRev = FullStepsPerRev28BYJ48
			}
		}
		config.Motors[name] = motor
	}
}

// Validate checks a configuration after defaults have been applied
func Validate(config *standalone.BoardConfig) error {
	switch config.Backend {
	case BackendPCA9685, BackendRPIO, BackendSerialGPIO, BackendGPIO:
	default:
		return errors.New("config: unknown backend " + config.Backend)
	}
	if len(config.Motors) == 0 {
		return ErrNoMotors
	}
	for _, name := range MotorNames(config) {
		motor := config.Motors[name]
		switch motor.Driver {
		case DriverHBridge:
			if _, err := ParseMode(motor.Mode); err != nil {
				return errors.New("config: motor " + name + ": " + err.Error())
			}
			if len(motor.Pins) != 4 {
				return errors.New("config: motor " + name + ": hbridge needs 4 pins")
			}
		case DriverStepDir:
			if motor.StepPin == motor.DirPin {
				return errors.New("config: motor " + name + ": step and dir pins must differ")
			}
		default:
			return errors.New("config: motor " + name + ": unknown driver " + motor.Driver)
		}
		if motor.SMin == nil || motor.SMax == nil {
			return errors.New("config: motor " + name + ": step bounds not set")
		}
		if motor.SPS < 0 {
			return errors.New("config: motor " + name + ": sps must be positive")
		}
		if *motor.SMin > 0 || *motor.SMax < 0 {
			return errors.New("config: motor " + name + ": step bounds must contain zero")
		}
	}
	return nil
}

// MotorNames returns the configured motor names in sorted order
func MotorNames(config *standalone.BoardConfig) []string {
	names := make([]string, 0, len(config.Motors))
	for name := range config.Motors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseMode maps a config mode name to a phase table mode
func ParseMode(name string) (core.Mode, error) {
	switch name {
	case "single":
		return core.ModeSingleCoil, nil
	case "dual":
		return core.ModeDualCoil, nil
	case "half":
		return core.ModeHalfStep, nil
	}
	return 0, errors.New("unknown mode " + name)
}

func sequencerConfig(motor standalone.MotorConfig) core.Config {
	return core.Config{
		StepsPerSecond:   motor.SPS,
		MinSteps:         *motor.SMin,
		MaxSteps:         *motor.SMax,
		ReverseDirection: motor.Reverse,
		StartAsleep:      motor.Sleep,
	}
}

// HBridgeConfig converts a motor entry to an H-bridge sequencer configuration
func HBridgeConfig(motor standalone.MotorConfig) (core.HBridgeConfig, error) {
	mode, err := ParseMode(motor.Mode)
	if err != nil {
		return core.HBridgeConfig{}, err
	}
	table, err := core.Table(mode)
	if err != nil {
		return core.HBridgeConfig{}, err
	}
	pins := make([]core.GPIOPin, len(motor.Pins))
	for i, p := range motor.Pins {
		pins[i] = core.GPIOPin(p)
	}
	return core.HBridgeConfig{
		Config:       sequencerConfig(motor),
		Table:        table,
		Pins:         pins,
		InvertLevels: motor.Invert,
	}, nil
}

// StepDirConfig converts a motor entry to a step/direction sequencer configuration
func StepDirConfig(motor standalone.MotorConfig) core.StepDirConfig {
	cfg := core.StepDirConfig{
		Config:  sequencerConfig(motor),
		StepPin: core.GPIOPin(motor.StepPin),
		DirPin:  core.GPIOPin(motor.DirPin),
	}
	if motor.EnablePin != nil {
		cfg.EnablePin = core.GPIOPin(*motor.EnablePin)
		cfg.UseEnable = true
	}
	return cfg
}

// DefaultMakerbitConfig returns a two-motor board: a 28BYJ-48 on each
// half of a PCA9685 driving two H-bridges.
func DefaultMakerbitConfig() *standalone.BoardConfig {
	config := &standalone.BoardConfig{
		Backend: BackendPCA9685,
		Motors: map[string]standalone.MotorConfig{
			"left":  {Driver: DriverHBridge, Mode: "half", Pins: []uint32{11, 8, 10, 9}},
			"right": {Driver: DriverHBridge, Mode: "half", Pins: []uint32{12, 15, 13, 14}},
		},
	}
	ApplyDefaults(config)
	return config
}
