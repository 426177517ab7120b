package core

import "errors"

// ErrInvalidConfig matches every construction-time configuration error.
var ErrInvalidConfig = errors.New("invalid stepper configuration")

// ConfigError describes a rejected construction parameter.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "stepper: invalid configuration: " + e.Reason
}

// Is lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configError(reason string) error {
	return &ConfigError{Reason: reason}
}
