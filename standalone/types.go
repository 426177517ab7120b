package standalone

// MotorConfig describes one stepper motor and how it is wired
type MotorConfig struct {
	Driver string `json:"driver"` // "hbridge" or "stepdir"
	Mode   string `json:"mode"`   // "single", "dual" or "half" (hbridge only)

	// H-bridge lines in table order (A, B, a, b)
	Pins []uint32 `json:"pins,omitempty"`

	// Step/direction lines
	StepPin   uint32  `json:"step_pin,omitempty"`
	DirPin    uint32  `json:"dir_pin,omitempty"`
	EnablePin *uint32 `json:"enable_pin,omitempty"` // nil when the enable line is not wired

	Invert  bool `json:"invert"`  // Active-low coil drive
	Reverse bool `json:"reverse"` // Swap forward and backward
	Sleep   bool `json:"sleep"`   // Start with outputs released

	SPS         int  `json:"sps"`           // Default steps per second
	SMin        *int `json:"smin"`          // Lower step bound
	SMax        *int `json:"smax"`          // Upper step bound
	StepsPerRev int  `json:"steps_per_rev"` // Steps in one output shaft revolution
}

// BoardConfig represents the complete board configuration
type BoardConfig struct {
	Backend string `json:"backend"` // "pca9685", "rpio" or "serialgpio"

	// PCA9685 expander
	I2CDevice string `json:"i2c_device"` // e.g. /dev/i2c-1 on a host
	Address   uint8  `json:"address"`
	Frequency uint32 `json:"frequency"`

	// USB GPIO board
	SerialDevice string `json:"serial_device"`
	Baud         int    `json:"baud"`

	Motors map[string]MotorConfig `json:"motors"`
}

// MotorStatus is a snapshot of one motor
type MotorStatus struct {
	Name       string
	Driver     string
	StepCount  int
	Awake      bool
	PhaseIndex int // -1 for step/direction motors
	Min        int
	Max        int
}

// Command represents a parsed text command, e.g.
// "STEP MOTOR=left STEPS=-200 SPS=300"
type Command struct {
	Name       string            // Upper-cased command word
	Parameters map[string]string // Upper-cased keys, raw values
	Comment    string            // Comment text
}
