package manager

import (
	"context"
	"errors"
	"sync"

	"gostep/core"
	"gostep/standalone"
	"gostep/standalone/command"
	"gostep/standalone/config"
)

var (
	// ErrUnknownMotor is returned for motor names not in the configuration
	ErrUnknownMotor = errors.New("unknown motor")
	// ErrNotInitialized is returned when commands arrive before Initialize
	ErrNotInitialized = errors.New("manager not initialized")
	// ErrCannotBeep is returned when BEEP targets a motor without a step line
	ErrCannotBeep = errors.New("motor cannot beep")
)

// Motor is one configured sequencer
type Motor struct {
	Name   string
	Config standalone.MotorConfig

	seq     *core.Sequencer
	hbridge *core.HBridge // nil for step/direction motors
	stepdir *core.StepDir // nil for H-bridge motors
}

// Sequencer returns the motor's sequencer
func (mt *Motor) Sequencer() *core.Sequencer {
	return mt.seq
}

// Manager owns the configured motors and the text command front end
type Manager struct {
	config      *standalone.BoardConfig
	parser      *command.Parser
	interpreter *command.Interpreter

	motors map[string]*Motor
	order  []string

	// Serial interface
	inputBuffer  []byte
	outputBuffer []byte

	// Cancels a running command
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	initialized bool
}

// NewManager creates a manager from JSON configuration data
func NewManager(configData []byte) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}

	return NewManagerWithConfig(cfg)
}

// NewManagerWithConfig creates a manager with an existing config
func NewManagerWithConfig(cfg *standalone.BoardConfig) (*Manager, error) {
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	mgr := &Manager{
		config:       cfg,
		parser:       command.NewParser(),
		motors:       make(map[string]*Motor),
		inputBuffer:  make([]byte, 0, 256),
		outputBuffer: make([]byte, 0, 256),
	}
	mgr.interpreter = command.NewInterpreter(mgr)
	mgr.ctx, mgr.cancel = context.WithCancel(context.Background())

	return mgr, nil
}

// Config returns the board configuration
func (m *Manager) Config() *standalone.BoardConfig {
	return m.config
}

// Initialize builds a sequencer for every configured motor
func (m *Manager) Initialize(pins core.PinDriver, clock core.Clock) error {
	if m.initialized {
		return errors.New("already initialized")
	}

	// Nothing is kept unless every motor builds
	motors := make(map[string]*Motor, len(m.config.Motors))
	var order []string
	for _, name := range config.MotorNames(m.config) {
		mc := m.config.Motors[name]
		motor := &Motor{Name: name, Config: mc}

		switch mc.Driver {
		case config.DriverHBridge:
			cfg, err := config.HBridgeConfig(mc)
			if err != nil {
				return errors.New("motor " + name + ": " + err.Error())
			}
			h, err := core.NewHBridge(pins, clock, cfg)
			if err != nil {
				return errors.New("motor " + name + ": " + err.Error())
			}
			motor.hbridge = h
			motor.seq = h.Sequencer
		case config.DriverStepDir:
			d, err := core.NewStepDir(pins, clock, config.StepDirConfig(mc))
			if err != nil {
				return errors.New("motor " + name + ": " + err.Error())
			}
			motor.stepdir = d
			motor.seq = d.Sequencer
		}

		motors[name] = motor
		order = append(order, name)
	}

	m.motors = motors
	m.order = order
	m.initialized = true
	return nil
}

// Motor looks up a motor by name
func (m *Manager) Motor(name string) (*Motor, error) {
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	motor, ok := m.motors[name]
	if !ok {
		return nil, errors.New(ErrUnknownMotor.Error() + " " + name)
	}
	return motor, nil
}

// Names returns the motor names in sorted order
func (m *Manager) Names() []string {
	return m.order
}

// Step moves one motor and returns its new step count
func (m *Manager) Step(ctx context.Context, name string, steps, sps int, sleepAfter bool) (int, error) {
	motor, err := m.Motor(name)
	if err != nil {
		return 0, err
	}
	return motor.seq.StepContext(ctx, steps, sps, sleepAfter)
}

// Move steps several motors interleaved, one unit step each in turn
func (m *Manager) Move(ctx context.Context, names []string, steps []int, sps int) ([]int, error) {
	if len(names) != len(steps) {
		return nil, errors.New("move: names and steps differ in length")
	}
	moves := make([]core.Move, len(names))
	for i, name := range names {
		motor, err := m.Motor(name)
		if err != nil {
			return nil, err
		}
		moves[i] = core.Move{Sequencer: motor.seq, Steps: steps[i], StepsPerSecond: sps}
	}
	return core.Interleave(ctx, moves...)
}

// Beep chirps a step/direction motor
func (m *Manager) Beep(ctx context.Context, name string, freq, ms, pauseMs int, sleepAfter bool) (int, error) {
	motor, err := m.Motor(name)
	if err != nil {
		return 0, err
	}
	if motor.stepdir == nil {
		return motor.seq.StepCount(), errors.New(ErrCannotBeep.Error() + " " + name)
	}
	return motor.stepdir.BeepContext(ctx, freq, ms, pauseMs, sleepAfter)
}

// Sleep releases a motor's outputs
func (m *Manager) Sleep(name string) error {
	motor, err := m.Motor(name)
	if err != nil {
		return err
	}
	return motor.seq.Sleep()
}

// Wake energizes a motor's outputs
func (m *Manager) Wake(name string) error {
	motor, err := m.Motor(name)
	if err != nil {
		return err
	}
	return motor.seq.Wake()
}

// Zero resets a motor's step count
func (m *Manager) Zero(name string) error {
	motor, err := m.Motor(name)
	if err != nil {
		return err
	}
	motor.seq.Zero()
	return nil
}

// StepsPerRev returns the configured steps in one revolution
func (m *Manager) StepsPerRev(name string) (int, error) {
	motor, err := m.Motor(name)
	if err != nil {
		return 0, err
	}
	return motor.Config.StepsPerRev, nil
}

// Status returns a snapshot of every motor
func (m *Manager) Status() []standalone.MotorStatus {
	status := make([]standalone.MotorStatus, 0, len(m.order))
	for _, name := range m.order {
		motor := m.motors[name]
		lo, hi := motor.seq.Bounds()
		s := standalone.MotorStatus{
			Name:       name,
			Driver:     motor.seq.Backend().GetName(),
			StepCount:  motor.seq.StepCount(),
			Awake:      motor.seq.Awake(),
			PhaseIndex: -1,
			Min:        lo,
			Max:        hi,
		}
		if motor.hbridge != nil {
			s.PhaseIndex = motor.hbridge.PhaseIndex()
		}
		status = append(status, s)
	}
	return status
}

// SleepAll releases every motor, returning the first error
func (m *Manager) SleepAll() error {
	var first error
	for _, name := range m.order {
		if err := m.motors[name].seq.Sleep(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ProcessLine executes one command line and queues its response:
// any result text, then "ok", or "!! <error>" on failure.
func (m *Manager) ProcessLine(line string) error {
	if !m.initialized {
		return ErrNotInitialized
	}

	cmd, err := m.parser.ParseLine(line)
	if err == nil && cmd != nil && cmd.Name != "" {
		var out string
		out, err = m.interpreter.Execute(m.context(), cmd)
		if err == nil && out != "" {
			m.SendResponse(out + "\n")
		}
	}
	if err != nil {
		m.SendResponse("!! " + err.Error() + "\n")
		return err
	}

	m.SendResponse("ok\n")
	return nil
}

// ProcessByte processes a single byte of input (for serial streaming)
func (m *Manager) ProcessByte(b byte) error {
	if b != '\n' && b != '\r' {
		m.inputBuffer = append(m.inputBuffer, b)
		return nil
	}

	line := string(m.inputBuffer)
	m.inputBuffer = m.inputBuffer[:0]

	// Remove trailing whitespace
	for len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
		line = line[:len(line)-1]
	}
	if len(line) == 0 {
		return nil
	}
	return m.ProcessLine(line)
}

// SendResponse queues a response to be sent to the host
func (m *Manager) SendResponse(response string) {
	m.outputBuffer = append(m.outputBuffer, response...)
}

// GetOutput returns any pending output and clears the buffer
func (m *Manager) GetOutput() []byte {
	if len(m.outputBuffer) == 0 {
		return nil
	}

	output := make([]byte, len(m.outputBuffer))
	copy(output, m.outputBuffer)
	m.outputBuffer = m.outputBuffer[:0]
	return output
}

// Start announces readiness and re-arms cancellation after a Stop
func (m *Manager) Start() error {
	if !m.initialized {
		return ErrNotInitialized
	}

	m.mu.Lock()
	if m.ctx.Err() != nil {
		m.ctx, m.cancel = context.WithCancel(context.Background())
	}
	m.mu.Unlock()

	m.SendResponse("gostep ready\n")
	return nil
}

// Stop cancels the running command at its next step. It is safe to call
// from another goroutine. Commands fail until Start is called again.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
}

// IsRunning returns whether commands are accepted
func (m *Manager) IsRunning() bool {
	return m.initialized && m.context().Err() == nil
}

func (m *Manager) context() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}
