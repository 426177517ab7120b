package command

import (
	"context"
	"errors"
	"strconv"

	"gostep/standalone"
)

// Beep defaults, matching a short A4 chirp
const (
	DefaultBeepFrequency = 440
	DefaultBeepMs        = 250
)

// ErrUnknownCommand is returned for command words the interpreter does not handle
var ErrUnknownCommand = errors.New("unknown command")

// Controller is the set of motor operations commands map onto
type Controller interface {
	Step(ctx context.Context, motor string, steps, sps int, sleepAfter bool) (int, error)
	Move(ctx context.Context, motors []string, steps []int, sps int) ([]int, error)
	Beep(ctx context.Context, motor string, freq, ms, pauseMs int, sleepAfter bool) (int, error)
	Sleep(motor string) error
	Wake(motor string) error
	Zero(motor string) error
	StepsPerRev(motor string) (int, error)
	Status() []standalone.MotorStatus
}

// Interpreter executes parsed commands against a Controller
type Interpreter struct {
	ctrl Controller
}

// NewInterpreter creates a new command interpreter
func NewInterpreter(ctrl Controller) *Interpreter {
	return &Interpreter{ctrl: ctrl}
}

// Execute runs cmd and returns any response text (without the final "ok")
func (interp *Interpreter) Execute(ctx context.Context, cmd *standalone.Command) (string, error) {
	if cmd == nil || cmd.Name == "" {
		return "", nil
	}

	switch cmd.Name {
	case "STEP":
		return interp.doStep(ctx, cmd)
	case "MOVE":
		return interp.doMove(ctx, cmd)
	case "BEEP":
		return interp.doBeep(ctx, cmd)
	case "SLEEP":
		return interp.doSimple(cmd, interp.ctrl.Sleep)
	case "WAKE":
		return interp.doSimple(cmd, interp.ctrl.Wake)
	case "ZERO":
		return interp.doSimple(cmd, interp.ctrl.Zero)
	case "STATUS":
		return FormatStatus(interp.ctrl.Status()), nil
	}

	return "", errors.New(ErrUnknownCommand.Error() + " " + cmd.Name)
}

func motorParam(cmd *standalone.Command) (string, error) {
	name, ok := cmd.Parameters["MOTOR"]
	if !ok || name == "" {
		return "", errors.New(cmd.Name + " requires MOTOR=")
	}
	return name, nil
}

// doStep handles STEP MOTOR= STEPS=|REVS= [SPS=] [SLEEP=]
func (interp *Interpreter) doStep(ctx context.Context, cmd *standalone.Command) (string, error) {
	motor, err := motorParam(cmd)
	if err != nil {
		return "", err
	}

	var steps int
	switch {
	case Has(cmd, "STEPS"):
		if steps, err = Int(cmd, "STEPS", 0); err != nil {
			return "", err
		}
	case Has(cmd, "REVS"):
		revs, err := Float(cmd, "REVS", 0)
		if err != nil {
			return "", err
		}
		perRev, err := interp.ctrl.StepsPerRev(motor)
		if err != nil {
			return "", err
		}
		steps = roundFloat(revs * float64(perRev))
	default:
		return "", errors.New("STEP requires STEPS= or REVS=")
	}

	sps, err := Int(cmd, "SPS", 0)
	if err != nil {
		return "", err
	}
	sleepAfter, err := Bool(cmd, "SLEEP", false)
	if err != nil {
		return "", err
	}

	count, err := interp.ctrl.Step(ctx, motor, steps, sps, sleepAfter)
	if err != nil {
		return "", err
	}
	return motor + ": " + strconv.Itoa(count), nil
}

// doMove handles MOVE MOTORS=a,b STEPS=n,m [SPS=]
func (interp *Interpreter) doMove(ctx context.Context, cmd *standalone.Command) (string, error) {
	motors := List(cmd, "MOTORS")
	steps, err := IntList(cmd, "STEPS")
	if err != nil {
		return "", err
	}
	if len(motors) == 0 || len(motors) != len(steps) {
		return "", errors.New("MOVE requires matching MOTORS= and STEPS= lists")
	}
	sps, err := Int(cmd, "SPS", 0)
	if err != nil {
		return "", err
	}

	counts, err := interp.ctrl.Move(ctx, motors, steps, sps)
	if err != nil {
		return "", err
	}
	out := ""
	for i, name := range motors {
		if i > 0 {
			out += " "
		}
		out += name + ": " + strconv.Itoa(counts[i])
	}
	return out, nil
}

// doBeep handles BEEP MOTOR= [FREQ=] [MS=] [PAUSE=] [SLEEP=]
func (interp *Interpreter) doBeep(ctx context.Context, cmd *standalone.Command) (string, error) {
	motor, err := motorParam(cmd)
	if err != nil {
		return "", err
	}
	freq, err := Int(cmd, "FREQ", DefaultBeepFrequency)
	if err != nil {
		return "", err
	}
	ms, err := Int(cmd, "MS", DefaultBeepMs)
	if err != nil {
		return "", err
	}
	pause, err := Int(cmd, "PAUSE", 0)
	if err != nil {
		return "", err
	}
	sleepAfter, err := Bool(cmd, "SLEEP", false)
	if err != nil {
		return "", err
	}

	if _, err := interp.ctrl.Beep(ctx, motor, freq, ms, pause, sleepAfter); err != nil {
		return "", err
	}
	return "", nil
}

func (interp *Interpreter) doSimple(cmd *standalone.Command, op func(string) error) (string, error) {
	motor, err := motorParam(cmd)
	if err != nil {
		return "", err
	}
	return "", op(motor)
}

// FormatStatus renders one line per motor
func FormatStatus(status []standalone.MotorStatus) string {
	out := ""
	for i, s := range status {
		if i > 0 {
			out += "\n"
		}
		out += s.Name + ": driver=" + s.Driver +
			" count=" + strconv.Itoa(s.StepCount) +
			" awake=" + strconv.FormatBool(s.Awake)
		if s.PhaseIndex >= 0 {
			out += " phase=" + strconv.Itoa(s.PhaseIndex)
		}
		out += " range=" + strconv.Itoa(s.Min) + ".." + strconv.Itoa(s.Max)
	}
	return out
}

func roundFloat(x float64) int {
	if x < 0 {
		return -int(-x + 0.5)
	}
	return int(x + 0.5)
}
