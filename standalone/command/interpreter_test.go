package command

import (
	"context"
	"errors"
	"testing"

	"gostep/standalone"
)

type call struct {
	op         string
	motor      string
	a, b, c    int
	sleepAfter bool
}

type fakeController struct {
	calls []call
	err   error
}

func (f *fakeController) Step(ctx context.Context, motor string, steps, sps int, sleepAfter bool) (int, error) {
	f.calls = append(f.calls, call{op: "step", motor: motor, a: steps, b: sps, sleepAfter: sleepAfter})
	return steps, f.err
}

func (f *fakeController) Move(ctx context.Context, motors []string, steps []int, sps int) ([]int, error) {
	for i, m := range motors {
		f.calls = append(f.calls, call{op: "move", motor: m, a: steps[i], b: sps})
	}
	return steps, f.err
}

func (f *fakeController) Beep(ctx context.Context, motor string, freq, ms, pauseMs int, sleepAfter bool) (int, error) {
	f.calls = append(f.calls, call{op: "beep", motor: motor, a: freq, b: ms, c: pauseMs, sleepAfter: sleepAfter})
	return 0, f.err
}

func (f *fakeController) Sleep(motor string) error {
	f.calls = append(f.calls, call{op: "sleep", motor: motor})
	return f.err
}

func (f *fakeController) Wake(motor string) error {
	f.calls = append(f.calls, call{op: "wake", motor: motor})
	return f.err
}

func (f *fakeController) Zero(motor string) error {
	f.calls = append(f.calls, call{op: "zero", motor: motor})
	return f.err
}

func (f *fakeController) StepsPerRev(motor string) (int, error) {
	return 4076, nil
}

func (f *fakeController) Status() []standalone.MotorStatus {
	return []standalone.MotorStatus{
		{Name: "left", Driver: "hbridge-half", StepCount: 10, Awake: true, PhaseIndex: 2, Min: -10, Max: 10},
		{Name: "z", Driver: "stepdir", StepCount: -3, PhaseIndex: -1, Min: -100, Max: 100},
	}
}

func run(t *testing.T, ctrl *fakeController, line string) (string, error) {
	t.Helper()
	cmd, err := NewParser().ParseLine(line)
	if err != nil {
		t.Fatalf("Failed to parse '%s': %v", line, err)
	}
	return NewInterpreter(ctrl).Execute(context.Background(), cmd)
}

func TestExecuteStep(t *testing.T) {
	ctrl := &fakeController{}
	out, err := run(t, ctrl, "STEP MOTOR=left STEPS=-15 SPS=300 SLEEP=1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "left: -15" {
		t.Errorf("Expected 'left: -15', got '%s'", out)
	}
	want := call{op: "step", motor: "left", a: -15, b: 300, sleepAfter: true}
	if len(ctrl.calls) != 1 || ctrl.calls[0] != want {
		t.Errorf("Expected %+v, got %+v", want, ctrl.calls)
	}
}

func TestExecuteStepRevs(t *testing.T) {
	ctrl := &fakeController{}
	if _, err := run(t, ctrl, "STEP MOTOR=left REVS=0.5"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ctrl.calls[0].a != 2038 {
		t.Errorf("Expected 2038 steps, got %d", ctrl.calls[0].a)
	}

	if _, err := run(t, ctrl, "STEP MOTOR=left REVS=-1"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ctrl.calls[1].a != -4076 {
		t.Errorf("Expected -4076 steps, got %d", ctrl.calls[1].a)
	}
}

func TestExecuteMove(t *testing.T) {
	ctrl := &fakeController{}
	out, err := run(t, ctrl, "MOVE MOTORS=a,b STEPS=3,-2 SPS=50")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "a: 3 b: -2" {
		t.Errorf("Expected 'a: 3 b: -2', got '%s'", out)
	}
	if len(ctrl.calls) != 2 || ctrl.calls[1].motor != "b" || ctrl.calls[1].b != 50 {
		t.Errorf("Unexpected calls %+v", ctrl.calls)
	}

	if _, err := run(t, ctrl, "MOVE MOTORS=a,b STEPS=3"); err == nil {
		t.Errorf("Expected error for mismatched lists")
	}
}

func TestExecuteBeepDefaults(t *testing.T) {
	ctrl := &fakeController{}
	if _, err := run(t, ctrl, "BEEP MOTOR=z"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := call{op: "beep", motor: "z", a: DefaultBeepFrequency, b: DefaultBeepMs}
	if ctrl.calls[0] != want {
		t.Errorf("Expected %+v, got %+v", want, ctrl.calls[0])
	}
}

func TestExecuteSimpleCommands(t *testing.T) {
	ctrl := &fakeController{}
	for _, line := range []string{"SLEEP MOTOR=a", "WAKE MOTOR=a", "ZERO MOTOR=a"} {
		if _, err := run(t, ctrl, line); err != nil {
			t.Errorf("'%s' failed: %v", line, err)
		}
	}
	ops := []string{"sleep", "wake", "zero"}
	for i, op := range ops {
		if ctrl.calls[i].op != op {
			t.Errorf("Call %d: expected %s, got %s", i, op, ctrl.calls[i].op)
		}
	}

	if _, err := run(t, ctrl, "SLEEP"); err == nil {
		t.Errorf("Expected error without MOTOR=")
	}
}

func TestExecuteStatus(t *testing.T) {
	out, err := run(t, &fakeController{}, "STATUS")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "left: driver=hbridge-half count=10 awake=true phase=2 range=-10..10\n" +
		"z: driver=stepdir count=-3 awake=false range=-100..100"
	if out != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, out)
	}
}

func TestExecuteErrors(t *testing.T) {
	ctrl := &fakeController{err: errors.New("bus fault")}
	if _, err := run(t, ctrl, "STEP MOTOR=a STEPS=1"); err == nil || err.Error() != "bus fault" {
		t.Errorf("Expected bus fault, got %v", err)
	}
	if _, err := run(t, ctrl, "HOME"); err == nil {
		t.Errorf("Expected unknown command error")
	}
	if _, err := run(t, ctrl, "STEP MOTOR=a"); err == nil {
		t.Errorf("Expected error without STEPS=")
	}
}
