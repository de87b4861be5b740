package controller_test

import (
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"stepviz/pkg/controller"
	"stepviz/pkg/parser"
	"stepviz/pkg/recorder"
)

const timeout = 2 * time.Second

type sink struct {
	mu     sync.Mutex
	events []recorder.Notification
	signal chan struct{}
}

func newSink() *sink {
	return &sink{signal: make(chan struct{}, 1)}
}

func (s *sink) Notify(n recorder.Notification) {
	s.mu.Lock()
	s.events = append(s.events, n)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *sink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ev := range s.events {
		if ev.Event() == event {
			n++
		}
	}
	return n
}

// wait blocks until the sink has seen n notifications named event and returns the last
func (s *sink) wait(t *testing.T, event string, n int) recorder.Notification {
	t.Helper()
	deadline := time.After(timeout)
	for {
		s.mu.Lock()
		seen := 0
		for _, ev := range s.events {
			if ev.Event() == event {
				seen++
				if seen == n {
					s.mu.Unlock()
					return ev
				}
			}
		}
		s.mu.Unlock()

		select {
		case <-s.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d %q notifications, saw %d", n, event, seen)
		}
	}
}

func newController(t *testing.T, opts ...controller.Option) (*controller.Controller, *sink) {
	t.Helper()
	s := newSink()
	opts = append([]controller.Option{controller.WithLogger(log.New(io.Discard))}, opts...)
	c := controller.New(s, opts...)
	t.Cleanup(c.Close)
	return c, s
}

func waitDone(t *testing.T, c *controller.Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(timeout):
		t.Fatal("worker did not exit")
	}
}

const endless = "n = 0\nwhile True:\n    n += 1\n"

func TestContinuousRunCompletes(t *testing.T) {
	c, s := newController(t)

	res := c.Load("x = 20\nprint(x + n)\n", "n = 22")
	if !res.Success {
		t.Fatalf("load failed: %s", res.Message)
	}
	if s.count("code_parsed") != 1 {
		t.Fatal("expected a code_parsed notification")
	}

	if res := c.Start(false); !res.Success {
		t.Fatalf("start failed: %s", res.Message)
	}
	done := s.wait(t, "execution_completed", 1).(controller.ExecutionCompleted)
	waitDone(t, c)

	if !slices.Equal(done.Output, []string{"42"}) {
		t.Errorf("output = %q", done.Output)
	}
	if done.StepCount == 0 || done.StepCount != len(done.Steps) {
		t.Errorf("step count %d does not match %d steps", done.StepCount, len(done.Steps))
	}
	if got := s.count("execution_step"); got != done.StepCount {
		t.Errorf("saw %d step notifications, want %d", got, done.StepCount)
	}

	report := c.State()
	if report.State != controller.StateCompleted {
		t.Errorf("state = %s", report.State)
	}
	if report.StepCount != done.StepCount || report.Line != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestStepMode(t *testing.T) {
	c, s := newController(t)
	c.Load("a = 1\nb = 2\nc = 3\n", "")

	if res := c.Start(true); !res.Success {
		t.Fatalf("start failed: %s", res.Message)
	}
	if st := c.State().State; st != controller.StatePaused {
		t.Fatalf("state after starting in step mode = %s", st)
	}
	if res := c.Pause(); res.Success {
		t.Error("pause in step mode should be rejected")
	}

	s.wait(t, "execution_step", 1)
	time.Sleep(50 * time.Millisecond)
	if got := s.count("execution_step"); got != 1 {
		t.Fatalf("recorded %d steps without a step request", got)
	}

	for n := 2; n <= 3; n++ {
		if res := c.Step(); !res.Success {
			t.Fatalf("step %d rejected: %s", n, res.Message)
		}
		step := s.wait(t, "execution_step", n).(recorder.StepRecorded)
		if step.Line != n {
			t.Errorf("step %d on line %d", n, step.Line)
		}
	}

	s.wait(t, "execution_completed", 1)
	waitDone(t, c)
	if res := c.Step(); res.Success {
		t.Error("step after completion should be rejected")
	}
}

func TestResumeLeavesStepMode(t *testing.T) {
	c, s := newController(t)
	c.Load("a = 1\nb = 2\nc = 3\nd = 4\n", "")

	c.Start(true)
	s.wait(t, "execution_step", 1)

	if res := c.Resume(); !res.Success {
		t.Fatalf("resume failed: %s", res.Message)
	}
	s.wait(t, "execution_completed", 1)
	waitDone(t, c)

	if got := s.count("execution_step"); got != 4 {
		t.Errorf("recorded %d steps, want 4", got)
	}
	if s.count("execution_resumed") != 1 {
		t.Error("expected an execution_resumed notification")
	}
}

func TestPauseBlocksSteps(t *testing.T) {
	c, s := newController(t, controller.WithDelay(time.Millisecond))
	c.Load(endless, "")

	c.Start(false)
	s.wait(t, "execution_step", 3)

	if res := c.Pause(); !res.Success {
		t.Fatalf("pause failed: %s", res.Message)
	}
	s.wait(t, "execution_paused", 1)

	time.Sleep(20 * time.Millisecond)
	before := s.count("execution_step")
	time.Sleep(50 * time.Millisecond)
	if after := s.count("execution_step"); after != before {
		t.Fatalf("%d steps recorded while paused", after-before)
	}

	report := c.State()
	if report.State != controller.StatePaused || report.StepCount != before {
		t.Errorf("report = %+v", report)
	}

	c.Resume()
	s.wait(t, "execution_step", before+2)

	c.Pause()
	time.Sleep(20 * time.Millisecond)
	paused := s.count("execution_step")
	if res := c.Stop(); !res.Success {
		t.Fatalf("stop failed: %s", res.Message)
	}
	s.wait(t, "execution_stopped", 1)
	waitDone(t, c)

	if got := s.count("execution_step"); got != paused {
		t.Errorf("%d steps recorded after stopping a paused run", got-paused)
	}
	if st := c.State().State; st != controller.StateStopped {
		t.Errorf("state = %s", st)
	}
}

func TestStartAfterStopWaitsForWorker(t *testing.T) {
	c, s := newController(t, controller.WithDelay(time.Millisecond))
	c.Load(endless, "")

	c.Start(false)
	s.wait(t, "execution_step", 2)
	c.Stop()

	if res := c.Start(false); !res.Success {
		t.Fatalf("restart failed: %s", res.Message)
	}
	if got := s.count("execution_stopped"); got != 1 {
		t.Fatalf("first run reported %d stops before the second started", got)
	}
	if got := s.count("execution_started"); got != 2 {
		t.Errorf("execution_started = %d, want 2", got)
	}

	c.Stop()
	s.wait(t, "execution_stopped", 2)
	waitDone(t, c)
}

func TestResetWaitsForWorker(t *testing.T) {
	c, s := newController(t)
	c.Load(endless, "")

	c.Start(true)
	s.wait(t, "execution_step", 1)
	c.Reset()

	waitDone(t, c)
	if st := c.State().State; st != controller.StateIdle {
		t.Errorf("state after reset = %s", st)
	}
	if got := s.count("execution_stopped") + s.count("execution_error"); got != 0 {
		t.Errorf("abandoned run reported %d terminal notifications", got)
	}

	c.Load("x = 1\n", "")
	if res := c.Start(false); !res.Success {
		t.Fatalf("start after reset failed: %s", res.Message)
	}
	s.wait(t, "execution_completed", 1)
}

func TestStopInStepMode(t *testing.T) {
	c, s := newController(t)
	c.Load(endless, "")

	c.Start(true)
	s.wait(t, "execution_step", 1)
	c.Stop()

	s.wait(t, "execution_stopped", 1)
	waitDone(t, c)
	if s.count("execution_completed") != 0 || s.count("execution_error") != 0 {
		t.Error("stopped run must not report completion or failure")
	}
}

func TestRuntimeErrorFailsSession(t *testing.T) {
	c, s := newController(t)
	c.Load("x = 1\ny = x / 0\n", "")

	c.Start(false)
	failure := s.wait(t, "execution_error", 1).(controller.ExecutionError)
	waitDone(t, c)

	if failure.Kind != "ZeroDivision" || failure.Line != 2 {
		t.Errorf("failure = %+v", failure)
	}
	if st := c.State().State; st != controller.StateFailed {
		t.Errorf("state = %s", st)
	}

	// a failed program can run again
	if res := c.Start(false); !res.Success {
		t.Fatalf("restart failed: %s", res.Message)
	}
	s.wait(t, "execution_error", 2)
	waitDone(t, c)
}

func TestMaxSteps(t *testing.T) {
	c, s := newController(t, controller.WithMaxSteps(10))
	c.Load(endless, "")

	c.Start(false)
	failure := s.wait(t, "execution_error", 1).(controller.ExecutionError)
	waitDone(t, c)

	if failure.Kind != "MaxStepsExceeded" {
		t.Errorf("failure = %+v", failure)
	}
	if got := s.count("execution_step"); got != 10 {
		t.Errorf("recorded %d steps, want 10", got)
	}
}

func TestLoadErrors(t *testing.T) {
	c, _ := newController(t)

	res := c.Load("x = = 1\n", "")
	if res.Success {
		t.Fatal("expected a syntax error")
	}
	if _, ok := res.Data.(*parser.SyntaxError); !ok {
		t.Errorf("data = %#v", res.Data)
	}

	res = c.Load("x = 1\n", "n = 1\n2bad = 3")
	if res.Success {
		t.Fatal("expected an input error")
	}
	inputErr, ok := res.Data.(controller.InputError)
	if !ok || inputErr.Line != 2 {
		t.Errorf("data = %#v", res.Data)
	}

	if st := c.State().State; st != controller.StateIdle {
		t.Errorf("state after failed loads = %s", st)
	}
}

func TestRejectedTransitions(t *testing.T) {
	c, s := newController(t, controller.WithDelay(time.Millisecond))

	idle := []struct {
		name string
		op   func() controller.Result
	}{
		{"start", func() controller.Result { return c.Start(false) }},
		{"pause", c.Pause},
		{"resume", c.Resume},
		{"step", c.Step},
		{"stop", c.Stop},
	}
	for _, tt := range idle {
		if res := tt.op(); res.Success {
			t.Errorf("%s while idle should be rejected", tt.name)
		}
	}

	if res := c.SetSpeed(-time.Second); res.Success {
		t.Error("negative delay should be rejected")
	}

	c.Load(endless, "")
	c.Start(false)
	s.wait(t, "execution_step", 1)

	running := []struct {
		name string
		op   func() controller.Result
	}{
		{"start", func() controller.Result { return c.Start(false) }},
		{"load", func() controller.Result { return c.Load("x = 1\n", "") }},
		{"step", c.Step},
		{"resume", c.Resume},
	}
	for _, tt := range running {
		if res := tt.op(); res.Success {
			t.Errorf("%s while running should be rejected", tt.name)
		}
	}

	if res := c.SetSpeed(0); !res.Success {
		t.Errorf("set speed while running: %s", res.Message)
	}

	c.Stop()
	waitDone(t, c)

	if res := c.Reset(); !res.Success {
		t.Fatal("reset failed")
	}
	if res := c.Start(false); res.Success {
		t.Error("start after reset should need a new program")
	}
	if st := c.State().State; st != controller.StateIdle {
		t.Errorf("state after reset = %s", st)
	}
}
