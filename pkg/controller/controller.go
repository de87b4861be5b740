// Package controller owns the run state machine of an execution session. It starts
// the worker goroutine that runs the interpreter, coordinates pause, resume, step
// and stop requests with it through a gate, and relays every notification the
// session produces to a single sink.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/ast"
	"stepviz/pkg/interpreter"
	"stepviz/pkg/parser"
	"stepviz/pkg/recorder"
)

// Result is the outcome of a control operation
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(msg string) Result {
	return Result{Success: true, Message: msg}
}

func fail(msg string) Result {
	return Result{Success: false, Message: msg}
}

// Report is the answer to State
type Report struct {
	Result
	State     State              `json:"state"`
	StepMode  bool               `json:"step_mode"`
	Line      int                `json:"line"`
	StepCount int                `json:"step_count"`
	Variables recorder.Variables `json:"variables"`
	CallStack []string           `json:"call_stack"`
}

// InputError is reported by Load when the seeded variables are malformed
type InputError struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// program is a parsed source ready to run
type program struct {
	module  *ast.Module
	inputs  map[string]interpreter.Value
	summary analyzer.Summary
}

// stopGrace is how long Start waits for a cancelled worker to exit
const stopGrace = time.Second

// run is one execution of the loaded program. A detached run was abandoned by
// Reset; its worker may still be winding down but reports nothing.
type run struct {
	gate     *gate
	cancel   context.CancelFunc
	done     chan struct{}
	detached bool
}

type Controller struct {
	sink   recorder.Sink
	logger *log.Logger
	out    io.Writer

	mu       sync.Mutex
	state    State
	stepMode bool
	delay    time.Duration
	maxSteps int
	program  *program
	run      *run
	last     recorder.Step
	steps    int
}

type Option func(*Controller)

// WithDelay sets the pause between consecutive steps in continuous mode
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithMaxSteps aborts sessions that record more than n steps
func WithMaxSteps(n int) Option {
	return func(c *Controller) { c.maxSteps = n }
}

// WithLogger replaces the default logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithWriter echoes the program's printed output to w
func WithWriter(w io.Writer) Option {
	return func(c *Controller) { c.out = w }
}

// New creates an idle controller. Every notification goes to sink, which may be nil.
func New(sink recorder.Sink, opts ...Option) *Controller {
	c := &Controller{
		sink:   sink,
		logger: log.Default(),
		state:  StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) notify(n recorder.Notification) {
	if c.sink != nil {
		c.sink.Notify(n)
	}
}

// Load parses source and seeds the variables described by inputs. On success the
// controller is Ready and the result carries the program summary.
func (c *Controller) Load(source, inputs string) Result {
	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return fail("Cannot load code while an execution is in progress")
	}
	c.mu.Unlock()

	mod, err := parser.Parse(source)
	if err != nil {
		c.logger.Debug("Parse failed", "error", err)
		res := fail(err.Error())
		var serr *parser.SyntaxError
		if errors.As(err, &serr) {
			res.Message = serr.Message
			res.Data = serr
		}
		return res
	}

	vars, err := interpreter.ParseInputs(inputs)
	if err != nil {
		c.logger.Debug("Inputs rejected", "error", err)
		res := fail(err.Error())
		var perr *interpreter.InputParseError
		if errors.As(err, &perr) {
			res.Data = InputError{Kind: "InputError", Message: perr.Error(), Line: perr.Line}
		}
		return res
	}

	summary := analyzer.Summarize(mod, source)

	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return fail("Cannot load code while an execution is in progress")
	}
	c.program = &program{module: mod, inputs: vars, summary: summary}
	c.state = StateReady
	c.last, c.steps = recorder.Step{}, 0
	c.mu.Unlock()

	c.logger.Info("Code parsed", "lines", summary.LineCount, "functions", len(summary.Functions))
	c.notify(CodeParsed{Summary: summary})

	res := ok("Code parsed successfully")
	res.Data = summary
	return res
}

// Start launches a worker for the loaded program. In step mode the first step is
// recorded immediately and each later one waits for Step.
func (c *Controller) Start(stepMode bool) Result {
	c.mu.Lock()
	if msg, ok := c.refuseStart(); !ok {
		c.mu.Unlock()
		return fail(msg)
	}
	prev := c.run
	c.mu.Unlock()

	// a stopped worker finishes its current statement before it exits
	if prev != nil {
		select {
		case <-prev.done:
		case <-time.After(stopGrace):
			return fail("Previous execution is still stopping")
		}
	}

	c.mu.Lock()
	if msg, ok := c.refuseStart(); !ok || c.run != prev {
		c.mu.Unlock()
		if ok {
			msg = "Execution already in progress"
		}
		return fail(msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		gate:   newGate(ctx, stepMode, c.delay),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	rec := recorder.New(recorder.SinkFunc(func(n recorder.Notification) { c.relay(r, n) }))
	opts := []interpreter.Option{interpreter.WithGate(r.gate), interpreter.WithMaxSteps(c.maxSteps)}
	if c.out != nil {
		opts = append(opts, interpreter.WithWriter(c.out))
	}
	it := interpreter.New(rec, opts...)
	for name, v := range c.program.inputs {
		it.Define(name, v)
	}

	c.run = r
	c.stepMode = stepMode
	c.last, c.steps = recorder.Step{}, 0
	c.state = StateRunning
	msg := "Continuous execution started"
	if stepMode {
		c.state = StatePaused
		msg = "Step mode started"
	}
	mod := c.program.module
	c.mu.Unlock()

	c.logger.Info("Execution started", "step_mode", stepMode)
	c.notify(ExecutionStarted{Message: msg, StepMode: stepMode})

	go c.work(r, it, mod)
	return ok(msg)
}

func (c *Controller) refuseStart() (string, bool) {
	switch {
	case c.state.Active():
		return "Execution already in progress", false
	case c.program == nil:
		return "No code to execute", false
	}
	return "", true
}

// relay keeps the latest step for State and forwards n to the sink. Notifications
// from a superseded run are dropped.
func (c *Controller) relay(r *run, n recorder.Notification) {
	c.mu.Lock()
	if c.run != r || r.detached {
		c.mu.Unlock()
		return
	}
	if s, ok := n.(recorder.StepRecorded); ok {
		c.last = s.Step
		c.steps = s.Ordinal + 1
	}
	c.mu.Unlock()

	c.notify(n)
}

func (c *Controller) work(r *run, it *interpreter.Interpreter, mod *ast.Module) {
	defer close(r.done)

	err := execute(it, mod)
	r.cancel()

	c.mu.Lock()
	if c.run != r || r.detached {
		c.mu.Unlock()
		return
	}
	stopped := c.state == StateStopped
	switch {
	case stopped || errors.Is(err, interpreter.ErrExecutionCancelled):
		c.state = StateStopped
	case err != nil:
		c.state = StateFailed
	default:
		c.state = StateCompleted
	}
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateStopped:
		c.logger.Info("Execution stopped")
		c.notify(ExecutionStopped{Message: "Execution stopped by user"})
	case StateFailed:
		c.logger.Error("Execution failed", "error", err)
		c.notify(classify(err))
	default:
		steps := it.Recorder().Steps()
		c.logger.Info("Execution completed", "steps", len(steps))
		c.notify(ExecutionCompleted{Output: it.Output(), Steps: steps, StepCount: len(steps)})
	}
}

// execute runs the program, turning a panic into an error so that one bad
// program cannot take the process down
func execute(it *interpreter.Interpreter, mod *ast.Module) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("execution panicked: %v", p)
		}
	}()
	return it.Run(mod)
}

// classify turns a worker error into its notification
func classify(err error) ExecutionError {
	var rerr *interpreter.RuntimeError
	switch {
	case errors.As(err, &rerr):
		return ExecutionError{Kind: string(rerr.Kind), Message: rerr.Message, Line: rerr.Line}
	case errors.Is(err, interpreter.ErrMaxStepsExceeded):
		return ExecutionError{Kind: "MaxStepsExceeded", Message: err.Error()}
	}
	return ExecutionError{Kind: "RuntimeError", Message: err.Error()}
}

// Pause suspends a continuous run at the next step boundary
func (c *Controller) Pause() Result {
	c.mu.Lock()
	if state := c.state; state != StateRunning {
		c.mu.Unlock()
		if state == StatePaused {
			return fail("Execution is already paused")
		}
		return fail("No execution in progress to pause")
	}
	c.run.gate.pause()
	c.state = StatePaused
	c.mu.Unlock()

	c.logger.Debug("Execution paused")
	c.notify(ExecutionPaused{Message: "Execution paused"})
	return ok("Execution paused")
}

// Resume continues a paused run. Resuming a step-mode run leaves step mode.
func (c *Controller) Resume() Result {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return fail("Execution is not paused")
	}
	if c.stepMode {
		c.stepMode = false
		c.run.gate.continuous()
	} else {
		c.run.gate.resume()
	}
	c.state = StateRunning
	c.mu.Unlock()

	c.logger.Debug("Execution resumed")
	c.notify(ExecutionResumed{Message: "Execution resumed"})
	return ok("Execution resumed")
}

// Step lets a step-mode run record one more step
func (c *Controller) Step() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return fail("No execution in progress")
	}
	if !c.stepMode {
		return fail("Not in step mode")
	}
	if !c.run.gate.advance() {
		return fail("A step is already pending")
	}
	return ok("Step executed")
}

// Stop cancels the running or paused session
func (c *Controller) Stop() Result {
	c.mu.Lock()
	if !c.state.Active() {
		c.mu.Unlock()
		return fail("No execution in progress to stop")
	}
	c.run.cancel()
	c.state = StateStopped
	c.stepMode = false
	c.mu.Unlock()

	c.logger.Info("Stopping execution")
	return ok("Execution stopped")
}

// SetSpeed sets the delay between steps of the current and following runs
func (c *Controller) SetSpeed(delay time.Duration) Result {
	if delay < 0 {
		return fail("Delay must not be negative")
	}

	c.mu.Lock()
	c.delay = delay
	if c.run != nil {
		c.run.gate.setDelay(delay)
	}
	c.mu.Unlock()

	return ok("Speed set to " + delay.String())
}

// State reports the controller state and the latest recorded step
func (c *Controller) State() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := Report{
		Result:    ok(string(c.state)),
		State:     c.state,
		StepMode:  c.stepMode,
		StepCount: c.steps,
		Variables: recorder.Variables{},
		CallStack: []string{},
	}
	if c.steps > 0 {
		report.Line = c.last.Line
		report.Variables = c.last.Variables
		report.CallStack = c.last.CallStack
	}
	return report
}

// Reset stops any session and forgets the loaded program
func (c *Controller) Reset() Result {
	c.mu.Lock()
	if c.run != nil {
		c.run.cancel()
		c.run.detached = true
	}
	c.program = nil
	c.state = StateIdle
	c.stepMode = false
	c.last, c.steps = recorder.Step{}, 0
	c.mu.Unlock()

	c.logger.Debug("Controller reset")
	return ok("Execution reset")
}

// Close releases the controller when its client goes away
func (c *Controller) Close() {
	c.Reset()
}

// Done is closed once the worker of the latest run has exited, including a run
// abandoned by Reset. Without a run it is already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.run.done
}
