// Package interpreter evaluates parsed programs while recording a step-by-step
// trace. Every trackable node passes through a single instrumentation point where
// the interpreter waits on its Gate, records a Step, and yields to the Gate again.
package interpreter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/ast"
	"stepviz/pkg/recorder"
	"stepviz/pkg/stack"
)

const maxCallDepth = 500

// Gate coordinates the worker running the interpreter with whoever controls it
type Gate interface {
	// Await blocks while execution is paused and returns ErrExecutionCancelled
	// once execution has been stopped.
	Await() error
	// Yield runs after a step has been recorded: it waits for a step signal in
	// step mode or sleeps the configured delay otherwise.
	Yield() error
}

// Interpreter walks the syntax tree of one program
type Interpreter struct {
	rec  *recorder.Recorder
	gate Gate
	out  io.Writer

	globals  *Scope
	builtins *Scope
	frames   *stack.Stack[*CallFrame]

	loops  map[*ast.For]analyzer.LoopInfo // analysis cached per loop node
	active []string                       // iterator names of the loops currently running

	returnValue Value
	output      []string
	line        int

	maxSteps int  // maximum steps (0 = unlimited)
	steps    int  // steps recorded
	sandbox  bool // evaluate without recording
}

type Option func(*Interpreter)

// WithWriter echoes printed lines to w
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithGate installs the gate consulted at every instrumentation point
func WithGate(g Gate) Option {
	return func(i *Interpreter) { i.gate = g }
}

// WithMaxSteps sets a maximum number of recorded steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// New creates an interpreter recording into rec. A nil rec gets a recorder
// without a sink.
func New(rec *recorder.Recorder, opts ...Option) *Interpreter {
	if rec == nil {
		rec = recorder.New(nil)
	}

	it := &Interpreter{
		rec:      rec,
		globals:  NewScope(),
		builtins: NewScope(),
		frames:   stack.New[*CallFrame](),
		loops:    make(map[*ast.For]analyzer.LoopInfo),
	}
	it.installBuiltins()

	for _, o := range opts {
		o(it)
	}

	return it
}

// Recorder returns the recorder this interpreter writes to
func (i *Interpreter) Recorder() *recorder.Recorder {
	return i.rec
}

// Run executes a whole program. A panic inside the evaluator is returned as an
// InternalError.
func (i *Interpreter) Run(mod *ast.Module) (err error) {
	log.Debug("Running program", "statements", len(mod.Body))
	defer i.recoverInto(&err)

	f, err := i.execBlock(mod.Body)
	if err != nil {
		return err
	}
	if f != flowNormal {
		return i.errorf(TypeMismatch, "'%s' outside of its block", f)
	}
	return nil
}

// Evaluate evaluates a single expression against the current state
func (i *Interpreter) Evaluate(expr ast.Expr) (v Value, err error) {
	defer i.recoverInto(&err)
	return i.eval(expr)
}

func (i *Interpreter) recoverInto(err *error) {
	if p := recover(); p != nil {
		log.Error("Interpreter panic", "panic", p, "line", i.line)
		*err = &RuntimeError{Kind: InternalError, Message: fmt.Sprint(p), Line: i.line}
	}
}

// Output returns the lines printed so far
func (i *Interpreter) Output() []string {
	return append([]string(nil), i.output...)
}

// Define binds a global variable before the program runs
func (i *Interpreter) Define(name string, v Value) {
	i.globals.Set(name, v)
}

// Lookup resolves a name the way the running program would
func (i *Interpreter) Lookup(name string) (Value, bool) {
	return i.lookup(name)
}

// Line is the line of the statement executing now
func (i *Interpreter) Line() int {
	return i.line
}

// CallStack returns the labels of the active function calls, outermost first
func (i *Interpreter) CallStack() []string {
	labels := []string{}
	for _, f := range i.frames.Array() {
		if f.Label != "" {
			labels = append(labels, f.Label)
		}
	}
	return labels
}

// Snapshot describes the visible variables: module globals and the innermost
// frame's locals. Callables and dunder names are left out.
func (i *Interpreter) Snapshot() recorder.Variables {
	vars := recorder.Variables{
		"global": i.describeScope(i.globals),
		"local":  {},
	}
	if top, ok := i.frames.Peek(); ok {
		vars["local"] = i.describeScope(top.Scope)
	}
	return vars
}

func (i *Interpreter) describeScope(s *Scope) map[string]recorder.VariableView {
	views := make(map[string]recorder.VariableView, s.Len())
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		if strings.HasPrefix(name, "__") || v.IsCallable() {
			continue
		}
		views[name] = Describe(v)
	}
	return views
}

// instrument is the single instrumentation point for trackable nodes
func (i *Interpreter) instrument(n ast.Node) error {
	if i.sandbox {
		return nil
	}
	if i.gate != nil {
		if err := i.gate.Await(); err != nil {
			return err
		}
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return ErrMaxStepsExceeded
	}
	i.steps++

	kind := n.Kind().String()
	line := n.Line()
	i.rec.RecordStep(kind, line, fmt.Sprintf("Executing line %d: %s", line, kind), i.Snapshot(), i.CallStack())

	if i.gate != nil {
		return i.gate.Yield()
	}
	return nil
}

// lookup walks the frames from the innermost out, then the innermost function's
// defining scope, then globals and builtins
func (i *Interpreter) lookup(name string) (Value, bool) {
	var (
		v     Value
		found bool
	)
	i.frames.Each(func(f *CallFrame) bool {
		v, found = f.Scope.Get(name)
		return !found
	})
	if found {
		return v, true
	}

	if top, ok := i.frames.Peek(); ok && top.Function != nil && top.Function.Closure != nil {
		if v, ok := top.Function.Closure.Get(name); ok {
			return v, true
		}
	}
	if v, ok := i.globals.Get(name); ok {
		return v, true
	}
	return i.builtins.Get(name)
}

// setVar binds name in the innermost frame, or globally at module level
func (i *Interpreter) setVar(name string, v Value) {
	if top, ok := i.frames.Peek(); ok {
		top.Scope.Set(name, v)
		return
	}
	i.globals.Set(name, v)
}
