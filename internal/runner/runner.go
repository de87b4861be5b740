package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"stepviz/pkg/color"
	"stepviz/pkg/controller"
	"stepviz/pkg/parser"
)

type Runner struct {
	Help       bool          // Show help message
	Verbose    bool          // Enable verbose output
	Trace      bool          // Print every recorded step
	StepMode   bool          // Wait for Enter before each step
	NoColor    bool          // Disable colored output
	Delay      time.Duration // Pause between steps
	MaxSteps   int           // Abort after this many steps, 0 for no limit
	SourceFile string        // Path to the source file
	InputsFile string        // Path to a file of `name = value` lines

	Stdin  io.Reader
	Stdout io.Writer
}

var ErrExecutionFailed = errors.New("execution failed")

// Run loads the source file into a controller and drives it to the end
func (opts *Runner) Run() error {
	log.Info("Processing file", "file", opts.SourceFile)

	stdin, stdout := opts.Stdin, opts.Stdout
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}

	source, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var inputs []byte
	if opts.InputsFile != "" {
		if inputs, err = os.ReadFile(opts.InputsFile); err != nil {
			return fmt.Errorf("failed to read inputs: %w", err)
		}
	}

	out := &printer{
		w:       stdout,
		trace:   opts.Trace || opts.StepMode,
		verbose: opts.Verbose,
		stepped: make(chan struct{}, 1),
	}
	ctrl := controller.New(out,
		controller.WithDelay(opts.Delay),
		controller.WithMaxSteps(opts.MaxSteps),
		controller.WithWriter(stdout))
	defer ctrl.Close()

	res := ctrl.Load(string(source), string(inputs))
	if !res.Success {
		if serr, ok := res.Data.(*parser.SyntaxError); ok {
			fmt.Fprintln(stdout, color.ErrorWithPosition(serr.Line, serr.Offset, serr.Message, sourceLine(string(source), serr.Line)))
			return fmt.Errorf("parsing failed: %w", serr)
		}
		fmt.Fprintln(stdout, color.Error(res.Message))
		return errors.New(res.Message)
	}

	if res := ctrl.Start(opts.StepMode); !res.Success {
		return errors.New(res.Message)
	}
	if opts.StepMode {
		go drive(ctrl, stdin, out.stepped)
	}
	<-ctrl.Done()

	switch st := ctrl.State().State; st {
	case controller.StateCompleted:
		return nil
	case controller.StateStopped:
		return nil
	default:
		return fmt.Errorf("%w: state %s", ErrExecutionFailed, st)
	}
}

// drive steps the controller on each line read from in. "c" continues without
// stopping and "q" or the end of input stops.
func drive(ctrl *controller.Controller, in io.Reader, stepped <-chan struct{}) {
	// wait returns once more than n steps are recorded or the run is over
	wait := func(n int) {
		for {
			report := ctrl.State()
			if report.StepCount > n || !report.State.Active() {
				return
			}
			select {
			case <-stepped:
			case <-ctrl.Done():
				return
			}
		}
	}

	wait(0)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var res controller.Result
		switch strings.TrimSpace(scanner.Text()) {
		case "c":
			res = ctrl.Resume()
		case "q":
			res = ctrl.Stop()
		default:
			n := ctrl.State().StepCount
			if res = ctrl.Step(); res.Success {
				wait(n)
			}
		}
		if !res.Success {
			log.Debug("Command rejected", "message", res.Message)
		}
		if st := ctrl.State().State; !st.Active() {
			return
		}
	}
	ctrl.Stop()
}

func sourceLine(source string, line int) string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}
