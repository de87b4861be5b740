package controller

import (
	"context"
	"sync"
	"time"

	"stepviz/pkg/interpreter"
)

// gate is the interpreter's view of the controller. The worker blocks on channels
// only: a resume channel replaced on every pause, a one-slot step channel and the
// session context, whose cancellation is the stop flag.
type gate struct {
	ctx context.Context

	mu       sync.Mutex
	paused   bool
	resumed  chan struct{}
	stepMode bool
	first    bool
	delay    time.Duration

	step chan struct{}
}

func newGate(ctx context.Context, stepMode bool, delay time.Duration) *gate {
	return &gate{
		ctx:      ctx,
		resumed:  make(chan struct{}),
		stepMode: stepMode,
		first:    stepMode,
		delay:    delay,
		step:     make(chan struct{}, 1),
	}
}

// Await runs before each step is recorded. In step mode every step but the first
// waits for a step signal.
func (g *gate) Await() error {
	for {
		if g.ctx.Err() != nil {
			return interpreter.ErrExecutionCancelled
		}

		g.mu.Lock()
		paused, resumed := g.paused, g.resumed
		wait := g.stepMode && !g.first
		g.first = false
		g.mu.Unlock()

		switch {
		case paused:
			select {
			case <-resumed:
				continue
			case <-g.ctx.Done():
				return interpreter.ErrExecutionCancelled
			}
		case wait:
			select {
			case <-g.step:
			case <-g.ctx.Done():
				return interpreter.ErrExecutionCancelled
			}
		}

		if g.ctx.Err() != nil {
			return interpreter.ErrExecutionCancelled
		}
		return nil
	}
}

// Yield runs after each step is recorded and sleeps the configured delay
func (g *gate) Yield() error {
	g.mu.Lock()
	delay, stepMode := g.delay, g.stepMode
	g.mu.Unlock()

	if stepMode || delay <= 0 {
		if g.ctx.Err() != nil {
			return interpreter.ErrExecutionCancelled
		}
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-g.ctx.Done():
		return interpreter.ErrExecutionCancelled
	}
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.resumed = make(chan struct{})
	}
}

func (g *gate) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.resumed)
	}
}

// advance lets one more step through. It reports false when a step signal is
// already pending.
func (g *gate) advance() bool {
	select {
	case g.step <- struct{}{}:
		return true
	default:
		return false
	}
}

// continuous leaves step mode, waking a worker waiting for a step signal
func (g *gate) continuous() {
	g.mu.Lock()
	g.stepMode = false
	g.mu.Unlock()
	g.advance()
}

func (g *gate) setDelay(d time.Duration) {
	g.mu.Lock()
	g.delay = d
	g.mu.Unlock()
}
