// Package recorder keeps the execution trace of a session: the append-only step
// log, the stack of active loop iterations and the animation events attached to
// steps. A Recorder belongs to the goroutine running the interpreter; everything
// it hands out is a copy.
package recorder

import (
	"maps"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/stack"
)

type Recorder struct {
	sink     Sink
	steps    []Step
	contexts *stack.Stack[*IterationContext]
	seen     map[animationKey]struct{}
}

// New creates a recorder reporting to sink, which may be nil
func New(sink Sink) *Recorder {
	return &Recorder{
		sink:     sink,
		contexts: stack.New[*IterationContext](),
		seen:     make(map[animationKey]struct{}),
	}
}

// SetSink replaces the notification sink
func (r *Recorder) SetSink(sink Sink) {
	r.sink = sink
}

func (r *Recorder) notify(n Notification) {
	if r.sink != nil {
		r.sink.Notify(n)
	}
}

// RecordStep appends a step with the next ordinal and reports it
func (r *Recorder) RecordStep(kind string, line int, description string, variables Variables, callStack []string) Step {
	step := Step{
		Ordinal:     len(r.steps),
		Line:        line,
		Kind:        kind,
		Description: description,
		Variables:   variables,
		CallStack:   append([]string{}, callStack...),
	}
	r.steps = append(r.steps, step)
	clear(r.seen)

	r.notify(StepRecorded{Step: step})
	return step
}

// Steps returns a copy of the step log
func (r *Recorder) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Last returns the most recent step
func (r *Recorder) Last() (Step, bool) {
	if len(r.steps) == 0 {
		return Step{}, false
	}
	return r.steps[len(r.steps)-1], true
}

// Count is the number of recorded steps
func (r *Recorder) Count() int {
	return len(r.steps)
}

// Iterations returns a deep copy of the iteration stack, outermost first
func (r *Recorder) Iterations() []IterationContext {
	out := make([]IterationContext, 0, r.contexts.Size())
	for _, ctx := range r.contexts.Array() {
		out = append(out, ctx.clone())
	}
	return out
}

// PushIteration opens a context for a loop that is about to run
func (r *Recorder) PushIteration(container, iterator string, line int, pattern analyzer.Pattern, length int) {
	ctx := &IterationContext{
		Container: container,
		Iterator:  iterator,
		Index:     -1,
		Level:     r.contexts.Size(),
		Line:      line,
		Pattern:   pattern,
		Length:    length,
	}
	r.contexts.Push(ctx)

	r.notify(IterationStart{Context: ctx.clone(), Stack: r.Iterations()})
}

// find returns the topmost context for iterator
func (r *Recorder) find(iterator string) *IterationContext {
	var found *IterationContext
	r.contexts.Each(func(ctx *IterationContext) bool {
		if ctx.Iterator == iterator {
			found = ctx
			return false
		}
		return true
	})
	return found
}

// UpdateIndex moves the topmost context for iterator to a new index. Accesses
// recorded during the previous iteration are dropped.
func (r *Recorder) UpdateIndex(iterator string, index int, display string) bool {
	ctx := r.find(iterator)
	if ctx == nil {
		return false
	}
	ctx.Index = index
	ctx.Value = display
	ctx.Accesses = nil

	r.notify(IterationUpdate{Context: ctx.clone(), Stack: r.Iterations()})
	return true
}

// scanning returns the topmost context for container when at least two active
// contexts walk that container
func (r *Recorder) scanning(container string) *IterationContext {
	var top *IterationContext
	n := 0
	r.contexts.Each(func(ctx *IterationContext) bool {
		if ctx.Container == container {
			if top == nil {
				top = ctx
			}
			n++
		}
		return true
	})
	if n < 2 {
		return nil
	}
	return top
}

// RecordMultiIndexAccess notes that container was read through several iterators
func (r *Recorder) RecordMultiIndexAccess(container string, indices map[string]int, line int) bool {
	ctx := r.scanning(container)
	if ctx == nil {
		return false
	}
	if ctx.Accesses == nil {
		ctx.Accesses = make(map[string]AccessMeta)
	}
	ctx.Accesses[container] = AccessMeta{
		Kind:    analyzer.AccessMultiIndex,
		Indices: maps.Clone(indices),
		Line:    line,
	}

	r.notify(MultiIndexAccess{
		Container: container,
		Indices:   maps.Clone(indices),
		Line:      line,
		Stack:     r.Iterations(),
	})
	return true
}

// RecordSliceAccess notes that container[start:end] was read with both bounds
// held by active iterators
func (r *Recorder) RecordSliceAccess(container, start, end string, startIndex, endIndex, line int) bool {
	ctx := r.scanning(container)
	if ctx == nil {
		return false
	}
	if ctx.Accesses == nil {
		ctx.Accesses = make(map[string]AccessMeta)
	}
	ctx.Accesses[container] = AccessMeta{
		Kind:       analyzer.AccessSlice,
		Start:      start,
		End:        end,
		StartIndex: startIndex,
		EndIndex:   endIndex,
		Line:       line,
	}

	r.notify(SliceAccess{
		Container:  container,
		Start:      start,
		End:        end,
		StartIndex: startIndex,
		EndIndex:   endIndex,
		Line:       line,
		Stack:      r.Iterations(),
	})
	return true
}

// PopIteration closes the topmost context for iterator. Contexts above it are
// closed first so removal stays strictly LIFO.
func (r *Recorder) PopIteration(iterator string) bool {
	if r.find(iterator) == nil {
		return false
	}
	for {
		ctx, _ := r.contexts.Pop()
		r.notify(IterationEnd{Context: ctx.clone(), Stack: r.Iterations()})
		if ctx.Iterator == iterator {
			return true
		}
	}
}

// RecordAnimation stamps ev on the latest step. An identical event for the same
// step is dropped.
func (r *Recorder) RecordAnimation(ev AnimationEvent) bool {
	if len(r.steps) == 0 {
		return false
	}
	ev.Step = len(r.steps) - 1

	k := ev.key()
	if _, dup := r.seen[k]; dup {
		return false
	}
	r.seen[k] = struct{}{}

	stamped := ev
	r.steps[ev.Step].Animation = &stamped
	r.notify(AnimationRecorded{AnimationEvent: ev})
	return true
}

// Reset clears the log, the iteration stack and the dedup state
func (r *Recorder) Reset() {
	r.steps = nil
	r.contexts.Clear()
	clear(r.seen)
}
