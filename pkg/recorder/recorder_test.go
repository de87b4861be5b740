package recorder_test

import (
	"testing"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/recorder"
)

// collector keeps every notification it receives
type collector struct {
	events []recorder.Notification
}

func (c *collector) Notify(n recorder.Notification) {
	c.events = append(c.events, n)
}

func (c *collector) count(event string) int {
	n := 0
	for _, ev := range c.events {
		if ev.Event() == event {
			n++
		}
	}
	return n
}

func TestStepOrdinalsAreContiguous(t *testing.T) {
	sink := &collector{}
	rec := recorder.New(sink)

	for line := 1; line <= 5; line++ {
		rec.RecordStep("Assign", line, "Executing line", nil, []string{"<module>"})
	}

	steps := rec.Steps()
	if len(steps) != 5 || rec.Count() != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	for i, step := range steps {
		if step.Ordinal != i {
			t.Errorf("step %d has ordinal %d", i, step.Ordinal)
		}
	}
	if sink.count("execution_step") != 5 {
		t.Errorf("expected 5 step notifications, got %d", sink.count("execution_step"))
	}

	rec.Reset()
	if rec.Count() != 0 {
		t.Errorf("expected empty log after reset")
	}
	if step := rec.RecordStep("Expr", 1, "", nil, nil); step.Ordinal != 0 {
		t.Errorf("expected ordinal 0 after reset, got %d", step.Ordinal)
	}
}

func TestCallStackIsCopied(t *testing.T) {
	rec := recorder.New(nil)
	labels := []string{"<module>", "f"}
	rec.RecordStep("Call", 1, "", nil, labels)
	labels[1] = "g"

	last, _ := rec.Last()
	if last.CallStack[1] != "f" {
		t.Errorf("step call stack aliased the caller's slice: %v", last.CallStack)
	}
}

func TestIterationLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		breakAt int // -1 runs to completion
		updates int
	}{
		{"full loop", 4, -1, 4},
		{"break on third", 4, 2, 3},
		{"empty loop", 0, -1, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sink := &collector{}
			rec := recorder.New(sink)

			rec.PushIteration("nums", "i", 1, analyzer.PatternSimpleIndex, test.length)
			for i := 0; i < test.length; i++ {
				rec.UpdateIndex("i", i, "x")
				if i == test.breakAt {
					break
				}
			}
			rec.PopIteration("i")

			if got := sink.count("iteration_update"); got != test.updates {
				t.Errorf("expected %d updates, got %d", test.updates, got)
			}
			if got := sink.count("iteration_end"); got != 1 {
				t.Errorf("expected one end, got %d", got)
			}
			if last := sink.events[len(sink.events)-1]; last.Event() != "iteration_end" {
				t.Errorf("expected iteration_end last, got %s", last.Event())
			}
		})
	}
}

func TestNestedContextsPopLIFO(t *testing.T) {
	sink := &collector{}
	rec := recorder.New(sink)

	rec.PushIteration("a", "i", 1, analyzer.PatternDirect, 2)
	rec.PushIteration("b", "j", 2, analyzer.PatternDirect, 2)
	rec.PushIteration("c", "k", 3, analyzer.PatternDirect, 2)

	// closing the middle loop closes the inner one first
	if !rec.PopIteration("j") {
		t.Fatal("expected j to be popped")
	}

	var ended []string
	for _, ev := range sink.events {
		if end, ok := ev.(recorder.IterationEnd); ok {
			ended = append(ended, end.Context.Iterator)
		}
	}
	if len(ended) != 2 || ended[0] != "k" || ended[1] != "j" {
		t.Errorf("expected [k j] to end, got %v", ended)
	}

	stack := rec.Iterations()
	if len(stack) != 1 || stack[0].Iterator != "i" {
		t.Errorf("expected only i left, got %+v", stack)
	}
	if rec.PopIteration("missing") {
		t.Error("expected popping an unknown iterator to fail")
	}
}

func TestUpdateIndexInnermostWins(t *testing.T) {
	rec := recorder.New(nil)
	rec.PushIteration("outer", "i", 1, analyzer.PatternDirect, 3)
	rec.PushIteration("inner", "i", 2, analyzer.PatternDirect, 3)

	rec.UpdateIndex("i", 2, "z")

	stack := rec.Iterations()
	if stack[0].Index != -1 {
		t.Errorf("outer context should be untouched, index %d", stack[0].Index)
	}
	if stack[1].Index != 2 || stack[1].Value != "z" {
		t.Errorf("inner context not updated: %+v", stack[1])
	}
	if stack[1].Level != 1 {
		t.Errorf("expected level 1, got %d", stack[1].Level)
	}
}

func TestNotificationsCarrySnapshots(t *testing.T) {
	sink := &collector{}
	rec := recorder.New(sink)

	rec.PushIteration("s", "i", 1, analyzer.PatternSimpleIndex, 3)
	rec.UpdateIndex("i", 0, "a")
	rec.UpdateIndex("i", 1, "b")

	first := sink.events[1].(recorder.IterationUpdate)
	if first.Context.Index != 0 || first.Stack[0].Index != 0 {
		t.Errorf("earlier notification observed a later mutation: %+v", first)
	}
}

func TestAccessesNeedTwoScanners(t *testing.T) {
	sink := &collector{}
	rec := recorder.New(sink)

	rec.PushIteration("s", "i", 1, analyzer.PatternSimpleIndex, 4)
	if rec.RecordSliceAccess("s", "i", "j", 0, 2, 3) {
		t.Fatal("a single context must not record slice accesses")
	}

	rec.PushIteration("s", "j", 2, analyzer.PatternDualPointer, 4)
	if !rec.RecordSliceAccess("s", "i", "j", 0, 2, 3) {
		t.Fatal("expected slice access to be recorded")
	}
	if !rec.RecordMultiIndexAccess("s", map[string]int{"i": 0, "j": 2}, 3) {
		t.Fatal("expected multi index access to be recorded")
	}
	if rec.RecordMultiIndexAccess("other", map[string]int{"i": 0}, 3) {
		t.Error("unexpected access on a container nobody scans")
	}

	stack := rec.Iterations()
	if stack[0].Accesses != nil {
		t.Errorf("outer context should carry no accesses: %+v", stack[0].Accesses)
	}
	meta := stack[1].Accesses["s"]
	if meta.Kind != analyzer.AccessMultiIndex || meta.Indices["j"] != 2 {
		t.Errorf("unexpected access metadata %+v", meta)
	}
	if sink.count("slice_access") != 1 || sink.count("multi_index_access") != 1 {
		t.Errorf("unexpected access notifications")
	}

	rec.UpdateIndex("j", 3, "d")
	if rec.Iterations()[1].Accesses != nil {
		t.Error("accesses should reset on the next iteration")
	}
}

func TestAnimationDedupPerStep(t *testing.T) {
	sink := &collector{}
	rec := recorder.New(sink)

	ev := recorder.AnimationEvent{
		Type:           "value_transfer",
		Operation:      "append",
		SourceVariable: "i",
		SourceValue:    int64(0),
		SourceDisplay:  "0",
		TargetVariable: "numbers",
		Line:           3,
		AnimationType:  "list_operation",
	}

	if rec.RecordAnimation(ev) {
		t.Fatal("an animation without a step must be dropped")
	}

	rec.RecordStep("Expr", 3, "", nil, nil)
	if !rec.RecordAnimation(ev) {
		t.Fatal("expected first animation to be recorded")
	}
	completed := ev
	completed.Completed = true
	if rec.RecordAnimation(completed) {
		t.Error("completion flag must not change the dedup key")
	}

	rec.RecordStep("Expr", 3, "", nil, nil)
	if !rec.RecordAnimation(ev) {
		t.Error("the same animation on a new step must be recorded")
	}

	if sink.count("animation") != 2 {
		t.Errorf("expected 2 animation notifications, got %d", sink.count("animation"))
	}
	steps := rec.Steps()
	if steps[0].Animation == nil || steps[0].Animation.Step != 0 {
		t.Errorf("expected animation stamped on step 0, got %+v", steps[0].Animation)
	}
	if steps[1].Animation == nil || steps[1].Animation.Step != 1 {
		t.Errorf("expected animation stamped on step 1, got %+v", steps[1].Animation)
	}
}
