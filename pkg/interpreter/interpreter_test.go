package interpreter_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/interpreter"
	"stepviz/pkg/parser"
	"stepviz/pkg/recorder"
)

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

func run(t *testing.T, source string, opts ...interpreter.Option) (*interpreter.Interpreter, *collector, error) {
	t.Helper()
	mod, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sink := &collector{}
	it := interpreter.New(recorder.New(sink), opts...)
	return it, sink, it.Run(mod)
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"-7 % 3", "2"},
		{"7 % -3", "-2"},
		{"7 / 2", "3.5"},
		{"2 ** 10", "1024"},
		{"2 ** -1", "0.5"},
		{"2 ** 62", "4611686018427387904"},
		{"(-2) ** 63", "-9223372036854775808"},
		{"-9223372036854775807 - 1", "-9223372036854775808"},
		{"9223372036854775807 - 0", "9223372036854775807"},
		{"-3037000499 * 3037000499", "-9223372030926249001"},
		{"'ab' * 0", ""},
		{"[] * (2 ** 62)", "[]"},
		{"True + 1", "2"},
		{"'ab' * 3", "ababab"},
		{"[1, 2] + [3]", "[1, 2, 3]"},
		{"1 < 2 < 3", "True"},
		{"3 > 2 > 2", "False"},
		{"1 == 1.0", "True"},
		{"0 or 'x'", "x"},
		{"1 and 0", "0"},
		{"not []", "True"},
		{"'a' in 'cat'", "True"},
		{"3 not in [1, 2]", "True"},
		{"None is None", "True"},
		{"[1, 2, 3][-1]", "3"},
		{"'hello'[1:3]", "el"},
		{"[0, 1, 2, 3, 4][::2]", "[0, 2, 4]"},
		{"[0, 1, 2, 3][::-1]", "[3, 2, 1, 0]"},
		{"len({'a': 1, 'b': 2})", "2"},
		{"f'{3.14159:.2f}'", "3.14"},
		{"f'{42:>5}'", "   42"},
		{"f'{1234567:,}'", "1,234,567"},
		{"f'{0.25:.0%}'", "25%"},
		{"sorted([3, 1, 2], reverse=True)", "[3, 2, 1]"},
		{"max([4, 9, 2])", "9"},
		{"min(3, 1, 2)", "1"},
		{"sum([1, 2, 3])", "6"},
		{"round(2.5)", "2"},
		{"round(3.14159, 2)", "3.14"},
		{"list(range(5, 0, -2))", "[5, 3, 1]"},
		{"'a,b'.split(',')", "['a', 'b']"},
		{"'-'.join(['x', 'y'])", "x-y"},
		{"{'a': 1}.get('b', 0)", "0"},
		{"int('42') + float('0.5')", "42.5"},
		{"str(None)", "None"},
		{"abs(-3)", "3"},
		{"'Hi'.upper()", "HI"},
		{"'hello'.find('l')", "2"},
		{"enumerate(['a'])", "[[0, 'a']]"},
		{"zip([1, 2], [3])", "[[1, 3]]"},
		{"{'k': [1]}", "{'k': [1]}"},
	}

	for _, tt := range tests {
		expr, err := parser.ParseExpression(tt.input)
		if err != nil {
			t.Errorf("%s: parse error: %v", tt.input, err)
			continue
		}
		v, err := interpreter.New(nil).Evaluate(expr)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.input, err)
			continue
		}
		if got := v.String(); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name: "recursion",
			source: "def fib(n):\n" +
				"    if n < 2:\n" +
				"        return n\n" +
				"    return fib(n - 1) + fib(n - 2)\n" +
				"print(fib(10))\n",
			expected: []string{"55"},
		},
		{
			name: "class with defaults and class attribute",
			source: "class Counter:\n" +
				"    step = 2\n" +
				"    def __init__(self, start=0):\n" +
				"        self.value = start\n" +
				"    def bump(self):\n" +
				"        self.value += self.step\n" +
				"        return self.value\n" +
				"c = Counter(start=5)\n" +
				"c.bump()\n" +
				"print(c.bump(), c.value)\n",
			expected: []string{"9 9"},
		},
		{
			name: "inheritance",
			source: "class Animal:\n" +
				"    def __init__(self, name):\n" +
				"        self.name = name\n" +
				"    def speak(self):\n" +
				"        return self.name + \" makes a sound\"\n" +
				"class Dog(Animal):\n" +
				"    def speak(self):\n" +
				"        return self.name + \" barks\"\n" +
				"print(Dog(\"Rex\").speak(), Animal(\"Cat\").speak())\n",
			expected: []string{"Rex barks Cat makes a sound"},
		},
		{
			name: "unpacking and loop control",
			source: "a, b = 1, 2\n" +
				"a, b = b, a\n" +
				"total = 0\n" +
				"for x in [1, 2, 3, 4, 5, 6]:\n" +
				"    if x % 2 == 0:\n" +
				"        continue\n" +
				"    if x > 4:\n" +
				"        break\n" +
				"    total += x\n" +
				"print(a, b, total)\n",
			expected: []string{"2 1 4"},
		},
		{
			name: "return from inside a loop",
			source: "def first_even(xs):\n" +
				"    for x in xs:\n" +
				"        if x % 2 == 0:\n" +
				"            return x\n" +
				"    return None\n" +
				"print(first_even([1, 3, 4, 6]), first_even([1]))\n",
			expected: []string{"4 None"},
		},
		{
			name: "while",
			source: "n = 0\n" +
				"while True:\n" +
				"    n += 1\n" +
				"    if n >= 3:\n" +
				"        break\n" +
				"print(n)\n",
			expected: []string{"3"},
		},
		{
			name: "dict counting",
			source: "counts = {}\n" +
				"for w in \"a b a\".split():\n" +
				"    counts[w] = counts.get(w, 0) + 1\n" +
				"for k, v in counts.items():\n" +
				"    print(k, v)\n",
			expected: []string{"a 2", "b 1"},
		},
		{
			name: "closure",
			source: "def outer():\n" +
				"    base = 10\n" +
				"    def inner(x):\n" +
				"        return base + x\n" +
				"    return inner\n" +
				"f = outer()\n" +
				"print(f(5))\n",
			expected: []string{"15"},
		},
		{
			name:     "print separators and f-strings",
			source:   "name = \"x\"\nprint(1, 2, sep=\"-\")\nprint(f\"{name}={1 + 1}\")\n",
			expected: []string{"1-2", "x=2"},
		},
		{
			name:     "list augmented assignment extends in place",
			source:   "xs = [1]\nys = xs\nxs += [2]\nprint(ys)\n",
			expected: []string{"[1, 2]"},
		},
		{
			name:     "missing argument stays unbound",
			source:   "def f(a, b):\n    return a\nprint(f(1))\n",
			expected: []string{"1"},
		},
		{
			name:     "extra positional arguments are dropped",
			source:   "def f(a):\n    return a\nprint(f(1, 2))\n",
			expected: []string{"1"},
		},
		{
			name:     "unknown keyword is bound by name",
			source:   "def f(a):\n    return a + b\nprint(f(1, b=2))\n",
			expected: []string{"3"},
		},
		{
			name:     "keyword overrides positional",
			source:   "def f(a):\n    return a\nprint(f(1, a=7))\n",
			expected: []string{"7"},
		},
		{
			name:     "class without __init__ ignores arguments",
			source:   "class C:\n    pass\nc = C(1, k=2)\nprint('ok')\n",
			expected: []string{"ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			it, _, err := run(t, tt.source, interpreter.WithWriter(&out))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(it.Output(), tt.expected) {
				t.Errorf("expected output %q, got %q", tt.expected, it.Output())
			}
			if want := strings.Join(tt.expected, "\n") + "\n"; out.String() != want {
				t.Errorf("expected writer to receive %q, got %q", want, out.String())
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		kind   interpreter.ErrorKind
		line   int
	}{
		{"print(y)", interpreter.NameNotFound, 1},
		{"x = 1\ny = x / 0", interpreter.ZeroDivision, 2},
		{"x = [1]\nx[3]", interpreter.IndexOutOfRange, 2},
		{"d = {}\nd['k']", interpreter.KeyNotFound, 2},
		{"1 + 'a'", interpreter.UnsupportedOperator, 1},
		{"1 < 'a'", interpreter.TypeMismatch, 1},
		{"x = 'a'\nint(x)", interpreter.ArgumentError, 2},
		{"x = 'ab' * (2 ** 62)", interpreter.OverflowError, 1},
		{"x = [1, 2] * (2 ** 62)", interpreter.OverflowError, 1},
		{"n = 2\nx = n ** 64", interpreter.OverflowError, 2},
		{"x = 9223372036854775807 + 1", interpreter.OverflowError, 1},
		{"x = -9223372036854775807 - 2", interpreter.OverflowError, 1},
		{"x = 3037000500 * 3037000500", interpreter.OverflowError, 1},
		{"x = abs(-9223372036854775807 - 1)", interpreter.OverflowError, 1},
		{"x = -9223372036854775807 - 1\ny = -x", interpreter.OverflowError, 2},
		{"def f():\n    return f()\nf()", interpreter.RecursionError, 2},
		{"class P:\n    pass\nP().missing", interpreter.NameNotFound, 3},
	}

	for _, tt := range tests {
		_, _, err := run(t, tt.source)
		var rerr *interpreter.RuntimeError
		if !errors.As(err, &rerr) {
			t.Errorf("%q: expected a runtime error, got %v", tt.source, err)
			continue
		}
		if rerr.Kind != tt.kind || rerr.Line != tt.line {
			t.Errorf("%q: expected %s on line %d, got %s on line %d", tt.source, tt.kind, tt.line, rerr.Kind, rerr.Line)
		}
	}
}

func TestStepSnapshots(t *testing.T) {
	source := "g = 1\n" +
		"def f(a):\n" +
		"    b = a + 1\n" +
		"    return b\n" +
		"f(2)\n"
	it, _, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps := it.Recorder().Steps()
	var kinds []string
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	expected := []string{"Assign", "FunctionDef", "Expr", "Call", "Assign", "Return"}
	if !slices.Equal(kinds, expected) {
		t.Fatalf("expected steps %v, got %v", expected, kinds)
	}

	ret := steps[5]
	if ret.Line != 4 || ret.Description != "Executing line 4: Return" {
		t.Errorf("unexpected return step %+v", ret)
	}
	if !slices.Equal(ret.CallStack, []string{"f()"}) {
		t.Errorf("expected call stack [f()], got %v", ret.CallStack)
	}
	if _, ok := ret.Variables["local"]["b"]; !ok {
		t.Errorf("expected local b in %v", ret.Variables["local"])
	}
	if _, ok := ret.Variables["global"]["f"]; ok {
		t.Errorf("functions should not appear in snapshots")
	}
	if v := ret.Variables["global"]["g"]; v.Type != "int" || v.Display != "1" {
		t.Errorf("unexpected view of g: %+v", v)
	}
	if len(steps[0].CallStack) != 0 {
		t.Errorf("expected an empty call stack at module level, got %v", steps[0].CallStack)
	}
}

func TestDescribe(t *testing.T) {
	items := make([]interpreter.Value, 12)
	for i := range items {
		items[i] = interpreter.NewInt(int64(i))
	}
	view := interpreter.Describe(interpreter.NewList(items...))
	if view.Display != "[0, 1, 2...]" {
		t.Errorf("unexpected list display %q", view.Display)
	}
	if raw, ok := view.Value.([]any); !ok || len(raw) != 10 {
		t.Errorf("expected 10 raw items, got %v", view.Value)
	}
	if view.Length == nil || *view.Length != 12 {
		t.Errorf("expected length 12")
	}

	m := interpreter.NewMap()
	for _, k := range []string{"a", "b", "c"} {
		m.Map.Set(interpreter.NewString(k), interpreter.NewInt(1))
	}
	if view := interpreter.Describe(m); view.Display != "{a: 1, b: 1...}" || view.Type != "dict" {
		t.Errorf("unexpected dict view %+v", view)
	}
}

func TestLoopNotificationsAndAppendAnimations(t *testing.T) {
	source := "numbers = []\n" +
		"for i in range(3):\n" +
		"    numbers.append(i)\n"
	it, sink, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := it.Lookup("numbers"); v.String() != "[0, 1, 2]" {
		t.Errorf("expected [0, 1, 2], got %s", v)
	}
	if sink.count("iteration_start") != 1 || sink.count("iteration_update") != 3 || sink.count("iteration_end") != 1 {
		t.Errorf("unexpected iteration notifications: %d start, %d update, %d end",
			sink.count("iteration_start"), sink.count("iteration_update"), sink.count("iteration_end"))
	}

	var values []any
	for _, ev := range sink.events {
		anim, ok := ev.(recorder.AnimationRecorded)
		if !ok {
			continue
		}
		if !anim.Completed || anim.AnimationType != "list_operation" || anim.TargetVariable != "numbers" || anim.SourceVariable != "i" {
			t.Errorf("unexpected animation %+v", anim.AnimationEvent)
		}
		values = append(values, anim.SourceValue)
	}
	if !slices.Equal(values, []any{int64(0), int64(1), int64(2)}) {
		t.Errorf("expected source values 0, 1, 2, got %v", values)
	}
}

func TestBreakClosesIteration(t *testing.T) {
	source := "for x in [1, 2, 3, 4, 5]:\n" +
		"    if x == 3:\n" +
		"        break\n"
	it, sink, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.count("iteration_update") != 3 || sink.count("iteration_end") != 1 {
		t.Errorf("expected 3 updates and 1 end, got %d and %d", sink.count("iteration_update"), sink.count("iteration_end"))
	}
	if len(it.Recorder().Iterations()) != 0 {
		t.Errorf("expected no open iteration contexts")
	}
}

func TestReturnClosesNestedIterations(t *testing.T) {
	source := "def f():\n" +
		"    for i in range(2):\n" +
		"        for j in range(2):\n" +
		"            return j\n" +
		"f()\n"
	it, sink, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ended []string
	for _, ev := range sink.events {
		if end, ok := ev.(recorder.IterationEnd); ok {
			ended = append(ended, end.Context.Iterator)
		}
	}
	if !slices.Equal(ended, []string{"j", "i"}) {
		t.Errorf("expected contexts to close innermost first, got %v", ended)
	}
	if len(it.Recorder().Iterations()) != 0 {
		t.Errorf("expected no open iteration contexts")
	}
}

func TestDualPointerSlices(t *testing.T) {
	source := "s = \"abc\"\n" +
		"for i in range(len(s)):\n" +
		"    for j in range(i + 1, len(s)):\n" +
		"        sub = s[i:j]\n"
	_, sink, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var patterns []analyzer.Pattern
	var slicesSeen int
	for _, ev := range sink.events {
		switch n := ev.(type) {
		case recorder.IterationStart:
			patterns = append(patterns, n.Context.Pattern)
		case recorder.SliceAccess:
			slicesSeen++
			if n.Container != "s" || n.Start != "i" || n.End != "j" || n.EndIndex <= n.StartIndex {
				t.Errorf("unexpected slice access %+v", n)
			}
		}
	}
	if len(patterns) == 0 || patterns[0] != analyzer.PatternSimpleIndex {
		t.Fatalf("expected the outer loop to be simple-index, got %v", patterns)
	}
	for _, p := range patterns[1:] {
		if p != analyzer.PatternDualPointer {
			t.Errorf("expected inner loops to be dual-pointer, got %q", p)
		}
	}
	// i=0 runs j=1,2 and i=1 runs j=2
	if slicesSeen != 3 {
		t.Errorf("expected 3 slice accesses, got %d", slicesSeen)
	}
}

func TestAssignmentAnimation(t *testing.T) {
	source := "seen = {}\n" +
		"key = \"a\"\n" +
		"value = 7\n" +
		"seen[key] = value\n"
	_, sink, err := run(t, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.count("animation") != 1 {
		t.Fatalf("expected one animation, got %d", sink.count("animation"))
	}
	for _, ev := range sink.events {
		if anim, ok := ev.(recorder.AnimationRecorded); ok {
			if anim.AnimationType != "assignment_operation" || anim.TargetVariable != "seen" || anim.Step != 3 {
				t.Errorf("unexpected animation %+v", anim.AnimationEvent)
			}
		}
	}
}

// fakeGate records how many steps existed each time the interpreter waited
type fakeGate struct {
	rec     *recorder.Recorder
	awaited []int
	cancel  int
}

func (g *fakeGate) Await() error {
	g.awaited = append(g.awaited, g.rec.Count())
	if g.cancel > 0 && len(g.awaited) == g.cancel {
		return interpreter.ErrExecutionCancelled
	}
	return nil
}

func (g *fakeGate) Yield() error { return nil }

func TestGateIsConsultedBeforeEachStep(t *testing.T) {
	mod, err := parser.Parse("a = 1\nb = 2\nc = 3\n")
	if err != nil {
		t.Fatal(err)
	}
	rec := recorder.New(nil)
	gate := &fakeGate{rec: rec, cancel: 3}
	it := interpreter.New(rec, interpreter.WithGate(gate))

	if err := it.Run(mod); !errors.Is(err, interpreter.ErrExecutionCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if !slices.Equal(gate.awaited, []int{0, 1, 2}) {
		t.Errorf("expected waits before steps 0, 1, 2, got %v", gate.awaited)
	}
	if rec.Count() != 2 {
		t.Errorf("expected 2 steps before cancellation, got %d", rec.Count())
	}
}

func TestMaxSteps(t *testing.T) {
	_, _, err := run(t, "n = 0\nwhile True:\n    n += 1\n", interpreter.WithMaxSteps(50))
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestParseInputs(t *testing.T) {
	vars, err := interpreter.ParseInputs("# seeded\nnums = [3, 1, 2]\n\nn = len(nums)\nname = 'x'\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vars["nums"].String() != "[3, 1, 2]" || vars["n"].String() != "3" || vars["name"].String() != "x" {
		t.Errorf("unexpected inputs %v", vars)
	}

	bad := []struct {
		input string
		line  int
	}{
		{"nums = [1, 2", 1},
		{"x = 1\njust text", 2},
		{"1x = 3", 1},
		{"a = undefined", 1},
	}
	for _, tt := range bad {
		_, err := interpreter.ParseInputs(tt.input)
		var perr *interpreter.InputParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected InputParseError, got %v", tt.input, err)
			continue
		}
		if perr.Line != tt.line {
			t.Errorf("%q: expected line %d, got %d", tt.input, tt.line, perr.Line)
		}
	}
}
