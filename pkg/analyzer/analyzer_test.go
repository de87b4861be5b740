package analyzer_test

import (
	"slices"
	"testing"

	"stepviz/pkg/analyzer"
	"stepviz/pkg/ast"
	"stepviz/pkg/parser"
)

// firstLoop parses source and returns the loop nested depth levels down
func firstLoop(t *testing.T, source string, depth int) *ast.For {
	t.Helper()
	mod, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var found *ast.For
	level := 0
	ast.Inspect(mod, func(n ast.Node) bool {
		if loop, ok := n.(*ast.For); ok && found == nil {
			if level == depth {
				found = loop
				return false
			}
			level++
		}
		return found == nil
	})
	if found == nil {
		t.Fatalf("no loop at depth %d", depth)
	}
	return found
}

func TestLoopPatterns(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		depth     int
		active    []string
		pattern   analyzer.Pattern
		container string
	}{
		{
			name:      "direct",
			source:    "for item in nums:\n    print(item)\n",
			pattern:   analyzer.PatternDirect,
			container: "nums",
		},
		{
			name:      "direct over items",
			source:    "for k, v in scores.items():\n    print(k)\n",
			pattern:   analyzer.PatternDirect,
			container: "scores",
		},
		{
			name:      "simple index",
			source:    "for i in range(len(nums)):\n    total += nums[i]\n",
			pattern:   analyzer.PatternSimpleIndex,
			container: "nums",
		},
		{
			name:      "simple index from zero",
			source:    "for i in range(0, len(nums)):\n    if nums[i] > 0:\n        x = nums[i - 1]\n",
			pattern:   analyzer.PatternSimpleIndex,
			container: "nums",
		},
		{
			name:      "range without subscript",
			source:    "for i in range(len(nums)):\n    print(i)\n",
			pattern:   analyzer.PatternNone,
			container: "nums",
		},
		{
			name:      "plain range",
			source:    "for i in range(3):\n    print(i)\n",
			pattern:   analyzer.PatternNone,
			container: "range(3)",
		},
		{
			name:      "dual pointer",
			source:    "for i in range(len(a)):\n    for j in range(i + 1, len(a)):\n        if a[j] < a[i]:\n            a[i], a[j] = a[j], a[i]\n",
			depth:     1,
			active:    []string{"i"},
			pattern:   analyzer.PatternDualPointer,
			container: "a",
		},
		{
			name:      "start not from an active iterator",
			source:    "for j in range(k, len(a)):\n    print(a[j])\n",
			active:    []string{"i"},
			pattern:   analyzer.PatternSimpleIndex,
			container: "a",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			info := analyzer.AnalyzeLoop(firstLoop(t, test.source, test.depth), test.active)
			if info.Pattern != test.pattern {
				t.Errorf("expected pattern %q, got %q", test.pattern, info.Pattern)
			}
			if info.Container != test.container {
				t.Errorf("expected container %q, got %q", test.container, info.Container)
			}
		})
	}
}

func TestDualPointerSliceRange(t *testing.T) {
	source := "for i in range(len(s)):\n" +
		"    for j in range(i + 1, len(s)):\n" +
		"        sub = s[i:j]\n"

	info := analyzer.AnalyzeLoop(firstLoop(t, source, 1), []string{"i"})

	if info.Pattern != analyzer.PatternDualPointer || info.Container != "s" {
		t.Fatalf("expected dual-pointer over s, got %q over %q", info.Pattern, info.Container)
	}
	if !slices.Contains(info.Active, "i") || !slices.Contains(info.Active, "j") {
		t.Errorf("expected i and j active, got %v", info.Active)
	}
	if len(info.Accesses) != 1 {
		t.Fatalf("expected one access, got %d", len(info.Accesses))
	}
	access := info.Accesses[0]
	if access.Kind != analyzer.AccessSlice || access.Container != "s" || access.Line != 3 {
		t.Errorf("unexpected access %+v", access)
	}
	if !slices.Equal(access.Indices, []string{"i", "j"}) {
		t.Errorf("expected indices [i j], got %v", access.Indices)
	}
}

func TestOuterLoopDoesNotClaimInnerSlice(t *testing.T) {
	source := "for i in range(len(s)):\n" +
		"    for j in range(i + 1, len(s)):\n" +
		"        sub = s[i:j]\n"

	info := analyzer.AnalyzeLoop(firstLoop(t, source, 0), nil)
	if info.Iterator != "i" {
		t.Errorf("expected iterator i, got %q", info.Iterator)
	}
	if info.Pattern != analyzer.PatternSimpleIndex {
		t.Errorf("expected simple-index for the outer loop, got %q", info.Pattern)
	}
	if len(info.Accesses) != 0 {
		t.Errorf("expected no accesses, got %+v", info.Accesses)
	}
}

func TestMultiIndexAccess(t *testing.T) {
	source := "for i in range(len(grid)):\n" +
		"    for j in range(len(grid)):\n" +
		"        if grid[i] > grid[j]:\n" +
		"            count += 1\n"

	info := analyzer.AnalyzeLoop(firstLoop(t, source, 1), []string{"i"})
	if len(info.Accesses) != 1 {
		t.Fatalf("expected one access, got %+v", info.Accesses)
	}
	access := info.Accesses[0]
	if access.Kind != analyzer.AccessMultiIndex || access.Container != "grid" {
		t.Errorf("unexpected access %+v", access)
	}
	if !slices.Equal(access.Indices, []string{"i", "j"}) {
		t.Errorf("expected indices [i j], got %v", access.Indices)
	}
}

func TestTupleTargetIterator(t *testing.T) {
	info := analyzer.AnalyzeLoop(firstLoop(t, "for k, v in pairs:\n    pass\n", 0), nil)
	if info.Iterator != "k, v" || !slices.Equal(info.Targets, []string{"k", "v"}) {
		t.Errorf("unexpected iterator %q targets %v", info.Iterator, info.Targets)
	}
}

func TestSummarize(t *testing.T) {
	source := `def greet(name, punct="!"):
    """Say hello."""
    return "hi " + name + punct

class Counter:
    def __init__(self):
        self.n = 0
    def bump(self):
        self.n += 1

total = 0
a, b = 1, 2
while total < 3:
    total += 1
for x in [1, 2]:
    if x > 1:
        print(greet("x"))`

	mod, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	summary := analyzer.Summarize(mod, source)

	if summary.LineCount != 17 {
		t.Errorf("expected 17 lines, got %d", summary.LineCount)
	}

	greet, ok := summary.Functions["greet"]
	if !ok || !slices.Equal(greet.Args, []string{"name", "punct"}) || greet.Line != 1 || greet.Docstring != "Say hello." {
		t.Errorf("unexpected greet info %+v", greet)
	}
	if _, ok := summary.Functions["bump"]; !ok {
		t.Error("expected methods to be listed as functions")
	}

	counter := summary.Classes["Counter"]
	if counter.Line != 5 || !slices.Equal(counter.Methods, []string{"__init__", "bump"}) {
		t.Errorf("unexpected class info %+v", counter)
	}

	if !slices.Equal(summary.Variables, []string{"a", "b", "total"}) {
		t.Errorf("unexpected variables %v", summary.Variables)
	}

	expected := []analyzer.ControlFlow{
		{Type: "while", Line: 13, Condition: "total < 3"},
		{Type: "for", Line: 15, Target: "x", Iter: "[1, 2]"},
		{Type: "if", Line: 16, Condition: "x > 1"},
	}
	if !slices.Equal(summary.ControlFlow, expected) {
		t.Errorf("expected control flow %+v, got %+v", expected, summary.ControlFlow)
	}
}
