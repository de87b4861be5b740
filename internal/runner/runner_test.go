package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stepviz/pkg/color"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	defer color.EnableColor(color.IsColorEnabled())
	color.EnableColor(false)

	tests := []struct {
		name     string
		source   string
		inputs   string
		opts     Runner
		contains []string
		err      error
	}{
		{
			name:     "prints output",
			source:   "total = 0\nfor x in nums:\n    total += x\nprint(total)\n",
			inputs:   "nums = [1, 2, 3]\n",
			contains: []string{"6\n", "Completed in"},
		},
		{
			name:     "trace",
			source:   "nums = []\nfor i in range(2):\n    nums.append(i)\n",
			opts:     Runner{Trace: true},
			contains: []string{"line 1", "loop i over range", "list_operation 0 -> nums", "end i", "nums=[0]"},
		},
		{
			name:     "runtime error",
			source:   "x = 1\ny = x / 0\n",
			contains: []string{"Error: ZeroDivision", "(line 2)"},
			err:      ErrExecutionFailed,
		},
		{
			name:     "step mode runs on enter",
			source:   "a = 1\nb = 2\nprint(a + b)\n",
			opts:     Runner{StepMode: true, Stdin: strings.NewReader("\n\n\n\n")},
			contains: []string{"3\n", "Completed in"},
		},
		{
			name:     "step mode quits",
			source:   "n = 0\nwhile True:\n    n += 1\n",
			opts:     Runner{StepMode: true, Stdin: strings.NewReader("\n\nq\n")},
			contains: []string{"Execution stopped"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := tt.opts
			r.SourceFile = writeFile(t, "main.py", tt.source)
			if tt.inputs != "" {
				r.InputsFile = writeFile(t, "inputs.txt", tt.inputs)
			}
			r.Stdout = &out

			err := r.Run()
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v\n%s", err, out.String())
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRunSyntaxError(t *testing.T) {
	defer color.EnableColor(color.IsColorEnabled())
	color.EnableColor(false)

	var out bytes.Buffer
	r := Runner{SourceFile: writeFile(t, "bad.py", "x = 1\ny = = 2\n"), Stdout: &out}
	if err := r.Run(); err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(out.String(), "Error at 2:") || !strings.Contains(out.String(), "y = = 2") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	r := Runner{SourceFile: filepath.Join(t.TempDir(), "nope.py"), Stdout: &bytes.Buffer{}}
	if err := r.Run(); err == nil {
		t.Fatal("expected an error")
	}
}
