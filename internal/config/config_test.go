package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParse_Valid(t *testing.T) {
	yaml := `
listen: ":9000"
delay: 250ms
step_mode: true
max_steps: 500
log_level: debug
no_color: true
`
	cfg, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q, want :9000", cfg.Listen)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("delay = %s, want 250ms", cfg.Delay)
	}
	if !cfg.StepMode || !cfg.NoColor {
		t.Errorf("step_mode = %v, no_color = %v", cfg.StepMode, cfg.NoColor)
	}
	if cfg.MaxSteps != 500 {
		t.Errorf("max_steps = %d, want 500", cfg.MaxSteps)
	}
	if lvl, _ := cfg.Level(); lvl != log.DebugLevel {
		t.Errorf("level = %s, want debug", lvl)
	}
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("step_mode: true\n"), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.Listen != def.Listen || cfg.Delay != def.Delay || cfg.MaxSteps != def.MaxSteps {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative delay", "delay: -1s\n", "delay must not be negative"},
		{"negative max steps", "max_steps: -3\n", "max_steps must not be negative"},
		{"empty listen", "listen: \"\"\n", "listen address is required"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad duration", "delay: soon\n", "parsing test.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepviz.yaml")
	if err := os.WriteFile(path, []byte("listen: \"localhost:1234\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "localhost:1234" {
		t.Errorf("listen = %q", cfg.Listen)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
