// Package config holds the settings of the stepviz command. Values come from a YAML
// file and are then overridden by command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// DefaultListen is the address the session server binds to
const DefaultListen = "127.0.0.1:8765"

type Config struct {
	// Listen is the TCP address of the session server
	Listen string `yaml:"listen"`

	// Delay is the pause between steps of a continuous run, e.g. "300ms"
	Delay time.Duration `yaml:"delay"`

	// StepMode starts CLI runs paused after the first step
	StepMode bool `yaml:"step_mode"`

	// MaxSteps aborts runs that record more steps. Zero means no limit.
	MaxSteps int `yaml:"max_steps"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	NoColor bool `yaml:"no_color"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		Listen:   DefaultListen,
		Delay:    300 * time.Millisecond,
		MaxSteps: 100_000,
		LogLevel: "error",
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML content on top of the defaults. The path is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level is the parsed log level
func (c *Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
