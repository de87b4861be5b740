package controller

import (
	"stepviz/pkg/analyzer"
	"stepviz/pkg/recorder"
)

// CodeParsed reports a program loaded into the controller
type CodeParsed struct {
	analyzer.Summary
}

type ExecutionStarted struct {
	Message  string `json:"message"`
	StepMode bool   `json:"step_mode"`
}

type ExecutionPaused struct {
	Message string `json:"message"`
}

type ExecutionResumed struct {
	Message string `json:"message"`
}

type ExecutionCompleted struct {
	Output    []string        `json:"output"`
	Steps     []recorder.Step `json:"steps"`
	StepCount int             `json:"step_count"`
}

type ExecutionError struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

type ExecutionStopped struct {
	Message string `json:"message"`
}

func (CodeParsed) Event() string         { return "code_parsed" }
func (ExecutionStarted) Event() string   { return "execution_started" }
func (ExecutionPaused) Event() string    { return "execution_paused" }
func (ExecutionResumed) Event() string   { return "execution_resumed" }
func (ExecutionCompleted) Event() string { return "execution_completed" }
func (ExecutionError) Event() string     { return "execution_error" }
func (ExecutionStopped) Event() string   { return "execution_stopped" }
