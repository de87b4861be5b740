package transport

import (
	"encoding/json"
	"time"
)

// Commands understood by a session
const (
	CommandParse    = "parse_code"
	CommandStart    = "start"
	CommandPause    = "pause"
	CommandResume   = "resume"
	CommandStep     = "step"
	CommandStop     = "stop"
	CommandSetSpeed = "set_speed"
	CommandGetState = "get_state"
	CommandReset    = "reset"
)

// Request is one line sent by the client
type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Ack answers a request. ID echoes the request's id.
type Ack struct {
	ID      json.RawMessage `json:"id"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    any             `json:"data,omitempty"`
}

// Message carries a notification to the client
type Message struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Data    any    `json:"data"`
}

type parseParams struct {
	Code   string `json:"code"`
	Inputs string `json:"inputs"`
}

type startParams struct {
	StepMode bool `json:"step_mode"`
}

// speedParams holds the delay between steps in seconds
type speedParams struct {
	Delay float64 `json:"delay"`
}

func (p speedParams) duration() time.Duration {
	return time.Duration(p.Delay * float64(time.Second))
}
