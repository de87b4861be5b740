package recorder

// VariableView is how a single value is shown to the viewer
type VariableView struct {
	Type    string `json:"type"`
	Value   any    `json:"value"`
	Display string `json:"display"`
	Length  *int   `json:"length,omitempty"`
}

// Variables maps a scope name ("global", "local") to the variables visible in it
type Variables map[string]map[string]VariableView

// Step is one entry of the execution trace
type Step struct {
	Ordinal     int             `json:"step"`
	Line        int             `json:"line"`
	Kind        string          `json:"node_type"`
	Description string          `json:"description"`
	Variables   Variables       `json:"variables"`
	CallStack   []string        `json:"call_stack"`
	Animation   *AnimationEvent `json:"animation,omitempty"`
}

// AnimationEvent describes a value moving into a container
type AnimationEvent struct {
	Type           string `json:"type"`
	Operation      string `json:"operation"`
	SourceVariable string `json:"source_variable,omitempty"`
	SourceValue    any    `json:"source_value"`
	SourceDisplay  string `json:"source_display,omitempty"`
	TargetVariable string `json:"target_variable"`
	Line           int    `json:"line"`
	Step           int    `json:"step"`
	AnimationType  string `json:"animation_type"`
	Completed      bool   `json:"completed"`
}

// animationKey identifies an event for deduplication; values compare by display
type animationKey struct {
	typ, operation, source, display, target, animation string
	line, step                                         int
}

func (ev AnimationEvent) key() animationKey {
	return animationKey{
		typ:       ev.Type,
		operation: ev.Operation,
		source:    ev.SourceVariable,
		display:   ev.SourceDisplay,
		target:    ev.TargetVariable,
		animation: ev.AnimationType,
		line:      ev.Line,
		step:      ev.Step,
	}
}
