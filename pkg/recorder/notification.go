package recorder

// Notification is anything the recorder hands to its sink. Event is the name used
// on the wire.
type Notification interface {
	Event() string
}

// Sink receives notifications synchronously on the goroutine that records them
type Sink interface {
	Notify(Notification)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

type StepRecorded struct {
	Step
}

type IterationStart struct {
	Context IterationContext   `json:"context"`
	Stack   []IterationContext `json:"stack"`
}

type IterationUpdate struct {
	Context IterationContext   `json:"context"`
	Stack   []IterationContext `json:"stack"`
}

type IterationEnd struct {
	Context IterationContext   `json:"context"`
	Stack   []IterationContext `json:"stack"`
}

type MultiIndexAccess struct {
	Container string             `json:"container"`
	Indices   map[string]int     `json:"indices"`
	Line      int                `json:"line"`
	Stack     []IterationContext `json:"stack"`
}

type SliceAccess struct {
	Container  string             `json:"container"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	StartIndex int                `json:"start_index"`
	EndIndex   int                `json:"end_index"`
	Line       int                `json:"line"`
	Stack      []IterationContext `json:"stack"`
}

type AnimationRecorded struct {
	AnimationEvent
}

func (StepRecorded) Event() string      { return "execution_step" }
func (IterationStart) Event() string    { return "iteration_start" }
func (IterationUpdate) Event() string   { return "iteration_update" }
func (IterationEnd) Event() string      { return "iteration_end" }
func (MultiIndexAccess) Event() string  { return "multi_index_access" }
func (SliceAccess) Event() string       { return "slice_access" }
func (AnimationRecorded) Event() string { return "animation" }
