package controller

// State is the lifecycle state of the controller's current session
type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Active reports whether a worker owns the session
func (s State) Active() bool {
	return s == StateRunning || s == StatePaused
}

// Terminal reports whether the last session has ended
func (s State) Terminal() bool {
	return s == StateStopped || s == StateCompleted || s == StateFailed
}
