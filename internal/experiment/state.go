package experiment

// State tracks an orchestrator through its lifecycle. Transitions only move
// forward: Created → RootPrepared → Running → one of the terminal states.
type State int32

const (
	// Created means Execute has not been called yet.
	Created State = iota
	// RootPrepared means the output root was recreated and the root log
	// sink attached.
	RootPrepared
	// Running covers concurrent task generation and dispatch.
	Running
	// Completed means every generated task was dispatched and finished.
	Completed
	// Aborted means a task callback or the generator failed; dispatch of
	// not-yet-started tasks was cut short.
	Aborted
	// Interrupted means generation was stopped cooperatively; tasks already
	// dispatched were allowed to finish.
	Interrupted
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case RootPrepared:
		return "root-prepared"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}
