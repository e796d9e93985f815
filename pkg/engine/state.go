package engine

import "fmt"

// Status is the coarse engine state.
type Status int

const (
	Idle Status = iota
	Running
	Halted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reason explains a Halted state.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonCompleted: the program counter ran past the last command.
	ReasonCompleted
	// ReasonStopped: Halt was called while running.
	ReasonStopped
	// ReasonError: a RuntimeError stopped the run. See State.Err.
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonCompleted:
		return "completed"
	case ReasonStopped:
		return "stopped"
	case ReasonError:
		return "error"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// State is a snapshot of the engine state machine.
type State struct {
	Status Status
	PC     int // valid while Running
	Reason Reason
	Err    *RuntimeError
}

// Completed reports whether the run ended by running off the end.
func (s State) Completed() bool {
	return s.Status == Halted && s.Reason == ReasonCompleted
}

// Failed reports whether the run ended with a runtime error.
func (s State) Failed() bool {
	return s.Status == Halted && s.Reason == ReasonError
}

func (s State) String() string {
	switch s.Status {
	case Running:
		return fmt.Sprintf("running(pc=%d)", s.PC)
	case Halted:
		if s.Err != nil {
			return fmt.Sprintf("halted(%s: %v)", s.Reason, s.Err)
		}
		return fmt.Sprintf("halted(%s)", s.Reason)
	default:
		return s.Status.String()
	}
}
