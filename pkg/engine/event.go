package engine

import (
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

// EventKind identifies what a step did.
type EventKind int

const (
	// EventValueMoved: a value was moved into or out of a card.
	EventValueMoved EventKind = iota
	// EventValueCopied: a value was copied into or out of a card.
	EventValueCopied
	// EventCleared: a card's contents were discarded.
	EventCleared
	// EventJumped: control transferred to a jump target.
	EventJumped
	// EventHalted: the engine entered the Halted state.
	EventHalted
)

func (k EventKind) String() string {
	switch k {
	case EventValueMoved:
		return "moved"
	case EventValueCopied:
		return "copied"
	case EventCleared:
		return "cleared"
	case EventJumped:
		return "jumped"
	case EventHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Event is emitted after the effect it describes has been applied.
type Event struct {
	Kind    EventKind
	Op      opcode.Op
	Command program.Handle
	PC      int
	Card    string
	// Value is meaningful only when HasValue is set. A transfer from an
	// empty source carries no value.
	Value    int
	HasValue bool
	Target   int   // EventJumped
	State    State // EventHalted
}

// Listener receives applied-effect notifications so a surface can animate them.
type Listener interface {
	Applied(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// Applied calls f(ev).
func (f ListenerFunc) Applied(ev Event) { f(ev) }
