// Package program holds the instruction sequence a player assembles from
// instruction cards.
//
// A position is the index of a node in the current order and is always
// derived on demand. Jump commands never store a numeric target; they hold a
// reference to their paired anchor node, and the engine asks the sequence for
// the anchor's position at the moment it needs one. Inserting, removing or
// moving nodes therefore never requires a repair pass.
package program

import (
	"fmt"

	"github.com/zurustar/computron/pkg/opcode"
)

// Handle identifies a command for its whole lifetime in a sequence.
// Handles are never reused within a sequence.
type Handle uint64

// NoHandle is the zero Handle; no command ever carries it.
const NoHandle Handle = 0

// Node is the capability shared by everything that occupies a position.
type Node interface {
	Handle() Handle
	Op() opcode.Op
}

// ControlFlow is implemented by nodes that can transfer control to an anchor.
type ControlFlow interface {
	Node
	// Target returns the paired anchor, or nil when the pairing is gone.
	Target() *Command
}

// Command is one instruction node. Anchors are Commands with opcode.NoOp
// whose owner is a jump command.
type Command struct {
	handle     Handle
	op         opcode.Op
	operand    int
	hasOperand bool
	condition  opcode.Condition

	anchor *Command // set on jump-family commands
	owner  *Command // set on anchors
	alive  bool
}

var (
	_ Node        = (*Command)(nil)
	_ ControlFlow = (*Command)(nil)
)

// Handle returns the stable identity of the command.
func (c *Command) Handle() Handle { return c.handle }

// Op returns the opcode.
func (c *Command) Op() opcode.Op { return c.op }

// Operand returns the literal operand, if any.
func (c *Command) Operand() (int, bool) { return c.operand, c.hasOperand }

// Condition returns the predicate used by opcode.JumpIf.
func (c *Command) Condition() opcode.Condition { return c.condition }

// Target returns the paired anchor of a jump command.
func (c *Command) Target() *Command {
	if c.anchor == nil || !c.anchor.alive {
		return nil
	}
	return c.anchor
}

// Owner returns the jump that owns this anchor, or nil.
func (c *Command) Owner() *Command {
	if c.owner == nil || !c.owner.alive {
		return nil
	}
	return c.owner
}

// IsAnchor reports whether the command is an anchor owned by a live jump.
func (c *Command) IsAnchor() bool { return c.Owner() != nil }

// Alive reports whether the command is still part of its sequence.
func (c *Command) Alive() bool { return c.alive }

// String renders the command for listings and log output.
func (c *Command) String() string {
	s := string(c.op)
	if c.hasOperand {
		s += fmt.Sprintf(" %d", c.operand)
	}
	if c.condition != opcode.None {
		s += " [" + string(c.condition) + "]"
	}
	if c.IsAnchor() {
		s += fmt.Sprintf(" <anchor of #%d>", c.owner.handle)
	}
	return fmt.Sprintf("#%d %s", c.handle, s)
}
