// Package opcode defines the instruction set for the card machine.
// This package is the foundation that the program sequence, the engine and the
// authoring surfaces depend on. The set is small and closed.
package opcode

import (
	"fmt"
	"strings"
)

// Op represents an instruction card type.
// Each Op corresponds to a specific operation that the engine can execute.
type Op string

// Instruction set.
const (
	// MoveTo adds a value to the bound card and empties the hand.
	// Operand: optional literal; when absent the hand value is written.
	MoveTo Op = "move-to"

	// MoveFrom removes a value from the bound card into the hand.
	MoveFrom Op = "move-from"

	// CopyTo adds a value to the bound card, keeping the hand.
	// Operand: optional literal; when absent the hand value is written.
	CopyTo Op = "copy-to"

	// CopyFrom peeks the bound card into the hand without removing it.
	CopyFrom Op = "copy-from"

	// Clear empties the bound card.
	Clear Op = "clear"

	// NoOp has no effect. Jump anchors are NoOp nodes.
	NoOp Op = "no-op"

	// Jump unconditionally continues at the paired anchor.
	Jump Op = "jump"

	// JumpIf continues at the paired anchor when its Condition holds.
	JumpIf Op = "jump-if"
)

// Class partitions the instruction set by effect.
type Class int

const (
	ClassNone    Class = iota // no data or control effect
	ClassData                 // moves data through a bound card
	ClassControl              // changes the program counter
)

// String returns a short name for the class.
func (c Class) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassControl:
		return "control"
	default:
		return "none"
	}
}

// All lists every opcode in display order.
var All = []Op{MoveTo, MoveFrom, CopyTo, CopyFrom, Clear, NoOp, Jump, JumpIf}

// Class returns the effect class of the opcode.
func (o Op) Class() Class {
	switch o {
	case MoveTo, MoveFrom, CopyTo, CopyFrom, Clear:
		return ClassData
	case Jump, JumpIf:
		return ClassControl
	default:
		return ClassNone
	}
}

// IsJump reports whether the opcode belongs to the jump family and therefore
// owns a paired anchor.
func (o Op) IsJump() bool {
	return o.Class() == ClassControl
}

// NeedsBinding reports whether executing the opcode requires a bound card.
func (o Op) NeedsBinding() bool {
	return o.Class() == ClassData
}

// Linkable reports whether a command with this opcode may hold a card link.
// Data opcodes need one; a conditional jump uses one for card predicates.
func (o Op) Linkable() bool {
	return o.NeedsBinding() || o == JumpIf
}

// Writes reports whether the opcode adds a value to its card.
func (o Op) Writes() bool {
	return o == MoveTo || o == CopyTo
}

// Valid reports whether o is part of the instruction set.
func (o Op) Valid() bool {
	for _, op := range All {
		if op == o {
			return true
		}
	}
	return false
}

// Parse converts a name such as "move-to", "MOVE_TO" or "moveto" into an Op.
func Parse(name string) (Op, error) {
	n := normalize(name)
	for _, op := range All {
		if normalize(string(op)) == n {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown opcode: %q", name)
}

// Condition is the runtime predicate evaluated by JumpIf.
type Condition string

// Predicates available to conditional jumps. Levels choose which one a card uses.
const (
	None         Condition = ""
	HandEmpty    Condition = "hand-empty"
	HandZero     Condition = "hand-zero"
	HandNegative Condition = "hand-negative"
	HandPositive Condition = "hand-positive"
	CardEmpty    Condition = "card-empty"
	CardNonEmpty Condition = "card-nonempty"
)

// Conditions lists every named predicate.
var Conditions = []Condition{HandEmpty, HandZero, HandNegative, HandPositive, CardEmpty, CardNonEmpty}

// NeedsCard reports whether the predicate inspects the bound card.
func (c Condition) NeedsCard() bool {
	return c == CardEmpty || c == CardNonEmpty
}

// ParseCondition converts a predicate name into a Condition.
// The empty string yields None, which never branches.
func ParseCondition(name string) (Condition, error) {
	if strings.TrimSpace(name) == "" {
		return None, nil
	}
	n := normalize(name)
	for _, c := range Conditions {
		if normalize(string(c)) == n {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown condition: %q", name)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
