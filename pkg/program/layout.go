package program

import (
	"fmt"

	"github.com/zurustar/computron/pkg/opcode"
)

// Entry describes one node of a prepared program layout, as supplied by a
// level definition.
type Entry struct {
	Op        opcode.Op
	Operand   *int
	Condition opcode.Condition
	// Target is the layout index of the no-op that anchors this jump.
	// When nil, a fresh anchor is spawned right after the jump.
	Target *int
}

// FromLayout materialises a sequence from a prepared layout. Indices in
// Entry.Target refer to positions in entries, before any anchors are spawned.
// The returned handles are parallel to entries.
func FromLayout(entries []Entry) (*Sequence, []Handle, error) {
	s := New()
	nodes := make([]*Command, len(entries))
	for i, e := range entries {
		if !e.Op.Valid() {
			return nil, nil, fmt.Errorf("entry %d: %w: %q", i, ErrInvalidOp, e.Op)
		}
		c := s.newCommand(e.Op)
		if e.Operand != nil {
			c.operand, c.hasOperand = *e.Operand, true
		}
		if e.Condition != opcode.None {
			if e.Op != opcode.JumpIf {
				return nil, nil, fmt.Errorf("entry %d: condition on %s", i, e.Op)
			}
			c.condition = e.Condition
		}
		nodes[i] = c
	}

	for i, e := range entries {
		if e.Target == nil {
			continue
		}
		if !e.Op.IsJump() {
			return nil, nil, fmt.Errorf("entry %d: %w: %s has a target", i, ErrNotJump, e.Op)
		}
		target := *e.Target
		if target < 0 || target >= len(entries) || target == i {
			return nil, nil, fmt.Errorf("entry %d: %w: target %d", i, ErrPosition, target)
		}
		a := nodes[target]
		if err := checkAnchorable(a); err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		s.pair(nodes[i], a)
	}

	handles := make([]Handle, len(entries))
	for i, c := range nodes {
		handles[i] = c.handle
		s.nodes = append(s.nodes, c)
		if c.op.IsJump() && c.anchor == nil {
			anchor := s.newCommand(opcode.NoOp)
			s.pair(c, anchor)
			s.nodes = append(s.nodes, anchor)
		}
	}
	return s, handles, nil
}
