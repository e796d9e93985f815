package program

import (
	"fmt"
	"slices"

	"github.com/zurustar/computron/pkg/opcode"
)

// Sequence is an ordered, mutable list of commands and anchors.
// It exclusively owns its nodes.
type Sequence struct {
	nodes  []*Command
	byID   map[Handle]*Command
	lastID Handle
}

// New creates an empty sequence.
func New() *Sequence {
	return &Sequence{byID: make(map[Handle]*Command)}
}

// Len returns the number of nodes, anchors included.
func (s *Sequence) Len() int { return len(s.nodes) }

// At returns the node at position i.
func (s *Sequence) At(i int) (*Command, bool) {
	if i < 0 || i >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[i], true
}

// Get returns the command with the given handle.
func (s *Sequence) Get(h Handle) (*Command, error) {
	c, ok := s.byID[h]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownCommand, h)
	}
	return c, nil
}

// Commands returns the nodes in their current order.
func (s *Sequence) Commands() []*Command {
	return slices.Clone(s.nodes)
}

// Position derives the current index of h by scanning the order.
func (s *Sequence) Position(h Handle) (int, error) {
	if _, ok := s.byID[h]; !ok {
		return -1, fmt.Errorf("%w: #%d", ErrUnknownCommand, h)
	}
	for i, n := range s.nodes {
		if n.handle == h {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: #%d", ErrUnknownCommand, h)
}

// Resolve returns the current position of the anchor paired with jump h.
func (s *Sequence) Resolve(h Handle) (int, error) {
	c, err := s.Get(h)
	if err != nil {
		return -1, err
	}
	if !c.op.IsJump() {
		return -1, fmt.Errorf("%w: #%d is %s", ErrNotJump, h, c.op)
	}
	if c.anchor == nil {
		return -1, &DanglingJumpError{Jump: h}
	}
	if !c.anchor.alive {
		return -1, &DanglingJumpError{Jump: h, Anchor: c.anchor.handle}
	}
	pos, err := s.Position(c.anchor.handle)
	if err != nil {
		return -1, &DanglingJumpError{Jump: h, Anchor: c.anchor.handle}
	}
	return pos, nil
}

// Insert places a new command at pos (0 <= pos <= Len). A jump-family
// command spawns its anchor immediately after itself.
func (s *Sequence) Insert(op opcode.Op, pos int) (Handle, error) {
	if !op.Valid() {
		return NoHandle, fmt.Errorf("%w: %q", ErrInvalidOp, op)
	}
	if pos < 0 || pos > len(s.nodes) {
		return NoHandle, fmt.Errorf("%w: %d (length %d)", ErrPosition, pos, len(s.nodes))
	}

	c := s.newCommand(op)
	s.insertAt(pos, c)

	if op.IsJump() {
		anchor := s.newCommand(opcode.NoOp)
		s.pair(c, anchor)
		s.insertAt(pos+1, anchor)
	}
	return c.handle, nil
}

// InsertJumpTo places a jump-family command at pos and pairs it with an
// existing free-standing no-op instead of spawning a new anchor.
func (s *Sequence) InsertJumpTo(op opcode.Op, pos int, anchor Handle) (Handle, error) {
	if !op.IsJump() {
		return NoHandle, fmt.Errorf("%w: %s", ErrNotJump, op)
	}
	if pos < 0 || pos > len(s.nodes) {
		return NoHandle, fmt.Errorf("%w: %d (length %d)", ErrPosition, pos, len(s.nodes))
	}
	a, err := s.Get(anchor)
	if err != nil {
		return NoHandle, err
	}
	if err := checkAnchorable(a); err != nil {
		return NoHandle, err
	}

	c := s.newCommand(op)
	s.pair(c, a)
	s.insertAt(pos, c)
	return c.handle, nil
}

// Remove deletes the command h. Removing a jump also removes its anchor;
// removing an anchor whose jump still exists is rejected with ErrAnchorOwned.
// The handles actually removed are returned so that callers can release
// anything attached to them.
func (s *Sequence) Remove(h Handle) ([]Handle, error) {
	c, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if owner := c.Owner(); owner != nil {
		return nil, fmt.Errorf("%w: #%d belongs to #%d", ErrAnchorOwned, h, owner.handle)
	}

	removed := []Handle{h}
	s.detach(c)
	if a := c.Target(); a != nil {
		s.detach(a)
		removed = append(removed, a.handle)
	}
	return removed, nil
}

// Move relocates h so that its position afterwards is pos (0 <= pos < Len).
// Anchors may be moved freely; that is how a jump is retargeted.
func (s *Sequence) Move(h Handle, pos int) error {
	if pos < 0 || pos >= len(s.nodes) {
		return fmt.Errorf("%w: %d (length %d)", ErrPosition, pos, len(s.nodes))
	}
	from, err := s.Position(h)
	if err != nil {
		return err
	}
	if from == pos {
		return nil
	}
	c := s.nodes[from]
	s.nodes = slices.Delete(s.nodes, from, from+1)
	s.nodes = slices.Insert(s.nodes, pos, c)
	return nil
}

// SetOperand sets the literal operand of h.
func (s *Sequence) SetOperand(h Handle, v int) error {
	c, err := s.Get(h)
	if err != nil {
		return err
	}
	c.operand, c.hasOperand = v, true
	return nil
}

// ClearOperand removes the literal operand of h.
func (s *Sequence) ClearOperand(h Handle) error {
	c, err := s.Get(h)
	if err != nil {
		return err
	}
	c.operand, c.hasOperand = 0, false
	return nil
}

// SetCondition sets the predicate of a conditional jump.
func (s *Sequence) SetCondition(h Handle, cond opcode.Condition) error {
	c, err := s.Get(h)
	if err != nil {
		return err
	}
	if c.op != opcode.JumpIf {
		return fmt.Errorf("%w: #%d is %s", ErrNotJump, h, c.op)
	}
	c.condition = cond
	return nil
}

func (s *Sequence) newCommand(op opcode.Op) *Command {
	s.lastID++
	c := &Command{handle: s.lastID, op: op, alive: true}
	s.byID[c.handle] = c
	return c
}

func (s *Sequence) insertAt(pos int, c *Command) {
	s.nodes = slices.Insert(s.nodes, pos, c)
}

func (s *Sequence) pair(jump, anchor *Command) {
	jump.anchor = anchor
	anchor.owner = jump
}

func (s *Sequence) detach(c *Command) {
	if i := slices.Index(s.nodes, c); i >= 0 {
		s.nodes = slices.Delete(s.nodes, i, i+1)
	}
	delete(s.byID, c.handle)
	c.alive = false
}

func checkAnchorable(a *Command) error {
	if a.op != opcode.NoOp {
		return fmt.Errorf("%w: #%d is %s", ErrNotAnchorable, a.handle, a.op)
	}
	if owner := a.Owner(); owner != nil {
		return fmt.Errorf("%w: #%d already anchors #%d", ErrNotAnchorable, a.handle, owner.handle)
	}
	return nil
}
