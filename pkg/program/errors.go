package program

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned for a handle not present in the sequence.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrPosition is returned for an insert or move position outside the sequence.
	ErrPosition = errors.New("position out of range")

	// ErrInvalidOp is returned for an opcode outside the instruction set.
	ErrInvalidOp = errors.New("invalid opcode")

	// ErrAnchorOwned is returned when removing an anchor whose jump still exists.
	ErrAnchorOwned = errors.New("anchor is owned by a jump; remove the jump first")

	// ErrNotJump is returned when a jump-only operation targets another opcode.
	ErrNotJump = errors.New("command is not a jump")

	// ErrNotAnchorable is returned when a jump is paired with a node that
	// cannot serve as its anchor.
	ErrNotAnchorable = errors.New("command cannot serve as an anchor")

	// ErrDanglingJump is the sentinel matched by DanglingJumpError.
	ErrDanglingJump = errors.New("dangling jump")
)

// DanglingJumpError reports a jump whose anchor can no longer be resolved.
// The cascade on removal makes this unreachable in a consistent sequence.
type DanglingJumpError struct {
	Jump   Handle
	Anchor Handle
}

func (e *DanglingJumpError) Error() string {
	if e.Anchor == NoHandle {
		return fmt.Sprintf("dangling jump: #%d has no anchor", e.Jump)
	}
	return fmt.Sprintf("dangling jump: #%d points at missing anchor #%d", e.Jump, e.Anchor)
}

// Is makes errors.Is(err, ErrDanglingJump) match.
func (e *DanglingJumpError) Is(target error) bool {
	return target == ErrDanglingJump
}
