package engine

import (
	"errors"
	"fmt"

	"github.com/zurustar/computron/pkg/program"
)

// ErrorType represents the type of runtime error that halted a run.
type ErrorType string

const (
	// Defects - the program representation is inconsistent
	ErrorDanglingJump     ErrorType = "DANGLING_JUMP"
	ErrorInvalidOperation ErrorType = "INVALID_OPERATION"

	// Player mistakes - fix the program and start again
	ErrorUnboundOperation ErrorType = "UNBOUND_OPERATION"
	ErrorUnknownCard      ErrorType = "UNKNOWN_CARD"
	ErrorStepLimit        ErrorType = "STEP_LIMIT"
)

// Sentinels matched by errors.Is against a *RuntimeError of the same type.
var (
	ErrUnboundOperation = errors.New("operation requires a bound card")
	ErrDanglingJump     = program.ErrDanglingJump
	ErrUnknownCard      = errors.New("bound card is not in the level")
	ErrStepLimit        = errors.New("step limit reached")
	ErrInvalidOperation = errors.New("invalid operation")
)

var sentinels = map[ErrorType]error{
	ErrorUnboundOperation: ErrUnboundOperation,
	ErrorDanglingJump:     ErrDanglingJump,
	ErrorUnknownCard:      ErrUnknownCard,
	ErrorStepLimit:        ErrStepLimit,
	ErrorInvalidOperation: ErrInvalidOperation,
}

// RuntimeError describes why the engine halted.
type RuntimeError struct {
	Type    ErrorType
	Message string
	PC      int
	Command program.Handle
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Command != program.NoHandle {
		return fmt.Sprintf("[%s] %s at pc %d (#%d)", e.Type, e.Message, e.PC, e.Command)
	}
	return fmt.Sprintf("[%s] %s at pc %d", e.Type, e.Message, e.PC)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's type.
func (e *RuntimeError) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinels[e.Type] == target
}

// IsFatal reports whether the error indicates a defect rather than a player mistake.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorDanglingJump, ErrorInvalidOperation:
		return true
	default:
		return false
	}
}

func newRuntimeError(errType ErrorType, pc int, cmd program.Handle, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		PC:      pc,
		Command: cmd,
	}
}

// NewUnboundOperationError creates the error for a data opcode with no binding.
func NewUnboundOperationError(pc int, cmd *program.Command) *RuntimeError {
	return newRuntimeError(ErrorUnboundOperation, pc, cmd.Handle(),
		fmt.Sprintf("%s has no bound card", cmd.Op()))
}

// NewDanglingJumpError creates the error for a jump whose anchor cannot be resolved.
func NewDanglingJumpError(pc int, cmd *program.Command, cause error) *RuntimeError {
	e := newRuntimeError(ErrorDanglingJump, pc, cmd.Handle(), "jump target cannot be resolved")
	e.Err = cause
	return e
}

// NewUnknownCardError creates the error for a binding to a card missing from the registry.
func NewUnknownCardError(pc int, cmd *program.Command, label string) *RuntimeError {
	return newRuntimeError(ErrorUnknownCard, pc, cmd.Handle(), fmt.Sprintf("card %q not found", label))
}

// NewStepLimitError creates the error for a run that exceeded its step budget.
func NewStepLimitError(pc int, limit int) *RuntimeError {
	return newRuntimeError(ErrorStepLimit, pc, program.NoHandle, fmt.Sprintf("exceeded %d steps", limit))
}
