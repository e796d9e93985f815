// Package engine executes a command sequence against a set of cards.
//
// Execution is step-driven: the caller decides the pacing. Each Step runs at
// most one command and returns the resulting State.
package engine

import (
	"errors"
	"log/slog"

	"github.com/zurustar/computron/pkg/card"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

// DefaultMaxSteps bounds a run so that loops without an exit halt.
const DefaultMaxSteps = 10000

// Program is the read side of a command sequence.
type Program interface {
	Len() int
	At(i int) (*program.Command, bool)
	Resolve(h program.Handle) (int, error)
}

// Bindings answers which card a command is linked to.
type Bindings interface {
	CardOf(h program.Handle) (string, bool)
}

// Cards looks up cards by label.
type Cards interface {
	Lookup(label string) (*card.Card, bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithMaxSteps sets the step budget. Zero or less disables the limit.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithListener registers a listener for applied effects.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// Engine is the execution state machine.
type Engine struct {
	program  Program
	bindings Bindings
	cards    Cards

	state    State
	hand     int
	handFull bool
	steps    int
	maxSteps int

	listeners []Listener
	log       *slog.Logger
}

// New creates an Idle engine.
func New(p Program, b Bindings, c Cards, opts ...Option) *Engine {
	e := &Engine{
		program:  p,
		bindings: b,
		cards:    c,
		state:    State{Status: Idle},
		maxSteps: DefaultMaxSteps,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddListener registers an additional listener.
func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Hand returns the accumulator value.
func (e *Engine) Hand() (int, bool) { return e.hand, e.handFull }

// Steps returns the number of commands executed in the current run.
func (e *Engine) Steps() int { return e.steps }

// Start begins a fresh run at pc 0. Starting while Running is a no-op.
func (e *Engine) Start() State {
	if e.state.Status == Running {
		return e.state
	}
	e.clearRun()
	e.state = State{Status: Running, PC: 0}
	e.log.Debug("Engine started", "commands", e.program.Len())
	if e.program.Len() == 0 {
		e.complete()
	}
	return e.state
}

// Step executes one command. An Idle engine is started first; a Halted
// engine is left unchanged.
func (e *Engine) Step() State {
	switch e.state.Status {
	case Idle:
		if e.Start().Status != Running {
			return e.state
		}
	case Halted:
		return e.state
	}

	pc := e.state.PC
	if pc >= e.program.Len() {
		e.complete()
		return e.state
	}
	if e.maxSteps > 0 && e.steps >= e.maxSteps {
		e.fail(NewStepLimitError(pc, e.maxSteps))
		return e.state
	}

	cmd, ok := e.program.At(pc)
	if !ok {
		e.fail(&RuntimeError{Type: ErrorInvalidOperation, Message: "no command at pc", PC: pc})
		return e.state
	}

	e.steps++
	next, rerr := e.execute(pc, cmd)
	if rerr != nil {
		e.fail(rerr)
		return e.state
	}

	e.state.PC = next
	if next >= e.program.Len() {
		e.complete()
	}
	return e.state
}

// Halt stops a running program. It has no effect otherwise.
func (e *Engine) Halt() State {
	if e.state.Status != Running {
		return e.state
	}
	e.log.Info("Engine stopped", "pc", e.state.PC, "steps", e.steps)
	e.halt(State{Status: Halted, PC: e.state.PC, Reason: ReasonStopped})
	return e.state
}

// Reset returns the engine to Idle. Card contents are left alone.
func (e *Engine) Reset() {
	e.clearRun()
	e.state = State{Status: Idle}
}

func (e *Engine) clearRun() {
	e.hand, e.handFull = 0, false
	e.steps = 0
}

func (e *Engine) complete() {
	e.log.Info("Program completed", "steps", e.steps)
	e.halt(State{Status: Halted, PC: e.state.PC, Reason: ReasonCompleted})
}

func (e *Engine) fail(err *RuntimeError) {
	if err.IsFatal() {
		e.log.Error("Runtime error", "error", err)
	} else {
		e.log.Warn("Runtime error", "error", err)
	}
	e.halt(State{Status: Halted, PC: err.PC, Reason: ReasonError, Err: err})
}

func (e *Engine) halt(st State) {
	e.state = st
	e.emit(Event{Kind: EventHalted, PC: st.PC, State: st})
}

func (e *Engine) emit(ev Event) {
	for _, l := range e.listeners {
		l.Applied(ev)
	}
}

// execute applies cmd and returns the next pc.
func (e *Engine) execute(pc int, cmd *program.Command) (int, *RuntimeError) {
	op := cmd.Op()
	e.log.Debug("Executing", "pc", pc, "command", cmd.String())

	switch op.Class() {
	case opcode.ClassNone:
		return pc + 1, nil
	case opcode.ClassData:
		c, label, rerr := e.boundCard(pc, cmd)
		if rerr != nil {
			return 0, rerr
		}
		e.transfer(pc, cmd, c, label)
		return pc + 1, nil
	case opcode.ClassControl:
		return e.branch(pc, cmd)
	}
	return 0, &RuntimeError{Type: ErrorInvalidOperation, Message: "unknown opcode " + string(op), PC: pc, Command: cmd.Handle()}
}

func (e *Engine) boundCard(pc int, cmd *program.Command) (*card.Card, string, *RuntimeError) {
	label, ok := e.bindings.CardOf(cmd.Handle())
	if !ok {
		return nil, "", NewUnboundOperationError(pc, cmd)
	}
	c, ok := e.cards.Lookup(label)
	if !ok {
		return nil, "", NewUnknownCardError(pc, cmd, label)
	}
	return c, label, nil
}

// source returns the value written by a *-to opcode: the literal operand if
// present, otherwise the hand.
func (e *Engine) source(cmd *program.Command) (int, bool, bool) {
	if v, ok := cmd.Operand(); ok {
		return v, true, false
	}
	return e.hand, e.handFull, true
}

func (e *Engine) transfer(pc int, cmd *program.Command, c *card.Card, label string) {
	ev := Event{Op: cmd.Op(), Command: cmd.Handle(), PC: pc, Card: label}

	switch cmd.Op() {
	case opcode.MoveTo, opcode.CopyTo:
		v, ok, fromHand := e.source(cmd)
		if ok {
			if cmd.Op() == opcode.MoveTo {
				c.MoveTo(v)
				if fromHand {
					e.hand, e.handFull = 0, false
				}
			} else {
				c.CopyTo(v)
			}
		}
		ev.Value, ev.HasValue = v, ok
	case opcode.MoveFrom:
		v, ok := c.MoveFrom()
		e.hand, e.handFull = v, ok
		ev.Value, ev.HasValue = v, ok
	case opcode.CopyFrom:
		v, ok := c.CopyFrom()
		e.hand, e.handFull = v, ok
		ev.Value, ev.HasValue = v, ok
	case opcode.Clear:
		c.ClearData()
	}

	switch cmd.Op() {
	case opcode.MoveTo, opcode.MoveFrom:
		ev.Kind = EventValueMoved
	case opcode.CopyTo, opcode.CopyFrom:
		ev.Kind = EventValueCopied
	default:
		ev.Kind = EventCleared
	}
	e.emit(ev)
}

func (e *Engine) branch(pc int, cmd *program.Command) (int, *RuntimeError) {
	if cmd.Op() == opcode.JumpIf {
		taken, rerr := e.condition(pc, cmd)
		if rerr != nil {
			return 0, rerr
		}
		if !taken {
			return pc + 1, nil
		}
	}

	target, err := e.program.Resolve(cmd.Handle())
	if err != nil {
		if errors.Is(err, program.ErrDanglingJump) || errors.Is(err, program.ErrUnknownCommand) {
			return 0, NewDanglingJumpError(pc, cmd, err)
		}
		return 0, &RuntimeError{Type: ErrorInvalidOperation, Message: err.Error(), PC: pc, Command: cmd.Handle(), Err: err}
	}

	e.emit(Event{Kind: EventJumped, Op: cmd.Op(), Command: cmd.Handle(), PC: pc, Target: target})
	return target, nil
}

func (e *Engine) condition(pc int, cmd *program.Command) (bool, *RuntimeError) {
	cond := cmd.Condition()
	switch cond {
	case opcode.None:
		return false, nil
	case opcode.HandEmpty:
		return !e.handFull, nil
	case opcode.HandZero:
		return e.handFull && e.hand == 0, nil
	case opcode.HandNegative:
		return e.handFull && e.hand < 0, nil
	case opcode.HandPositive:
		return e.handFull && e.hand > 0, nil
	case opcode.CardEmpty, opcode.CardNonEmpty:
		c, _, rerr := e.boundCard(pc, cmd)
		if rerr != nil {
			return false, rerr
		}
		empty := c.Structure().IsEmpty()
		if cond == opcode.CardEmpty {
			return empty, nil
		}
		return !empty, nil
	}
	return false, &RuntimeError{Type: ErrorInvalidOperation, Message: "unknown condition " + string(cond), PC: pc, Command: cmd.Handle()}
}
