// Package puzzle is the authoring facade over a materialized level.
//
// Surfaces (the window and the console) never touch the sequence, the
// bindings or the engine directly. They go through a Session, which keeps the
// three consistent: removed commands lose their links, edits are refused
// while a run is in progress, and only commands that can use a card may be
// linked to one.
package puzzle

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/computron/pkg/card"
	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/level"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

var (
	// ErrRunning is returned for edits attempted while the engine is running.
	ErrRunning = errors.New("program is running")

	// ErrNotLinkable is returned when linking a command whose opcode never uses a card.
	ErrNotLinkable = errors.New("command cannot be linked to a card")
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithMaxSteps sets the engine step budget.
func WithMaxSteps(n int) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, engine.WithMaxSteps(n))
	}
}

// WithEngineListener registers a listener for applied effects.
func WithEngineListener(l engine.Listener) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, engine.WithListener(l))
	}
}

// Session serialises authoring edits and execution steps on one level.
type Session struct {
	ctx        *level.Context
	engine     *engine.Engine
	engineOpts []engine.Option
	log        *slog.Logger
}

// New creates a session in the Idle state.
func New(ctx *level.Context, opts ...Option) *Session {
	s := &Session{ctx: ctx, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := append([]engine.Option{engine.WithLogger(s.log)}, s.engineOpts...)
	s.engine = engine.New(ctx.Program, ctx.Bindings, ctx.Cards, engineOpts...)
	return s
}

// Context returns the level context the session edits.
func (s *Session) Context() *level.Context { return s.ctx }

// Level returns the level definition.
func (s *Session) Level() *level.Level { return s.ctx.Level }

// State returns the engine state.
func (s *Session) State() engine.State { return s.engine.State() }

// Hand returns the engine accumulator.
func (s *Session) Hand() (int, bool) { return s.engine.Hand() }

// Steps returns the steps executed in the current run.
func (s *Session) Steps() int { return s.engine.Steps() }

// AddEngineListener registers an additional listener for applied effects.
func (s *Session) AddEngineListener(l engine.Listener) { s.engine.AddListener(l) }

func (s *Session) editable() error {
	if s.engine.State().Status == engine.Running {
		return ErrRunning
	}
	return nil
}

// HandleAt returns the handle of the command at pos.
func (s *Session) HandleAt(pos int) (program.Handle, error) {
	c, ok := s.ctx.Program.At(pos)
	if !ok {
		return program.NoHandle, fmt.Errorf("%w: %d (length %d)", program.ErrPosition, pos, s.ctx.Program.Len())
	}
	return c.Handle(), nil
}

// InsertCommand places a new command at pos. Jumps spawn their anchor at pos+1.
func (s *Session) InsertCommand(op opcode.Op, pos int) (program.Handle, error) {
	if err := s.editable(); err != nil {
		return program.NoHandle, err
	}
	h, err := s.ctx.Program.Insert(op, pos)
	if err != nil {
		return program.NoHandle, err
	}
	s.log.Debug("Command inserted", "op", op, "pos", pos, "handle", h)
	return h, nil
}

// InsertJumpTo places a jump at pos that targets an existing free no-op.
func (s *Session) InsertJumpTo(op opcode.Op, pos int, anchor program.Handle) (program.Handle, error) {
	if err := s.editable(); err != nil {
		return program.NoHandle, err
	}
	h, err := s.ctx.Program.InsertJumpTo(op, pos, anchor)
	if err != nil {
		return program.NoHandle, err
	}
	s.log.Debug("Jump inserted", "op", op, "pos", pos, "handle", h, "anchor", anchor)
	return h, nil
}

// RemoveCommand deletes h (and its anchor, for a jump) and drops any links
// the removed commands held. It returns the removed handles.
func (s *Session) RemoveCommand(h program.Handle) ([]program.Handle, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	removed, err := s.ctx.Program.Remove(h)
	if err != nil {
		return nil, err
	}
	for _, r := range removed {
		s.ctx.Bindings.UnlinkCommand(r)
	}
	s.log.Debug("Command removed", "handles", removed)
	return removed, nil
}

// MoveCommand relocates h to pos. Moving an anchor retargets its jump.
func (s *Session) MoveCommand(h program.Handle, pos int) error {
	if err := s.editable(); err != nil {
		return err
	}
	return s.ctx.Program.Move(h, pos)
}

// SetOperand sets the literal written by a move-to or copy-to.
func (s *Session) SetOperand(h program.Handle, v int) error {
	if err := s.editable(); err != nil {
		return err
	}
	c, err := s.ctx.Program.Get(h)
	if err != nil {
		return err
	}
	if !c.Op().Writes() {
		return fmt.Errorf("%w: %s takes no operand", program.ErrInvalidOp, c.Op())
	}
	return s.ctx.Program.SetOperand(h, v)
}

// ClearOperand makes a move-to or copy-to write the hand again.
func (s *Session) ClearOperand(h program.Handle) error {
	if err := s.editable(); err != nil {
		return err
	}
	return s.ctx.Program.ClearOperand(h)
}

// SetCondition sets the predicate of a conditional jump.
func (s *Session) SetCondition(h program.Handle, cond opcode.Condition) error {
	if err := s.editable(); err != nil {
		return err
	}
	return s.ctx.Program.SetCondition(h, cond)
}

// Link binds command h to the card. Only data commands and conditional
// jumps may be linked.
func (s *Session) Link(h program.Handle, label string) error {
	if err := s.editable(); err != nil {
		return err
	}
	c, err := s.ctx.Program.Get(h)
	if err != nil {
		return err
	}
	if !c.Op().Linkable() {
		return fmt.Errorf("%w: #%d is %s", ErrNotLinkable, h, c.Op())
	}
	if _, ok := s.ctx.Cards.Lookup(label); !ok {
		return fmt.Errorf("%w: %q", card.ErrUnknownCard, label)
	}
	return s.ctx.Bindings.Link(h, label)
}

// Unlink removes the link between h and the card.
func (s *Session) Unlink(h program.Handle, label string) error {
	if err := s.editable(); err != nil {
		return err
	}
	return s.ctx.Bindings.Unlink(h, label)
}

// Start begins a run at pc 0. Starting after a finished run restores the
// cards first.
func (s *Session) Start() engine.State {
	if s.engine.State().Status == engine.Halted {
		s.Reset()
	}
	return s.engine.Start()
}

// Step executes one command, starting the run first when Idle.
func (s *Session) Step() engine.State {
	if s.engine.State().Status == engine.Idle {
		s.Start()
	}
	return s.engine.Step()
}

// Run steps until the engine halts. The engine itself only ever executes
// one command per Step; the step limit bounds this loop.
func (s *Session) Run() engine.State {
	st := s.engine.State()
	if st.Status != engine.Running {
		st = s.Start()
	}
	for st.Status == engine.Running {
		st = s.engine.Step()
	}
	return st
}

// Halt stops a running program.
func (s *Session) Halt() engine.State { return s.engine.Halt() }

// Reset returns the engine to Idle and restores the cards to the level's
// initial contents. The program and its links are kept.
func (s *Session) Reset() {
	s.engine.Reset()
	s.ctx.ResetCards()
}

// Evaluate checks the level goal. A run that has not completed is never solved.
func (s *Session) Evaluate() level.Result {
	st := s.engine.State()
	if !st.Completed() {
		return level.Result{
			Steps:      s.engine.Steps(),
			Cost:       s.ctx.Cards.TotalCost(),
			Mismatches: []string{fmt.Sprintf("program has not completed (%s)", st)},
		}
	}
	return level.Evaluate(s.ctx, s.engine.Steps())
}
