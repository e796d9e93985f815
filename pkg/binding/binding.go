// Package binding tracks the exclusive links between instruction commands and
// data-structure cards.
//
// A card can be linked to at most one command at a time, and a command can
// hold at most one link. While a card is linked the authoring surface must
// not let the player manipulate it directly; the Listener is told when that
// lock is taken and when it is released.
package binding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/program"
)

var (
	// ErrAlreadyBound is returned when the card already has an active binding.
	ErrAlreadyBound = errors.New("card already bound")

	// ErrAlreadyLinked is returned when the command already holds a different binding.
	ErrAlreadyLinked = errors.New("command already linked")

	// ErrNotLinked is returned when unlinking a pair that is not linked.
	ErrNotLinked = errors.New("command is not linked to card")
)

// Error describes a rejected link or unlink. It wraps one of the sentinels above.
type Error struct {
	Err     error
	Command program.Handle
	Card    string
	// Holder is the card's current holder (ErrAlreadyBound) or the command's
	// current card (ErrAlreadyLinked).
	Holder string
}

func (e *Error) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("%v: #%d -> %s (held by %s)", e.Err, e.Command, e.Card, e.Holder)
	}
	return fmt.Sprintf("%v: #%d -> %s", e.Err, e.Command, e.Card)
}

func (e *Error) Unwrap() error { return e.Err }

// Listener is notified when direct manipulation of a card must be disabled
// or may be re-enabled. Calls happen synchronously after the state change.
type Listener interface {
	CardLocked(label string)
	CardReleased(label string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithListener registers the authoring surface listener.
func WithListener(l Listener) Option {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// Manager holds the current bindings.
type Manager struct {
	byCard    map[string]program.Handle
	byCommand map[program.Handle]string
	waiters   map[string][]func()
	listeners []Listener
	log       *slog.Logger
}

// New creates a Manager with no bindings.
func New(opts ...Option) *Manager {
	m := &Manager{
		byCard:    make(map[string]program.Handle),
		byCommand: make(map[program.Handle]string),
		waiters:   make(map[string][]func()),
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddListener registers an additional listener.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Link binds command h to the card. Linking a card that already has a
// binding fails, even when h is its holder. A rejected link leaves the
// state untouched.
func (m *Manager) Link(h program.Handle, label string) error {
	if holder, ok := m.byCard[label]; ok {
		err := &Error{Err: ErrAlreadyBound, Command: h, Card: label, Holder: fmt.Sprintf("#%d", holder)}
		m.log.Debug("Link rejected", "error", err)
		return err
	}
	if current, ok := m.byCommand[h]; ok {
		err := &Error{Err: ErrAlreadyLinked, Command: h, Card: label, Holder: current}
		m.log.Debug("Link rejected", "error", err)
		return err
	}

	m.byCard[label] = h
	m.byCommand[h] = label
	m.log.Debug("Card linked", "card", label, "command", h)

	for _, l := range m.listeners {
		l.CardLocked(label)
	}
	return nil
}

// Unlink removes the binding between h and the card.
func (m *Manager) Unlink(h program.Handle, label string) error {
	if holder, ok := m.byCard[label]; !ok || holder != h {
		return &Error{Err: ErrNotLinked, Command: h, Card: label}
	}
	m.release(h, label)
	return nil
}

// UnlinkCommand drops whatever binding h holds. It reports whether there was one.
func (m *Manager) UnlinkCommand(h program.Handle) bool {
	label, ok := m.byCommand[h]
	if !ok {
		return false
	}
	m.release(h, label)
	return true
}

// CardOf returns the card bound to command h.
func (m *Manager) CardOf(h program.Handle) (string, bool) {
	label, ok := m.byCommand[h]
	return label, ok
}

// HolderOf returns the command bound to the card.
func (m *Manager) HolderOf(label string) (program.Handle, bool) {
	h, ok := m.byCard[label]
	return h, ok
}

// Count returns the number of bindings on the card (0 or 1).
func (m *Manager) Count(label string) int {
	if _, ok := m.byCard[label]; ok {
		return 1
	}
	return 0
}

// Len returns the number of active bindings.
func (m *Manager) Len() int { return len(m.byCard) }

// WhenReleased registers fn to run once the card has no binding. If the card
// is already free, fn runs immediately. Callbacks run synchronously inside
// the call that releases the last binding, after listeners were notified.
func (m *Manager) WhenReleased(label string, fn func()) {
	if m.Count(label) == 0 {
		fn()
		return
	}
	m.waiters[label] = append(m.waiters[label], fn)
}

// Bindings returns a copy of the card-to-command map.
func (m *Manager) Bindings() map[string]program.Handle {
	out := make(map[string]program.Handle, len(m.byCard))
	for k, v := range m.byCard {
		out[k] = v
	}
	return out
}

func (m *Manager) release(h program.Handle, label string) {
	delete(m.byCard, label)
	delete(m.byCommand, h)
	m.log.Debug("Card unlinked", "card", label, "command", h)

	if m.Count(label) != 0 {
		return
	}
	for _, l := range m.listeners {
		l.CardReleased(label)
	}
	waiters := m.waiters[label]
	delete(m.waiters, label)
	for _, fn := range waiters {
		fn()
	}
}
