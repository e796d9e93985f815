package level

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/computron/pkg/binding"
	"github.com/zurustar/computron/pkg/card"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

// Context is everything a running level owns: its cards, the program being
// authored and the links between them. One Context serves one play session.
type Context struct {
	Level    *Level
	Cards    *card.Registry
	Program  *program.Sequence
	Bindings *binding.Manager
}

// Option configures Materialize.
type Option func(*materializeOptions)

type materializeOptions struct {
	log       *slog.Logger
	listeners []binding.Listener
}

// WithLogger sets the logger handed to the binding manager.
func WithLogger(log *slog.Logger) Option {
	return func(o *materializeOptions) {
		o.log = log
	}
}

// WithBindingListener registers a listener before the prepared links are made,
// so it observes the initial locks too.
func WithBindingListener(l binding.Listener) Option {
	return func(o *materializeOptions) {
		o.listeners = append(o.listeners, l)
	}
}

// Materialize builds a fresh Context from the level definition.
func (l *Level) Materialize(opts ...Option) (*Context, error) {
	o := &materializeOptions{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(o)
	}

	cards, err := l.buildCards()
	if err != nil {
		return nil, err
	}

	entries := make([]program.Entry, len(l.Commands))
	for i, cs := range l.Commands {
		op, err := opcode.Parse(cs.Op)
		if err != nil {
			return nil, l.invalid("command %d: %v", i, err)
		}
		cond, err := opcode.ParseCondition(cs.Condition)
		if err != nil {
			return nil, l.invalid("command %d: %v", i, err)
		}
		entries[i] = program.Entry{Op: op, Operand: cs.Operand, Condition: cond, Target: cs.Target}
	}
	seq, handles, err := program.FromLayout(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLevel, l.Name, err)
	}

	bopts := []binding.Option{binding.WithLogger(o.log)}
	for _, lis := range o.listeners {
		bopts = append(bopts, binding.WithListener(lis))
	}
	bindings := binding.New(bopts...)
	for i, cs := range l.Commands {
		if cs.Card == "" {
			continue
		}
		if err := bindings.Link(handles[i], cs.Card); err != nil {
			return nil, fmt.Errorf("%w: %s: command %d: %w", ErrInvalidLevel, l.Name, i, err)
		}
	}

	o.log.Debug("Level materialized", "level", l.Name, "cards", cards.Len(), "commands", seq.Len())
	return &Context{Level: l, Cards: cards, Program: seq, Bindings: bindings}, nil
}

func (l *Level) buildCards() (*card.Registry, error) {
	reg := card.NewRegistry()
	for _, cs := range l.Cards {
		kind, err := card.ParseKind(cs.Kind)
		if err != nil {
			return nil, l.invalid("card %q: %v", cs.Label, err)
		}
		order := card.OrderUnset
		if cs.Order != "" {
			if order, err = card.ParseOrder(cs.Order); err != nil {
				return nil, l.invalid("card %q: %v", cs.Label, err)
			}
		}
		s, err := card.NewStructure(kind, order)
		if err != nil {
			return nil, l.invalid("card %q: %v", cs.Label, err)
		}
		c := card.New(cs.Label, s)
		c.Cost = cs.Cost
		c.Description = cs.Description
		for _, v := range cs.Initial {
			c.MoveTo(v)
		}
		if err := reg.Add(c); err != nil {
			return nil, l.invalid("%v", err)
		}
	}
	return reg, nil
}

// ResetCards restores every card to the level's initial contents.
func (c *Context) ResetCards() {
	for _, cs := range c.Level.Cards {
		cd, ok := c.Cards.Lookup(cs.Label)
		if !ok {
			continue
		}
		cd.ClearData()
		for _, v := range cs.Initial {
			cd.MoveTo(v)
		}
	}
}
