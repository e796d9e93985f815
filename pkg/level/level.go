// Package level loads puzzle levels and turns them into a playable Context.
//
// Levels are TOML documents. Legacy files saved in Shift-JIS are accepted
// and converted to UTF-8 before decoding.
package level

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/zurustar/computron/pkg/card"
	"github.com/zurustar/computron/pkg/opcode"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrInvalidLevel wraps every validation failure reported by Parse.
var ErrInvalidLevel = errors.New("invalid level")

// CardSpec declares one data-structure card.
type CardSpec struct {
	Label       string  `toml:"label"`
	Kind        string  `toml:"kind"`
	Cost        float64 `toml:"cost"`
	Description string  `toml:"description"`
	Initial     []int   `toml:"initial"`
	// Order is mandatory for priority cards: "min" or "max".
	Order string `toml:"order"`
}

// CommandSpec declares one prepared command of the starting program.
type CommandSpec struct {
	Op        string `toml:"op"`
	Operand   *int   `toml:"operand"`
	Card      string `toml:"card"`
	Condition string `toml:"condition"`
	// Target is the index, within the commands list, of the no-op anchoring
	// this jump. When omitted the jump gets a fresh anchor right after it.
	Target *int `toml:"target"`
}

// Goal describes what a solved level looks like.
type Goal struct {
	// MaxSteps is the step budget; zero means unbounded.
	MaxSteps int `toml:"max_steps"`
	// Cards maps a label to its expected contents in removal order.
	Cards map[string][]int `toml:"cards"`
}

// Level is a decoded and validated level file.
type Level struct {
	Name        string        `toml:"name"`
	Description string        `toml:"description"`
	Cards       []CardSpec    `toml:"cards"`
	Commands    []CommandSpec `toml:"commands"`
	Goal        Goal          `toml:"goal"`

	// Source is the file the level came from; empty for in-memory levels.
	Source string `toml:"-"`
}

// Parse decodes and validates a level document. name is used when the
// document has no name of its own.
func Parse(data []byte, name string) (*Level, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	var l Level
	md, err := toml.NewDecoder(strings.NewReader(text)).Decode(&l)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s: unknown key %q", ErrInvalidLevel, name, undecoded[0].String())
	}

	if l.Name == "" {
		l.Name = name
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks the level for consistency without building anything.
func (l *Level) Validate() error {
	labels := make(map[string]bool, len(l.Cards))
	for i, c := range l.Cards {
		if c.Label == "" {
			return l.invalid("card %d has no label", i)
		}
		if labels[c.Label] {
			return l.invalid("duplicate card label %q", c.Label)
		}
		labels[c.Label] = true

		kind, err := card.ParseKind(c.Kind)
		if err != nil {
			return l.invalid("card %q: %v", c.Label, err)
		}
		if kind == card.KindPriority {
			if c.Order == "" {
				return l.invalid("card %q: priority cards must declare order = \"min\" or \"max\"", c.Label)
			}
			if _, err := card.ParseOrder(c.Order); err != nil {
				return l.invalid("card %q: %v", c.Label, err)
			}
		} else if c.Order != "" {
			return l.invalid("card %q: only priority cards take an order", c.Label)
		}
		if kind == card.KindRegister && len(c.Initial) > 1 {
			return l.invalid("card %q: a register holds at most one value", c.Label)
		}
	}

	linked := make(map[string]int)
	for i, cs := range l.Commands {
		op, err := opcode.Parse(cs.Op)
		if err != nil {
			return l.invalid("command %d: %v", i, err)
		}
		cond, err := opcode.ParseCondition(cs.Condition)
		if err != nil {
			return l.invalid("command %d: %v", i, err)
		}
		if cond != opcode.None && op != opcode.JumpIf {
			return l.invalid("command %d: only %s takes a condition", i, opcode.JumpIf)
		}
		if cs.Target != nil && !op.IsJump() {
			return l.invalid("command %d: only jumps take a target", i)
		}
		if cs.Operand != nil && !op.Writes() {
			return l.invalid("command %d: %s takes no operand", i, op)
		}
		if cs.Card != "" {
			if !op.Linkable() {
				return l.invalid("command %d: %s cannot be linked to a card", i, op)
			}
			if !labels[cs.Card] {
				return l.invalid("command %d: unknown card %q", i, cs.Card)
			}
			if prev, ok := linked[cs.Card]; ok {
				return l.invalid("command %d: card %q already linked by command %d", i, cs.Card, prev)
			}
			linked[cs.Card] = i
		}
	}

	if err := l.validateTargets(); err != nil {
		return err
	}

	if l.Goal.MaxSteps < 0 {
		return l.invalid("goal max_steps must not be negative")
	}
	for label := range l.Goal.Cards {
		if !labels[label] {
			return l.invalid("goal refers to unknown card %q", label)
		}
	}
	return nil
}

// validateTargets applies the anchor rules of program.FromLayout: a target
// is another command in range, it is a no-op, and no two jumps share it.
func (l *Level) validateTargets() error {
	anchored := make(map[int]int)
	for i, cs := range l.Commands {
		if cs.Target == nil {
			continue
		}
		t := *cs.Target
		if t < 0 || t >= len(l.Commands) || t == i {
			return l.invalid("command %d: target %d out of range", i, t)
		}
		if op, _ := opcode.Parse(l.Commands[t].Op); op != opcode.NoOp {
			return l.invalid("command %d: target %d is %s, not %s", i, t, op, opcode.NoOp)
		}
		if prev, ok := anchored[t]; ok {
			return l.invalid("command %d: target %d already anchors command %d", i, t, prev)
		}
		anchored[t] = i
	}
	return nil
}

func (l *Level) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidLevel, l.Name, fmt.Sprintf(format, args...))
}

// toUTF8 はUTF-8でなければShift-JISとみなして変換する
func toUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	converted, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(converted), nil
}
