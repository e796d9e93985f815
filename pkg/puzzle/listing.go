package puzzle

import (
	"fmt"
	"strings"

	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

// Row is one line of the program listing.
type Row struct {
	Index      int
	Handle     program.Handle
	Op         opcode.Op
	Operand    int
	HasOperand bool
	Condition  opcode.Condition
	Card       string // linked card, if any
	// Target is the resolved position of a jump's anchor, or -1.
	Target int
	// AnchorOf is the position of the jump owning this anchor, or -1.
	AnchorOf int
	// Current marks the row the program counter points at.
	Current bool
}

// String renders the row for text surfaces, e.g. "> 2 jump-if [hand-empty] -> 5".
func (r Row) String() string {
	var b strings.Builder
	if r.Current {
		b.WriteString(">")
	} else {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%3d %s", r.Index, r.Op)
	if r.HasOperand {
		fmt.Fprintf(&b, " %d", r.Operand)
	}
	if r.Condition != opcode.None {
		fmt.Fprintf(&b, " [%s]", r.Condition)
	}
	if r.Card != "" {
		fmt.Fprintf(&b, " @%s", r.Card)
	}
	if r.Op.IsJump() {
		if r.Target >= 0 {
			fmt.Fprintf(&b, " -> %d", r.Target)
		} else {
			b.WriteString(" -> ?")
		}
	}
	if r.AnchorOf >= 0 {
		fmt.Fprintf(&b, " (from %d)", r.AnchorOf)
	}
	return b.String()
}

// Listing renders the current program with derived positions.
func (s *Session) Listing() []Row {
	seq := s.ctx.Program
	st := s.engine.State()

	rows := make([]Row, 0, seq.Len())
	for i, c := range seq.Commands() {
		row := Row{
			Index:     i,
			Handle:    c.Handle(),
			Op:        c.Op(),
			Condition: c.Condition(),
			Target:    -1,
			AnchorOf:  -1,
			Current:   st.Status == engine.Running && st.PC == i,
		}
		row.Operand, row.HasOperand = c.Operand()
		row.Card, _ = s.ctx.Bindings.CardOf(c.Handle())
		if c.Op().IsJump() {
			if pos, err := seq.Resolve(c.Handle()); err == nil {
				row.Target = pos
			}
		}
		if owner := c.Owner(); owner != nil {
			if pos, err := seq.Position(owner.Handle()); err == nil {
				row.AnchorOf = pos
			}
		}
		rows = append(rows, row)
	}
	return rows
}
