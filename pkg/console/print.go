package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/opcode"
)

const helpText = `Commands:
  list                         show the program
  cards                        show the cards and their contents
  insert <op> <pos> [operand]  insert a command (ops: %s)
  jump <op> <pos> [anchor]     insert a jump; anchor is the position of a free no-op
  remove <pos>                 remove a command (a jump takes its anchor with it)
  move <from> <to>             move a command; moving an anchor retargets its jump
  link <pos> <card>            link a command to a card
  unlink <pos> <card>          remove a link
  operand <pos> <value|none>   set or clear the literal of move-to / copy-to
  cond <pos> <condition|none>  set the condition of jump-if (%s)
  step                         execute one command
  run                          run until the program halts
  halt                         stop the current run
  reset                        stop and restore the cards
  eval                         check the level goal
  help                         show this help
  quit                         exit
`

func (c *Console) printHelp() {
	ops := make([]string, 0, len(opcode.All))
	for _, op := range opcode.All {
		ops = append(ops, string(op))
	}
	conds := make([]string, 0, len(opcode.Conditions))
	for _, cond := range opcode.Conditions {
		conds = append(conds, string(cond))
	}
	fmt.Fprintf(c.writer, helpText, strings.Join(ops, ", "), strings.Join(conds, ", "))
}

func (c *Console) printListing() {
	rows := c.session.Listing()
	if len(rows) == 0 {
		fmt.Fprintln(c.writer, "(empty program)")
	}
	for _, r := range rows {
		fmt.Fprintln(c.writer, r.String())
	}
}

func (c *Console) printCards() {
	ctx := c.session.Context()
	for _, cd := range ctx.Cards.Cards() {
		line := fmt.Sprintf("%-6s %-8s %v", cd.Label, cd.Kind(), cd.Structure().Values())
		if cd.Cost != 0 {
			line += fmt.Sprintf("  cost %.1f", cd.Cost)
		}
		if h, ok := ctx.Bindings.HolderOf(cd.Label); ok {
			if pos, err := ctx.Program.Position(h); err == nil {
				line += fmt.Sprintf("  (linked to %d)", pos)
			}
		}
		fmt.Fprintln(c.writer, line)
	}
	fmt.Fprintf(c.writer, "total cost %.1f\n", ctx.Cards.TotalCost())
}

func (c *Console) printState(st engine.State) {
	line := "state: " + st.String()
	if v, ok := c.session.Hand(); ok {
		line += fmt.Sprintf("  hand: %d", v)
	} else {
		line += "  hand: -"
	}
	line += fmt.Sprintf("  steps: %d", c.session.Steps())
	fmt.Fprintln(c.writer, line)
}

// printEvent は実行結果を1行で表示する
func (c *Console) printEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventValueMoved, engine.EventValueCopied:
		if ev.HasValue {
			fmt.Fprintf(c.writer, "  %d: %s %s (%d)\n", ev.PC, ev.Op, ev.Card, ev.Value)
		} else {
			fmt.Fprintf(c.writer, "  %d: %s %s (nothing)\n", ev.PC, ev.Op, ev.Card)
		}
	case engine.EventCleared:
		fmt.Fprintf(c.writer, "  %d: %s %s\n", ev.PC, ev.Op, ev.Card)
	case engine.EventJumped:
		fmt.Fprintf(c.writer, "  %d: %s -> %d\n", ev.PC, ev.Op, ev.Target)
	}
}

// lockPrinter はカードのロックと解放を表示する binding.Listener
type lockPrinter struct {
	w io.Writer
}

func (p lockPrinter) CardLocked(label string) {
	fmt.Fprintf(p.w, "card %s locked\n", label)
}

func (p lockPrinter) CardReleased(label string) {
	fmt.Fprintf(p.w, "card %s released\n", label)
}
