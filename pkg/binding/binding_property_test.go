package binding

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/program"
)

var propertyCards = []string{"R", "S", "Q", "P"}

// TestProperty_MutualExclusion checks that, for any sequence of link and
// unlink requests, every card has at most one holder, every command at most
// one card, and rejected links never change state.
func TestProperty_MutualExclusion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("at most one command holds each card", prop.ForAll(
		func(requests []int) bool {
			m := New(WithLogger(logger.Discard()))

			for _, r := range requests {
				h := program.Handle(r%5 + 1)
				label := propertyCards[(r/5)%len(propertyCards)]
				unlink := (r/20)%3 == 0

				before := m.Bindings()

				if unlink {
					_ = m.Unlink(h, label)
				} else if err := m.Link(h, label); err != nil {
					if !errors.Is(err, ErrAlreadyBound) && !errors.Is(err, ErrAlreadyLinked) {
						return false
					}
					after := m.Bindings()
					if len(after) != len(before) {
						return false
					}
					for k, v := range before {
						if after[k] != v {
							return false
						}
					}
				}

				seen := make(map[program.Handle]bool)
				for label, holder := range m.Bindings() {
					if seen[holder] {
						return false
					}
					seen[holder] = true
					if got, ok := m.CardOf(holder); !ok || got != label {
						return false
					}
					if m.Count(label) != 1 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("linking a bound card always fails", prop.ForAll(
		func(first, second int, label string) bool {
			if first == second {
				return true
			}
			m := New(WithLogger(logger.Discard()))
			if err := m.Link(program.Handle(first), label); err != nil {
				return false
			}
			err := m.Link(program.Handle(second), label)
			holder, _ := m.HolderOf(label)
			return errors.Is(err, ErrAlreadyBound) && holder == program.Handle(first)
		},
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
