package level

import (
	"fmt"
	"maps"
	"slices"
)

// Result is the outcome of checking a finished run against the level goal.
type Result struct {
	Solved bool
	Steps  int
	Cost   float64
	// Mismatches explains each failed expectation.
	Mismatches []string
}

// Evaluate compares the cards in ctx with the goal after a completed run of
// the given number of steps.
func Evaluate(ctx *Context, steps int) Result {
	res := Result{Steps: steps, Cost: ctx.Cards.TotalCost()}

	goal := ctx.Level.Goal
	if goal.MaxSteps > 0 && steps > goal.MaxSteps {
		res.Mismatches = append(res.Mismatches,
			fmt.Sprintf("took %d steps, budget is %d", steps, goal.MaxSteps))
	}

	snapshot := ctx.Cards.Snapshot()
	for _, label := range slices.Sorted(maps.Keys(goal.Cards)) {
		want := goal.Cards[label]
		got, ok := snapshot[label]
		if !ok {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf("card %s is missing", label))
			continue
		}
		if !slices.Equal(got, want) {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf("card %s holds %v, want %v", label, got, want))
		}
	}

	res.Solved = len(res.Mismatches) == 0
	return res
}

func (r Result) String() string {
	if r.Solved {
		return fmt.Sprintf("solved in %d steps (cost %.1f)", r.Steps, r.Cost)
	}
	return fmt.Sprintf("not solved after %d steps (cost %.1f): %v", r.Steps, r.Cost, r.Mismatches)
}
