package card

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genKind generates any data-structure variant.
func genKind() gopter.Gen {
	return gen.OneConstOf(KindRegister, KindStack, KindQueue, KindPriority)
}

func drain(s Structure) []int {
	var out []int
	for {
		v, ok := s.Remove()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// TestProperty_StackIsLIFO checks that removing everything from a stack
// yields the reverse of the insertion order.
func TestProperty_StackIsLIFO(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("remove order is the reverse of add order", prop.ForAll(
		func(values []int) bool {
			s := NewStack()
			for _, v := range values {
				s.Add(v)
			}
			got := drain(s)
			if len(got) != len(values) {
				return false
			}
			for i := range values {
				if got[i] != values[len(values)-1-i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	// Interleaved pushes and pops behave like a reference slice.
	properties.Property("interleaved operations match a reference stack", prop.ForAll(
		func(ops []int) bool {
			s := NewStack()
			var ref []int
			for _, op := range ops {
				if op >= 0 {
					s.Add(op)
					ref = append(ref, op)
					continue
				}
				v, ok := s.Remove()
				if len(ref) == 0 {
					if ok {
						return false
					}
					continue
				}
				want := ref[len(ref)-1]
				ref = ref[:len(ref)-1]
				if !ok || v != want {
					return false
				}
			}
			return s.Len() == len(ref)
		},
		gen.SliceOf(gen.IntRange(-50, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_QueueIsFIFO checks that removing everything from a queue
// yields the insertion order.
func TestProperty_QueueIsFIFO(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("remove order equals add order", prop.ForAll(
		func(values []int) bool {
			q := NewQueue()
			for _, v := range values {
				q.Add(v)
			}
			got := drain(q)
			if len(got) != len(values) {
				return false
			}
			for i := range values {
				if got[i] != values[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_PriorityIsSorted checks extraction order for both orders.
func TestProperty_PriorityIsSorted(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("min-first extracts ascending, max-first descending", prop.ForAll(
		func(values []int, maxFirst bool) bool {
			order := MinFirst
			if maxFirst {
				order = MaxFirst
			}
			p, err := NewPriority(order)
			if err != nil {
				return false
			}
			for _, v := range values {
				p.Add(v)
			}
			got := drain(p)
			want := append([]int(nil), values...)
			if maxFirst {
				sort.Sort(sort.Reverse(sort.IntSlice(want)))
			} else {
				sort.Ints(want)
			}
			if len(got) != len(want) {
				return false
			}
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_ClearIsIdempotent checks that clear always empties any variant.
func TestProperty_ClearIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("clear yields an empty structure", prop.ForAll(
		func(kind Kind, values []int, clears int) bool {
			s, err := NewStructure(kind, MinFirst)
			if err != nil {
				return false
			}
			for _, v := range values {
				s.Add(v)
			}
			for i := 0; i < clears; i++ {
				s.Clear()
			}
			if !s.IsEmpty() || s.Len() != 0 {
				return false
			}
			if _, ok := s.Peek(); ok {
				return false
			}
			if _, ok := s.Remove(); ok {
				return false
			}
			return len(s.Values()) == 0
		},
		genKind(),
		gen.SliceOf(gen.IntRange(-100, 100)),
		gen.IntRange(1, 3),
	))

	properties.Property("register never holds more than one value", prop.ForAll(
		func(values []int) bool {
			r := NewRegister()
			for _, v := range values {
				r.Add(v)
				if r.Len() != 1 {
					return false
				}
			}
			return len(values) > 0 || r.Len() == 0
		},
		gen.SliceOf(gen.IntRange(-100, 100)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
