// Package card provides the data-structure cards that instruction cards move
// values through: a register, a stack, a queue and a priority structure.
package card

import (
	"container/heap"
	"fmt"
	"strings"
)

// Kind identifies the data-structure variant behind a card.
type Kind int

const (
	KindRegister Kind = iota
	KindStack
	KindQueue
	KindPriority
)

// String returns the level-file name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindStack:
		return "stack"
	case KindQueue:
		return "queue"
	case KindPriority:
		return "priority"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a level-file name into a Kind.
// "heap" is accepted as an alias of "priority".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "register":
		return KindRegister, nil
	case "stack":
		return KindStack, nil
	case "queue":
		return KindQueue, nil
	case "priority", "heap":
		return KindPriority, nil
	default:
		return 0, fmt.Errorf("unknown card kind: %q", name)
	}
}

// Order is the extraction order of a priority structure.
type Order int

const (
	// OrderUnset is rejected by NewPriority; levels must choose.
	OrderUnset Order = iota
	MinFirst
	MaxFirst
)

// String returns the level-file name of the order.
func (o Order) String() string {
	switch o {
	case MinFirst:
		return "min"
	case MaxFirst:
		return "max"
	default:
		return "unset"
	}
}

// ParseOrder converts "min" or "max" into an Order.
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "min", "min-first", "ascending":
		return MinFirst, nil
	case "max", "max-first", "descending":
		return MaxFirst, nil
	default:
		return OrderUnset, fmt.Errorf("unknown priority order: %q", name)
	}
}

// Structure is the capability every data-structure card offers.
// Remove and Peek on an empty structure report false; they never fail.
//
// The set of implementations is closed: the unexported method keeps other
// packages from adding variants, so a switch over *Register, *Stack, *Queue
// and *Priority is exhaustive.
type Structure interface {
	Add(v int)
	Remove() (int, bool)
	Peek() (int, bool)
	Clear()
	IsEmpty() bool
	Len() int
	// Values returns the contents in removal order.
	Values() []int
	Kind() Kind

	sealed()
}

// NewStructure creates an empty structure of the given kind.
// order is only consulted for KindPriority.
func NewStructure(kind Kind, order Order) (Structure, error) {
	switch kind {
	case KindRegister:
		return NewRegister(), nil
	case KindStack:
		return NewStack(), nil
	case KindQueue:
		return NewQueue(), nil
	case KindPriority:
		return NewPriority(order)
	default:
		return nil, fmt.Errorf("unknown card kind: %v", kind)
	}
}

// Register holds zero or one value. Add overwrites.
type Register struct {
	value int
	full  bool
}

// NewRegister creates an empty register.
func NewRegister() *Register { return &Register{} }

func (r *Register) Add(v int) {
	r.value = v
	r.full = true
}

func (r *Register) Remove() (int, bool) {
	if !r.full {
		return 0, false
	}
	v := r.value
	r.value, r.full = 0, false
	return v, true
}

func (r *Register) Peek() (int, bool) { return r.value, r.full }
func (r *Register) Clear()            { r.value, r.full = 0, false }
func (r *Register) IsEmpty() bool     { return !r.full }
func (r *Register) Kind() Kind        { return KindRegister }
func (r *Register) sealed()           {}

func (r *Register) Len() int {
	if r.full {
		return 1
	}
	return 0
}

func (r *Register) Values() []int {
	if !r.full {
		return []int{}
	}
	return []int{r.value}
}

// Stack is a LIFO sequence.
type Stack struct {
	items []int
}

// NewStack creates an empty stack.
func NewStack() *Stack { return &Stack{} }

func (s *Stack) Add(v int) { s.items = append(s.items, v) }

func (s *Stack) Remove() (int, bool) {
	n := len(s.items)
	if n == 0 {
		return 0, false
	}
	v := s.items[n-1]
	s.items = s.items[:n-1]
	return v, true
}

func (s *Stack) Peek() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack) Clear()        { s.items = s.items[:0] }
func (s *Stack) IsEmpty() bool { return len(s.items) == 0 }
func (s *Stack) Len() int      { return len(s.items) }
func (s *Stack) Kind() Kind    { return KindStack }
func (s *Stack) sealed()       {}

func (s *Stack) Values() []int {
	out := make([]int, len(s.items))
	for i, v := range s.items {
		out[len(s.items)-1-i] = v
	}
	return out
}

// Queue is a FIFO sequence.
type Queue struct {
	items []int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Add(v int) { q.items = append(q.items, v) }

func (q *Queue) Remove() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

func (q *Queue) Peek() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	return q.items[0], true
}

func (q *Queue) Clear()        { q.items = nil }
func (q *Queue) IsEmpty() bool { return len(q.items) == 0 }
func (q *Queue) Len() int      { return len(q.items) }
func (q *Queue) Kind() Kind    { return KindQueue }
func (q *Queue) sealed()       {}

func (q *Queue) Values() []int {
	out := make([]int, len(q.items))
	copy(out, q.items)
	return out
}

// Priority returns its extreme element first, according to its Order.
type Priority struct {
	h priorityHeap
}

// NewPriority creates an empty priority structure. The order must be chosen
// explicitly.
func NewPriority(order Order) (*Priority, error) {
	if order != MinFirst && order != MaxFirst {
		return nil, fmt.Errorf("priority card requires an order (min or max), got %s", order)
	}
	return &Priority{h: priorityHeap{order: order}}, nil
}

// Order returns the extraction order.
func (p *Priority) Order() Order { return p.h.order }

func (p *Priority) Add(v int) { heap.Push(&p.h, v) }

func (p *Priority) Remove() (int, bool) {
	if p.h.Len() == 0 {
		return 0, false
	}
	return heap.Pop(&p.h).(int), true
}

func (p *Priority) Peek() (int, bool) {
	if p.h.Len() == 0 {
		return 0, false
	}
	return p.h.items[0], true
}

func (p *Priority) Clear()        { p.h.items = nil }
func (p *Priority) IsEmpty() bool { return p.h.Len() == 0 }
func (p *Priority) Len() int      { return p.h.Len() }
func (p *Priority) Kind() Kind    { return KindPriority }
func (p *Priority) sealed()       {}

func (p *Priority) Values() []int {
	tmp := priorityHeap{order: p.h.order, items: append([]int(nil), p.h.items...)}
	out := make([]int, 0, tmp.Len())
	for tmp.Len() > 0 {
		out = append(out, heap.Pop(&tmp).(int))
	}
	return out
}

type priorityHeap struct {
	items []int
	order Order
}

func (h priorityHeap) Len() int { return len(h.items) }

func (h priorityHeap) Less(i, j int) bool {
	if h.order == MaxFirst {
		return h.items[i] > h.items[j]
	}
	return h.items[i] < h.items[j]
}

func (h priorityHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *priorityHeap) Push(x any) { h.items = append(h.items, x.(int)) }

func (h *priorityHeap) Pop() any {
	n := len(h.items)
	v := h.items[n-1]
	h.items = h.items[:n-1]
	return v
}
