package card

import (
	"errors"
	"fmt"
)

// ErrDuplicateLabel is returned when a registry already holds a card with the same label.
var ErrDuplicateLabel = errors.New("duplicate card label")

// ErrUnknownCard is returned when a label does not name a registered card.
var ErrUnknownCard = errors.New("unknown card")

// Card is a data-structure card placed in a level.
// The label doubles as the card's address shown to the player.
type Card struct {
	Label       string
	Cost        float64
	Description string

	structure Structure
}

// New creates a card around an existing structure.
func New(label string, s Structure) *Card {
	return &Card{Label: label, structure: s}
}

// Structure returns the underlying data structure.
func (c *Card) Structure() Structure { return c.structure }

// Kind returns the variant of the underlying structure.
func (c *Card) Kind() Kind { return c.structure.Kind() }

// MoveTo adds v to the card.
func (c *Card) MoveTo(v int) { c.structure.Add(v) }

// MoveFrom removes the next value. ok is false when the card is empty.
func (c *Card) MoveFrom() (v int, ok bool) { return c.structure.Remove() }

// CopyTo adds v to the card. The effect on the card is the same as MoveTo;
// the difference lies in what happens to the source.
func (c *Card) CopyTo(v int) { c.structure.Add(v) }

// CopyFrom peeks the next value without removing it.
func (c *Card) CopyFrom() (v int, ok bool) { return c.structure.Peek() }

// ClearData empties the card.
func (c *Card) ClearData() { c.structure.Clear() }

// String renders the card as "LABEL(kind)[v1 v2 ...]".
func (c *Card) String() string {
	return fmt.Sprintf("%s(%s)%v", c.Label, c.structure.Kind(), c.structure.Values())
}

// Registry holds the cards of one level, keyed by label.
// The core only refers to cards by label; the registry is the single owner
// of card state.
type Registry struct {
	cards map[string]*Card
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cards: make(map[string]*Card)}
}

// Add registers a card. Labels must be unique and non-empty.
func (r *Registry) Add(c *Card) error {
	if c == nil || c.structure == nil {
		return fmt.Errorf("card has no structure")
	}
	if c.Label == "" {
		return fmt.Errorf("card label must not be empty")
	}
	if _, exists := r.cards[c.Label]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, c.Label)
	}
	r.cards[c.Label] = c
	r.order = append(r.order, c.Label)
	return nil
}

// Lookup returns the card with the given label.
func (r *Registry) Lookup(label string) (*Card, bool) {
	c, ok := r.cards[label]
	return c, ok
}

// MustLookup returns the card with the given label or an ErrUnknownCard error.
func (r *Registry) MustLookup(label string) (*Card, error) {
	c, ok := r.cards[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, label)
	}
	return c, nil
}

// Labels returns the labels in registration order.
func (r *Registry) Labels() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Cards returns the cards in registration order.
func (r *Registry) Cards() []*Card {
	out := make([]*Card, 0, len(r.order))
	for _, label := range r.order {
		out = append(out, r.cards[label])
	}
	return out
}

// Len returns the number of registered cards.
func (r *Registry) Len() int { return len(r.order) }

// TotalCost sums the cost of every card in play.
func (r *Registry) TotalCost() float64 {
	var total float64
	for _, label := range r.order {
		total += r.cards[label].Cost
	}
	return total
}

// Snapshot returns the contents of every card in removal order.
func (r *Registry) Snapshot() map[string][]int {
	out := make(map[string][]int, len(r.order))
	for _, label := range r.order {
		out[label] = r.cards[label].structure.Values()
	}
	return out
}
