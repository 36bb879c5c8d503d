package diagnosis

import (
	"slices"
	"strings"
	"sync"
)

// Misconception is a known wrong mental model, tagged with the topics it
// shows up in.
type Misconception struct {
	ID          string
	Topics      []string
	Label       string
	Description string
	Examples    []string
}

// Taxonomy indexes misconceptions by ID and by topic. It is read-only
// once built.
type Taxonomy struct {
	all     []*Misconception // by ID
	byID    map[string]*Misconception
	byTopic map[string][]*Misconception
}

func NewTaxonomy(ms []Misconception) *Taxonomy {
	t := &Taxonomy{
		byID:    make(map[string]*Misconception, len(ms)),
		byTopic: make(map[string][]*Misconception),
	}
	for i := range ms {
		m := &ms[i]
		t.byID[m.ID] = m
		t.all = append(t.all, m)
		for _, topic := range m.Topics {
			t.byTopic[topic] = append(t.byTopic[topic], m)
		}
	}
	slices.SortFunc(t.all, byID)
	return t
}

func byID(a, b *Misconception) int { return strings.Compare(a.ID, b.ID) }

// Lookup returns the misconception with id, or nil.
func (t *Taxonomy) Lookup(id string) *Misconception { return t.byID[id] }

// For returns the misconceptions tagged with any of topics, once each,
// ordered by ID.
func (t *Taxonomy) For(topics []string) []*Misconception {
	var out []*Misconception
	for _, topic := range topics {
		for _, m := range t.byTopic[topic] {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	slices.SortFunc(out, byID)
	return out
}

func (t *Taxonomy) All() []*Misconception { return slices.Clone(t.all) }

// Builtin is the taxonomy for the default topic graph.
var Builtin = sync.OnceValue(func() *Taxonomy { return NewTaxonomy(seedMisconceptions) })

// Lookup is Builtin().Lookup.
func Lookup(id string) *Misconception { return Builtin().Lookup(id) }

// MisconceptionsFor is Builtin().For.
func MisconceptionsFor(topics []string) []*Misconception { return Builtin().For(topics) }
