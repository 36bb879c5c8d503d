package topicgraph

import (
	"errors"
	"fmt"
	"sort"
)

// Graph indexes topics by ID with parent and prerequisite edges. Edges are
// not checked for cycles; the graph is used for lookup only.
type Graph struct {
	topics     []Topic
	byID       map[string]*Topic
	children   map[string][]string
	dependents map[string][]string
	core       []string
}

// New builds a graph, rejecting duplicate IDs and references to unknown
// topics.
func New(topics []Topic) (*Graph, error) {
	if err := validate(topics); err != nil {
		return nil, err
	}

	g := &Graph{
		topics:     append([]Topic(nil), topics...),
		byID:       make(map[string]*Topic, len(topics)),
		children:   make(map[string][]string),
		dependents: make(map[string][]string),
	}
	for i := range g.topics {
		t := &g.topics[i]
		g.byID[t.ID] = t
		if t.Parent != "" {
			g.children[t.Parent] = append(g.children[t.Parent], t.ID)
		}
		for _, p := range t.Prerequisites {
			g.dependents[p] = append(g.dependents[p], t.ID)
		}
		if t.Core {
			g.core = append(g.core, t.ID)
		}
	}
	sort.Strings(g.core)
	for _, m := range []map[string][]string{g.children, g.dependents} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return g, nil
}

func validate(topics []Topic) error {
	var errs []error
	ids := make(map[string]bool, len(topics))
	for _, t := range topics {
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("topic %q has no id", t.Name))
			continue
		}
		if ids[t.ID] {
			errs = append(errs, fmt.Errorf("duplicate topic ID: %q", t.ID))
		}
		ids[t.ID] = true
	}
	for _, t := range topics {
		if t.Parent != "" && !ids[t.Parent] {
			errs = append(errs, fmt.Errorf("topic %q references nonexistent parent %q", t.ID, t.Parent))
		}
		for _, p := range t.Prerequisites {
			if !ids[p] {
				errs = append(errs, fmt.Errorf("topic %q references nonexistent prerequisite %q", t.ID, p))
			}
		}
		if t.DifficultyLevel < 0 || t.DifficultyLevel > 5 {
			errs = append(errs, fmt.Errorf("topic %q has difficulty level %d outside 0-5", t.ID, t.DifficultyLevel))
		}
	}
	return errors.Join(errs...)
}

// Get returns the topic with the given ID.
func (g *Graph) Get(id string) (Topic, bool) {
	t, ok := g.byID[id]
	if !ok {
		return Topic{}, false
	}
	return *t, true
}

// Has reports whether id names a topic in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Name returns the display name for id, or id itself when unknown.
func (g *Graph) Name(id string) string {
	if t, ok := g.byID[id]; ok {
		return t.DisplayName()
	}
	return id
}

// Names maps IDs to display names, preserving order.
func (g *Graph) Names(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Name(id)
	}
	return out
}

// All returns every topic in load order.
func (g *Graph) All() []Topic {
	return append([]Topic(nil), g.topics...)
}

// Core returns the sorted IDs of core topics.
func (g *Graph) Core() []string {
	return append([]string(nil), g.core...)
}

// Children returns the IDs of topics whose parent is id.
func (g *Graph) Children(id string) []string {
	return append([]string(nil), g.children[id]...)
}

// Prerequisites returns the direct prerequisites of id.
func (g *Graph) Prerequisites(id string) []string {
	if t, ok := g.byID[id]; ok {
		return append([]string(nil), t.Prerequisites...)
	}
	return nil
}

// Dependents returns the IDs of topics that list id as a prerequisite.
func (g *Graph) Dependents(id string) []string {
	return append([]string(nil), g.dependents[id]...)
}

// Len returns the number of topics.
func (g *Graph) Len() int {
	return len(g.topics)
}
