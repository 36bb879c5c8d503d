// Package topicgraph is a lookup graph of practice topics: their difficulty
// level, parent, prerequisites and whether they belong to the core set.
package topicgraph

// Topic is a node in the topic graph.
type Topic struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// DifficultyLevel runs from 1 (introductory) to 5 (advanced).
	DifficultyLevel int `yaml:"level"`

	Parent        string   `yaml:"parent,omitempty"`
	Prerequisites []string `yaml:"prerequisites,omitempty"`

	// Core marks topics every learner is expected to cover; they seed
	// selection when nothing more specific is known.
	Core bool `yaml:"core,omitempty"`
}

// DisplayName returns the topic name, falling back to its ID.
func (t Topic) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
