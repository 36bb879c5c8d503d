// Package config holds the engine's tunable parameters. An Engine value is
// built once at startup and passed by value; nothing in it changes afterwards.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/drillz/internal/item"
)

// Engine is the immutable engine configuration.
type Engine struct {
	// MasteryStep is subtracted from a topic's mastery on each wrong answer.
	MasteryStep float64

	// DefaultMastery is the mastery a topic starts at for a new learner.
	DefaultMastery float64

	// UnknownTopicMastery ranks candidate topics the learner has no score
	// for. It is high so unscored topics do not win the low-mastery pick.
	UnknownTopicMastery float64

	// MediumAt and HardAt are the correct-rate cut points between bands.
	MediumAt float64
	HardAt   float64

	// GenerateBelow triggers generation when the correct rate is under it.
	GenerateBelow     float64
	GenerationTimeout time.Duration
	GenerationEnabled bool

	// TextThreshold and CodeThreshold are the similarity ratios a text or
	// code answer must exceed to count as correct.
	TextThreshold float64
	CodeThreshold float64

	// RecencyWindow excludes items the learner attempted this recently.
	RecencyWindow time.Duration

	// PickWindowMax caps the low-mastery window picked from at random.
	PickWindowMax int

	// CoreKind is the exercise kind that falls back to the core topic set
	// when neither explicit nor weak topics are available.
	CoreKind string

	// adjacency is nil for a struct literal; Adjacent then uses
	// defaultAdjacency.
	adjacency map[item.Band][]item.Band
}

var defaultAdjacency = map[item.Band][]item.Band{
	item.Easy:   {item.Easy, item.Medium},
	item.Medium: {item.Easy, item.Medium, item.Hard},
	item.Hard:   {item.Medium, item.Hard},
}

// Default returns the stock configuration.
func Default() Engine {
	return Engine{
		MasteryStep:         0.1,
		DefaultMastery:      0.5,
		UnknownTopicMastery: 1.0,
		MediumAt:            0.6,
		HardAt:              0.8,
		GenerateBelow:       0.7,
		GenerationTimeout:   20 * time.Second,
		GenerationEnabled:   true,
		TextThreshold:       0.8,
		CodeThreshold:       0.85,
		RecencyWindow:       7 * 24 * time.Hour,
		PickWindowMax:       10,
		CoreKind:            "simulation",
	}
}

// Adjacent returns the bands a search for b may widen to, b included.
// Without WithAdjacency the stock relaxation map applies.
func (c Engine) Adjacent(b item.Band) []item.Band {
	m := c.adjacency
	if m == nil {
		m = defaultAdjacency
	}
	adj, ok := m[b]
	if !ok {
		return []item.Band{b}
	}
	return append([]item.Band(nil), adj...)
}

// WithAdjacency returns a copy of c using adj as the relaxation map.
func (c Engine) WithAdjacency(adj map[item.Band][]item.Band) Engine {
	m := make(map[item.Band][]item.Band, len(adj))
	for k, v := range adj {
		m[k] = append([]item.Band(nil), v...)
	}
	c.adjacency = m
	return c
}

// Validate checks that thresholds and windows are usable.
func (c Engine) Validate() error {
	unit := []struct {
		name string
		v    float64
	}{
		{"mastery step", c.MasteryStep},
		{"default mastery", c.DefaultMastery},
		{"unknown topic mastery", c.UnknownTopicMastery},
		{"medium threshold", c.MediumAt},
		{"hard threshold", c.HardAt},
		{"generate-below rate", c.GenerateBelow},
		{"text threshold", c.TextThreshold},
		{"code threshold", c.CodeThreshold},
	}
	for _, u := range unit {
		if u.v < 0 || u.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", u.name, u.v)
		}
	}
	if c.MasteryStep == 0 {
		return fmt.Errorf("mastery step must be positive")
	}
	if c.MediumAt >= c.HardAt {
		return fmt.Errorf("medium threshold %v must be below hard threshold %v", c.MediumAt, c.HardAt)
	}
	if c.RecencyWindow < 0 {
		return fmt.Errorf("recency window must not be negative")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive")
	}
	if c.PickWindowMax < 1 {
		return fmt.Errorf("pick window max must be at least 1")
	}
	for _, b := range item.Bands() {
		for _, n := range c.adjacency[b] {
			if _, ok := item.ParseBand(string(n)); !ok {
				return fmt.Errorf("adjacency for %s lists unknown band %q", b, n)
			}
		}
	}
	return nil
}

// InvalidValueError reports a caller-supplied value outside its allowed set.
type InvalidValueError struct {
	Name    string
	Value   string
	Allowed []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Name, e.Value, strings.Join(e.Allowed, ", "))
}
