// Package itemgen generates practice items with an LLM and decides, per
// selection request, whether to generate one or resolve one from the bank.
package itemgen

import (
	"context"

	"github.com/abhisek/drillz/internal/item"
)

// Generator produces a single practice item.
type Generator interface {
	// Generate returns a validated item, not yet persisted and without an
	// ID. All configured validators are run before returning.
	Generate(ctx context.Context, req GenRequest) (*item.Item, error)
}

// GenRequest holds everything the generator is told about the request.
type GenRequest struct {
	// Learner summary.
	LearnerID      string
	CorrectRate    float64
	Attempts       int
	WeakTopicNames []string

	Band item.Band

	// TopicIDs are the topics to target; TopicNames are their display
	// names, in the same order.
	TopicIDs   []string
	TopicNames []string

	// Kind narrows the item type or category. The zero Kind lets the
	// generator choose.
	Kind item.Kind

	// RecentTitles are titles generated for this learner lately, newest
	// first, so the model can avoid repeating them.
	RecentTitles []string
}
