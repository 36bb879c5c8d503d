package itemgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/drillz/internal/cache"
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/logger"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/selector"
)

// Resolver picks an existing item from the bank.
type Resolver interface {
	Resolve(ctx context.Context, req selector.Request) (*item.Item, error)
}

// ItemWriter persists generated items.
type ItemWriter interface {
	PutItem(ctx context.Context, it *item.Item) error
}

// TopicNamer maps topic IDs to display names.
type TopicNamer interface {
	Name(id string) string
}

// GenerationError is a failed generation attempt. It never reaches
// callers of ProvideItem; the arbiter falls back to the bank instead.
type GenerationError struct {
	// Stage is "generate" or "persist".
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("item generation (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Result is the outcome of one generation attempt: an item or an error.
type Result struct {
	Item *item.Item
	Err  *GenerationError
}

// Arbiter decides between generating a fresh item and resolving one from
// the bank.
type Arbiter struct {
	gen      Generator
	resolver Resolver
	items    ItemWriter
	recent   cache.Recent
	topics   TopicNamer
	core     selector.CoreTopics
	cfg      config.Engine
	log      *logger.Logger
	newID    func() string
	now      func() time.Time
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithGenerator enables generation through gen.
func WithGenerator(gen Generator) ArbiterOption {
	return func(a *Arbiter) { a.gen = gen }
}

// WithRecent feeds recently generated titles into prompts and records new
// ones.
func WithRecent(r cache.Recent) ArbiterOption {
	return func(a *Arbiter) { a.recent = r }
}

// WithTopicNames resolves topic IDs to names for prompts.
func WithTopicNames(n TopicNamer) ArbiterOption {
	return func(a *Arbiter) { a.topics = n }
}

// WithCoreTopics supplies the topics used for core-kind requests that
// name no topics and come from a learner with no weak topics.
func WithCoreTopics(c selector.CoreTopics) ArbiterOption {
	return func(a *Arbiter) { a.core = c }
}

// WithArbiterLogger sets the logger.
func WithArbiterLogger(l *logger.Logger) ArbiterOption {
	return func(a *Arbiter) { a.log = l }
}

// NewArbiter creates an arbiter. Without WithGenerator it always resolves
// from the bank.
func NewArbiter(resolver Resolver, items ItemWriter, cfg config.Engine, opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{
		resolver: resolver,
		items:    items,
		cfg:      cfg,
		log:      logger.Nop(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ShouldGenerate reports whether a request for p should try generation:
// the learner has weak topics or a correct rate under the configured
// threshold, and a generator is available.
func (a *Arbiter) ShouldGenerate(p *mastery.Profile) bool {
	if a.gen == nil || !a.cfg.GenerationEnabled || p == nil {
		return false
	}
	return len(p.WeakTopics) > 0 || p.CorrectRate < a.cfg.GenerateBelow
}

// ProvideItem returns a generated item when generation is warranted and
// succeeds, and otherwise an item from the resolver. Generation failures
// are logged and never returned.
func (a *Arbiter) ProvideItem(ctx context.Context, req selector.Request) (*item.Item, error) {
	if a.ShouldGenerate(req.Profile) {
		res := a.Generate(ctx, req)
		if res.Err == nil {
			return res.Item, nil
		}
		a.log.Warn("item generation failed, using bank",
			"learner", req.LearnerID, "stage", res.Err.Stage, "error", res.Err.Err)
	}
	return a.resolver.Resolve(ctx, req)
}

// Generate makes one bounded generation attempt and persists the result.
func (a *Arbiter) Generate(ctx context.Context, req selector.Request) Result {
	gr := a.genRequest(ctx, req)

	genCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerationTimeout)
	defer cancel()

	it, err := a.gen.Generate(genCtx, gr)
	if err != nil {
		return Result{Err: &GenerationError{Stage: "generate", Err: err}}
	}

	it.ID = a.newID()
	it.Active = true
	it.Source = item.SourceGenerated
	if it.CreatedAt.IsZero() {
		it.CreatedAt = a.now()
	}
	if err := a.items.PutItem(ctx, it); err != nil {
		return Result{Err: &GenerationError{Stage: "persist", Err: err}}
	}

	if a.recent != nil {
		if err := a.recent.Push(ctx, req.LearnerID, it.Title); err != nil {
			a.log.Warn("failed to record generated title", "learner", req.LearnerID, "error", err)
		}
	}
	a.log.Info("generated item", "learner", req.LearnerID, "item", it.ID, "type", it.Type, "band", it.Band)
	return Result{Item: it}
}

// genRequest builds the prompt inputs. Topics follow the resolver's order:
// explicit, then weak, then the core set for the core kind.
func (a *Arbiter) genRequest(ctx context.Context, req selector.Request) GenRequest {
	gr := GenRequest{
		LearnerID: req.LearnerID,
		Band:      req.Band,
		Kind:      req.Kind,
		TopicIDs:  req.TopicIDs,
	}
	if p := req.Profile; p != nil {
		gr.CorrectRate = p.CorrectRate
		gr.Attempts = p.TotalCount
		gr.WeakTopicNames = a.names(p.WeakTopics)
		if len(gr.TopicIDs) == 0 {
			gr.TopicIDs = append([]string(nil), p.WeakTopics...)
		}
	}
	if len(gr.TopicIDs) == 0 && a.core != nil && a.cfg.CoreKind != "" &&
		strings.EqualFold(req.Kind.Category, a.cfg.CoreKind) {
		gr.TopicIDs = a.core.Core()
	}
	gr.TopicNames = a.names(gr.TopicIDs)

	if a.recent != nil {
		titles, err := a.recent.List(ctx, req.LearnerID)
		if err != nil {
			a.log.Warn("failed to load recent titles", "learner", req.LearnerID, "error", err)
		}
		gr.RecentTitles = titles
	}
	return gr
}

func (a *Arbiter) names(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if a.topics != nil {
			out[i] = a.topics.Name(id)
		}
	}
	return out
}
