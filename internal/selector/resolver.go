// Package selector resolves a practice item from the bank by running an
// ordered list of progressively looser filters and picking among the
// lowest-mastery candidates of the first stage that finds any.
package selector

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/logger"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/store"
)

// ItemQuerier is the part of the store the resolver reads from.
type ItemQuerier interface {
	QueryItems(ctx context.Context, f store.ItemFilter) ([]*item.Item, error)
}

// CoreTopics supplies the designated core topic set.
type CoreTopics interface {
	Core() []string
}

// Request describes what to resolve.
type Request struct {
	LearnerID string
	Band      item.Band
	TopicIDs  []string
	Kind      item.Kind

	// Profile ranks candidates by mastery and supplies weak topics. A nil
	// profile ranks every candidate equally.
	Profile *mastery.Profile
}

// NoCandidateError reports that every stage came up empty.
type NoCandidateError struct {
	// Filters describes the filter tried at each stage, in order.
	Filters []string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("no eligible item after %d stages: %s", len(e.Filters), strings.Join(e.Filters, "; "))
}

// Resolver runs the staged search.
type Resolver struct {
	items  ItemQuerier
	core   CoreTopics
	cfg    config.Engine
	stages []Stage
	log    *logger.Logger
	now    func() time.Time
	intn   func(n int) int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRand makes the pick use r. The resolver serializes access to r.
func WithRand(r *rand.Rand) Option {
	var mu sync.Mutex
	return func(s *Resolver) {
		s.intn = func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return r.IntN(n)
		}
	}
}

// WithClock sets the time source used for the recency window.
func WithClock(now func() time.Time) Option {
	return func(s *Resolver) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Resolver) { s.log = l }
}

// WithStages replaces the default stage list.
func WithStages(stages []Stage) Option {
	return func(s *Resolver) { s.stages = stages }
}

// New creates a resolver over items. core may be nil when no core topic
// set exists.
func New(items ItemQuerier, core CoreTopics, cfg config.Engine, opts ...Option) *Resolver {
	r := &Resolver{
		items:  items,
		core:   core,
		cfg:    cfg,
		stages: DefaultStages(),
		log:    logger.Nop(),
		now:    time.Now,
		intn:   rand.IntN,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns an active item for req, or a *NoCandidateError when no
// stage yields one.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*item.Item, error) {
	q := r.query(req)

	var tried []string
	seen := make(map[string]bool, len(r.stages))
	for _, st := range r.stages {
		f := st.Filter(q)
		desc := Describe(f)
		tried = append(tried, st.Name+": "+desc)
		if seen[desc] {
			continue
		}
		seen[desc] = true

		candidates, err := r.items.QueryItems(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		if len(candidates) == 0 {
			r.log.Debug("selection stage empty", "stage", st.Name, "filter", desc)
			continue
		}
		it := r.pick(candidates, req.Profile)
		r.log.Debug("selection stage matched",
			"stage", st.Name, "candidates", len(candidates), "item", it.ID)
		return it, nil
	}
	return nil, &NoCandidateError{Filters: tried}
}

// query derives the per-request inputs every stage builds its filter from.
func (r *Resolver) query(req Request) Query {
	q := Query{
		LearnerID: req.LearnerID,
		Band:      req.Band,
		Adjacent:  r.cfg.Adjacent(req.Band),
		Kind:      req.Kind,
		Topics:    r.topicsFor(req),
	}
	if r.cfg.RecencyWindow > 0 && req.LearnerID != "" {
		q.Since = r.now().Add(-r.cfg.RecencyWindow)
	}
	return q
}

// topicsFor returns explicit topics, else the learner's weak topics, else
// the core set when the requested kind is the core kind.
func (r *Resolver) topicsFor(req Request) []string {
	if len(req.TopicIDs) > 0 {
		return req.TopicIDs
	}
	if req.Profile != nil && len(req.Profile.WeakTopics) > 0 {
		return append([]string(nil), req.Profile.WeakTopics...)
	}
	if r.core != nil && r.cfg.CoreKind != "" && strings.EqualFold(req.Kind.Category, r.cfg.CoreKind) {
		return r.core.Core()
	}
	return nil
}

// pick sorts candidates by mean topic mastery, ascending, and picks at
// random within the lowest decile.
func (r *Resolver) pick(candidates []*item.Item, p *mastery.Profile) *item.Item {
	ranked := Rank(candidates, p, r.cfg.UnknownTopicMastery)
	w := Window(len(ranked), r.cfg.PickWindowMax)
	return ranked[r.intn(w)]
}

// Rank returns candidates ordered by ascending mean mastery over their
// topics. Ties keep their query order.
func Rank(candidates []*item.Item, p *mastery.Profile, unknown float64) []*item.Item {
	type scored struct {
		it *item.Item
		m  float64
	}
	s := make([]scored, len(candidates))
	for i, it := range candidates {
		s[i] = scored{it: it, m: meanMastery(it, p, unknown)}
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].m < s[j].m })

	out := make([]*item.Item, len(s))
	for i := range s {
		out[i] = s[i].it
	}
	return out
}

func meanMastery(it *item.Item, p *mastery.Profile, unknown float64) float64 {
	if len(it.Topics) == 0 {
		return unknown
	}
	var sum float64
	for _, t := range it.Topics {
		if p == nil {
			sum += unknown
			continue
		}
		sum += p.MasteryOf(t, unknown)
	}
	return sum / float64(len(it.Topics))
}

// Window is the size of the lowest-mastery decile of n candidates,
// clamped to [1, limit].
func Window(n, limit int) int {
	w := int(math.Ceil(float64(n) / 10))
	if w > limit {
		w = limit
	}
	if w < 1 {
		w = 1
	}
	if w > n {
		w = n
	}
	return w
}
