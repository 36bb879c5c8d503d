// Package engine exposes item selection and answer submission. It wires
// the mastery model, difficulty estimator, generation arbiter, candidate
// resolver and evaluator over one store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/drillz/internal/cache"
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/diagnosis"
	"github.com/abhisek/drillz/internal/difficulty"
	"github.com/abhisek/drillz/internal/grading"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/itemgen"
	"github.com/abhisek/drillz/internal/logger"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/selector"
	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topicgraph"
)

var tracer = otel.Tracer("github.com/abhisek/drillz/internal/engine")

// Diagnoser explains wrong answers.
type Diagnoser interface {
	Diagnose(ctx context.Context, input *diagnosis.ClassifyInput) *diagnosis.DiagnosisResult
}

// Options are the engine's collaborators. Store is required; everything
// else is optional.
type Options struct {
	Store store.Backend

	// Topics defaults to the built-in topic graph.
	Topics *topicgraph.Graph

	// Generator enables item generation. Without it every item comes from
	// the bank.
	Generator itemgen.Generator

	// Recent remembers generated titles per learner. Defaults to an
	// in-process memory.
	Recent cache.Recent

	Diagnoser Diagnoser
	Logger    *logger.Logger

	// Rand seeds the random pick among low-mastery candidates.
	Rand *rand.Rand
}

// Engine serves selection and submission requests. It holds only
// immutable configuration and collaborators and is safe for concurrent use.
type Engine struct {
	store     store.Backend
	topics    *topicgraph.Graph
	mastery   *mastery.Model
	estimator difficulty.Estimator
	arbiter   *itemgen.Arbiter
	evaluator *grading.Evaluator
	diagnoser Diagnoser
	cfg       config.Engine
	log       *logger.Logger
	newID     func() string
	now       func() time.Time
}

// New validates cfg and builds an engine.
func New(cfg config.Engine, opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Topics == nil {
		opts.Topics = topicgraph.Default()
	}
	if opts.Recent == nil {
		opts.Recent = cache.NewMemory(cache.DefaultDepth)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	selOpts := []selector.Option{selector.WithLogger(opts.Logger)}
	if opts.Rand != nil {
		selOpts = append(selOpts, selector.WithRand(opts.Rand))
	}
	resolver := selector.New(opts.Store, opts.Topics, cfg, selOpts...)

	arbOpts := []itemgen.ArbiterOption{
		itemgen.WithRecent(opts.Recent),
		itemgen.WithTopicNames(opts.Topics),
		itemgen.WithCoreTopics(opts.Topics),
		itemgen.WithArbiterLogger(opts.Logger),
	}
	if opts.Generator != nil {
		arbOpts = append(arbOpts, itemgen.WithGenerator(opts.Generator))
	}

	return &Engine{
		store:     opts.Store,
		topics:    opts.Topics,
		mastery:   mastery.NewModel(opts.Store, cfg),
		estimator: difficulty.New(cfg),
		arbiter:   itemgen.NewArbiter(resolver, opts.Store, cfg, arbOpts...),
		evaluator: grading.New(cfg),
		diagnoser: opts.Diagnoser,
		cfg:       cfg,
		log:       opts.Logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

// SelectOptions narrow a selection. Zero values place no constraint.
type SelectOptions struct {
	// Difficulty overrides the estimated band: easy, medium or hard.
	Difficulty string

	TopicIDs []string

	// Kind is an answer type ("code", "tf") or an exercise category
	// ("simulation").
	Kind string
}

// SelectItem picks the next item for learnerID. It fails with
// *ConfigurationError for an unknown difficulty or topic and with
// *NoCandidateError when nothing matches even after relaxation.
func (e *Engine) SelectItem(ctx context.Context, learnerID string, opts SelectOptions) (_ *item.Item, err error) {
	ctx, span := tracer.Start(ctx, "engine.SelectItem", trace.WithAttributes(
		attribute.String("learner.id", learnerID),
		attribute.String("select.difficulty", opts.Difficulty),
		attribute.StringSlice("select.topics", opts.TopicIDs),
		attribute.String("select.kind", opts.Kind),
	))
	defer func() { endSpan(span, err) }()

	if err := requireLearner(learnerID); err != nil {
		return nil, err
	}
	for _, t := range opts.TopicIDs {
		if !e.topics.Has(t) {
			return nil, &ConfigurationError{Name: "topic", Value: t, Allowed: e.topicIDs()}
		}
	}

	p, err := e.mastery.GetProfile(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	band, err := e.estimator.Resolve(p, opts.Difficulty)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("select.band", string(band)))

	it, err := e.arbiter.ProvideItem(ctx, selector.Request{
		LearnerID: learnerID,
		Band:      band,
		TopicIDs:  opts.TopicIDs,
		Kind:      item.ParseKind(opts.Kind),
		Profile:   p,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("item.id", it.ID),
		attribute.String("item.source", string(it.Source)),
	)
	e.log.Debug("item selected", "learner", learnerID, "item", it.ID, "band", band, "source", it.Source)
	return it, nil
}

// SubmitOptions carry optional submission metadata.
type SubmitOptions struct {
	// TimeSpent is how long the learner took; zero means unknown.
	TimeSpent time.Duration
	HintsUsed int
}

// Attempt is a graded submission.
type Attempt struct {
	ID            string
	LearnerID     string
	ItemID        string
	AttemptNumber int
	Submitted     string
	IsCorrect     bool
	Score         float64
	Feedback      string
	TimeSpent     time.Duration
	HintsUsed     int

	// Diagnosis is the error category of a wrong answer, empty when
	// correct. MisconceptionID is set when the category is misconception.
	Diagnosis       diagnosis.ErrorCategory
	MisconceptionID string

	// NewlyWeak lists topics this attempt added to the weak set.
	NewlyWeak []string

	CreatedAt time.Time
}

// SubmitAnswer grades answer against the item and records the attempt.
// Counting prior attempts, appending the attempt and updating the profile
// happen in one per-learner transaction, so attempt numbers for a learner
// and item run 1..N without gaps even under concurrent submissions.
func (e *Engine) SubmitAnswer(ctx context.Context, learnerID, itemID, answer string, opts SubmitOptions) (_ *Attempt, err error) {
	ctx, span := tracer.Start(ctx, "engine.SubmitAnswer", trace.WithAttributes(
		attribute.String("learner.id", learnerID),
		attribute.String("item.id", itemID),
	))
	defer func() { endSpan(span, err) }()

	if err := requireLearner(learnerID); err != nil {
		return nil, err
	}
	if opts.HintsUsed < 0 {
		return nil, &ConfigurationError{Name: "hints used", Value: strconv.Itoa(opts.HintsUsed), Allowed: []string{">= 0"}}
	}
	if opts.TimeSpent < 0 {
		opts.TimeSpent = 0
	}

	it, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}

	res, err := e.evaluator.Evaluate(it, answer)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("attempt.correct", res.IsCorrect), attribute.Float64("attempt.score", res.Score))

	a := &Attempt{
		ID:        e.newID(),
		LearnerID: learnerID,
		ItemID:    itemID,
		Submitted: answer,
		IsCorrect: res.IsCorrect,
		Score:     res.Score,
		Feedback:  res.Feedback,
		TimeSpent: opts.TimeSpent,
		HintsUsed: opts.HintsUsed,
		CreatedAt: e.now(),
	}

	// Diagnosis may call the LLM, so it runs before the transaction opens.
	if !res.IsCorrect && e.diagnoser != nil {
		e.diagnose(ctx, a, it, res)
	}

	err = e.store.InLearnerTx(ctx, learnerID, func(ctx context.Context, r store.Repository) error {
		n, err := r.CountAttempts(ctx, learnerID, itemID)
		if err != nil {
			return err
		}
		a.AttemptNumber = n + 1
		if err := r.AppendAttempt(ctx, a.record()); err != nil {
			return err
		}

		m := e.mastery.WithRepo(r)
		p, err := m.GetProfile(ctx, learnerID)
		if err != nil {
			return err
		}
		u, err := m.RecordAttempt(ctx, p, it, a.IsCorrect, a.TimeSpent)
		if err != nil {
			return err
		}
		a.NewlyWeak = u.NewlyWeak
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("attempt.number", a.AttemptNumber))
	e.log.Debug("attempt recorded", "learner", learnerID, "item", itemID,
		"number", a.AttemptNumber, "correct", a.IsCorrect, "score", a.Score, "diagnosis", a.Diagnosis)
	return a, nil
}

func (e *Engine) diagnose(ctx context.Context, a *Attempt, it *item.Item, res grading.Result) {
	in := &diagnosis.ClassifyInput{
		Item:      it,
		Submitted: a.Submitted,
		TimeSpent: a.TimeSpent,
		Score:     res.Score,
	}
	if ref, err := it.ReferenceAnswer(); err == nil {
		in.Expected = ref.Expected()
	}
	if p, err := e.mastery.GetProfile(ctx, a.LearnerID); err == nil {
		in.CorrectRate = p.CorrectRate
		in.Attempts = p.TotalCount
	} else {
		e.log.Warn("diagnosis without profile", "learner", a.LearnerID, "error", err)
	}

	d := e.diagnoser.Diagnose(ctx, in)
	if d == nil {
		return
	}
	a.Diagnosis = d.Category
	a.MisconceptionID = d.MisconceptionID
	if d.Feedback != "" {
		a.Feedback = strings.TrimSpace(a.Feedback + " " + d.Feedback)
	}
}

// Profile returns the learner's current profile.
func (e *Engine) Profile(ctx context.Context, learnerID string) (*mastery.Profile, error) {
	if err := requireLearner(learnerID); err != nil {
		return nil, err
	}
	return e.mastery.GetProfile(ctx, learnerID)
}

// ClearWeakTopic removes topic from the learner's weak set and reports
// whether it was there.
func (e *Engine) ClearWeakTopic(ctx context.Context, learnerID, topic string) (bool, error) {
	if err := requireLearner(learnerID); err != nil {
		return false, err
	}
	var cleared bool
	err := e.store.InLearnerTx(ctx, learnerID, func(ctx context.Context, r store.Repository) error {
		var err error
		cleared, err = e.mastery.WithRepo(r).ClearWeakTopic(ctx, learnerID, topic)
		return err
	})
	return cleared, err
}

// Hint returns the n-th hint (1-based) of an item.
func (e *Engine) Hint(ctx context.Context, itemID string, n int) (string, error) {
	it, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return "", fmt.Errorf("item %s: %w", itemID, err)
	}
	if n < 1 || n > len(it.Hints) {
		allowed := make([]string, len(it.Hints))
		for i := range it.Hints {
			allowed[i] = strconv.Itoa(i + 1)
		}
		return "", &ConfigurationError{Name: "hint", Value: strconv.Itoa(n), Allowed: allowed}
	}
	return it.Hints[n-1], nil
}

// History returns the learner's most recent attempts, newest first.
func (e *Engine) History(ctx context.Context, learnerID string, limit int) ([]Attempt, error) {
	recs, err := e.store.ListAttempts(ctx, learnerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Attempt, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

// Topics returns the topic graph the engine validates against.
func (e *Engine) Topics() *topicgraph.Graph {
	return e.topics
}

func (e *Engine) topicIDs() []string {
	all := e.topics.All()
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	slices.Sort(ids)
	return ids
}

func requireLearner(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ConfigurationError{Name: "learner id", Value: id, Allowed: []string{"non-empty"}}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// The stored diagnosis is the category, suffixed with ":<id>" for a
// misconception.
func (a *Attempt) record() *store.AttemptRecord {
	diag := string(a.Diagnosis)
	if a.MisconceptionID != "" {
		diag += ":" + a.MisconceptionID
	}
	return &store.AttemptRecord{
		ID:            a.ID,
		LearnerID:     a.LearnerID,
		ItemID:        a.ItemID,
		AttemptNumber: a.AttemptNumber,
		Submitted:     a.Submitted,
		IsCorrect:     a.IsCorrect,
		Score:         a.Score,
		Feedback:      a.Feedback,
		Diagnosis:     diag,
		TimeSpent:     a.TimeSpent,
		HintsUsed:     a.HintsUsed,
		CreatedAt:     a.CreatedAt,
	}
}

func fromRecord(r store.AttemptRecord) Attempt {
	cat, id, _ := strings.Cut(r.Diagnosis, ":")
	return Attempt{
		ID:              r.ID,
		LearnerID:       r.LearnerID,
		ItemID:          r.ItemID,
		AttemptNumber:   r.AttemptNumber,
		Submitted:       r.Submitted,
		IsCorrect:       r.IsCorrect,
		Score:           r.Score,
		Feedback:        r.Feedback,
		TimeSpent:       r.TimeSpent,
		HintsUsed:       r.HintsUsed,
		Diagnosis:       diagnosis.ErrorCategory(cat),
		MisconceptionID: id,
		CreatedAt:       r.CreatedAt,
	}
}
