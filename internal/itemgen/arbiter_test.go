package itemgen

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/drillz/internal/cache"
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/llm"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/selector"
)

type stubResolver struct {
	mu    sync.Mutex
	item  *item.Item
	err   error
	calls int
}

func (r *stubResolver) Resolve(context.Context, selector.Request) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.item, r.err
}

type memWriter struct {
	mu    sync.Mutex
	items []*item.Item
	err   error
}

func (w *memWriter) PutItem(_ context.Context, it *item.Item) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.items = append(w.items, it)
	return nil
}

type coreSet []string

func (c coreSet) Core() []string { return append([]string(nil), c...) }

type names map[string]string

func (n names) Name(id string) string {
	if v, ok := n[id]; ok {
		return v
	}
	return id
}

func bankItem() *item.Item {
	return &item.Item{ID: "bank-1", Title: "From the bank", Type: item.TypeFillBlank, Band: item.Easy, Active: true}
}

func weakProfile() *mastery.Profile {
	p := mastery.NewProfile("l1")
	p.TotalCount, p.CorrectCount, p.CorrectRate = 10, 9, 0.9
	p.WeakTopics = []string{"loops"}
	return p
}

func strongProfile() *mastery.Profile {
	p := mastery.NewProfile("l1")
	p.TotalCount, p.CorrectCount, p.CorrectRate = 10, 9, 0.9
	return p
}

func TestShouldGenerate(t *testing.T) {
	gen := New(llm.NewMockProvider(), DefaultConfig())
	cfg := config.Default()

	struggling := mastery.NewProfile("l1")
	struggling.TotalCount, struggling.CorrectCount, struggling.CorrectRate = 10, 5, 0.5

	disabled := cfg
	disabled.GenerationEnabled = false

	tests := []struct {
		name string
		a    *Arbiter
		p    *mastery.Profile
		want bool
	}{
		{"weak topics", NewArbiter(nil, nil, cfg, WithGenerator(gen)), weakProfile(), true},
		{"low correct rate", NewArbiter(nil, nil, cfg, WithGenerator(gen)), struggling, true},
		{"new learner", NewArbiter(nil, nil, cfg, WithGenerator(gen)), mastery.NewProfile("new"), true},
		{"strong learner", NewArbiter(nil, nil, cfg, WithGenerator(gen)), strongProfile(), false},
		{"no generator", NewArbiter(nil, nil, cfg), weakProfile(), false},
		{"disabled", NewArbiter(nil, nil, disabled, WithGenerator(gen)), weakProfile(), false},
		{"no profile", NewArbiter(nil, nil, cfg, WithGenerator(gen)), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.ShouldGenerate(tt.p))
		})
	}
}

func TestProvideItem_Generates(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: choiceItemJSON()})
	resolver := &stubResolver{item: bankItem()}
	writer := &memWriter{}
	recent := cache.NewMemory(5)
	require.NoError(t, recent.Push(context.Background(), "l1", "Earlier item"))

	a := NewArbiter(resolver, writer, config.Default(),
		WithGenerator(New(mock, DefaultConfig())),
		WithRecent(recent),
		WithTopicNames(names{"loops": "Loops"}))

	it, err := a.ProvideItem(context.Background(), selector.Request{
		LearnerID: "l1", Band: item.Easy, Profile: weakProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Loop count", it.Title)
	assert.NotEmpty(t, it.ID)
	assert.True(t, it.Active)
	assert.Equal(t, item.SourceGenerated, it.Source)
	assert.False(t, it.CreatedAt.IsZero())
	assert.Equal(t, []string{"loops"}, it.Topics, "weak topics are targeted when none are given")
	assert.Zero(t, resolver.calls)

	require.Len(t, writer.items, 1)
	assert.Same(t, it, writer.items[0])

	prompt := mock.Calls[0].Prompt
	assert.Contains(t, prompt, "weak topics: Loops")
	assert.Contains(t, prompt, "1. Earlier item")

	titles, _ := recent.List(context.Background(), "l1")
	assert.Equal(t, []string{"Loop count", "Earlier item"}, titles)
}

func TestProvideItem_CoreKindUsesCoreTopics(t *testing.T) {
	struggling := mastery.NewProfile("l1")
	struggling.TotalCount, struggling.CorrectCount, struggling.CorrectRate = 10, 5, 0.5

	tests := []struct {
		name     string
		category string
		topics   []string
		want     []string
	}{
		{"core kind", "simulation", nil, []string{"loops", "variables"}},
		{"core kind any case", "Simulation", nil, []string{"loops", "variables"}},
		{"explicit topics win", "simulation", []string{"strings"}, []string{"strings"}},
		{"other kind", "speed-rush", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(llm.MockResponse{Content: choiceItemJSON()})
			writer := &memWriter{}
			a := NewArbiter(&stubResolver{item: bankItem()}, writer, config.Default(),
				WithGenerator(New(mock, DefaultConfig())),
				WithCoreTopics(coreSet{"loops", "variables"}))

			req := selector.Request{
				LearnerID: "l1",
				Band:      item.Easy,
				Kind:      item.Kind{Category: tt.category},
				TopicIDs:  tt.topics,
				Profile:   struggling,
			}
			assert.Equal(t, tt.want, a.genRequest(context.Background(), req).TopicIDs)

			it, err := a.ProvideItem(context.Background(), req)
			require.NoError(t, err)
			require.Len(t, writer.items, 1)
			if tt.want == nil {
				assert.Empty(t, it.Topics)
			} else {
				assert.Equal(t, tt.want, it.Topics)
			}
		})
	}
}

func TestProvideItem_TimeoutFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.GenerationTimeout = 20 * time.Millisecond

	mock := llm.NewMockProvider(llm.MockResponse{Content: choiceItemJSON(), Delay: 5 * time.Second})
	resolver := &stubResolver{item: bankItem()}
	writer := &memWriter{}
	a := NewArbiter(resolver, writer, cfg, WithGenerator(New(mock, DefaultConfig())))

	start := time.Now()
	it, err := a.ProvideItem(context.Background(), selector.Request{
		LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"}, Profile: weakProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "bank-1", it.ID)
	assert.Equal(t, 1, resolver.calls)
	assert.Empty(t, writer.items)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProvideItem_InvalidItemFallsBack(t *testing.T) {
	bad := json.RawMessage(`{"title":"t","body":"b","type":"single-choice","options":["a","b"],"answer":"a","hints":[],"difficulty":0.5}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: bad})
	resolver := &stubResolver{item: bankItem()}
	writer := &memWriter{}
	a := NewArbiter(resolver, writer, config.Default(), WithGenerator(New(mock, DefaultConfig())))

	it, err := a.ProvideItem(context.Background(), selector.Request{LearnerID: "l1", Band: item.Easy, Profile: weakProfile()})
	require.NoError(t, err)
	assert.Equal(t, "bank-1", it.ID)
	assert.Empty(t, writer.items)
}

func TestProvideItem_PersistFailureFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: choiceItemJSON()})
	resolver := &stubResolver{item: bankItem()}
	a := NewArbiter(resolver, &memWriter{err: errors.New("read-only")}, config.Default(),
		WithGenerator(New(mock, DefaultConfig())))

	res := a.Generate(context.Background(), selector.Request{LearnerID: "l1", Band: item.Easy, Profile: weakProfile()})
	require.NotNil(t, res.Err)
	assert.Equal(t, "persist", res.Err.Stage)
	assert.Nil(t, res.Item)

	mock.AddResponse(llm.MockResponse{Content: choiceItemJSON()})
	it, err := a.ProvideItem(context.Background(), selector.Request{LearnerID: "l1", Band: item.Easy, Profile: weakProfile()})
	require.NoError(t, err)
	assert.Equal(t, "bank-1", it.ID)
}

func TestProvideItem_StrongLearnerSkipsGeneration(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: choiceItemJSON()})
	resolver := &stubResolver{item: bankItem()}
	a := NewArbiter(resolver, &memWriter{}, config.Default(), WithGenerator(New(mock, DefaultConfig())))

	it, err := a.ProvideItem(context.Background(), selector.Request{LearnerID: "l1", Band: item.Hard, Profile: strongProfile()})
	require.NoError(t, err)
	assert.Equal(t, "bank-1", it.ID)
	assert.Zero(t, mock.CallCount())
}

func TestProvideItem_ResolverErrorSurfaces(t *testing.T) {
	nce := &selector.NoCandidateError{Filters: []string{"exact: difficulty=easy"}}
	a := NewArbiter(&stubResolver{err: nce}, &memWriter{}, config.Default())

	_, err := a.ProvideItem(context.Background(), selector.Request{LearnerID: "l1", Band: item.Easy, Profile: weakProfile()})
	var got *selector.NoCandidateError
	require.ErrorAs(t, err, &got)
}

func TestGenerationErrorUnwraps(t *testing.T) {
	base := context.DeadlineExceeded
	err := error(&GenerationError{Stage: "generate", Err: base})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "generate")
}
