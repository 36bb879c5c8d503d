package selector

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/store"
)

// fakeBank applies ItemFilter semantics in memory and records every filter.
type fakeBank struct {
	items   []*item.Item
	recent  map[string]bool // item IDs the learner attempted recently
	filters []store.ItemFilter
	err     error
}

func (b *fakeBank) QueryItems(_ context.Context, f store.ItemFilter) ([]*item.Item, error) {
	b.filters = append(b.filters, f)
	if b.err != nil {
		return nil, b.err
	}
	var out []*item.Item
	for _, it := range b.items {
		if !it.Active && !f.IncludeInactive {
			continue
		}
		if len(f.Bands) > 0 && !containsBand(f.Bands, it.Band) {
			continue
		}
		if !f.Kind.Matches(it) {
			continue
		}
		if len(f.Topics) > 0 && !anyTopic(it, f.Topics) {
			continue
		}
		if f.ExcludeLearner != "" && !f.Since.IsZero() && b.recent[it.ID] {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func containsBand(bands []item.Band, b item.Band) bool {
	for _, x := range bands {
		if x == b {
			return true
		}
	}
	return false
}

func anyTopic(it *item.Item, topics []string) bool {
	for _, t := range topics {
		if it.HasTopic(t) {
			return true
		}
	}
	return false
}

type coreSet []string

func (c coreSet) Core() []string { return c }

func mk(id string, band item.Band, typ item.Type, topics ...string) *item.Item {
	return &item.Item{ID: id, Title: id, Type: typ, Band: band, Topics: topics, Active: true}
}

func newResolver(bank *fakeBank, opts ...Option) *Resolver {
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return New(bank, coreSet{"core-a"}, config.Default(), opts...)
}

func TestResolveExactStage(t *testing.T) {
	bank := &fakeBank{items: []*item.Item{
		mk("e1", item.Easy, item.TypeSingleChoice, "loops"),
		mk("m1", item.Medium, item.TypeSingleChoice, "loops"),
	}}
	it, err := newResolver(bank).Resolve(context.Background(), Request{
		LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"},
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", it.ID)
	require.Len(t, bank.filters, 1)
	assert.Equal(t, "l1", bank.filters[0].ExcludeLearner)
	assert.False(t, bank.filters[0].Since.IsZero())
}

func TestResolveRecencyExcludedWhenExactHasCandidates(t *testing.T) {
	bank := &fakeBank{
		items: []*item.Item{
			mk("old", item.Easy, item.TypeSingleChoice, "loops"),
			mk("fresh", item.Easy, item.TypeSingleChoice, "loops"),
		},
		recent: map[string]bool{"old": true},
	}
	r := newResolver(bank)
	for i := 0; i < 50; i++ {
		it, err := r.Resolve(context.Background(), Request{LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"}})
		require.NoError(t, err)
		assert.Equal(t, "fresh", it.ID)
	}
}

func TestResolveRelaxRecency(t *testing.T) {
	bank := &fakeBank{
		items:  []*item.Item{mk("old", item.Easy, item.TypeSingleChoice, "loops")},
		recent: map[string]bool{"old": true},
	}
	it, err := newResolver(bank).Resolve(context.Background(), Request{LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"}})
	require.NoError(t, err)
	assert.Equal(t, "old", it.ID)
	require.Len(t, bank.filters, 2)
	assert.Empty(t, bank.filters[1].ExcludeLearner)
}

func TestResolveRelaxDifficulty(t *testing.T) {
	bank := &fakeBank{items: []*item.Item{
		mk("m1", item.Medium, item.TypeSingleChoice, "loops"),
		mk("h1", item.Hard, item.TypeSingleChoice, "loops"),
	}}
	it, err := newResolver(bank).Resolve(context.Background(), Request{LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"}})
	require.NoError(t, err)
	assert.Equal(t, "m1", it.ID, "easy widens to medium, never hard")
	require.Len(t, bank.filters, 3)
	assert.Equal(t, []item.Band{item.Easy, item.Medium}, bank.filters[2].Bands)
}

func TestResolveRelaxTopic(t *testing.T) {
	bank := &fakeBank{items: []*item.Item{
		mk("other", item.Hard, item.TypeCode, "recursion"),
		mk("wrong-kind", item.Hard, item.TypeSingleChoice, "recursion"),
		mk("wrong-band", item.Easy, item.TypeCode, "recursion"),
	}}
	it, err := newResolver(bank).Resolve(context.Background(), Request{
		LearnerID: "l1", Band: item.Hard, TopicIDs: []string{"loops"}, Kind: item.ParseKind("code"),
	})
	require.NoError(t, err)
	assert.Equal(t, "other", it.ID)
	last := bank.filters[len(bank.filters)-1]
	assert.Nil(t, last.Topics)
	assert.Equal(t, []item.Band{item.Hard}, last.Bands)
	assert.Equal(t, item.TypeCode, last.Kind.Type)
}

func TestResolveInactiveNeverEligible(t *testing.T) {
	off := mk("off", item.Easy, item.TypeSingleChoice, "loops")
	off.Active = false
	bank := &fakeBank{items: []*item.Item{off}}
	_, err := newResolver(bank).Resolve(context.Background(), Request{Band: item.Easy})
	var nce *NoCandidateError
	require.ErrorAs(t, err, &nce)
}

func TestResolveNoCandidate(t *testing.T) {
	bank := &fakeBank{}
	_, err := newResolver(bank).Resolve(context.Background(), Request{
		LearnerID: "l1", Band: item.Medium, TopicIDs: []string{"loops"},
	})
	var nce *NoCandidateError
	require.ErrorAs(t, err, &nce)
	require.Len(t, nce.Filters, 4)
	assert.True(t, strings.HasPrefix(nce.Filters[0], "exact: "))
	assert.Contains(t, nce.Filters[0], "not-attempted-since=")
	assert.Contains(t, nce.Filters[2], "difficulty=easy|medium|hard")
	assert.NotContains(t, nce.Filters[3], "topics=")
	assert.Len(t, bank.filters, 4)
}

func TestResolveSkipsRepeatedFilters(t *testing.T) {
	// Without a learner there is no recency window, so exact and
	// relax-recency build the same filter.
	bank := &fakeBank{}
	_, err := newResolver(bank).Resolve(context.Background(), Request{Band: item.Hard})
	require.Error(t, err)
	// exact, relax-difficulty; relax-recency and relax-topic repeat exact.
	assert.Len(t, bank.filters, 2)
}

func TestResolveStoreError(t *testing.T) {
	boom := errors.New("boom")
	bank := &fakeBank{err: boom}
	_, err := newResolver(bank).Resolve(context.Background(), Request{Band: item.Easy})
	require.ErrorIs(t, err, boom)
	var nce *NoCandidateError
	assert.False(t, errors.As(err, &nce))
}

func TestTopicSources(t *testing.T) {
	weak := mastery.NewProfile("l1")
	weak.WeakTopics = []string{"loops"}

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"explicit wins", Request{TopicIDs: []string{"x"}, Profile: weak}, []string{"x"}},
		{"weak topics", Request{Profile: weak}, []string{"loops"}},
		{"core for simulation", Request{Kind: item.ParseKind("simulation")}, []string{"core-a"}},
		{"core kind is case-insensitive", Request{Kind: item.ParseKind("Simulation")}, []string{"core-a"}},
		{"no topics otherwise", Request{Kind: item.ParseKind("code")}, nil},
		{"weak beats core", Request{Kind: item.ParseKind("simulation"), Profile: weak}, []string{"loops"}},
	}
	r := newResolver(&fakeBank{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.topicsFor(tt.req))
		})
	}
}

func TestRankByMeanMastery(t *testing.T) {
	p := mastery.NewProfile("l1")
	p.MasteryByTopic = map[string]float64{"a": 0.2, "b": 0.6, "c": 0.9}

	items := []*item.Item{
		mk("unknown", item.Easy, item.TypeSingleChoice, "zzz"),
		mk("c", item.Easy, item.TypeSingleChoice, "c"),
		mk("ab", item.Easy, item.TypeSingleChoice, "a", "b"),
		mk("a", item.Easy, item.TypeSingleChoice, "a"),
	}
	ranked := Rank(items, p, 1.0)
	ids := make([]string, len(ranked))
	for i, it := range ranked {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"a", "ab", "c", "unknown"}, ids)
}

func TestRankStableForTies(t *testing.T) {
	items := []*item.Item{
		mk("1", item.Easy, item.TypeSingleChoice, "x"),
		mk("2", item.Easy, item.TypeSingleChoice, "y"),
		mk("3", item.Easy, item.TypeSingleChoice, "z"),
	}
	ranked := Rank(items, nil, 1.0)
	assert.Equal(t, "1", ranked[0].ID)
	assert.Equal(t, "3", ranked[2].ID)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		n, max, want int
	}{
		{1, 10, 1},
		{5, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{45, 10, 5},
		{100, 10, 10},
		{500, 10, 10},
		{30, 2, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Window(tt.n, tt.max), "n=%d max=%d", tt.n, tt.max)
	}
}

func TestPickStaysInLowestDecile(t *testing.T) {
	p := mastery.NewProfile("l1")
	p.MasteryByTopic = map[string]float64{}
	var items []*item.Item
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26))
		if i >= 26 {
			id = "z" + id
		}
		p.MasteryByTopic[id] = float64(i) / 30
		items = append(items, mk(id, item.Easy, item.TypeSingleChoice, id))
	}
	bank := &fakeBank{items: items}
	r := newResolver(bank)

	low := map[string]bool{"a": true, "b": true, "c": true}
	picked := map[string]bool{}
	for i := 0; i < 200; i++ {
		it, err := r.Resolve(context.Background(), Request{Band: item.Easy, Profile: p})
		require.NoError(t, err)
		require.True(t, low[it.ID], "picked %s outside lowest decile", it.ID)
		picked[it.ID] = true
	}
	assert.Greater(t, len(picked), 1, "pick should vary within the window")
}

func TestResolveAgainstStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "sel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Now()
	for _, id := range []string{"seen", "unseen"} {
		it := mk(id, item.Easy, item.TypeTrueFalse, "loops")
		it.Body = "body"
		it.Options = []string{"True", "False"}
		it.CreatedAt = now
		require.NoError(t, it.SetReference(item.BoolAnswer{Value: true}))
		require.NoError(t, s.PutItem(ctx, it))
	}
	require.NoError(t, s.AppendAttempt(ctx, &store.AttemptRecord{
		ID: "a1", LearnerID: "l1", ItemID: "seen", AttemptNumber: 1, CreatedAt: now.Add(-time.Hour),
	}))

	r := New(s, nil, config.Default())
	for i := 0; i < 20; i++ {
		it, err := r.Resolve(ctx, Request{LearnerID: "l1", Band: item.Easy, TopicIDs: []string{"loops"}})
		require.NoError(t, err)
		assert.Equal(t, "unseen", it.ID)
	}

	// Another learner sees both.
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		it, err := r.Resolve(ctx, Request{LearnerID: "l2", Band: item.Easy, TopicIDs: []string{"loops"}})
		require.NoError(t, err)
		seen[it.ID] = true
	}
	assert.Len(t, seen, 1, "window of two candidates is one item wide")
}
