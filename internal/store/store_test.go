package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/drillz/internal/item"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newItem(t *testing.T, id string, band item.Band, topics ...string) *item.Item {
	t.Helper()
	it := &item.Item{
		ID:        id,
		Title:     "Item " + id,
		Body:      "What is " + id + "?",
		Type:      item.TypeSingleChoice,
		Band:      band,
		Score:     band.DefaultScore(),
		Topics:    topics,
		Options:   []string{"A", "B", "C", "D"},
		Hints:     []string{"think"},
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := it.SetReference(item.ChoiceAnswer{Label: "B"}); err != nil {
		t.Fatalf("set reference: %v", err)
	}
	return it
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dsn, want string
	}{
		{"postgres://u:p@localhost/db", "postgres"},
		{"POSTGRESQL://localhost/db", "postgres"},
		{"/tmp/drillz.db", "sqlite3"},
		{"file::memory:?cache=shared", "sqlite3"},
	}
	for _, tt := range tests {
		if got, _ := dialectFor(tt.dsn); got != tt.want {
			t.Errorf("dialectFor(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("a.db"); got[:5] != "a.db?" {
		t.Errorf("withPragmas(a.db) = %q", got)
	}
	if got := withPragmas("file:a.db?mode=rwc"); got[:19] != "file:a.db?mode=rwc&" {
		t.Errorf("withPragmas with query = %q", got)
	}
}

func TestRepository(t *testing.T) {
	runRepositorySuite(t, openTestStore(t))
}

// runRepositorySuite exercises the Repository contract. It runs against
// SQLite here and against Postgres in the integration test.
func runRepositorySuite(t *testing.T, s *Store) {
	ctx := context.Background()

	t.Run("item round trip", func(t *testing.T) {
		it := newItem(t, "rt-1", item.Medium, "loops", "arrays")
		it.Category = "practice"
		if err := s.PutItem(ctx, it); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := s.GetItem(ctx, "rt-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != it.Title || got.Band != item.Medium || got.Type != item.TypeSingleChoice {
			t.Errorf("got %+v", got)
		}
		if len(got.Topics) != 2 || got.Topics[0] != "arrays" || got.Topics[1] != "loops" {
			t.Errorf("topics = %v, want [arrays loops]", got.Topics)
		}
		if len(got.Options) != 4 || len(got.Hints) != 1 {
			t.Errorf("options = %v, hints = %v", got.Options, got.Hints)
		}
		ans, err := got.ReferenceAnswer()
		if err != nil {
			t.Fatalf("reference: %v", err)
		}
		if ans.Expected() != "B" {
			t.Errorf("reference = %q, want B", ans.Expected())
		}

		// Re-putting replaces topics.
		it.Topics = []string{"loops"}
		if err := s.PutItem(ctx, it); err != nil {
			t.Fatalf("re-put: %v", err)
		}
		got, _ = s.GetItem(ctx, "rt-1")
		if len(got.Topics) != 1 {
			t.Errorf("topics after re-put = %v", got.Topics)
		}
	})

	t.Run("get missing item", func(t *testing.T) {
		_, err := s.GetItem(ctx, "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("query filters", func(t *testing.T) {
		for _, it := range []*item.Item{
			newItem(t, "q-easy", item.Easy, "q-sets"),
			newItem(t, "q-hard", item.Hard, "q-sets"),
			newItem(t, "q-other", item.Easy, "q-graphs"),
		} {
			if err := s.PutItem(ctx, it); err != nil {
				t.Fatalf("put %s: %v", it.ID, err)
			}
		}
		code := newItem(t, "q-code", item.Easy, "q-sets")
		code.Type = item.TypeCode
		code.Category = "simulation"
		if err := code.SetReference(item.CodeAnswer{Source: "x = 1"}); err != nil {
			t.Fatal(err)
		}
		if err := s.PutItem(ctx, code); err != nil {
			t.Fatal(err)
		}

		got, err := s.QueryItems(ctx, ItemFilter{Bands: []item.Band{item.Easy}, Topics: []string{"q-sets"}})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		assertIDs(t, got, "q-easy", "q-code")

		got, _ = s.QueryItems(ctx, ItemFilter{Topics: []string{"q-sets", "q-graphs"}, Kind: item.ParseKind("sc")})
		assertIDs(t, got, "q-easy", "q-hard", "q-other")

		got, _ = s.QueryItems(ctx, ItemFilter{Topics: []string{"q-sets"}, Kind: item.ParseKind("simulation")})
		assertIDs(t, got, "q-code")

		if err := s.SetItemActive(ctx, "q-easy", false); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		got, _ = s.QueryItems(ctx, ItemFilter{Bands: []item.Band{item.Easy}, Topics: []string{"q-sets"}})
		assertIDs(t, got, "q-code")

		got, _ = s.QueryItems(ctx, ItemFilter{Bands: []item.Band{item.Easy}, Topics: []string{"q-sets"}, IncludeInactive: true})
		assertIDs(t, got, "q-easy", "q-code")

		if err := s.SetItemActive(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("deactivate missing: %v, want ErrNotFound", err)
		}
	})

	t.Run("recency exclusion", func(t *testing.T) {
		for _, id := range []string{"r-1", "r-2"} {
			if err := s.PutItem(ctx, newItem(t, id, item.Easy, "r-topic")); err != nil {
				t.Fatal(err)
			}
		}
		now := time.Now()
		old := &AttemptRecord{ID: "ra-old", LearnerID: "lr", ItemID: "r-1", AttemptNumber: 1, Submitted: "A", CreatedAt: now.Add(-10 * 24 * time.Hour)}
		recent := &AttemptRecord{ID: "ra-new", LearnerID: "lr", ItemID: "r-2", AttemptNumber: 1, Submitted: "A", CreatedAt: now.Add(-time.Hour)}
		for _, a := range []*AttemptRecord{old, recent} {
			if err := s.AppendAttempt(ctx, a); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		f := ItemFilter{Topics: []string{"r-topic"}, ExcludeLearner: "lr", Since: now.Add(-7 * 24 * time.Hour)}
		got, err := s.QueryItems(ctx, f)
		if err != nil {
			t.Fatal(err)
		}
		assertIDs(t, got, "r-1")

		f.ExcludeLearner = "someone-else"
		got, _ = s.QueryItems(ctx, f)
		assertIDs(t, got, "r-1", "r-2")
	})

	t.Run("profile round trip", func(t *testing.T) {
		p, err := s.GetProfile(ctx, "p-1")
		if err != nil {
			t.Fatal(err)
		}
		if p != nil {
			t.Fatalf("expected nil profile, got %+v", p)
		}

		want := &ProfileRecord{
			LearnerID:    "p-1",
			CorrectCount: 3,
			TotalCount:   5,
			AvgTime:      1500 * time.Millisecond,
			Mastery:      map[string]float64{"loops": 0.4},
			WeakTopics:   []string{"loops", "arrays"},
		}
		if err := s.PutProfile(ctx, want); err != nil {
			t.Fatal(err)
		}
		want.TotalCount = 6
		if err := s.PutProfile(ctx, want); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetProfile(ctx, "p-1")
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalCount != 6 || got.CorrectCount != 3 || got.AvgTime != 1500*time.Millisecond {
			t.Errorf("got %+v", got)
		}
		if got.Mastery["loops"] != 0.4 {
			t.Errorf("mastery = %v", got.Mastery)
		}
		if len(got.WeakTopics) != 2 || got.WeakTopics[0] != "arrays" {
			t.Errorf("weak topics = %v, want sorted [arrays loops]", got.WeakTopics)
		}
	})

	t.Run("attempt count and list", func(t *testing.T) {
		if err := s.PutItem(ctx, newItem(t, "a-item", item.Easy, "a-topic")); err != nil {
			t.Fatal(err)
		}
		base := time.Now().Add(-time.Minute)
		for i := 1; i <= 3; i++ {
			err := s.AppendAttempt(ctx, &AttemptRecord{
				ID: fmt.Sprintf("a-%d", i), LearnerID: "la", ItemID: "a-item", AttemptNumber: i,
				Submitted: "B", IsCorrect: i == 3, Score: float64(i) / 3, TimeSpent: 2 * time.Second,
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
			if err != nil {
				t.Fatalf("append %d: %v", i, err)
			}
		}
		n, err := s.CountAttempts(ctx, "la", "a-item")
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Errorf("count = %d, want 3", n)
		}

		// Duplicate attempt numbers are rejected by the unique constraint.
		dup := &AttemptRecord{ID: "a-dup", LearnerID: "la", ItemID: "a-item", AttemptNumber: 2, Submitted: "B"}
		if err := s.AppendAttempt(ctx, dup); err == nil {
			t.Error("expected unique violation for duplicate attempt number")
		}

		list, err := s.ListAttempts(ctx, "la", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 || list[0].AttemptNumber != 3 || !list[0].IsCorrect {
			t.Fatalf("list = %+v", list)
		}
		if list[0].TimeSpent != 2*time.Second {
			t.Errorf("time spent = %v", list[0].TimeSpent)
		}
	})

	t.Run("learner tx rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.InLearnerTx(ctx, "tx-1", func(ctx context.Context, r Repository) error {
			if err := r.PutProfile(ctx, &ProfileRecord{LearnerID: "tx-1", TotalCount: 1}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		p, _ := s.GetProfile(ctx, "tx-1")
		if p != nil {
			t.Errorf("profile persisted despite rollback: %+v", p)
		}
	})

	t.Run("learner tx serializes read-modify-write", func(t *testing.T) {
		if err := s.PutItem(ctx, newItem(t, "c-item", item.Easy, "c-topic")); err != nil {
			t.Fatal(err)
		}
		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.InLearnerTx(ctx, "lc", func(ctx context.Context, r Repository) error {
					count, err := r.CountAttempts(ctx, "lc", "c-item")
					if err != nil {
						return err
					}
					return r.AppendAttempt(ctx, &AttemptRecord{
						ID: fmt.Sprintf("c-%d", i), LearnerID: "lc", ItemID: "c-item",
						AttemptNumber: count + 1, Submitted: "B",
					})
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("tx: %v", err)
			}
		}

		list, err := s.ListAttempts(ctx, "lc", 0)
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[int]bool)
		for _, a := range list {
			seen[a.AttemptNumber] = true
		}
		for i := 1; i <= n; i++ {
			if !seen[i] {
				t.Errorf("attempt number %d missing; got %d attempts", i, len(list))
			}
		}
	})
}

func assertIDs(t *testing.T, items []*item.Item, want ...string) {
	t.Helper()
	got := make(map[string]bool, len(items))
	for _, it := range items {
		got[it.ID] = true
	}
	if len(got) != len(want) {
		t.Fatalf("got %d items %v, want %v", len(got), keys(got), want)
	}
	for _, id := range want {
		if !got[id] {
			t.Errorf("missing %s in %v", id, keys(got))
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "item-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "item-gen", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "feedback", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, ErrorMessage: "rate limit"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Purpose != "feedback" || got[0].Success {
		t.Errorf("newest event = %+v", got[0])
	}

	got, _ = repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "item-gen"})
	if len(got) != 2 {
		t.Errorf("item-gen events = %d, want 2", len(got))
	}

	e, err := repo.GetLLMEvent(ctx, got[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get event: %v, %v", e, err)
	}
	if e, _ := repo.GetLLMEvent(ctx, 9999); e != nil {
		t.Errorf("missing event = %+v, want nil", e)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 2 {
		t.Fatalf("usage rows = %d, want 2", len(usage))
	}
	gen := usage[1]
	if gen.Purpose != "item-gen" || gen.Calls != 2 || gen.InputTokens != 400 || gen.OutputTokens != 200 || gen.AvgLatencyMs != 300 {
		t.Errorf("item-gen usage = %+v", gen)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel) != 2 || byModel[0].Model != "claude-sonnet-4-5" {
		t.Errorf("by model = %+v", byModel)
	}
}

func TestStoreErrorRetryable(t *testing.T) {
	err := wrap("op", context.Canceled)
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("wrap did not produce *Error: %v", err)
	}
	if se.Retryable() {
		t.Error("canceled should not be retryable")
	}
	if !(&Error{Op: "op", Err: errors.New("disk I/O error")}).Retryable() {
		t.Error("driver error should be retryable")
	}
	if wrap("op", nil) != nil {
		t.Error("wrap(nil) should be nil")
	}
}
