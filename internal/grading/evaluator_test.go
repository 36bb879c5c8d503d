package grading

import (
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
)

func newItem(t *testing.T, typ item.Type, ref item.Answer, options ...string) *item.Item {
	t.Helper()
	it := &item.Item{ID: "it-1", Title: "q", Body: "q?", Type: typ, Options: options}
	if err := it.SetReference(ref); err != nil {
		t.Fatalf("set reference: %v", err)
	}
	return it
}

func TestEvaluateExactTypes(t *testing.T) {
	ev := New(config.Default())
	abcd := []string{"A", "B", "C", "D"}

	tests := []struct {
		name      string
		it        *item.Item
		submitted string
		want      bool
	}{
		{"single exact", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "B"}, abcd...), "B", true},
		{"single case and space", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "B"}, abcd...), "  b ", true},
		{"single option number is not a label", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "B"}, abcd...), "2", false},
		{"single numeric options", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "4"}, "2", "4", "6", "8"), "4", true},
		{"single numeric options wrong", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "4"}, "2", "4", "6", "8"), "2", false},
		{"multi numeric options", newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"2", "6"}}, "2", "4", "6", "8"), "6, 2", true},
		{"single wrong", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "B"}, abcd...), "C", false},
		{"multi reordered", newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"A", "C"}}, abcd...), "C,A", true},
		{"multi spaced", newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"A", "C"}}, abcd...), " a , c ", true},
		{"multi subset", newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"A", "C"}}, abcd...), "A", false},
		{"multi superset", newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"A", "C"}}, abcd...), "A,B,C", false},
		{"tf true", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "True", "False"), "true", true},
		{"tf yes", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "True", "False"), "YES", true},
		{"tf t", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: false}, "True", "False"), "f", true},
		{"tf wrong", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "True", "False"), "false", false},
		{"tf reversed options 1", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "False", "True"), "1", true},
		{"tf reversed options 0", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: false}, "False", "True"), "0", true},
		{"tf unparseable", newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "True", "False"), "maybe", false},
		{"empty submission", newItem(t, item.TypeSingleChoice, item.ChoiceAnswer{Label: "B"}, abcd...), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ev.Evaluate(tc.it, tc.submitted)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if res.IsCorrect != tc.want {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tc.want)
			}
			wantScore := 0.0
			if tc.want {
				wantScore = 1
			}
			if res.Score != wantScore {
				t.Errorf("Score = %v, want %v", res.Score, wantScore)
			}
			if tc.want && res.Feedback != "" {
				t.Errorf("Feedback = %q, want empty for a correct answer", res.Feedback)
			}
			if !tc.want && !strings.HasPrefix(res.Feedback, "Expected: ") {
				t.Errorf("Feedback = %q, want expected answer", res.Feedback)
			}
		})
	}
}

func TestEvaluateTrueFalseScenario(t *testing.T) {
	it := newItem(t, item.TypeTrueFalse, item.BoolAnswer{Value: true}, "True", "False")
	res, err := New(config.Default()).Evaluate(it, "false")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsCorrect || res.Score != 0 {
		t.Errorf("got %+v, want incorrect with score 0", res)
	}
	if res.Feedback != "Expected: true" {
		t.Errorf("Feedback = %q", res.Feedback)
	}
}

func TestEvaluateText(t *testing.T) {
	ev := New(config.Default())

	tests := []struct {
		name      string
		ref       string
		submitted string
		correct   bool
		score     float64
	}{
		{"identical", "for loop", "for loop", true, 1},
		{"case and spacing", "For loop", "  for   LOOP ", true, 1},
		{"missing full stop", "For loop.", "for loop", true, 0.89},
		{"dropped sign", "-5", "5", false, 0.5},
		{"dropped decimal point", "3.14", "314", false, 0.75},
		{"dropped dot", "x.y", "xy", false, 0.67},
		{"one typo", "photosynthesis", "photosynthesys", true, 0.93},
		{"unrelated", "cat", "dog", false, 0},
		{"empty", "recursion", "", false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it := newItem(t, item.TypeFillBlank, item.TextAnswer{Text: tc.ref})
			res, err := ev.Evaluate(it, tc.submitted)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if res.IsCorrect != tc.correct {
				t.Errorf("IsCorrect = %v, want %v", res.IsCorrect, tc.correct)
			}
			if res.Score != tc.score {
				t.Errorf("Score = %v, want %v", res.Score, tc.score)
			}
			if !tc.correct && !strings.Contains(res.Feedback, "Expected: "+tc.ref) {
				t.Errorf("Feedback = %q, want expected text", res.Feedback)
			}
		})
	}
}

func TestEvaluateThresholdIsStrict(t *testing.T) {
	cfg := config.Default()
	cfg.TextThreshold = 1
	it := newItem(t, item.TypeFreeResponse, item.TextAnswer{Text: "stack"})
	res, err := New(cfg).Evaluate(it, "stack")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsCorrect {
		t.Error("a ratio equal to the threshold must not count as correct")
	}
	if res.Score != 1 {
		t.Errorf("Score = %v, want 1", res.Score)
	}
}

func TestEvaluateCode(t *testing.T) {
	ev := New(config.Default())
	ref := "def add(a, b):\n    return a + b\n"

	t.Run("whitespace only", func(t *testing.T) {
		it := newItem(t, item.TypeCode, item.CodeAnswer{Source: ref})
		res, err := ev.Evaluate(it, "\n\ndef add(a, b):\r\n  return a + b\n\n")
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsCorrect || res.Score != 1 || res.Feedback != "" {
			t.Errorf("got %+v, want correct with score 1", res)
		}
	})

	t.Run("wrong body", func(t *testing.T) {
		it := newItem(t, item.TypeCode, item.CodeAnswer{Source: "x = 1\ny = 2\nprint(x + y)"})
		res, err := ev.Evaluate(it, "x = 1\nprint(x)")
		if err != nil {
			t.Fatal(err)
		}
		if res.IsCorrect {
			t.Fatalf("got correct, want incorrect: %+v", res)
		}
		if res.Score <= 0 || res.Score >= 0.85 {
			t.Errorf("Score = %v, want partial similarity", res.Score)
		}
		for _, want := range []string{"Similarity", "  x = 1", "- y = 2", "+ print(x)"} {
			if !strings.Contains(res.Feedback, want) {
				t.Errorf("Feedback missing %q:\n%s", want, res.Feedback)
			}
		}
	})
}

func TestEvaluateItemDataError(t *testing.T) {
	ev := New(config.Default())

	tests := []struct {
		name string
		it   *item.Item
	}{
		{"missing reference", &item.Item{ID: "x", Type: item.TypeSingleChoice}},
		{"malformed reference", &item.Item{ID: "x", Type: item.TypeSingleChoice, Reference: []byte("{not json")}},
		{"kind mismatch", &item.Item{ID: "x", Type: item.TypeCode, Reference: []byte(`{"kind":"bool","value":true}`)}},
		{"unknown type", &item.Item{ID: "x", Type: "essay", Reference: []byte(`{"kind":"text","text":"hi"}`)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ev.Evaluate(tc.it, "anything")
			var de *item.DataError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want *item.DataError", err)
			}
			if de.ItemID != "x" {
				t.Errorf("ItemID = %q", de.ItemID)
			}
		})
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	ev := New(config.Default())
	items := []struct {
		it  *item.Item
		sub string
	}{
		{newItem(t, item.TypeCode, item.CodeAnswer{Source: "a\nb\nc"}), "a\nc\nd"},
		{newItem(t, item.TypeFillBlank, item.TextAnswer{Text: "binary search"}), "binary serch"},
		{newItem(t, item.TypeMultiChoice, item.MultiChoiceAnswer{Labels: []string{"A", "B"}}, "A", "B", "C", "D"), "B"},
	}
	for _, tc := range items {
		first, err := ev.Evaluate(tc.it, tc.sub)
		if err != nil {
			t.Fatal(err)
		}
		second, err := ev.Evaluate(tc.it, tc.sub)
		if err != nil {
			t.Fatal(err)
		}
		if first != second {
			t.Errorf("results differ: %+v vs %+v", first, second)
		}
	}
}
