// Package grading checks a submitted answer against an item's reference
// answer and produces a score with learner-facing feedback.
package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
)

// Result is the outcome of grading one submission.
type Result struct {
	IsCorrect bool

	// Score is 1 or 0 for exact-match types and the similarity ratio,
	// rounded to two decimals, for text and code.
	Score float64

	// Feedback is empty for a correct answer.
	Feedback string
}

// strategy grades a submission for one family of item types.
type strategy func(it *item.Item, ref item.Answer, submitted string) Result

// Evaluator grades submissions. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	strategies map[item.Type]strategy
}

// New creates an evaluator with cfg's similarity thresholds.
func New(cfg config.Engine) *Evaluator {
	text := similarity(cfg.TextThreshold, false)
	return &Evaluator{strategies: map[item.Type]strategy{
		item.TypeSingleChoice: exactMatch,
		item.TypeMultiChoice:  exactMatch,
		item.TypeTrueFalse:    exactMatch,
		item.TypeFillBlank:    text,
		item.TypeFreeResponse: text,
		item.TypeCode:         similarity(cfg.CodeThreshold, true),
	}}
}

// Evaluate grades submitted against the item's reference answer. A missing or
// malformed reference answer is an *item.DataError.
func (e *Evaluator) Evaluate(it *item.Item, submitted string) (Result, error) {
	grade, ok := e.strategies[it.Type]
	if !ok {
		return Result{}, &item.DataError{ItemID: it.ID, Reason: fmt.Sprintf("no grading rule for type %q", it.Type)}
	}
	ref, err := it.ReferenceAnswer()
	if err != nil {
		return Result{}, err
	}
	return grade(it, ref, submitted), nil
}

func exactMatch(it *item.Item, ref item.Answer, submitted string) Result {
	if ref.Compare(submitted).Equal {
		return Result{IsCorrect: true, Score: 1}
	}
	return Result{Feedback: "Expected: " + ref.Expected()}
}

// similarity grades by normalized edit-distance ratio. The ratio must
// exceed threshold to count as correct.
func similarity(threshold float64, withDiff bool) strategy {
	return func(it *item.Item, ref item.Answer, submitted string) Result {
		c := ref.Compare(submitted)
		r := Result{Score: round2(c.Ratio), IsCorrect: c.Ratio > threshold}
		if r.IsCorrect {
			return r
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Similarity %.0f%% (needs more than %.0f%%).", c.Ratio*100, threshold*100)
		if withDiff && len(c.Diff) > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Join(c.Diff, "\n"))
		} else {
			b.WriteString(" Expected: ")
			b.WriteString(ref.Expected())
		}
		r.Feedback = b.String()
		return r
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
