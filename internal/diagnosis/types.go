package diagnosis

import (
	"time"

	"github.com/abhisek/drillz/internal/item"
)

// ErrorCategory classifies a wrong answer.
type ErrorCategory string

const (
	CategoryCareless      ErrorCategory = "careless"
	CategorySpeedRush     ErrorCategory = "speed-rush"
	CategoryNearMiss      ErrorCategory = "near-miss"
	CategoryMisconception ErrorCategory = "misconception"
	CategoryUnclassified  ErrorCategory = "unclassified"
)

// ClassifyInput holds the context for classification.
type ClassifyInput struct {
	Item      *item.Item
	Submitted string
	Expected  string
	TimeSpent time.Duration

	// CorrectRate is the learner's running accuracy before this attempt,
	// and Attempts the number of attempts it covers.
	CorrectRate float64
	Attempts    int

	// Score is the grader's score for the submission.
	Score float64
}

// DiagnosisResult is the output of classifying a wrong answer.
type DiagnosisResult struct {
	Category        ErrorCategory
	MisconceptionID string  // Non-empty only when Category == misconception
	Confidence      float64 // 0.0–1.0
	Source          string  // rule name, "llm" or "none"

	// Feedback is a one-sentence explanation for the learner. Only the LLM
	// diagnoser produces it.
	Feedback string
}
