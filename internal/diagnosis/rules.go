package diagnosis

import "time"

// Rules holds the thresholds of the rule-based diagnosis. A wrong answer is
// checked against each rule in turn and the first one that applies names
// the error:
//
//   - speed-rush: answered in under SpeedRush
//   - careless: the learner had at least CarelessMinAttempts attempts at
//     CarelessAccuracy or better before this one
//   - near-miss: the grader scored the answer at NearMiss or more
//
// A fast wrong answer is a rush even for an accurate learner, so speed-rush
// is checked first.
type Rules struct {
	SpeedRush           time.Duration
	CarelessAccuracy    float64
	CarelessMinAttempts int
	NearMiss            float64
}

func DefaultRules() Rules {
	return Rules{
		SpeedRush:           3 * time.Second,
		CarelessAccuracy:    0.80,
		CarelessMinAttempts: 5,
		NearMiss:            0.5,
	}
}

// Apply returns the category of the first matching rule and its
// confidence, or ok=false when no rule explains the answer.
func (r Rules) Apply(in *ClassifyInput) (cat ErrorCategory, confidence float64, ok bool) {
	switch {
	// Zero means the caller did not time the answer.
	case in.TimeSpent > 0 && in.TimeSpent < r.SpeedRush:
		return CategorySpeedRush, 0.9, true
	case in.Attempts >= r.CarelessMinAttempts && in.CorrectRate >= r.CarelessAccuracy:
		return CategoryCareless, 0.8, true
	// Exact-match types score 0 when wrong and never get here.
	case in.Score > 0 && in.Score >= r.NearMiss:
		return CategoryNearMiss, in.Score, true
	}
	return "", 0, false
}
