// Package difficulty maps a learner's recent accuracy to a target band.
package difficulty

import (
	"strings"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/mastery"
)

// Estimator picks a difficulty band from a learner profile.
type Estimator struct {
	mediumAt float64
	hardAt   float64
}

// New creates an estimator using cfg's band thresholds.
func New(cfg config.Engine) Estimator {
	return Estimator{mediumAt: cfg.MediumAt, hardAt: cfg.HardAt}
}

// Estimate returns easy below the medium threshold, medium below the hard
// threshold and hard otherwise. A learner with no attempts gets easy.
func (e Estimator) Estimate(p *mastery.Profile) item.Band {
	if p == nil || !p.HasAttempts() {
		return item.Easy
	}
	switch r := p.CorrectRate; {
	case r < e.mediumAt:
		return item.Easy
	case r < e.hardAt:
		return item.Medium
	default:
		return item.Hard
	}
}

// Resolve returns the explicit band when one is given and otherwise the
// estimate for p. An explicit value that is not a known band is an
// *config.InvalidValueError.
func (e Estimator) Resolve(p *mastery.Profile, explicit string) (item.Band, error) {
	if strings.TrimSpace(explicit) == "" {
		return e.Estimate(p), nil
	}
	b, ok := item.ParseBand(explicit)
	if !ok {
		allowed := make([]string, 0, 3)
		for _, b := range item.Bands() {
			allowed = append(allowed, string(b))
		}
		return "", &config.InvalidValueError{Name: "difficulty", Value: explicit, Allowed: allowed}
	}
	return b, nil
}
