package difficulty

import (
	"errors"
	"testing"

	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/mastery"
)

func profileWithRate(correct, total int) *mastery.Profile {
	p := mastery.NewProfile("u")
	p.CorrectCount = correct
	p.TotalCount = total
	if total > 0 {
		p.CorrectRate = float64(correct) / float64(total)
	}
	return p
}

func TestEstimate(t *testing.T) {
	e := New(config.Default())

	tests := []struct {
		name           string
		correct, total int
		want           item.Band
	}{
		{"no attempts", 0, 0, item.Easy},
		{"all wrong", 0, 5, item.Easy},
		{"just under medium", 59, 100, item.Easy},
		{"at medium", 60, 100, item.Medium},
		{"just under hard", 79, 100, item.Medium},
		{"at hard", 80, 100, item.Hard},
		{"perfect", 10, 10, item.Hard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Estimate(profileWithRate(tt.correct, tt.total)); got != tt.want {
				t.Errorf("Estimate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEstimateBandsCoverUnitInterval(t *testing.T) {
	e := New(config.Default())
	for i := 0; i <= 100; i++ {
		got := e.Estimate(profileWithRate(i, 100))
		rate := float64(i) / 100
		var want item.Band
		switch {
		case rate < 0.6:
			want = item.Easy
		case rate < 0.8:
			want = item.Medium
		default:
			want = item.Hard
		}
		if got != want {
			t.Errorf("rate %.2f: got %s, want %s", rate, got, want)
		}
	}
}

func TestEstimateNilProfile(t *testing.T) {
	if got := New(config.Default()).Estimate(nil); got != item.Easy {
		t.Errorf("nil profile = %s, want easy", got)
	}
}

func TestResolve(t *testing.T) {
	e := New(config.Default())
	p := profileWithRate(9, 10)

	b, err := e.Resolve(p, "")
	if err != nil || b != item.Hard {
		t.Errorf("Resolve(empty) = %s, %v; want hard", b, err)
	}

	b, err = e.Resolve(p, "Easy")
	if err != nil || b != item.Easy {
		t.Errorf("Resolve(Easy) = %s, %v; want easy override", b, err)
	}

	_, err = e.Resolve(p, "impossible")
	var ive *config.InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("Resolve(impossible) err = %v, want *InvalidValueError", err)
	}
	if ive.Name != "difficulty" || ive.Value != "impossible" || len(ive.Allowed) != 3 {
		t.Errorf("error = %+v", ive)
	}
}
