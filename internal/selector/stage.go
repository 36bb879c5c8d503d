package selector

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/store"
)

// Query holds the resolved inputs of one selection request.
type Query struct {
	LearnerID string
	Band      item.Band
	Adjacent  []item.Band
	Kind      item.Kind
	Topics    []string

	// Since is the start of the recency window, or zero for none.
	Since time.Time
}

// Stage is one step of the relaxation cascade.
type Stage struct {
	Name   string
	Filter func(q Query) store.ItemFilter
}

// DefaultStages returns exact, relax-recency, relax-difficulty and
// relax-topic, in that order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "exact", Filter: func(q Query) store.ItemFilter {
			f := q.base()
			f.ExcludeLearner, f.Since = q.LearnerID, q.Since
			return f
		}},
		{Name: "relax-recency", Filter: func(q Query) store.ItemFilter {
			return q.base()
		}},
		{Name: "relax-difficulty", Filter: func(q Query) store.ItemFilter {
			f := q.base()
			f.Bands = append([]item.Band(nil), q.Adjacent...)
			return f
		}},
		{Name: "relax-topic", Filter: func(q Query) store.ItemFilter {
			f := q.base()
			f.Topics = nil
			return f
		}},
	}
}

func (q Query) base() store.ItemFilter {
	return store.ItemFilter{
		Bands:  []item.Band{q.Band},
		Kind:   q.Kind,
		Topics: append([]string(nil), q.Topics...),
	}
}

// Describe renders a filter for logs and NoCandidateError.
func Describe(f store.ItemFilter) string {
	var parts []string
	if len(f.Bands) > 0 {
		bands := make([]string, len(f.Bands))
		for i, b := range f.Bands {
			bands[i] = string(b)
		}
		parts = append(parts, "difficulty="+strings.Join(bands, "|"))
	}
	if !f.Kind.IsZero() {
		parts = append(parts, "kind="+f.Kind.String())
	}
	if len(f.Topics) > 0 {
		parts = append(parts, "topics="+strings.Join(f.Topics, ","))
	}
	if f.ExcludeLearner != "" && !f.Since.IsZero() {
		parts = append(parts, fmt.Sprintf("not-attempted-since=%s", f.Since.UTC().Format(time.DateOnly)))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}
