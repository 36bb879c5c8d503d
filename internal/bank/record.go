// Package bank imports practice items from YAML and spreadsheet files into
// the item store.
package bank

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/drillz/internal/item"
)

// Record is one item as written in an import file.
type Record struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Body       string   `yaml:"body"`
	Type       string   `yaml:"type"`
	Difficulty string   `yaml:"difficulty"`
	Score      *float64 `yaml:"score"`
	Category   string   `yaml:"category"`
	Topics     []string `yaml:"topics"`
	Options    []string `yaml:"options"`
	Answer     any      `yaml:"answer"`
	Hints      []string `yaml:"hints"`
}

// Item converts r to an active item. A record without an id gets a fresh
// one.
func (r Record) Item() (*item.Item, error) {
	if strings.TrimSpace(r.Body) == "" {
		return nil, fmt.Errorf("body is empty")
	}
	t, ok := item.ParseType(r.Type)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", r.Type)
	}
	band, ok := item.ParseBand(r.Difficulty)
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q", r.Difficulty)
	}
	if len(r.Topics) == 0 {
		return nil, fmt.Errorf("no topics")
	}

	it := &item.Item{
		ID:       strings.TrimSpace(r.ID),
		Title:    strings.TrimSpace(r.Title),
		Body:     r.Body,
		Type:     t,
		Band:     band,
		Category: strings.ToLower(strings.TrimSpace(r.Category)),
		Score:    band.DefaultScore(),
		Topics:   trimAll(r.Topics),
		Hints:    trimAll(r.Hints),
		Active:   true,
		Source:   item.SourceImported,
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Title == "" {
		it.Title = firstLine(r.Body)
	}
	if r.Score != nil {
		if *r.Score < 0 || *r.Score > 1 {
			return nil, fmt.Errorf("score %v outside [0,1]", *r.Score)
		}
		it.Score = *r.Score
	}

	if t.IsChoice() {
		it.Options = trimAll(r.Options)
		if t == item.TypeTrueFalse && len(it.Options) == 0 {
			it.Options = []string{"True", "False"}
		}
		if len(it.Options) < 2 {
			return nil, fmt.Errorf("%s item needs at least 2 options", t)
		}
	}

	ans, err := item.ParseAnswer(t, r.Answer)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	if err := checkLabels(ans, it.Options); err != nil {
		return nil, err
	}
	if err := it.SetReference(ans); err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	return it, nil
}

// checkLabels rejects choice answers naming an option the item lacks.
func checkLabels(a item.Answer, options []string) error {
	var labels []string
	switch x := a.(type) {
	case item.ChoiceAnswer:
		labels = []string{x.Label}
	case item.MultiChoiceAnswer:
		labels = x.Labels
	default:
		return nil
	}
	for _, l := range labels {
		found := false
		for _, o := range options {
			if strings.EqualFold(strings.TrimSpace(o), l) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("answer %q is not one of the options", l)
		}
	}
	return nil
}

func trimAll(xs []string) []string {
	var out []string
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:57]) + "..."
	}
	return s
}
