// Package item defines practice items and their reference answers.
package item

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type identifies how a learner answers an item.
type Type string

const (
	TypeSingleChoice Type = "single-choice"
	TypeMultiChoice  Type = "multi-choice"
	TypeTrueFalse    Type = "true-false"
	TypeFillBlank    Type = "fill-blank"
	TypeFreeResponse Type = "free-response"
	TypeCode         Type = "code"
)

// AllTypes returns every item type in display order.
func AllTypes() []Type {
	return []Type{
		TypeSingleChoice,
		TypeMultiChoice,
		TypeTrueFalse,
		TypeFillBlank,
		TypeFreeResponse,
		TypeCode,
	}
}

var typeAliases = map[string]Type{
	"sc":              TypeSingleChoice,
	"single":          TypeSingleChoice,
	"single_choice":   TypeSingleChoice,
	"mc":              TypeMultiChoice,
	"multi":           TypeMultiChoice,
	"multiple_choice": TypeMultiChoice,
	"tf":              TypeTrueFalse,
	"bool":            TypeTrueFalse,
	"true_false":      TypeTrueFalse,
	"fill":            TypeFillBlank,
	"fill_blank":      TypeFillBlank,
	"text":            TypeFreeResponse,
	"free_response":   TypeFreeResponse,
}

// ParseType parses a type name or one of its short aliases ("tf", "mc", ...).
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, true
		}
	}
	t, ok := typeAliases[s]
	return t, ok
}

// IsChoice reports whether items of this type present a fixed option list.
func (t Type) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultiChoice || t == TypeTrueFalse
}

// OptionCount returns the number of options a well-formed item of this type
// carries, or 0 when the type has no option list.
func (t Type) OptionCount() int {
	switch t {
	case TypeSingleChoice, TypeMultiChoice:
		return 4
	case TypeTrueFalse:
		return 2
	default:
		return 0
	}
}

// Band is a coarse difficulty classification.
type Band string

const (
	Easy   Band = "easy"
	Medium Band = "medium"
	Hard   Band = "hard"
)

// Bands returns all difficulty bands from easiest to hardest.
func Bands() []Band {
	return []Band{Easy, Medium, Hard}
}

// ParseBand parses a band name case-insensitively.
func ParseBand(s string) (Band, bool) {
	b := Band(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case Easy, Medium, Hard:
		return b, true
	}
	return "", false
}

// DefaultScore returns the representative difficulty score for a band,
// used when an item arrives without an explicit score.
func (b Band) DefaultScore() float64 {
	switch b {
	case Easy:
		return 0.25
	case Medium:
		return 0.5
	case Hard:
		return 0.8
	default:
		return 0
	}
}

// Source records where an item came from.
type Source string

const (
	SourceBank      Source = "bank"
	SourceGenerated Source = "generated"
	SourceImported  Source = "imported"
)

// Item is a single practice exercise.
type Item struct {
	ID    string
	Title string
	Body  string
	Type  Type
	Band  Band

	// Category is a free-form exercise kind such as "practice" or
	// "simulation", independent of how the item is answered.
	Category string

	// Score is the continuous difficulty in [0,1], finer than Band.
	Score float64

	Topics  []string
	Options []string
	Hints   []string

	// Reference is the encoded reference answer. Use ReferenceAnswer to
	// decode it against the item type.
	Reference json.RawMessage

	Active    bool
	Source    Source
	CreatedAt time.Time
}

// HasTopic reports whether the item is tagged with topic.
func (it *Item) HasTopic(topic string) bool {
	for _, t := range it.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// ReferenceAnswer decodes the item's reference answer. A missing payload or
// one that does not fit the item type yields a *DataError.
func (it *Item) ReferenceAnswer() (Answer, error) {
	a, err := DecodeAnswer(it.Type, it.Reference)
	if err != nil {
		return nil, &DataError{ItemID: it.ID, Reason: err.Error()}
	}
	return a, nil
}

// SetReference encodes a as the item's reference answer.
func (it *Item) SetReference(a Answer) error {
	if want := kindFor(it.Type); a.Kind() != want {
		return fmt.Errorf("answer kind %q does not fit item type %s", a.Kind(), it.Type)
	}
	raw, err := EncodeAnswer(a)
	if err != nil {
		return err
	}
	it.Reference = raw
	return nil
}

// DataError reports a corrupt or missing reference answer on a stored item.
type DataError struct {
	ItemID string
	Reason string
}

func (e *DataError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("item data: %s", e.Reason)
	}
	return fmt.Sprintf("item %s data: %s", e.ItemID, e.Reason)
}

// Kind narrows selection either to an answer type ("code", "tf") or to an
// exercise category ("simulation"). The zero Kind matches every item.
type Kind struct {
	Type     Type
	Category string
}

// ParseKind interprets s as an answer type when it names one, and as a
// category otherwise.
func ParseKind(s string) Kind {
	s = strings.TrimSpace(s)
	if s == "" {
		return Kind{}
	}
	if t, ok := ParseType(s); ok {
		return Kind{Type: t}
	}
	return Kind{Category: strings.ToLower(s)}
}

// IsZero reports whether k places no constraint.
func (k Kind) IsZero() bool {
	return k.Type == "" && k.Category == ""
}

// Matches reports whether it satisfies k.
func (k Kind) Matches(it *Item) bool {
	if k.Type != "" && it.Type != k.Type {
		return false
	}
	if k.Category != "" && !strings.EqualFold(it.Category, k.Category) {
		return false
	}
	return true
}

func (k Kind) String() string {
	switch {
	case k.Type != "":
		return string(k.Type)
	case k.Category != "":
		return k.Category
	default:
		return "any"
	}
}
