package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/drillz/internal/textsim"
)

// Answer is a reference answer. Each variant owns the comparison rule for the
// item types it serves.
type Answer interface {
	// Kind is the wire discriminator ("choice", "multi", "bool", "text", "code").
	Kind() string

	// Compare grades a raw submission. Choice kinds compare option text,
	// never option numbers.
	Compare(submitted string) Comparison

	// Expected renders the answer for feedback.
	Expected() string
}

// Comparison is the outcome of comparing a submission with a reference.
type Comparison struct {
	// Exact is true for exact-match kinds; Equal then carries the verdict.
	Exact bool
	Equal bool

	// Ratio is the similarity in [0,1]. For exact kinds it is 1 or 0.
	Ratio float64

	// Diff holds line-level differences for code answers.
	Diff []string
}

func exact(equal bool) Comparison {
	if equal {
		return Comparison{Exact: true, Equal: true, Ratio: 1}
	}
	return Comparison{Exact: true}
}

func kindFor(t Type) string {
	switch t {
	case TypeSingleChoice:
		return "choice"
	case TypeMultiChoice:
		return "multi"
	case TypeTrueFalse:
		return "bool"
	case TypeFillBlank, TypeFreeResponse:
		return "text"
	case TypeCode:
		return "code"
	default:
		return ""
	}
}

// ChoiceAnswer is the single correct option label of a single-choice item.
type ChoiceAnswer struct {
	Label string `json:"label"`
}

func (ChoiceAnswer) Kind() string       { return "choice" }
func (a ChoiceAnswer) Expected() string { return a.Label }

// Compare matches the submitted option text against the label, ignoring
// case and surrounding whitespace.
func (a ChoiceAnswer) Compare(submitted string) Comparison {
	return exact(foldEqual(submitted, a.Label))
}

// MultiChoiceAnswer is the set of correct option labels of a multi-choice item.
type MultiChoiceAnswer struct {
	Labels []string `json:"labels"`
}

func (MultiChoiceAnswer) Kind() string { return "multi" }

func (a MultiChoiceAnswer) Expected() string {
	return strings.Join(a.Labels, ", ")
}

// Compare splits the submission on commas and compares label sets,
// ignoring order, case and surrounding whitespace.
func (a MultiChoiceAnswer) Compare(submitted string) Comparison {
	got := labelSet(SplitLabels(submitted))
	want := labelSet(a.Labels)
	if len(got) != len(want) {
		return exact(false)
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			return exact(false)
		}
	}
	return exact(true)
}

// SplitLabels splits a comma separated label list, dropping empty entries.
func SplitLabels(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BoolAnswer is the reference value of a true/false item.
type BoolAnswer struct {
	Value bool `json:"value"`
}

func (BoolAnswer) Kind() string       { return "bool" }
func (a BoolAnswer) Expected() string { return strconv.FormatBool(a.Value) }

func (a BoolAnswer) Compare(submitted string) Comparison {
	v, ok := ParseBool(submitted)
	return exact(ok && v == a.Value)
}

// ParseBool accepts true/false, t/f, yes/no, y/n and 1/0 in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// TextAnswer is the reference text of fill-blank and free-response items.
type TextAnswer struct {
	Text string `json:"text"`
}

func (TextAnswer) Kind() string       { return "text" }
func (a TextAnswer) Expected() string { return a.Text }

func (a TextAnswer) Compare(submitted string) Comparison {
	return Comparison{Ratio: textsim.Ratio(textsim.Normalize(submitted), textsim.Normalize(a.Text))}
}

// CodeAnswer is the reference source of a code item.
type CodeAnswer struct {
	Source string `json:"source"`
}

func (CodeAnswer) Kind() string       { return "code" }
func (a CodeAnswer) Expected() string { return a.Source }

func (a CodeAnswer) Compare(submitted string) Comparison {
	got := textsim.NormalizeCode(submitted)
	want := textsim.NormalizeCode(a.Source)
	return Comparison{
		Ratio: textsim.Ratio(strings.Join(got, "\n"), strings.Join(want, "\n")),
		Diff:  textsim.LineDiff(want, got),
	}
}

type envelope struct {
	Kind   string   `json:"kind"`
	Label  string   `json:"label,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Value  *bool    `json:"value,omitempty"`
	Text   string   `json:"text,omitempty"`
	Source string   `json:"source,omitempty"`
}

// EncodeAnswer serializes a to its tagged JSON form.
func EncodeAnswer(a Answer) ([]byte, error) {
	env := envelope{Kind: a.Kind()}
	switch v := a.(type) {
	case ChoiceAnswer:
		env.Label = v.Label
	case MultiChoiceAnswer:
		env.Labels = v.Labels
	case BoolAnswer:
		val := v.Value
		env.Value = &val
	case TextAnswer:
		env.Text = v.Text
	case CodeAnswer:
		env.Source = v.Source
	default:
		return nil, fmt.Errorf("unknown answer variant %T", a)
	}
	return json.Marshal(env)
}

var errEmptyAnswer = errors.New("reference answer is empty")

// DecodeAnswer parses a tagged reference answer and checks that it fits t.
func DecodeAnswer(t Type, raw []byte) (Answer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errEmptyAnswer
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode reference answer: %w", err)
	}
	want := kindFor(t)
	if want == "" {
		return nil, fmt.Errorf("unknown item type %q", t)
	}
	if env.Kind != want {
		return nil, fmt.Errorf("reference answer kind %q does not fit item type %s", env.Kind, t)
	}

	var a Answer
	switch env.Kind {
	case "choice":
		if strings.TrimSpace(env.Label) == "" {
			return nil, errEmptyAnswer
		}
		a = ChoiceAnswer{Label: env.Label}
	case "multi":
		if len(env.Labels) == 0 {
			return nil, errEmptyAnswer
		}
		a = MultiChoiceAnswer{Labels: env.Labels}
	case "bool":
		if env.Value == nil {
			return nil, errEmptyAnswer
		}
		a = BoolAnswer{Value: *env.Value}
	case "text":
		if strings.TrimSpace(env.Text) == "" {
			return nil, errEmptyAnswer
		}
		a = TextAnswer{Text: env.Text}
	case "code":
		if strings.TrimSpace(env.Source) == "" {
			return nil, errEmptyAnswer
		}
		a = CodeAnswer{Source: env.Source}
	}
	return a, nil
}

// ParseAnswer builds a reference answer for t from a loosely typed value as
// found in YAML, spreadsheets or model output. Strings are split on commas
// for multi-choice items and parsed as booleans for true/false items.
func ParseAnswer(t Type, v any) (Answer, error) {
	switch t {
	case TypeSingleChoice:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("single-choice answer must be a non-empty label, got %T", v)
		}
		return ChoiceAnswer{Label: strings.TrimSpace(s)}, nil
	case TypeMultiChoice:
		var labels []string
		switch x := v.(type) {
		case string:
			labels = SplitLabels(x)
		case []string:
			labels = x
		case []any:
			for _, e := range x {
				labels = append(labels, strings.TrimSpace(fmt.Sprint(e)))
			}
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("multi-choice answer must list at least one label")
		}
		return MultiChoiceAnswer{Labels: labels}, nil
	case TypeTrueFalse:
		switch x := v.(type) {
		case bool:
			return BoolAnswer{Value: x}, nil
		case string:
			if b, ok := ParseBool(x); ok {
				return BoolAnswer{Value: b}, nil
			}
		}
		return nil, fmt.Errorf("true-false answer must be a boolean, got %v", v)
	case TypeFillBlank, TypeFreeResponse:
		s := strings.TrimSpace(fmt.Sprint(v))
		if v == nil || s == "" {
			return nil, errEmptyAnswer
		}
		return TextAnswer{Text: s}, nil
	case TypeCode:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, errEmptyAnswer
		}
		return CodeAnswer{Source: s}, nil
	}
	return nil, fmt.Errorf("unknown item type %q", t)
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return set
}
