package itemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/drillz/internal/item"
)

// Validator checks a generated item before it is accepted.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g.
	// "structural" or "option-count".
	Name() string

	// Validate returns nil if the item passes.
	Validate(it *item.Item, req GenRequest) *ValidationError
}

// ValidationError describes why an item failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator requires a title, a body and a usable reference
// answer.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(it *item.Item, _ GenRequest) *ValidationError {
	switch {
	case strings.TrimSpace(it.Title) == "":
		return &ValidationError{Validator: v.Name(), Message: "title is empty"}
	case len(it.Title) > 200:
		return &ValidationError{Validator: v.Name(), Message: "title exceeds 200 characters"}
	case strings.TrimSpace(it.Body) == "":
		return &ValidationError{Validator: v.Name(), Message: "body is empty"}
	}
	if _, err := it.ReferenceAnswer(); err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error()}
	}
	return nil
}

// OptionCountValidator checks the option list length for choice types: 4
// for single and multi choice, 2 for true/false.
type OptionCountValidator struct{}

func (v *OptionCountValidator) Name() string { return "option-count" }

func (v *OptionCountValidator) Validate(it *item.Item, _ GenRequest) *ValidationError {
	want := it.Type.OptionCount()
	if want == 0 {
		return nil
	}
	if len(it.Options) != want {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("%s needs %d options, got %d", it.Type, want, len(it.Options)),
		}
	}
	seen := make(map[string]bool, len(it.Options))
	for _, o := range it.Options {
		k := strings.ToLower(strings.TrimSpace(o))
		if k == "" {
			return &ValidationError{Validator: v.Name(), Message: "empty option"}
		}
		if seen[k] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("duplicate option %q", o)}
		}
		seen[k] = true
	}
	return nil
}

// AnswerInOptionsValidator checks that a choice item's reference answer
// names options that exist.
type AnswerInOptionsValidator struct{}

func (v *AnswerInOptionsValidator) Name() string { return "answer-in-options" }

func (v *AnswerInOptionsValidator) Validate(it *item.Item, _ GenRequest) *ValidationError {
	ref, err := it.ReferenceAnswer()
	if err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error()}
	}
	var labels []string
	switch a := ref.(type) {
	case item.ChoiceAnswer:
		labels = []string{a.Label}
	case item.MultiChoiceAnswer:
		labels = a.Labels
	default:
		return nil
	}
	for _, l := range labels {
		if !hasOption(it.Options, l) {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("answer %q is not one of the options", l),
			}
		}
	}
	return nil
}

func hasOption(options []string, label string) bool {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(label)) {
			return true
		}
	}
	return false
}

// KindValidator rejects items whose type differs from the requested one.
type KindValidator struct{}

func (v *KindValidator) Name() string { return "kind" }

func (v *KindValidator) Validate(it *item.Item, req GenRequest) *ValidationError {
	if req.Kind.Type != "" && it.Type != req.Kind.Type {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("requested %s, got %s", req.Kind.Type, it.Type),
		}
	}
	return nil
}
