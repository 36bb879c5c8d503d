// Package llm talks to hosted language models. Every call is a single
// prompt that usually asks for JSON matching a Schema; providers check the
// reply against the schema before returning it.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one completion per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the resolved model the provider sends requests to.
	ModelID() string
}

// Purpose labels a request in the event log and in traces.
type Purpose string

const (
	PurposeItemGen   Purpose = "item-gen"
	PurposeDiagnosis Purpose = "error-diagnosis"
)

// Request is a single-turn prompt.
type Request struct {
	Purpose Purpose

	System string
	Prompt string

	// Schema, when set, switches the provider to its native structured
	// output mode and the reply is validated against it. When nil the
	// reply text is returned as-is.
	Schema *Schema

	MaxTokens int

	// Temperature in [0,1]. Zero leaves the provider default.
	Temperature float64
}

// Schema is a named JSON Schema document.
type Schema struct {
	// Name is kebab-case; some providers require it, e.g. "practice-item".
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why generation ended, normalized across providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

type Response struct {
	// Content is the validated JSON when the request had a Schema and the
	// raw reply text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request, which may be
	// more specific than ModelID.
	Model string

	Stop StopReason
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// finish turns a provider reply into a Response. A reply cut off by the
// token limit is an error when a schema was requested, since the JSON
// cannot be complete.
func finish(req Request, content string, usage Usage, model string, stop StopReason) (*Response, error) {
	raw := json.RawMessage(content)
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &Error{Kind: KindTruncated, Content: raw}
		}
		if err := validateResponse(req.Schema, raw); err != nil {
			return nil, err
		}
	}
	return &Response{Content: raw, Usage: usage, Model: model, Stop: stop}, nil
}
