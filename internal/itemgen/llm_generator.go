package itemgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/llm"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// itemOutput is the raw LLM response before validation.
type itemOutput struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Type       string   `json:"type"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Hints      []string `json:"hints"`
	Difficulty float64  `json:"difficulty"`
}

// Generate produces a single item for req.
func (g *LLMGenerator) Generate(ctx context.Context, req GenRequest) (*item.Item, error) {
	llmReq := llm.Request{
		Purpose:     llm.PurposeItemGen,
		System:      systemPrompt,
		Prompt:      buildUserMessage(req, g.config),
		Schema:      ItemSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw itemOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	it, err := toItem(raw, req)
	if err != nil {
		return nil, err
	}

	// Run validators in order.
	for _, v := range g.config.Validators {
		if verr := v.Validate(it, req); verr != nil {
			return nil, verr
		}
	}

	return it, nil
}

func toItem(raw itemOutput, req GenRequest) (*item.Item, error) {
	t, ok := item.ParseType(raw.Type)
	if !ok {
		return nil, &ValidationError{Validator: "structural", Message: fmt.Sprintf("unknown item type %q", raw.Type)}
	}

	score := raw.Difficulty
	if score <= 0 || score > 1 {
		score = req.Band.DefaultScore()
	}

	it := &item.Item{
		Title:    strings.TrimSpace(raw.Title),
		Body:     strings.TrimSpace(raw.Body),
		Type:     t,
		Band:     req.Band,
		Category: req.Kind.Category,
		Score:    score,
		Topics:   append([]string(nil), req.TopicIDs...),
		Hints:    raw.Hints,
		Active:   true,
		Source:   item.SourceGenerated,
	}
	if t.IsChoice() {
		it.Options = raw.Options
	}

	// An unusable answer leaves Reference empty; the structural validator
	// reports it.
	if a, err := item.ParseAnswer(t, raw.Answer); err == nil {
		if err := it.SetReference(a); err != nil {
			return nil, err
		}
	}
	return it, nil
}
