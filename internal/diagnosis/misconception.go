package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/drillz/internal/llm"
)

// misconceptionSchema is the reply shape for identification requests.
var misconceptionSchema = &llm.Schema{
	Name:        "error-diagnosis",
	Description: "Which known misconception, if any, explains a wrong answer, with one line of feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"misconception_id": map[string]any{
				"type":        []any{"string", "null"},
				"description": "ID from the candidate list, or null when none fits",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0.0,
				"maximum": 1.0,
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One sentence to the learner on what went wrong, without giving away the full answer",
			},
		},
		"required":             []any{"misconception_id", "confidence", "feedback"},
		"additionalProperties": false,
	},
}

const misconceptionSystem = `You review wrong answers to programming practice items. Decide whether the mistake is one of the listed misconceptions and tell the learner what went wrong.

Rules:
- Return the ID of a listed misconception only when the answer clearly shows it. Otherwise return null.
- Never make up an ID.
- Confidence is between 0 and 1.
- Feedback is a single encouraging sentence addressed to the learner.`

var misconceptionPrompt = template.Must(template.New("misconception").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`Topics: {{join .Topics ", "}}
Item type: {{.Type}}
Item:
{{.Body}}

Expected answer: {{.Expected}}
Learner's answer: {{.Submitted}}

Candidate misconceptions:
{{range .Candidates}}- {{.ID}}: {{.Description}}
{{else}}(none)
{{end}}`))

// Identifier asks an LLM which misconception explains a wrong answer.
type Identifier struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
}

func NewIdentifier(provider llm.Provider) *Identifier {
	return &Identifier{provider: provider, maxTokens: 256, temperature: 0.3}
}

type promptData struct {
	Topics     []string
	Type       string
	Body       string
	Expected   string
	Submitted  string
	Candidates []*Misconception
}

func renderPrompt(in *ClassifyInput, candidates []*Misconception) (string, error) {
	var b strings.Builder
	err := misconceptionPrompt.Execute(&b, promptData{
		Topics:     in.Item.Topics,
		Type:       string(in.Item.Type),
		Body:       in.Item.Body,
		Expected:   in.Expected,
		Submitted:  in.Submitted,
		Candidates: candidates,
	})
	return b.String(), err
}

// Identify returns a misconception result when the model picks one of the
// candidates and an unclassified result, still carrying the feedback,
// when it does not. An ID outside the candidate list counts as no match.
func (d *Identifier) Identify(ctx context.Context, in *ClassifyInput, candidates []*Misconception) (*DiagnosisResult, error) {
	prompt, err := renderPrompt(in, candidates)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	resp, err := d.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeDiagnosis,
		System:      misconceptionSystem,
		Prompt:      prompt,
		Schema:      misconceptionSchema,
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		ID         *string `json:"misconception_id"`
		Confidence float64 `json:"confidence"`
		Feedback   string  `json:"feedback"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("decode diagnosis: %w", err)
	}

	res := &DiagnosisResult{
		Category:   CategoryUnclassified,
		Confidence: out.Confidence,
		Source:     "llm",
		Feedback:   strings.TrimSpace(out.Feedback),
	}
	if out.ID != nil {
		for _, c := range candidates {
			if c.ID == *out.ID {
				res.Category = CategoryMisconception
				res.MisconceptionID = c.ID
				break
			}
		}
	}
	return res, nil
}
