package itemgen

import (
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/llm"
)

func typeEnum() []any {
	var out []any
	for _, t := range item.AllTypes() {
		out = append(out, string(t))
	}
	return out
}

// ItemSchema defines the JSON schema for LLM item generation responses.
var ItemSchema = &llm.Schema{
	Name:        "practice-item",
	Description: "A single programming practice item with its reference answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "A short title naming what the item practices",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "The full prompt shown to the learner. Code blocks in plain text.",
			},
			"type": map[string]any{
				"type":        "string",
				"enum":        typeEnum(),
				"description": "How the learner answers",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options for single-choice and multi-choice, exactly [\"True\", \"False\"] for true-false, empty otherwise.",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The reference answer. Choice types: the exact option text (comma separated for multi-choice). true-false: \"true\" or \"false\". Text and code: the expected answer.",
			},
			"hints": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "One to three progressively stronger hints",
			},
			"difficulty": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "Self-assessed difficulty from 0 (trivial) to 1 (hardest)",
			},
		},
		"required":             []any{"title", "body", "type", "options", "answer", "hints", "difficulty"},
		"additionalProperties": false,
	},
}
