package itemgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a programming tutor writing practice items for a learner.

Rules:
- Write a single self-contained item for the requested topics and difficulty band.
- Match the requested item type when one is given; otherwise pick the type that best fits the topic.
- single-choice: exactly 4 options, exactly one correct. Distractors should reflect common mistakes.
- multi-choice: exactly 4 options, one or more correct; list every correct option, comma separated.
- true-false: options are exactly ["True", "False"]; answer is "true" or "false".
- fill-blank and free-response: the answer is the shortest complete correct text.
- code: the answer is a short, idiomatic reference solution.
- The answer for choice types must be the exact text of an option.
- Give one to three hints, each more revealing than the last, none giving the answer away.
- Focus on the learner's weak topics when they are listed.
- Do not repeat any item from the "recently generated" list.`

// buildUserMessage constructs the user message from GenRequest and Config limits.
func buildUserMessage(req GenRequest, cfg Config) string {
	var b strings.Builder

	topics := req.TopicNames
	if len(topics) == 0 {
		topics = req.TopicIDs
	}
	if len(topics) == 0 {
		topics = []string{"any introductory programming topic"}
	}

	fmt.Fprintf(&b, "Topics: %s\n", strings.Join(topics, ", "))
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Band)
	if req.Kind.Type != "" {
		fmt.Fprintf(&b, "Item type: %s\n", req.Kind.Type)
	}
	if req.Kind.Category != "" {
		fmt.Fprintf(&b, "Exercise kind: %s\n", req.Kind.Category)
	}

	b.WriteString("\nLearner:\n")
	fmt.Fprintf(&b, "- id: %s\n", req.LearnerID)
	if req.Attempts > 0 {
		fmt.Fprintf(&b, "- correct rate: %.0f%% over %d attempts\n", req.CorrectRate*100, req.Attempts)
	} else {
		b.WriteString("- no attempts yet\n")
	}
	weak := "None"
	if len(req.WeakTopicNames) > 0 {
		weak = strings.Join(req.WeakTopicNames, ", ")
	}
	fmt.Fprintf(&b, "- weak topics: %s\n", weak)

	b.WriteString("\nRecently generated for this learner:\n")
	b.WriteString(buildList(req.RecentTitles, cfg.MaxRecentTitles))

	return b.String()
}

// buildList numbers entries for the prompt, keeping at most max of the
// first (newest) entries. Returns "None" if there are none.
func buildList(entries []string, max int) string {
	if len(entries) == 0 {
		return "None"
	}
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return strings.TrimRight(b.String(), "\n")
}
