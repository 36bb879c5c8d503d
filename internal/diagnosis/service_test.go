package diagnosis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/llm"
)

func wrongLoopAnswer() *ClassifyInput {
	return &ClassifyInput{
		Item: &item.Item{
			ID:     "it-1",
			Type:   item.TypeFillBlank,
			Body:   "How many times does for i in range(1, 5) run?",
			Topics: []string{"loops"},
		},
		Submitted:   "5",
		Expected:    "4",
		TimeSpent:   20 * time.Second,
		CorrectRate: 0.5,
		Attempts:    10,
	}
}

func TestService_RuleBased(t *testing.T) {
	mock := llm.NewMockProvider()
	s := NewService(mock, nil)

	in := wrongLoopAnswer()
	in.TimeSpent = time.Second
	result := s.Diagnose(context.Background(), in)
	if result.Category != CategorySpeedRush || result.Source != "speed-rush" {
		t.Errorf("got %+v, want speed-rush", result)
	}
	if mock.CallCount() != 0 {
		t.Error("LLM should not be called when a rule matches")
	}
}

func TestService_NoProvider(t *testing.T) {
	s := NewService(nil, nil)
	result := s.Diagnose(context.Background(), wrongLoopAnswer())
	if result.Category != CategoryUnclassified || result.Source != "none" {
		t.Errorf("got %+v, want unclassified", result)
	}
}

func TestService_LLMFallback(t *testing.T) {
	resp := json.RawMessage(`{"misconception_id":"loop-off-by-one","confidence":0.9,"feedback":"range(1, 5) yields four values."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	s := NewService(mock, nil)

	result := s.Diagnose(context.Background(), wrongLoopAnswer())
	if result.Category != CategoryMisconception || result.MisconceptionID != "loop-off-by-one" {
		t.Errorf("got %+v, want loop-off-by-one", result)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestService_LLMTimeoutDegrades(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{}`), Delay: 5 * time.Second})
	s := NewService(mock, nil, WithTimeout(10*time.Millisecond))

	start := time.Now()
	result := s.Diagnose(context.Background(), wrongLoopAnswer())
	if result.Category != CategoryUnclassified {
		t.Errorf("got %+v, want unclassified", result)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("diagnosis did not respect its timeout")
	}
}

func TestService_CustomRules(t *testing.T) {
	s := NewService(nil, nil, WithRules(Rules{SpeedRush: time.Minute, NearMiss: 1, CarelessMinAttempts: 100}))
	result := s.Diagnose(context.Background(), wrongLoopAnswer())
	if result.Category != CategorySpeedRush {
		t.Errorf("got %+v, want speed-rush under a one-minute threshold", result)
	}
}
