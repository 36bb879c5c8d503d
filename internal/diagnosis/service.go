package diagnosis

import (
	"context"
	"time"

	"github.com/abhisek/drillz/internal/llm"
	"github.com/abhisek/drillz/internal/logger"
)

// Service diagnoses wrong answers. Rules run first; when none applies and
// an LLM is configured, the LLM is asked to pick a known misconception.
type Service struct {
	rules      Rules
	identifier *Identifier
	timeout    time.Duration
	log        *logger.Logger
}

type Option func(*Service)

// WithRules replaces DefaultRules.
func WithRules(r Rules) Option {
	return func(s *Service) { s.rules = r }
}

// WithTimeout bounds each LLM call. The default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService returns a Service. A nil provider leaves only the rules.
func NewService(provider llm.Provider, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{rules: DefaultRules(), timeout: 10 * time.Second, log: log}
	if provider != nil {
		s.identifier = NewIdentifier(provider)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Diagnose never fails: LLM errors and timeouts are logged and the answer
// is reported unclassified.
func (s *Service) Diagnose(ctx context.Context, in *ClassifyInput) *DiagnosisResult {
	if cat, conf, ok := s.rules.Apply(in); ok {
		return &DiagnosisResult{Category: cat, Confidence: conf, Source: string(cat)}
	}

	none := &DiagnosisResult{Category: CategoryUnclassified, Source: "none"}
	if s.identifier == nil || in.Item == nil {
		return none
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.identifier.Identify(ctx, in, MisconceptionsFor(in.Item.Topics))
	if err != nil {
		s.log.Warn("llm diagnosis failed", "item", in.Item.ID, "error", err)
		return none
	}
	return res
}
