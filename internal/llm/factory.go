package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/drillz/internal/logger"
)

// NewProvider builds the configured provider. Calls pass through retry
// first, then instrumentation, so every attempt is traced and recorded.
// events may be nil.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return NewMockProvider(), nil
	}

	v, _ := lookupVendor(cfg.Provider)
	cfg.Model = v.resolveModel(cfg.Model)
	base, err := v.build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", v.name, err)
	}

	p := WithRetry(Instrument(base, v.name, events, log), cfg.Retry)
	if cfg.Timeout > 0 {
		p = withTimeout(p, cfg.Timeout)
	}
	return p, nil
}

// NewProviderFromEnv is NewProvider over ConfigFromEnv. It returns
// ErrNotConfigured when no provider is set up.
func NewProviderFromEnv(ctx context.Context, events EventRecorder, log *logger.Logger) (Provider, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, events, log)
}
