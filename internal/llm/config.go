package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrNotConfigured means the environment names no provider and carries no
// known API key.
var ErrNotConfigured = errors.New("no LLM provider configured")

// Config selects and configures the one provider drillz talks to.
type Config struct {
	// Provider is a vendor name: anthropic, openai, gemini, openrouter or
	// mock.
	Provider string

	APIKey string

	// Model is a vendor model ID or one of the vendor's short aliases.
	// Empty means the vendor default.
	Model string

	// BaseURL overrides the API endpoint, for proxies and compatible APIs.
	BaseURL string

	Retry RetryConfig

	// Timeout bounds one Generate call including retries. Zero means no
	// bound beyond the caller's context.
	Timeout time.Duration
}

type vendor struct {
	name string

	// keyEnv is the vendor's conventional API key variable, used for
	// discovery when DRILLZ_LLM_PROVIDER is unset.
	keyEnv       string
	defaultModel string
	aliases      map[string]string
	build        func(ctx context.Context, cfg Config) (Provider, error)
}

// vendors is in discovery order.
var vendors = []vendor{
	{
		name: "gemini", keyEnv: "GEMINI_API_KEY", defaultModel: "gemini-flash",
		aliases: map[string]string{"gemini-flash": "gemini-2.5-flash", "gemini-pro": "gemini-2.5-pro"},
		build:   newGemini,
	},
	{
		name: "openai", keyEnv: "OPENAI_API_KEY", defaultModel: "gpt-4o-mini",
		build: func(_ context.Context, cfg Config) (Provider, error) { return newOpenAI(cfg) },
	},
	{
		name: "anthropic", keyEnv: "ANTHROPIC_API_KEY", defaultModel: "claude-haiku",
		aliases: map[string]string{"claude-haiku": "claude-haiku-4-5-20251001", "claude-sonnet": "claude-sonnet-4-5-20250929"},
		build:   func(_ context.Context, cfg Config) (Provider, error) { return newAnthropic(cfg) },
	},
	{
		name: "openrouter", keyEnv: "OPENROUTER_API_KEY", defaultModel: "google/gemini-2.5-flash",
		build: func(_ context.Context, cfg Config) (Provider, error) { return newOpenRouter(cfg) },
	},
}

func lookupVendor(name string) (vendor, bool) {
	for _, v := range vendors {
		if v.name == name {
			return v, true
		}
	}
	return vendor{}, false
}

// resolveModel expands an alias and fills in the vendor default.
func (v vendor) resolveModel(model string) string {
	if model == "" {
		model = v.defaultModel
	}
	if id, ok := v.aliases[model]; ok {
		return id
	}
	return model
}

func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// ConfigFromEnv reads DRILLZ_LLM_* variables. Without DRILLZ_LLM_PROVIDER
// the first vendor whose conventional key variable is set is chosen; with
// it, DRILLZ_LLM_API_KEY falls back to that vendor's variable.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Provider: os.Getenv("DRILLZ_LLM_PROVIDER"),
		APIKey:   os.Getenv("DRILLZ_LLM_API_KEY"),
		Model:    os.Getenv("DRILLZ_LLM_MODEL"),
		BaseURL:  os.Getenv("DRILLZ_LLM_BASE_URL"),
		Retry:    DefaultRetry(),
		Timeout:  30 * time.Second,
	}

	if v := os.Getenv("DRILLZ_LLM_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("DRILLZ_LLM_MAX_RETRIES: want a positive integer, got %q", v)
		}
		cfg.Retry.MaxAttempts = n
	}
	if v := os.Getenv("DRILLZ_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("DRILLZ_LLM_TIMEOUT: want a positive duration, got %q", v)
		}
		cfg.Timeout = d
	}

	if cfg.Provider == "" {
		for _, v := range vendors {
			if key := os.Getenv(v.keyEnv); key != "" {
				cfg.Provider = v.name
				if cfg.APIKey == "" {
					cfg.APIKey = key
				}
				return cfg, nil
			}
		}
		return Config{}, ErrNotConfigured
	}
	if v, ok := lookupVendor(cfg.Provider); ok && cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(v.keyEnv)
	}
	return cfg, nil
}

// Validate checks the provider name and that a key is present.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s provider needs DRILLZ_LLM_API_KEY or %s", v.name, v.keyEnv)
	}
	return nil
}
