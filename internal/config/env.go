package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overlays DRILLZ_* environment variables onto c.
func ApplyEnv(c Engine) (Engine, error) {
	floats := []struct {
		key string
		dst *float64
	}{
		{"DRILLZ_MASTERY_STEP", &c.MasteryStep},
		{"DRILLZ_DEFAULT_MASTERY", &c.DefaultMastery},
		{"DRILLZ_MEDIUM_AT", &c.MediumAt},
		{"DRILLZ_HARD_AT", &c.HardAt},
		{"DRILLZ_GENERATE_BELOW", &c.GenerateBelow},
		{"DRILLZ_TEXT_THRESHOLD", &c.TextThreshold},
		{"DRILLZ_CODE_THRESHOLD", &c.CodeThreshold},
	}
	for _, f := range floats {
		v, err := envFloat(f.key, *f.dst)
		if err != nil {
			return c, err
		}
		*f.dst = v
	}

	var err error
	if c.RecencyWindow, err = envDuration("DRILLZ_RECENCY_WINDOW", c.RecencyWindow); err != nil {
		return c, err
	}
	if c.GenerationTimeout, err = envDuration("DRILLZ_GENERATION_TIMEOUT", c.GenerationTimeout); err != nil {
		return c, err
	}
	c.GenerationEnabled = envBool("DRILLZ_GENERATION_ENABLED", c.GenerationEnabled)
	return c, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
