package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/abhisek/drillz/internal/item"
)

// FileConfig mirrors the TOML config file. Unset keys keep their defaults.
type FileConfig struct {
	Mastery    MasteryFile    `toml:"mastery"`
	Difficulty DifficultyFile `toml:"difficulty"`
	Selection  SelectionFile  `toml:"selection"`
	Generation GenerationFile `toml:"generation"`
	Grading    GradingFile    `toml:"grading"`
}

type MasteryFile struct {
	Step    *float64 `toml:"step"`
	Default *float64 `toml:"default"`
}

type DifficultyFile struct {
	MediumAt *float64 `toml:"medium_at"`
	HardAt   *float64 `toml:"hard_at"`
}

type SelectionFile struct {
	RecencyWindow *string             `toml:"recency_window"`
	PickWindowMax *int                `toml:"pick_window_max"`
	UnknownTopic  *float64            `toml:"unknown_topic_mastery"`
	CoreKind      *string             `toml:"core_kind"`
	Adjacency     map[string][]string `toml:"adjacency"`
}

type GenerationFile struct {
	Enabled   *bool    `toml:"enabled"`
	BelowRate *float64 `toml:"below_rate"`
	Timeout   *string  `toml:"timeout"`
}

type GradingFile struct {
	TextThreshold *float64 `toml:"text_threshold"`
	CodeThreshold *float64 `toml:"code_threshold"`
}

// DefaultPath returns $XDG_CONFIG_HOME/drillz/config.toml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return filepath.Join(".", "drillz.toml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "drillz", "config.toml")
}

// LoadFile reads a TOML config from path. A missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("stat config: %w", err)
	}
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return fc, nil
}

// Load builds an Engine from defaults, the TOML file at path (if any) and
// DRILLZ_* environment overrides, in that order, then validates it.
func Load(path string) (Engine, error) {
	cfg := Default()
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return Engine{}, err
		}
		if cfg, err = fc.Apply(cfg); err != nil {
			return Engine{}, err
		}
	}
	cfg, err := ApplyEnv(cfg)
	if err != nil {
		return Engine{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Engine{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the values set in fc onto c.
func (fc FileConfig) Apply(c Engine) (Engine, error) {
	setFloat(&c.MasteryStep, fc.Mastery.Step)
	setFloat(&c.DefaultMastery, fc.Mastery.Default)
	setFloat(&c.MediumAt, fc.Difficulty.MediumAt)
	setFloat(&c.HardAt, fc.Difficulty.HardAt)
	setFloat(&c.UnknownTopicMastery, fc.Selection.UnknownTopic)
	setFloat(&c.GenerateBelow, fc.Generation.BelowRate)
	setFloat(&c.TextThreshold, fc.Grading.TextThreshold)
	setFloat(&c.CodeThreshold, fc.Grading.CodeThreshold)

	if fc.Selection.PickWindowMax != nil {
		c.PickWindowMax = *fc.Selection.PickWindowMax
	}
	if fc.Selection.CoreKind != nil {
		c.CoreKind = *fc.Selection.CoreKind
	}
	if fc.Generation.Enabled != nil {
		c.GenerationEnabled = *fc.Generation.Enabled
	}
	if err := setDuration(&c.RecencyWindow, fc.Selection.RecencyWindow); err != nil {
		return c, fmt.Errorf("selection.recency_window: %w", err)
	}
	if err := setDuration(&c.GenerationTimeout, fc.Generation.Timeout); err != nil {
		return c, fmt.Errorf("generation.timeout: %w", err)
	}

	if len(fc.Selection.Adjacency) > 0 {
		adj := make(map[item.Band][]item.Band, len(fc.Selection.Adjacency))
		for k, vs := range fc.Selection.Adjacency {
			from, ok := item.ParseBand(k)
			if !ok {
				return c, fmt.Errorf("selection.adjacency: unknown band %q", k)
			}
			for _, v := range vs {
				to, ok := item.ParseBand(v)
				if !ok {
					return c, fmt.Errorf("selection.adjacency.%s: unknown band %q", k, v)
				}
				adj[from] = append(adj[from], to)
			}
		}
		for _, b := range item.Bands() {
			if _, ok := adj[b]; !ok {
				adj[b] = c.Adjacent(b)
			}
		}
		c = c.WithAdjacency(adj)
	}
	return c, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
