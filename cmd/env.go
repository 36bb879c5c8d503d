package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/cache"
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/diagnosis"
	"github.com/abhisek/drillz/internal/engine"
	"github.com/abhisek/drillz/internal/itemgen"
	"github.com/abhisek/drillz/internal/llm"
	"github.com/abhisek/drillz/internal/logger"
	"github.com/abhisek/drillz/internal/observability"
	"github.com/abhisek/drillz/internal/store"
	"github.com/abhisek/drillz/internal/topicgraph"
)

// env holds everything a command needs. Close releases it.
type env struct {
	log    *logger.Logger
	store  *store.Store
	topics *topicgraph.Graph
	engine *engine.Engine

	closers []func()
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.log.Sync()
}

// openStore opens the store and topic graph only.
func openStore(cmd *cobra.Command) (*env, error) {
	mode, _ := cmd.Flags().GetString("log")
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &env{log: log}

	dsn, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(cmd.Context(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, func() { st.Close() })

	if e.topics, err = loadTopics(cmd); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// openEnv opens the store and builds the engine. AI features are wired in
// when an LLM provider is configured; without one the engine serves items
// from the bank only.
func openEnv(cmd *cobra.Command) (*env, error) {
	e, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}

	if observability.Enabled() {
		shutdown, err := observability.Setup(ctx, e.log, observability.ConfigFromEnv(buildVersion()))
		if err != nil {
			e.log.Warn("tracing disabled", "error", err)
		} else {
			e.closers = append(e.closers, func() { _ = shutdown(context.Background()) })
		}
	}

	opts := engine.Options{
		Store:  e.store,
		Topics: e.topics,
		Logger: e.log,
	}

	if url := os.Getenv("DRILLZ_REDIS_URL"); url != "" {
		rc, err := cache.New(ctx, url)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Redis unavailable, remembering recent items in memory:", err)
		} else {
			opts.Recent = rc
			e.closers = append(e.closers, func() { rc.Close() })
		}
	}

	provider, err := llm.NewProviderFromEnv(ctx, e.store.EventRepo(), e.log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		opts.Diagnoser = diagnosis.NewService(nil, e.log)
	case err != nil:
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "AI features will be unavailable.")
		opts.Diagnoser = diagnosis.NewService(nil, e.log)
	default:
		opts.Generator = itemgen.New(provider, itemgen.DefaultConfig())
		opts.Diagnoser = diagnosis.NewService(provider, e.log)
	}

	if e.engine, err = engine.New(cfg, opts); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func loadTopics(cmd *cobra.Command) (*topicgraph.Graph, error) {
	path, _ := cmd.Flags().GetString("topics")
	if path == "" {
		path = os.Getenv("DRILLZ_TOPICS")
	}
	if path == "" {
		return topicgraph.Default(), nil
	}
	g, err := topicgraph.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	return g, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}
