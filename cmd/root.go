package cmd

import (
	"context"
	"os"
	"os/signal"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "drillz",
	Short: "Adaptive programming practice",
	Long:  "drillz picks practice items at the right difficulty for each learner, grades answers and tracks per-topic mastery.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd, defaultLearner())
	},
	SilenceUsage: true,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or postgres:// DSN (overrides DRILLZ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Engine config file (default $XDG_CONFIG_HOME/drillz/config.toml)")
	rootCmd.PersistentFlags().String("topics", "", "Topic graph YAML file or directory (default: built-in graph)")
	rootCmd.PersistentFlags().String("log", "quiet", "Log mode: dev, prod or quiet")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database DSN using --db flag (highest priority),
// then DRILLZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if isPostgres(p) {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// defaultLearner is DRILLZ_LEARNER, else the OS user name.
func defaultLearner() string {
	if id := os.Getenv("DRILLZ_LEARNER"); id != "" {
		return id
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "learner"
}
