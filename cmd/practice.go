package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/app"
	"github.com/abhisek/drillz/internal/engine"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start an interactive practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		return runPractice(cmd, learner)
	},
}

func init() {
	practiceCmd.Flags().StringP("learner", "l", defaultLearner(), "Learner ID")
	practiceCmd.Flags().StringP("difficulty", "d", "", "Force a band: easy, medium or hard")
	practiceCmd.Flags().StringSliceP("topic", "t", nil, "Restrict to topic IDs (repeatable)")
	practiceCmd.Flags().StringP("kind", "k", "", "Answer type (tf, mc, code, ...) or exercise category")
}

// runPractice opens the engine and runs the TUI. Selection flags are read
// when the command defines them; the bare root command has none.
func runPractice(cmd *cobra.Command, learner string) error {
	var sel engine.SelectOptions
	if f := cmd.Flags().Lookup("difficulty"); f != nil {
		sel.Difficulty = f.Value.String()
	}
	if cmd.Flags().Lookup("topic") != nil {
		sel.TopicIDs, _ = cmd.Flags().GetStringSlice("topic")
	}
	if f := cmd.Flags().Lookup("kind"); f != nil {
		sel.Kind = f.Value.String()
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	return app.Run(cmd.Context(), app.Options{
		Engine:  e.engine,
		Learner: learner,
		Select:  sel,
	})
}
