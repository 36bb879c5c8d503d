package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/engine"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Grade an answer and record the attempt",
	Long: `Grade an answer and record the attempt.

With --hint N and no --answer, prints the N-th hint of the item instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		itemID, _ := cmd.Flags().GetString("item")
		answer, _ := cmd.Flags().GetString("answer")
		spent, _ := cmd.Flags().GetDuration("time")
		hints, _ := cmd.Flags().GetInt("hints")
		hint, _ := cmd.Flags().GetInt("hint")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		if hint > 0 && !cmd.Flags().Changed("answer") {
			h, err := e.engine.Hint(ctx, itemID, hint)
			if err != nil {
				return err
			}
			fmt.Printf("Hint %d: %s\n", hint, h)
			return nil
		}

		a, err := e.engine.SubmitAnswer(ctx, learner, itemID, answer, engine.SubmitOptions{
			TimeSpent: spent,
			HintsUsed: hints,
		})
		if err != nil {
			return err
		}
		printAttempt(a)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringP("learner", "l", defaultLearner(), "Learner ID")
	submitCmd.Flags().StringP("item", "i", "", "Item ID (required)")
	submitCmd.Flags().StringP("answer", "a", "", "The learner's answer")
	submitCmd.Flags().Duration("time", 0, "Time spent on the item (e.g. 45s)")
	submitCmd.Flags().Int("hints", 0, "Number of hints used")
	submitCmd.Flags().Int("hint", 0, "Show the N-th hint instead of submitting")
	_ = submitCmd.MarkFlagRequired("item")
}

func printAttempt(a *engine.Attempt) {
	if a.IsCorrect {
		fmt.Println("\033[32m✓ Correct!\033[0m")
	} else {
		fmt.Printf("\033[31m✗ Not quite.\033[0m Score %.2f\n", a.Score)
	}
	if a.Feedback != "" {
		fmt.Println(a.Feedback)
	}
	fmt.Printf("Attempt #%d", a.AttemptNumber)
	if a.Diagnosis != "" {
		fmt.Printf(" · %s", a.Diagnosis)
		if a.MisconceptionID != "" {
			fmt.Printf(" (%s)", a.MisconceptionID)
		}
	}
	fmt.Println()
	for _, t := range a.NewlyWeak {
		fmt.Printf("Marked %s for more practice.\n", t)
	}
}
