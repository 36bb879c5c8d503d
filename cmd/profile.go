package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show a learner's accuracy, mastery and recent attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		clear, _ := cmd.Flags().GetString("clear-weak")
		history, _ := cmd.Flags().GetInt("history")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		if clear != "" {
			ok, err := e.engine.ClearWeakTopic(ctx, learner, clear)
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("Cleared %s from %s's weak topics.\n", clear, learner)
			} else {
				fmt.Printf("%s was not a weak topic for %s.\n", clear, learner)
			}
			return nil
		}

		p, err := e.engine.Profile(ctx, learner)
		if err != nil {
			return err
		}

		fmt.Printf("Learner:   %s\n", p.LearnerID)
		fmt.Printf("Attempts:  %d (%d correct, %.0f%%)\n", p.TotalCount, p.CorrectCount, p.CorrectRate*100)
		fmt.Printf("Avg time:  %s\n", p.AverageTimePerItem.Round(100*time.Millisecond))
		if len(p.WeakTopics) > 0 {
			fmt.Printf("Weak:      %s\n", strings.Join(p.WeakTopics, ", "))
		}

		if len(p.MasteryByTopic) > 0 {
			topics := make([]string, 0, len(p.MasteryByTopic))
			for t := range p.MasteryByTopic {
				topics = append(topics, t)
			}
			sort.Strings(topics)

			fmt.Println()
			fmt.Printf("%-24s  %7s\n", "Topic", "Mastery")
			fmt.Println(strings.Repeat("─", 34))
			for _, t := range topics {
				fmt.Printf("%-24s  %7.2f\n", truncate(e.topics.Name(t), 24), p.MasteryByTopic[t])
			}
		}

		if history > 0 {
			attempts, err := e.engine.History(ctx, learner, history)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Printf("%-19s  %-36s  %3s  %-2s  %5s  %s\n", "When", "Item", "#", "OK", "Score", "Diagnosis")
			fmt.Println(strings.Repeat("─", 90))
			for _, a := range attempts {
				ok := "✓"
				if !a.IsCorrect {
					ok = "✗"
				}
				fmt.Printf("%-19s  %-36s  %3d  %-2s  %5.2f  %s\n",
					a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					truncate(a.ItemID, 36), a.AttemptNumber, ok, a.Score, a.Diagnosis)
			}
		}
		return nil
	},
}

func init() {
	profileCmd.Flags().StringP("learner", "l", defaultLearner(), "Learner ID")
	profileCmd.Flags().String("clear-weak", "", "Remove a topic from the learner's weak set")
	profileCmd.Flags().IntP("history", "n", 10, "Number of recent attempts to show (0 hides them)")
}
