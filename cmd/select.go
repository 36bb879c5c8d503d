package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/engine"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/topicgraph"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the next practice item for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		topics, _ := cmd.Flags().GetStringSlice("topic")
		kind, _ := cmd.Flags().GetString("kind")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		it, err := e.engine.SelectItem(cmd.Context(), learner, engine.SelectOptions{
			Difficulty: difficulty,
			TopicIDs:   topics,
			Kind:       kind,
		})
		var nc *engine.NoCandidateError
		if errors.As(err, &nc) {
			fmt.Println("No item matches. Try different filters. Searched:")
			for _, f := range nc.Filters {
				fmt.Println("  " + f)
			}
			return err
		}
		if err != nil {
			return err
		}

		printItem(it, e.topics)
		return nil
	},
}

func init() {
	selectCmd.Flags().StringP("learner", "l", defaultLearner(), "Learner ID")
	selectCmd.Flags().StringP("difficulty", "d", "", "Force a band: easy, medium or hard")
	selectCmd.Flags().StringSliceP("topic", "t", nil, "Restrict to topic IDs (repeatable)")
	selectCmd.Flags().StringP("kind", "k", "", "Answer type (tf, mc, code, ...) or exercise category")
}

func printItem(it *item.Item, topics *topicgraph.Graph) {
	sep := strings.Repeat("─", 60)
	fmt.Printf("%s  [%s · %s · %s]\n", it.Title, it.Type, it.Band, it.Source)
	fmt.Printf("ID:     %s\n", it.ID)
	fmt.Printf("Topics: %s\n", strings.Join(topics.Names(it.Topics), ", "))
	fmt.Println(sep)
	fmt.Println(it.Body)
	for i, o := range it.Options {
		fmt.Printf("  %d) %s\n", i+1, o)
	}
	if n := len(it.Hints); n > 0 {
		fmt.Printf("\n%d hint(s) available: drillz submit --hint N --item %s\n", n, it.ID)
	}
}
