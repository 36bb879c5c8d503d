package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Browse the topic graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadTopics(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("%-16s  %-24s  %5s  %-4s  %-14s  %s\n",
			"ID", "Name", "Level", "Core", "Parent", "Prerequisites")
		fmt.Println(strings.Repeat("─", 100))

		for _, t := range g.All() {
			core := ""
			if t.Core {
				core = "✓"
			}
			fmt.Printf("%-16s  %-24s  %5d  %-4s  %-14s  %s\n",
				t.ID, truncate(t.DisplayName(), 24), t.DifficultyLevel, core, t.Parent,
				strings.Join(t.Prerequisites, ", "))
		}

		fmt.Printf("\n%d topics\n", g.Len())
		return nil
	},
}
