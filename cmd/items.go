package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/bank"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/store"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the item bank",
}

var itemsImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import items from YAML or XLSX files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rep, err := bank.NewImporter(e.store, e.topics, e.log).Import(cmd.Context(), args...)
		if err != nil {
			return err
		}
		for _, s := range rep.Skipped {
			fmt.Printf("skipped %s\n", s)
		}
		fmt.Printf("Imported %d item(s), skipped %d.\n", rep.Imported, len(rep.Skipped))
		return nil
	},
}

var itemsTemplateCmd = &cobra.Command{
	Use:   "template FILE.xlsx",
	Short: "Write a spreadsheet template for bulk item entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bank.WriteTemplate(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s with columns: %s\n", args[0], strings.Join(bank.Columns, ", "))
		return nil
	},
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items in the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		bands, _ := cmd.Flags().GetStringSlice("band")
		topics, _ := cmd.Flags().GetStringSlice("topic")
		kind, _ := cmd.Flags().GetString("kind")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		f := store.ItemFilter{
			Topics:          topics,
			Kind:            item.ParseKind(kind),
			IncludeInactive: all,
			Limit:           limit,
		}
		for _, b := range bands {
			band, ok := item.ParseBand(b)
			if !ok {
				return fmt.Errorf("invalid band %q: must be easy, medium or hard", b)
			}
			f.Bands = append(f.Bands, band)
		}

		e, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		items, err := e.store.QueryItems(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("query items: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}

		fmt.Printf("%-36s  %-30s  %-13s  %-6s  %-9s  %-3s  %s\n",
			"ID", "Title", "Type", "Band", "Source", "On", "Topics")
		fmt.Println(strings.Repeat("─", 120))
		for _, it := range items {
			on := "✓"
			if !it.Active {
				on = "✗"
			}
			fmt.Printf("%-36s  %-30s  %-13s  %-6s  %-9s  %-3s  %s\n",
				truncate(it.ID, 36), truncate(it.Title, 30), it.Type, it.Band, it.Source, on,
				strings.Join(it.Topics, ","))
		}
		fmt.Printf("\n%d items\n", len(items))
		return nil
	},
}

var itemsDeactivateCmd = &cobra.Command{
	Use:   "deactivate ID",
	Short: "Stop an item from being selected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(cmd, args[0], false)
	},
}

var itemsActivateCmd = &cobra.Command{
	Use:   "activate ID",
	Short: "Make a deactivated item selectable again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(cmd, args[0], true)
	},
}

func setActive(cmd *cobra.Command, id string, active bool) error {
	e, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	err = e.store.SetItemActive(cmd.Context(), id, active)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("item %s not found", id)
	}
	if err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("Item %s %s.\n", id, state)
	return nil
}

func init() {
	itemsListCmd.Flags().StringSlice("band", nil, "Filter by band (repeatable)")
	itemsListCmd.Flags().StringSliceP("topic", "t", nil, "Filter by topic ID (repeatable)")
	itemsListCmd.Flags().StringP("kind", "k", "", "Filter by answer type or category")
	itemsListCmd.Flags().Bool("all", false, "Include deactivated items")
	itemsListCmd.Flags().IntP("limit", "n", 0, "Maximum number of items (0 = all)")

	itemsCmd.AddCommand(itemsImportCmd)
	itemsCmd.AddCommand(itemsTemplateCmd)
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsDeactivateCmd)
	itemsCmd.AddCommand(itemsActivateCmd)
}
