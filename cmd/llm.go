package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/llm"
	"github.com/abhisek/drillz/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM provider and its request log",
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which provider and model the engine would use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := llm.ConfigFromEnv()
		if errors.Is(err, llm.ErrNotConfigured) {
			fmt.Println("No LLM provider configured. Items come from the bank only and wrong answers get rule-based diagnosis.")
			fmt.Println("Set DRILLZ_LLM_PROVIDER and DRILLZ_LLM_API_KEY, or one of GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY.")
			return nil
		}
		if err != nil {
			return err
		}
		model := cfg.Model
		if model == "" {
			model = "(provider default)"
		}
		fmt.Printf("Provider:  %s\n", cfg.Provider)
		fmt.Printf("Model:     %s\n", model)
		fmt.Printf("API key:   %s\n", maskKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			fmt.Printf("Base URL:  %s\n", cfg.BaseURL)
		}
		fmt.Printf("Retries:   %d\n", cfg.Retry.MaxAttempts)
		fmt.Printf("Timeout:   %s\n", cfg.Timeout)
		if err := cfg.Validate(); err != nil {
			fmt.Printf("\nNot usable: %v\n", err)
		}
		return nil
	},
}

var llmEventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"list"},
	Short:   "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		e, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := e.store.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-15s  %-28s  %7s  %7s  %6s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, ev := range events {
			ok := "✓"
			if !ev.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-16s  %-15s  %-28s  %7d  %7d  %6d  %s\n",
				ev.ID, ev.Timestamp.Local().Format("Jan 02 15:04:05"), truncate(ev.Purpose, 15),
				truncate(ev.Model, 28), ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ok)
		}
		return nil
	},
}

var llmShowCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"view"},
	Short:   "Show the full prompt and reply of one request",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		e, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ev, err := e.store.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if ev == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fmt.Printf("Event %d  %s\n", ev.ID, ev.Timestamp.Local().Format(time.RFC1123))
		fmt.Printf("%s %s for %s, %d ms, %d in / %d out tokens\n",
			ev.Provider, ev.Model, ev.Purpose, ev.LatencyMs, ev.InputTokens, ev.OutputTokens)
		if ev.ErrorMessage != "" {
			fmt.Printf("Failed: %s\n", ev.ErrorMessage)
		}
		section("Request", ev.RequestBody)
		section("Reply", ev.ResponseBody)
		return nil
	},
}

var llmUsageCmd = &cobra.Command{
	Use:     "usage",
	Aliases: []string{"stats"},
	Short:   "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		events := e.store.EventRepo()
		byPurpose, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}
		byModel, err := events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}

		rule := strings.Repeat("─", 74)
		fmt.Printf("%-18s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "In", "Out", "Avg ms")
		fmt.Println(rule)
		var calls, in, out int
		for _, u := range byPurpose {
			fmt.Printf("%-18s  %6d  %10d  %10d  %8d\n", truncate(u.Purpose, 18), u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls, in, out = calls+u.Calls, in+u.InputTokens, out+u.OutputTokens
		}
		fmt.Println(rule)
		fmt.Printf("%-18s  %6d  %10d  %10d\n\n", "total", calls, in, out)

		fmt.Printf("%-34s  %6s  %10s  %10s  %8s\n", "Model", "Calls", "In", "Out", "USD")
		fmt.Println(rule)
		var total float64
		var unpriced []string
		for _, u := range byModel {
			cost := "?"
			if p, ok := llm.PriceOf(u.Model); ok {
				c := p.Cost(u.InputTokens, u.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			fmt.Printf("%-34s  %6d  %10d  %10d  %8s\n", truncate(u.Model, 34), u.Calls, u.InputTokens, u.OutputTokens, cost)
		}
		fmt.Println(rule)
		label := "total"
		if len(unpriced) > 0 {
			label = "total (partial)"
		}
		fmt.Printf("%-34s  %6s  %10s  %10s  %8s\n", label, "", "", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Printf("\nNo price known for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func section(title, body string) {
	fmt.Printf("\n── %s %s\n", title, strings.Repeat("─", 56-len(title)))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	fmt.Println(body)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 8) + key[len(key)-4:]
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmEventsCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmEventsCmd.Flags().StringP("purpose", "p", "", "Only this purpose (item-gen, error-diagnosis)")
	llmEventsCmd.Flags().Duration("since", 0, "Only requests newer than this, e.g. 24h")

	llmCmd.AddCommand(llmStatusCmd, llmEventsCmd, llmShowCmd, llmUsageCmd)
}
