package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"luxafor/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent colour transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled (history.enabled = false)")
				return nil
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			items, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No transitions recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(items))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of transitions to show (0 for all)")
	return cmd
}

func renderHistoryTable(items []history.Transition) string {
	headers := []string{"ID", "Time", "Source", "State", "Color", "Result", "Session"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			formatTimestamp(item.CreatedAt),
			string(item.Source),
			item.State,
			item.Color.String(),
			transitionResult(item),
			shortSession(item.SessionID),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	return renderTable(headers, rows, aligns)
}

func transitionResult(item history.Transition) string {
	if item.Applied {
		return "applied"
	}
	if item.Error == "" {
		return "failed"
	}
	return "failed: " + item.Error
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func shortSession(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
