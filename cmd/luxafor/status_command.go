package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"luxafor/internal/history"
	"luxafor/internal/preflight"
	"luxafor/internal/presence"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report device, presence, and dependency readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			lines = append(lines, renderStatusLine("Config", statusInfo, configPath, colorize))
			lines = append(lines, renderStatusLine("Poll interval", statusInfo, cfg.PollInterval().String(), colorize))
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)
			lines = append(lines, "")

			source := ctx.presenceSource(cfg)
			results := preflight.RunAll(cmd.Context(), cfg, source)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(results, colorize)...)
			for _, r := range results {
				if r.Name == "Presence" && r.Passed {
					lines = append(lines, renderStatusLine("Desktop", statusInfo, presenceLabel(presence.State(r.Detail)), colorize))
				}
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("History", colorize)...)
			lines = append(lines, historyLine(cmd, cfg.History.Enabled, ctx, colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func historyLine(cmd *cobra.Command, enabled bool, ctx *commandContext, colorize bool) string {
	if !enabled {
		return renderStatusLine("Last transition", statusInfo, "history disabled", colorize)
	}
	store, err := history.Open(ctx.config)
	if err != nil {
		return renderStatusLine("Last transition", statusWarn, err.Error(), colorize)
	}
	defer store.Close()

	latest, err := store.Latest(cmd.Context())
	if err != nil {
		return renderStatusLine("Last transition", statusWarn, err.Error(), colorize)
	}
	if latest == nil {
		return renderStatusLine("Last transition", statusInfo, "none recorded", colorize)
	}
	kind := statusOK
	if !latest.Applied {
		kind = statusWarn
	}
	msg := fmt.Sprintf("%s %s via %s at %s", latest.State, latest.Color, latest.Source, formatTimestamp(latest.CreatedAt))
	return renderStatusLine("Last transition", kind, msg, colorize)
}
