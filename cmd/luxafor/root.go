package main

import (
	"strings"

	"github.com/spf13/cobra"

	"luxafor/internal/color"
	"luxafor/internal/dispatch"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(&commandContext{})
}

func buildRootCommand(ctx *commandContext) *cobra.Command {
	var (
		setFlag    string
		toggleFlag bool
		colorFlag  string
		quietFlag  bool
	)

	rootCmd := &cobra.Command{
		Use:   "luxafor",
		Short: "Mirror desktop do-not-disturb on a Luxafor flag",
		Long: "Without flags luxafor watches the desktop do-not-disturb setting and shows\n" +
			"green while available and red while notifications are silenced. Type q and\n" +
			"press enter, or hit Ctrl-C, to stop; the flag is switched off on the way out.",
		Example:       "  luxafor\n  luxafor --set dnd\n  luxafor --toggle\n  luxafor --color ff8800",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dispatch.Request{
				Set:        setFlag,
				SetGiven:   cmd.Flags().Changed("set"),
				Toggle:     toggleFlag,
				Color:      colorFlag,
				ColorGiven: cmd.Flags().Changed("color"),
			}
			switch req.Operation() {
			case dispatch.OpHelp:
				return cmd.Help()
			case dispatch.OpWatch:
				return runWatch(cmd, ctx, quietFlag)
			default:
				return runOneShot(cmd, ctx, req)
			}
		},
	}

	states := make([]string, 0, len(color.States()))
	for _, s := range color.States() {
		states = append(states, string(s))
	}

	rootCmd.Flags().StringVar(&setFlag, "set", "", "Apply a named state ("+strings.Join(states, ", ")+") and exit")
	rootCmd.Flags().BoolVar(&toggleFlag, "toggle", false, "Flip between available and dnd based on the current setting and exit")
	rootCmd.Flags().StringVar(&colorFlag, "color", "", "Apply a hex colour such as ff8800 or #FF8800 and exit")
	rootCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Write watch logs to the log file only")
	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))

	return rootCmd
}
