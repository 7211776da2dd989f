package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"luxafor/internal/watchrun"
)

func runWatch(cmd *cobra.Command, ctx *commandContext, quiet bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	opts := ctx.watch
	opts.LogLevel = ctx.logLevel
	opts.Quiet = opts.Quiet || quiet
	if opts.Device == nil {
		opts.Device = ctx.device
	}
	if opts.Source == nil {
		opts.Source = ctx.source
	}
	if opts.Exit == nil {
		opts.Exit = ctx.exit
	}

	result, err := watchrun.Run(cmd.Context(), cfg, opts)
	if err != nil {
		return err
	}
	if result.OffErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: unable to switch the flag off: %v\n", result.OffErr)
	}
	if code := result.Termination.ExitCode; code != 0 {
		return &exitError{code: code, err: result.Termination.Err}
	}
	return nil
}
