package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"luxafor/internal/color"
	"luxafor/internal/dispatch"
	"luxafor/internal/presence"
	"luxafor/internal/shutdown"
)

// runOneShot applies a single --set, --toggle or --color request. The flag is
// left showing the new colour; it is only switched off if the process faults.
func runOneShot(cmd *cobra.Command, ctx *commandContext, req dispatch.Request) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.cliLogger(cfg)

	dev, closeDevice := ctx.openDevice(cfg, logger)
	defer closeDevice()
	recorder, closeHistory := ctx.openRecorder(cfg, logger)
	defer closeHistory()

	coordinator := shutdown.New(shutdown.Options{
		Device:   dev,
		Recorder: recorder,
		Logger:   logger,
		Timeout:  cfg.OffTimeout(),
		Exit:     ctx.exitFunc(),
	})
	defer coordinator.Guard()

	var source presence.Source
	if req.Operation() == dispatch.OpToggle {
		source = ctx.presenceSource(cfg)
	}

	dispatcher := dispatch.New(dispatch.Options{
		Device:   dev,
		Source:   source,
		Recorder: recorder,
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
	})

	if _, err := dispatcher.Dispatch(cmd.Context(), req); err != nil {
		if errors.Is(err, color.ErrUnknownState) {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		}
		return err
	}
	return nil
}
