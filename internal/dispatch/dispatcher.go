package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"luxafor/internal/color"
	"luxafor/internal/device"
	"luxafor/internal/history"
	"luxafor/internal/logging"
	"luxafor/internal/presence"
)

// Options configures a Dispatcher.
type Options struct {
	Device   device.Device
	Source   presence.Source
	Recorder history.Recorder
	Logger   *slog.Logger
	// Out receives confirmation lines; Err receives diagnostics.
	Out io.Writer
	Err io.Writer
}

// Dispatcher executes one-shot commands against the device.
type Dispatcher struct {
	device   device.Device
	source   presence.Source
	recorder history.Recorder
	logger   *slog.Logger
	out      io.Writer
	errOut   io.Writer
}

// New builds a dispatcher. Missing writers discard output.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		device:   opts.Device,
		source:   opts.Source,
		recorder: opts.Recorder,
		logger:   logging.NewComponentLogger(opts.Logger, "dispatch"),
		out:      opts.Out,
		errOut:   opts.Err,
	}
	if d.recorder == nil {
		d.recorder = history.Discard{}
	}
	if d.out == nil {
		d.out = io.Discard
	}
	if d.errOut == nil {
		d.errOut = io.Discard
	}
	return d
}

// Dispatch runs the one-shot operation selected by req. Help and watch are
// returned untouched for the caller to handle.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Operation, error) {
	op := req.Operation()
	switch op {
	case OpSet:
		return op, d.Set(ctx, req.Set)
	case OpToggle:
		return op, d.Toggle(ctx)
	case OpColor:
		return op, d.Color(ctx, req.Color)
	default:
		return op, nil
	}
}

// Set applies a named logical state. An unknown name returns
// color.ErrUnknownState without touching the device.
func (d *Dispatcher) Set(ctx context.Context, name string) error {
	state, err := color.ParseState(name)
	if err != nil {
		return err
	}
	return d.run(ctx, history.SourceSet, color.StateCommand(state))
}

// Color applies an explicit hex literal. A malformed literal returns
// color.ErrInvalidColorFormat without touching the device.
func (d *Dispatcher) Color(ctx context.Context, literal string) error {
	cmd := color.LiteralCommand(literal)
	if _, err := cmd.Resolve(); err != nil {
		return err
	}
	return d.run(ctx, history.SourceColor, cmd)
}

// Toggle flips between available and dnd based on the current presence. When
// presence cannot be read the current state is taken to be available.
func (d *Dispatcher) Toggle(ctx context.Context) error {
	current := presence.Available
	if d.source != nil {
		state, err := d.source.Query(ctx)
		if err != nil {
			logging.WarnWithContext(d.logger, "presence query failed; assuming available", "presence_query_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that gsettings works in this session"),
				logging.String(logging.FieldImpact, "toggle switches to dnd"),
			)
		} else {
			current = state
		}
	}
	next := current.Toggled()

	fmt.Fprintf(d.out, "Toggle: %s → %s\n", current, next)
	d.logger.Info("toggle",
		logging.String(logging.FieldEventType, "toggle"),
		logging.String("from", current.String()),
		logging.String("to", next.String()),
	)
	return d.run(ctx, history.SourceToggle, color.StateCommand(next.Logical()))
}

// run resolves cmd and applies it. Only resolution errors are returned.
func (d *Dispatcher) run(ctx context.Context, source history.Source, cmd color.Command) error {
	hex, err := cmd.Resolve()
	if err != nil {
		return err
	}

	transition := history.Transition{
		Source: source,
		State:  cmd.Label(),
		Color:  hex,
	}

	if applyErr := d.apply(ctx, hex); applyErr != nil {
		transition.Error = applyErr.Error()
		fmt.Fprintf(d.errOut, "error: unable to change colour: %v\n", applyErr)
		logging.WarnWithContext(d.logger, "failed to update indicator", "device_write_failed",
			logging.Error(applyErr),
			logging.String("command", string(source)),
			logging.String("color", hex.String()),
			logging.String(logging.FieldErrorHint, "check that the flag is plugged in and writable"),
			logging.String(logging.FieldImpact, "indicator colour unchanged"),
		)
	} else {
		transition.Applied = true
		fmt.Fprintf(d.out, "Luxafor → %s\n", hex)
		d.logger.Info("indicator updated",
			logging.String(logging.FieldEventType, "color_applied"),
			logging.String("command", string(source)),
			logging.String("state", cmd.Label()),
			logging.String("color", hex.String()),
		)
	}

	if err := d.recorder.Record(ctx, transition); err != nil {
		d.logger.Debug("history record failed", logging.Error(err))
	}
	return nil
}

func (d *Dispatcher) apply(ctx context.Context, hex color.Hex) error {
	if d.device == nil {
		return fmt.Errorf("%w: no device configured", device.ErrDeviceUnavailable)
	}
	return d.device.ApplyColor(ctx, hex)
}
