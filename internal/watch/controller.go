package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"luxafor/internal/color"
	"luxafor/internal/device"
	"luxafor/internal/history"
	"luxafor/internal/logging"
	"luxafor/internal/presence"
)

const defaultInterval = 2 * time.Second

// Options configures a Controller.
type Options struct {
	Source    presence.Source
	Device    device.Device
	Recorder  history.Recorder
	Logger    *slog.Logger
	SessionID string
	// Interval between presence queries. Zero selects the default.
	Interval time.Duration
	// Signals delivers SIGINT/SIGTERM. Nil subscribes through signal.Notify
	// for the duration of Run.
	Signals <-chan os.Signal
	// Input is scanned for quit commands. Nil disables the quit reader.
	Input io.Reader
}

// Controller polls presence and mirrors it on the indicator.
type Controller struct {
	source    presence.Source
	device    device.Device
	recorder  history.Recorder
	logger    *slog.Logger
	sessionID string
	interval  time.Duration
	signals   <-chan os.Signal
	input     io.Reader

	running atomic.Bool

	mu   sync.Mutex
	last *presence.State
}

// New validates opts and builds a controller.
func New(opts Options) (*Controller, error) {
	if opts.Source == nil {
		return nil, errors.New("watch: presence source is required")
	}
	if opts.Device == nil {
		return nil, errors.New("watch: device is required")
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("watch: interval must be positive, got %s", opts.Interval)
	}
	interval := opts.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = history.Discard{}
	}
	return &Controller{
		source:    opts.Source,
		device:    opts.Device,
		recorder:  recorder,
		logger:    logging.NewComponentLogger(opts.Logger, "watch"),
		sessionID: opts.SessionID,
		interval:  interval,
		signals:   opts.Signals,
		input:     opts.Input,
	}, nil
}

// Running reports whether Run is in progress.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Last returns the most recently displayed presence state.
func (c *Controller) Last() (presence.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return "", false
	}
	return *c.last, true
}

// Run polls until a trigger fires or ctx is cancelled. Cancelling ctx ends
// the session with ReasonExit.
func (c *Controller) Run(ctx context.Context) Termination {
	if !c.running.CompareAndSwap(false, true) {
		return Termination{Reason: ReasonFault, ExitCode: 1, Err: ErrAlreadyRunning}
	}
	defer c.running.Store(false)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan event, 4)
	trigger := func(ev event) {
		select {
		case events <- ev:
		default:
		}
		cancel()
	}

	signals, stopSignals := c.signalSource()
	defer stopSignals()
	go c.watchSignals(loopCtx, signals, trigger)
	if c.input != nil {
		go c.readQuit(loopCtx, c.input, trigger)
	}

	c.logger.Info("watch started",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.Duration("interval", c.interval),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.tick(loopCtx, trigger)
	for {
		select {
		case ev := <-events:
			return c.finish(ev)
		case <-loopCtx.Done():
			select {
			case ev := <-events:
				return c.finish(ev)
			default:
			}
			return c.finish(event{reason: ReasonExit})
		case <-ticker.C:
			c.tick(loopCtx, trigger)
		}
	}
}

func (c *Controller) finish(ev event) Termination {
	term := ev.termination()
	var fault *FaultError
	if errors.As(term.Err, &fault) {
		logging.ErrorWithContext(c.logger, "watch loop fault", "watch_fault",
			logging.Error(term.Err),
			logging.String("stack", string(fault.Stack)),
			logging.String(logging.FieldErrorHint, "report this crash with the log file attached"),
		)
	}
	c.logger.Info("watch stopped",
		logging.String(logging.FieldEventType, "watch_stopped"),
		logging.String("reason", string(term.Reason)),
		logging.Int("exit_code", term.ExitCode),
	)
	return term
}

// tick runs one poll. A panic is converted into a fault trigger.
func (c *Controller) tick(ctx context.Context, trigger func(event)) {
	defer c.recoverFault(trigger)

	if ctx.Err() != nil {
		return
	}

	state, err := c.source.Query(ctx)
	if ctx.Err() != nil {
		// Stopping; an answer that arrives now is not applied.
		return
	}
	if err != nil {
		logging.WarnWithContext(c.logger, "presence query failed", "presence_query_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that gsettings works in this session"),
			logging.String(logging.FieldImpact, "indicator keeps its current colour until the next poll"),
		)
		return
	}

	c.mu.Lock()
	changed := c.last == nil || *c.last != state
	var previous string
	if c.last != nil {
		previous = c.last.String()
	}
	c.mu.Unlock()
	if !changed {
		return
	}

	logical := state.Logical()
	hex, err := color.MapState(logical)
	if err != nil {
		panic(err)
	}
	applyErr := c.device.ApplyColor(ctx, hex)
	if applyErr != nil && ctx.Err() != nil && errors.Is(applyErr, ctx.Err()) {
		return
	}

	c.mu.Lock()
	c.last = &state
	c.mu.Unlock()

	transition := history.Transition{
		SessionID: c.sessionID,
		Source:    history.SourceWatch,
		State:     string(logical),
		Color:     hex,
		Applied:   applyErr == nil,
	}
	if applyErr != nil {
		transition.Error = applyErr.Error()
		logging.WarnWithContext(c.logger, "failed to update indicator", "device_write_failed",
			logging.Error(applyErr),
			logging.String("state", state.String()),
			logging.String("color", hex.String()),
			logging.String(logging.FieldErrorHint, "check that the flag is plugged in and writable"),
			logging.String(logging.FieldImpact, "colour is restored when the flag reappears"),
		)
	} else {
		c.logger.Info("presence changed",
			logging.String(logging.FieldEventType, "presence_changed"),
			logging.String("from", previous),
			logging.String("to", state.String()),
			logging.String("color", hex.String()),
		)
	}
	if err := c.recorder.Record(ctx, transition); err != nil {
		c.logger.Debug("history record failed", logging.Error(err))
	}
}

func (c *Controller) watchSignals(ctx context.Context, signals <-chan os.Signal, trigger func(event)) {
	defer c.recoverFault(trigger)

	select {
	case <-ctx.Done():
	case sig, ok := <-signals:
		if !ok {
			return
		}
		reason := ReasonInterrupt
		if sig == syscall.SIGTERM {
			reason = ReasonTerminate
		}
		c.logger.Info("signal received",
			logging.String(logging.FieldEventType, "signal_received"),
			logging.String("signal", sig.String()),
		)
		trigger(event{reason: reason})
	}
}

func (c *Controller) signalSource() (<-chan os.Signal, func()) {
	if c.signals != nil {
		return c.signals, func() {}
	}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch, func() { signal.Stop(ch) }
}

func (c *Controller) recoverFault(trigger func(event)) {
	if r := recover(); r != nil {
		trigger(event{reason: ReasonFault, err: &FaultError{Value: r, Stack: debug.Stack()}})
	}
}
