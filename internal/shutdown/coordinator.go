package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"luxafor/internal/color"
	"luxafor/internal/device"
	"luxafor/internal/history"
	"luxafor/internal/logging"
)

const defaultOffTimeout = 2 * time.Second

// ReasonFault is used when Guard recovers a panic.
const ReasonFault = "fault"

// Options configures a Coordinator.
type Options struct {
	Device    device.Switch
	Recorder  history.Recorder
	Logger    *slog.Logger
	SessionID string
	// Timeout bounds the device-off write.
	Timeout time.Duration
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

// Coordinator runs the turn-off sequence at most once per process.
type Coordinator struct {
	device    device.Switch
	recorder  history.Recorder
	logger    *slog.Logger
	sessionID string
	timeout   time.Duration
	exit      func(int)

	fired atomic.Bool
	done  chan struct{}

	mu     sync.Mutex
	reason string
	offErr error
}

// New builds a coordinator around opts.Device.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		device:    opts.Device,
		recorder:  opts.Recorder,
		logger:    logging.NewComponentLogger(opts.Logger, "shutdown"),
		sessionID: opts.SessionID,
		timeout:   opts.Timeout,
		exit:      opts.Exit,
		done:      make(chan struct{}),
	}
	if c.recorder == nil {
		c.recorder = history.Discard{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultOffTimeout
	}
	if c.exit == nil {
		c.exit = os.Exit
	}
	return c
}

// Shutdown turns the device off if no other caller has. It reports whether
// this call won the latch. Losing callers return only after the winner's
// device-off attempt has completed.
func (c *Coordinator) Shutdown(reason string) bool {
	if !c.fired.CompareAndSwap(false, true) {
		<-c.done
		return false
	}
	defer close(c.done)

	c.mu.Lock()
	c.reason = reason
	c.mu.Unlock()

	c.logger.Info("shutting down",
		logging.String(logging.FieldEventType, "shutdown_started"),
		logging.String("reason", reason),
	)

	err := c.turnOff()

	c.mu.Lock()
	c.offErr = err
	c.mu.Unlock()

	transition := history.Transition{
		SessionID: c.sessionID,
		Source:    history.SourceShutdown,
		State:     string(color.Off),
		Color:     color.Black,
		Applied:   err == nil,
	}
	if err != nil {
		transition.Error = err.Error()
		logging.WarnWithContext(c.logger, "failed to turn indicator off", "shutdown_device_off_failed",
			logging.Error(err),
			logging.String("reason", reason),
			logging.String(logging.FieldErrorHint, "check that the flag is plugged in and writable"),
			logging.String(logging.FieldImpact, "indicator may keep showing the last colour"),
		)
	} else {
		c.logger.Info("indicator turned off",
			logging.String(logging.FieldEventType, "shutdown_device_off"),
			logging.String("reason", reason),
		)
	}

	recordCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if recErr := c.recorder.Record(recordCtx, transition); recErr != nil {
		c.logger.Debug("history record failed", logging.Error(recErr))
	}
	return true
}

// RequestShutdown runs Shutdown and then exits with code.
func (c *Coordinator) RequestShutdown(reason string, code int) {
	c.Shutdown(reason)
	c.exit(code)
}

// Guard recovers a panic in the calling goroutine and hands it to Fault. It
// must be invoked directly by defer.
func (c *Coordinator) Guard() {
	if r := recover(); r != nil {
		c.Fault(r)
	}
}

// Fault logs value as an uncaught fault, turns the device off, and exits with
// code 1. Goroutines that recover their own panics report them here.
func (c *Coordinator) Fault(value any) {
	logging.ErrorWithContext(c.logger, "unexpected fault", "uncaught_fault",
		logging.String("panic", fmt.Sprint(value)),
		logging.String("stack", string(debug.Stack())),
		logging.String(logging.FieldErrorHint, "report this crash with the log file attached"),
	)
	c.RequestShutdown(ReasonFault, 1)
}

// Fired reports whether a shutdown has started.
func (c *Coordinator) Fired() bool {
	return c.fired.Load()
}

// Reason returns the reason passed by the winning caller.
func (c *Coordinator) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Err returns the device-off failure, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offErr
}

func (c *Coordinator) turnOff() error {
	if c.device == nil {
		return errors.New("no device configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("%w: turn off panicked: %v", device.ErrDeviceUnavailable, r)
			}
		}()
		result <- c.device.TurnOff(ctx)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: turn off: %w", device.ErrDeviceUnavailable, ctx.Err())
	}
}
