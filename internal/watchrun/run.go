package watchrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"luxafor/internal/config"
	"luxafor/internal/device"
	"luxafor/internal/history"
	"luxafor/internal/logging"
	"luxafor/internal/presence"
	"luxafor/internal/shutdown"
	"luxafor/internal/watch"
)

// ErrAlreadyRunning is returned when another watch session holds the lock.
var ErrAlreadyRunning = errors.New("another luxafor watch session is running")

// Options overrides runtime collaborators. Zero values select the real ones.
type Options struct {
	LogLevel string
	// Quiet keeps log lines off stdout; the run log file is still written.
	Quiet   bool
	Device  device.Device
	Source  presence.Source
	Signals <-chan os.Signal
	// Input is scanned for quit commands. Nil uses stdin when it is a terminal.
	Input io.Reader
	Exit  func(code int)
}

// Result summarises a finished session.
type Result struct {
	SessionID   string
	LogPath     string
	Termination watch.Termination
	// OffErr is set when the final device-off write failed.
	OffErr error
}

// Run starts a watch session and blocks until it ends. The device is turned
// off before Run returns.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	if cfg == nil {
		return Result{}, fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return Result{}, fmt.Errorf("ensure directories: %w", err)
	}

	// Nothing under the log dir is touched until the lock is held.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to release watch lock: %v\n", err)
		}
	}()

	sessionID := uuid.NewString()
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("luxafor-%s.log", runID))
	result := Result{SessionID: sessionID, LogPath: logPath}

	outputs := []string{logPath}
	errOutputs := []string{logPath}
	if !opts.Quiet {
		outputs = append([]string{"stdout"}, outputs...)
		errOutputs = append([]string{"stderr"}, errOutputs...)
	}
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	})
	if err != nil {
		return result, fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update luxafor.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "luxafor-*.log", Exclude: []string{logPath}},
	)

	recorder, closeHistory := openHistory(ctx, cfg, logger)
	defer closeHistory()

	dev := opts.Device
	var lux *device.Luxafor
	if dev == nil {
		lux = device.NewLuxafor(cfg, logger)
		defer lux.Close()
		dev = lux
	}

	coordinator := shutdown.New(shutdown.Options{
		Device:    dev,
		Recorder:  recorder,
		Logger:    logger,
		SessionID: sessionID,
		Timeout:   cfg.OffTimeout(),
		Exit:      opts.Exit,
	})
	defer coordinator.Guard()

	if lux != nil && cfg.Device.Hotplug {
		monitor := device.NewHotplugMonitor(lux, cfg.Device.DevRoot, logger, coordinator.Fault)
		if err := monitor.Start(ctx); err == nil {
			defer monitor.Stop()
		}
	}

	signals := opts.Signals
	if signals == nil {
		ch := make(chan os.Signal, 2)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		signals = ch
	}

	source := opts.Source
	if source == nil {
		source = presence.NewGSettings(cfg)
	}

	input := opts.Input
	if input == nil && stdinInteractive() {
		input = os.Stdin
	}

	controller, err := watch.New(watch.Options{
		Source:    source,
		Device:    dev,
		Recorder:  recorder,
		Logger:    logger,
		SessionID: sessionID,
		Interval:  cfg.PollInterval(),
		Signals:   signals,
		Input:     input,
	})
	if err != nil {
		return result, err
	}

	logger.Info("luxafor watch starting",
		logging.String(logging.FieldEventType, "watch_session_started"),
		logging.String("log_path", logPath),
		logging.Bool("interactive", input != nil),
		logging.Bool("history", cfg.History.Enabled),
	)

	term := controller.Run(ctx)
	coordinator.Shutdown(string(term.Reason))
	result.Termination = term
	result.OffErr = coordinator.Err()

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "watch_session_finished"),
		logging.String("reason", coordinator.Reason()),
		logging.Int("exit_code", term.ExitCode),
		logging.Bool("device_off", result.OffErr == nil),
	}
	if last, ok := controller.Last(); ok {
		attrs = append(attrs, logging.String("last_state", last.String()))
	}
	logger.Info("luxafor watch finished", logging.Args(attrs...)...)
	return result, nil
}

func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (history.Recorder, func()) {
	if !cfg.History.Enabled {
		return history.Discard{}, func() {}
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.History.Path),
			logging.String(logging.FieldErrorHint, "delete the history database or set history.enabled = false"),
			logging.String(logging.FieldImpact, "transitions are not recorded this session"),
		)
		return history.Discard{}, func() {}
	}
	if removed, err := store.Prune(ctx, cfg.History.RetentionDays); err != nil {
		logger.Debug("history prune failed", logging.Error(err))
	} else if removed > 0 {
		logger.Info("pruned history",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int("removed", int(removed)),
		)
	}
	return store, func() { _ = store.Close() }
}

func stdinInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "luxafor.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
