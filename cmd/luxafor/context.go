package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"luxafor/internal/config"
	"luxafor/internal/device"
	"luxafor/internal/history"
	"luxafor/internal/logging"
	"luxafor/internal/presence"
	"luxafor/internal/watchrun"
)

type commandContext struct {
	configFlag string
	logLevel   string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	// Overrides used by tests. Nil selects the real implementations.
	device device.Device
	source presence.Source
	exit   func(int)
	watch  watchrun.Options
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// cliLogger writes to a log file only so one-shot output stays one line per result.
func (c *commandContext) cliLogger(cfg *config.Config) *slog.Logger {
	path := filepath.Join(cfg.Paths.LogDir, "luxafor-cli.log")
	level := c.logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) openDevice(cfg *config.Config, logger *slog.Logger) (device.Device, func()) {
	if c.device != nil {
		return c.device, func() {}
	}
	lux := device.NewLuxafor(cfg, logger)
	return lux, func() { _ = lux.Close() }
}

func (c *commandContext) presenceSource(cfg *config.Config) presence.Source {
	if c.source != nil {
		return c.source
	}
	return presence.NewGSettings(cfg)
}

func (c *commandContext) openRecorder(cfg *config.Config, logger *slog.Logger) (history.Recorder, func()) {
	if !cfg.History.Enabled {
		return history.Discard{}, func() {}
	}
	store, err := history.Open(cfg)
	if err != nil {
		logger.Debug("history unavailable", logging.Error(err))
		return history.Discard{}, func() {}
	}
	return store, func() { _ = store.Close() }
}

func (c *commandContext) exitFunc() func(int) {
	if c.exit != nil {
		return c.exit
	}
	return os.Exit
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
