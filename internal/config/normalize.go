package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDevice(); err != nil {
		return err
	}
	c.normalizePresence()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() error {
	var err error
	c.Device.Path = strings.TrimSpace(c.Device.Path)
	if c.Device.Path == "" {
		if value, ok := os.LookupEnv(deviceOverrideEnvVar); ok {
			c.Device.Path = strings.TrimSpace(value)
		}
	}
	if c.Device.Path, err = expandPath(c.Device.Path); err != nil {
		return fmt.Errorf("device.path: %w", err)
	}
	c.Device.SysfsRoot = strings.TrimSpace(c.Device.SysfsRoot)
	if c.Device.SysfsRoot == "" {
		c.Device.SysfsRoot = defaultSysfsRoot
	}
	c.Device.DevRoot = strings.TrimSpace(c.Device.DevRoot)
	if c.Device.DevRoot == "" {
		c.Device.DevRoot = defaultDevRoot
	}
	if c.Device.OffTimeout <= 0 {
		c.Device.OffTimeout = defaultOffTimeout
	}
	return nil
}

func (c *Config) normalizePresence() {
	c.Presence.Command = strings.TrimSpace(c.Presence.Command)
	if value, ok := os.LookupEnv(presenceCommandOverrideEnv); ok && strings.TrimSpace(value) != "" {
		c.Presence.Command = strings.TrimSpace(value)
	}
	if c.Presence.Command == "" {
		c.Presence.Command = defaultPresenceCommand
	}
	c.Presence.Schema = strings.TrimSpace(c.Presence.Schema)
	if c.Presence.Schema == "" {
		c.Presence.Schema = defaultPresenceSchema
	}
	c.Presence.Key = strings.TrimSpace(c.Presence.Key)
	if c.Presence.Key == "" {
		c.Presence.Key = defaultPresenceKey
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
