package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateTimings(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDevice() error {
	if c.Device.VendorID == 0 {
		return errors.New("device.vendor_id must be set")
	}
	if c.Device.ProductID == 0 {
		return errors.New("device.product_id must be set")
	}
	if c.Device.Fade && c.Device.FadeSpeed == 0 {
		return errors.New("device.fade_speed must be positive when device.fade is true")
	}
	return nil
}

func (c *Config) validateTimings() error {
	return ensurePositiveMap(map[string]int{
		"watch.poll_interval_ms": c.Watch.PollIntervalMS,
		"presence.query_timeout": c.Presence.QueryTimeout,
		"device.off_timeout":     c.Device.OffTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
