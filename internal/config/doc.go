// Package config loads, normalizes, and validates luxafor configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LUXAFOR_DEVICE. The Config type centralizes every knob the watch loop and the
// one-shot commands need, so device discovery, the presence query, and log
// routing are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
