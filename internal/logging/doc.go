// Package logging assembles structured slog loggers and formatting helpers used
// across luxafor.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// provides helpers that enforce event_type, error_hint, and impact fields on
// warnings so device and presence failures read consistently. A no-op logger is
// available for tests and wiring code that cannot fail.
package logging
