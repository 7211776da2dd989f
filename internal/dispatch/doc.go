// Package dispatch runs the one-shot commands: set, toggle, and color.
//
// Request captures the parsed command line and Operation picks the single
// action to run. Validation failures (unknown state, malformed colour) are
// returned as errors before the device is touched. Device failures are
// reported to the user and logged but never fail the command.
package dispatch
