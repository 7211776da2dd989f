// Package color maps logical indicator states and user supplied hex literals
// to the normalized #RRGGBB values the device driver understands.
//
// Everything here is pure: no I/O, no logging. Callers resolve a Command before
// touching the device so malformed input never reaches the hardware.
package color
