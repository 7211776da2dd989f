// Package logs reads luxafor log files for the CLI.
//
// Last returns the final lines of a file with bounded memory. Follow polls
// the file from an offset and emits new lines until its context ends, which
// is how `luxafor logs --follow` watches a running session.
package logs
