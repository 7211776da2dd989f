// Package history persists indicator transitions in SQLite.
//
// Every colour the program applies (or fails to apply) is recorded with the
// session that produced it, so "luxafor history" can show when presence
// changed. Recording is best effort: callers log a failed insert and carry on.
package history
