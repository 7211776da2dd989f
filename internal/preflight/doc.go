// Package preflight provides readiness checks used by "luxafor status".
//
// Each check returns a Result with a short human-readable detail. Checks never
// modify state: the device check only inspects permissions and the presence
// check performs a single bounded query.
package preflight
