// Package shutdown guarantees the indicator is switched off exactly once.
//
// Several triggers can race to end watch mode: a signal, the interactive quit
// command, a recovered panic, or the loop simply returning. Coordinator latches
// the first caller, which performs the device-off write; later callers block
// until that write has finished and then return without touching the device.
package shutdown
