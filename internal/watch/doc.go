// Package watch keeps the indicator in sync with presence.
//
// Controller polls a presence source on a fixed interval and writes a colour
// only when the state changes. It owns a single event loop: signal, quit, and
// fault triggers are funnelled through one channel and each also cancels the
// loop context, so an in-flight presence query is abandoned immediately. Run
// returns a Termination describing why the loop ended; turning the device off
// is left to the shutdown coordinator.
package watch
