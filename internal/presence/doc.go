// Package presence reports the desktop do-not-disturb state.
//
// Source is the capability the watch loop and the toggle command consume.
// GSettings implements it by asking GNOME whether notification banners are
// shown; banners hidden means do-not-disturb. Every failure is reported as
// ErrSourceUnavailable so callers can substitute a safe default.
package presence
