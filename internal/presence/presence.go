package presence

import (
	"context"
	"errors"

	"luxafor/internal/color"
)

// ErrSourceUnavailable indicates the presence query could not be answered.
var ErrSourceUnavailable = errors.New("presence source unavailable")

// State is the external do-not-disturb signal.
type State string

const (
	Available State = "available"
	DND       State = "dnd"
)

// Logical returns the indicator state that displays s.
func (s State) Logical() color.State {
	if s == DND {
		return color.DND
	}
	return color.Available
}

// Toggled returns the opposite presence state.
func (s State) Toggled() State {
	if s == Available {
		return DND
	}
	return Available
}

func (s State) String() string { return string(s) }

// Source reports the current presence state.
type Source interface {
	Query(ctx context.Context) (State, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (State, error)

// Query calls f.
func (f SourceFunc) Query(ctx context.Context) (State, error) { return f(ctx) }
