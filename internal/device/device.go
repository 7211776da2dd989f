package device

import (
	"context"
	"errors"

	"luxafor/internal/color"
)

// ErrDeviceUnavailable indicates the indicator could not be updated.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Device applies colors to the indicator.
type Device interface {
	ApplyColor(ctx context.Context, hex color.Hex) error
	TurnOff(ctx context.Context) error
}

// Switch is the subset of Device needed to turn the indicator off.
type Switch interface {
	TurnOff(ctx context.Context) error
}
