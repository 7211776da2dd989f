package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"luxafor/internal/color"
	"luxafor/internal/config"
	"luxafor/internal/logging"
)

// Luxafor drives the flag through its hidraw node. The node is opened lazily
// and reopened after any write failure, so an unplugged flag recovers on the
// next command without restarting the process.
type Luxafor struct {
	pinned    string
	sysfsRoot string
	devRoot   string
	vendor    uint16
	product   uint16
	fade      bool
	fadeSpeed uint8
	logger    *slog.Logger

	mu       sync.Mutex
	file     *os.File
	openPath string
	last     color.Hex
}

// NewLuxafor builds a driver from the device configuration. No I/O happens
// until the first command.
func NewLuxafor(cfg *config.Config, logger *slog.Logger) *Luxafor {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &Luxafor{
		pinned:    strings.TrimSpace(cfg.Device.Path),
		sysfsRoot: cfg.Device.SysfsRoot,
		devRoot:   cfg.Device.DevRoot,
		vendor:    cfg.Device.VendorID,
		product:   cfg.Device.ProductID,
		fade:      cfg.Device.Fade,
		fadeSpeed: cfg.Device.FadeSpeed,
		logger:    logging.NewComponentLogger(logger, "device"),
	}
}

// ApplyColor sets both LEDs to hex.
func (l *Luxafor) ApplyColor(ctx context.Context, hex color.Hex) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = hex
	return l.writeLocked(encodeReport(hex, l.fade, l.fadeSpeed))
}

// TurnOff darkens the flag. Off never fades so shutdown is immediate.
func (l *Luxafor) TurnOff(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = color.Black
	return l.writeLocked(encodeReport(color.Black, false, 0))
}

// Path returns the hidraw node currently open, if any.
func (l *Luxafor) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.openPath
}

// Last returns the most recently requested color.
func (l *Luxafor) Last() (color.Hex, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.last != ""
}

// Invalidate drops the open handle when devname is the node in use. An empty
// devname always drops it.
func (l *Luxafor) Invalidate(devname string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return false
	}
	if devname != "" && devname != l.openPath {
		return false
	}
	l.logger.Info("device detached",
		logging.String(logging.FieldEventType, "device_detached"),
		logging.String("path", l.openPath),
	)
	l.closeLocked()
	return true
}

// Reattach reopens the flag and restores the last requested color. It is a
// no-op when a handle is already open or nothing has been requested yet.
func (l *Luxafor) Reattach(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil || l.last == "" {
		return nil
	}
	fade := l.fade && l.last != color.Black
	if err := l.writeLocked(encodeReport(l.last, fade, l.fadeSpeed)); err != nil {
		return err
	}
	l.logger.Info("device reattached",
		logging.String(logging.FieldEventType, "device_reattached"),
		logging.String("path", l.openPath),
		logging.String("color", l.last.String()),
	)
	return nil
}

// Close releases the hidraw handle.
func (l *Luxafor) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.openPath = ""
	return err
}

func (l *Luxafor) writeLocked(report [reportSize]byte) error {
	if err := l.openLocked(); err != nil {
		return err
	}
	n, err := l.file.Write(report[:])
	if err == nil && n != len(report) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(report))
	}
	if err != nil {
		path := l.openPath
		l.closeLocked()
		return fmt.Errorf("%w: write %s: %w", ErrDeviceUnavailable, path, err)
	}
	return nil
}

func (l *Luxafor) openLocked() error {
	if l.file != nil {
		return nil
	}
	path := l.pinned
	if path == "" {
		discovered, err := Discover(l.sysfsRoot, l.devRoot, l.vendor, l.product)
		if err != nil {
			return err
		}
		path = discovered
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: open %s: %w (check udev permissions for hidraw)", ErrDeviceUnavailable, path, err)
		}
		return fmt.Errorf("%w: open %s: %w", ErrDeviceUnavailable, path, err)
	}
	if err := verifyHidraw(file, l.vendor, l.product); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	l.file = file
	l.openPath = path
	l.logger.Debug("device opened", logging.String("path", path))
	return nil
}

func (l *Luxafor) closeLocked() {
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = nil
	l.openPath = ""
}
