package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"luxafor/internal/config"
	"luxafor/internal/deps"
	"luxafor/internal/device"
	"luxafor/internal/presence"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDevice locates the flag and verifies the node is writable.
func CheckDevice(cfg *config.Config) Result {
	const name = "Luxafor flag"

	path := strings.TrimSpace(cfg.Device.Path)
	if path == "" {
		discovered, err := device.Discover(cfg.Device.SysfsRoot, cfg.Device.DevRoot, cfg.Device.VendorID, cfg.Device.ProductID)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("not found (%04x:%04x)", cfg.Device.VendorID, cfg.Device.ProductID)}
		}
		path = discovered
	}
	if _, err := os.Stat(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable, add a udev rule for hidraw: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckPresence performs one presence query.
func CheckPresence(ctx context.Context, source presence.Source) Result {
	const name = "Presence"

	state, err := source.Query(ctx)
	if err != nil {
		if presence.IsTimeout(err) {
			return Result{Name: name, Detail: "query timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return Result{Name: name, Detail: "query cancelled"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: state.String()}
}

// CheckSystemDeps evaluates the external binaries required by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
