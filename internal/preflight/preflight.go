package preflight

import (
	"context"

	"luxafor/internal/config"
	"luxafor/internal/presence"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the readiness checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, source presence.Source) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDevice(cfg),
	}
	if source != nil {
		results = append(results, CheckPresence(ctx, source))
	}
	return results
}
