package presence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"luxafor/internal/config"
)

const (
	defaultQueryTimeout = 5 * time.Second
	waitDelay           = 500 * time.Millisecond
)

// GSettings reads do-not-disturb from a gsettings boolean key. A value of
// "false" for show-banners means notifications are suppressed.
type GSettings struct {
	Command string
	Schema  string
	Key     string
	Timeout time.Duration
}

// NewGSettings builds a source from the presence configuration.
func NewGSettings(cfg *config.Config) *GSettings {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &GSettings{
		Command: cfg.Presence.Command,
		Schema:  cfg.Presence.Schema,
		Key:     cfg.Presence.Key,
		Timeout: cfg.QueryTimeout(),
	}
}

// Query runs "<command> get <schema> <key>" bounded by the configured timeout.
func (g *GSettings) Query(ctx context.Context) (State, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(queryCtx, g.Command, "get", g.Schema, g.Key)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := queryCtx.Err(); ctxErr != nil {
			err = ctxErr
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			err = fmt.Errorf("%w (%s)", err, detail)
		}
		return "", fmt.Errorf("%w: %s get %s %s: %w", ErrSourceUnavailable, g.Command, g.Schema, g.Key, err)
	}

	return ParseShowBanners(stdout.String()), nil
}

// ParseShowBanners interprets gsettings output. Anything other than "false"
// is treated as available so an odd desktop never forces the flag red.
func ParseShowBanners(output string) State {
	if strings.ToLower(strings.TrimSpace(output)) == "false" {
		return DND
	}
	return Available
}

// IsTimeout reports whether err came from an abandoned query.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
