package presence_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"luxafor/internal/color"
	"luxafor/internal/presence"
	"luxafor/internal/testsupport"
)

func newStubSource(t *testing.T, script string, timeout time.Duration) *presence.GSettings {
	t.Helper()
	stub := testsupport.WriteStub(t, t.TempDir(), "gsettings", script)
	return &presence.GSettings{
		Command: stub,
		Schema:  "org.gnome.desktop.notifications",
		Key:     "show-banners",
		Timeout: timeout,
	}
}

func TestGSettingsQuery(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   presence.State
	}{
		{name: "banners hidden means dnd", output: "false", want: presence.DND},
		{name: "banners shown means available", output: "true", want: presence.Available},
		{name: "unexpected output falls back to available", output: "'maybe'", want: presence.Available},
		{name: "case and whitespace ignored", output: "  FALSE  ", want: presence.DND},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := newStubSource(t, "#!/bin/sh\necho '"+tc.output+"'\n", time.Second)
			got, err := src.Query(context.Background())
			if err != nil {
				t.Fatalf("Query returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Query = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGSettingsPassesSchemaAndKey(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	stub := testsupport.WriteStub(t, dir, "gsettings", "#!/bin/sh\necho \"$@\" > '"+argsFile+"'\necho true\n")
	src := &presence.GSettings{Command: stub, Schema: "org.example", Key: "quiet", Timeout: time.Second}

	if _, err := src.Query(context.Background()); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got := strings.TrimSpace(testsupport.ReadFile(t, argsFile)); got != "get org.example quiet" {
		t.Fatalf("unexpected arguments %q", got)
	}
}

func TestGSettingsFailureIsSourceUnavailable(t *testing.T) {
	src := newStubSource(t, "#!/bin/sh\necho 'No such schema' >&2\nexit 1\n", time.Second)
	_, err := src.Query(context.Background())
	if !errors.Is(err, presence.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "No such schema") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}

func TestGSettingsMissingBinary(t *testing.T) {
	src := &presence.GSettings{Command: filepath.Join(t.TempDir(), "missing"), Schema: "s", Key: "k"}
	if _, err := src.Query(context.Background()); !errors.Is(err, presence.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestGSettingsTimeout(t *testing.T) {
	src := newStubSource(t, "#!/bin/sh\nexec sleep 5\n", 100*time.Millisecond)

	start := time.Now()
	_, err := src.Query(context.Background())
	if !errors.Is(err, presence.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if !presence.IsTimeout(err) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("query was not bounded: took %s", elapsed)
	}
}

func TestGSettingsHonoursCallerCancellation(t *testing.T) {
	src := newStubSource(t, "#!/bin/sh\nexec sleep 5\n", 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	if _, err := src.Query(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("cancellation not honoured: took %s", elapsed)
	}
}

func TestStateHelpers(t *testing.T) {
	if presence.DND.Logical() != color.DND || presence.Available.Logical() != color.Available {
		t.Fatal("unexpected logical mapping")
	}
	if presence.DND.Toggled() != presence.Available || presence.Available.Toggled() != presence.DND {
		t.Fatal("unexpected toggle mapping")
	}
}
