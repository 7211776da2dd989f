package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"luxafor/internal/config"
	"luxafor/internal/presence"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDevice_Pinned(t *testing.T) {
	node := filepath.Join(t.TempDir(), "hidraw0")
	if err := os.WriteFile(node, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Device.Path = node

	result := CheckDevice(&cfg)
	if !result.Passed || !strings.Contains(result.Detail, node) {
		t.Fatalf("expected pinned node to pass, got %+v", result)
	}
}

func TestCheckDevice_NotFound(t *testing.T) {
	cfg := config.Default()
	cfg.Device.SysfsRoot = t.TempDir()
	cfg.Device.DevRoot = t.TempDir()

	result := CheckDevice(&cfg)
	if result.Passed || !strings.Contains(result.Detail, "04d8:f372") {
		t.Fatalf("expected not-found result, got %+v", result)
	}
}

func TestCheckPresence(t *testing.T) {
	ok := presence.SourceFunc(func(context.Context) (presence.State, error) { return presence.DND, nil })
	if result := CheckPresence(context.Background(), ok); !result.Passed || result.Detail != "dnd" {
		t.Fatalf("unexpected result %+v", result)
	}

	failing := presence.SourceFunc(func(context.Context) (presence.State, error) {
		return "", presence.ErrSourceUnavailable
	})
	if result := CheckPresence(context.Background(), failing); result.Passed {
		t.Fatalf("expected failure, got %+v", result)
	}

	slow := presence.SourceFunc(func(context.Context) (presence.State, error) { return "", context.DeadlineExceeded })
	if result := CheckPresence(context.Background(), slow); result.Detail != "query timed out" {
		t.Fatalf("expected timeout detail, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	if RunAll(context.Background(), nil, nil) != nil {
		t.Fatal("expected nil results for nil config")
	}

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Device.SysfsRoot = base
	cfg.Device.DevRoot = base

	results := RunAll(context.Background(), &cfg, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results without a presence source, got %d", len(results))
	}
	if !results[0].Passed || !results[1].Passed || results[2].Passed {
		t.Fatalf("unexpected results %+v", results)
	}
}
