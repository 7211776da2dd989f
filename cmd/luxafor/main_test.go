package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"luxafor/internal/color"
	"luxafor/internal/history"
	"luxafor/internal/presence"
	"luxafor/internal/testsupport"
	"luxafor/internal/watch"
	"luxafor/internal/watchrun"
)

func TestSetWritesStaticReport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath, "--set", "dnd")
	if err != nil {
		t.Fatalf("--set dnd: %v", err)
	}
	requireContains(t, out, "Luxafor → #FF0000")

	want := []byte{0x00, 0x01, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00}
	if got := readCapture(t, env.cfg); !bytes.Equal(got, want) {
		t.Fatalf("report = % x, want % x", got, want)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	entries := testsupport.Transitions(t, store)
	if len(entries) != 1 || entries[0].Source != history.SourceSet || entries[0].Color != color.Red || !entries[0].Applied {
		t.Fatalf("unexpected history: %+v", entries)
	}
}

func TestSetOffAppliesBlack(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistoryDisabled())

	out, _, err := runCLI(t, nil, env.configPath, "--set", "OFF")
	if err != nil {
		t.Fatalf("--set off: %v", err)
	}
	requireContains(t, out, "Luxafor → #000000")
	want := []byte{0x00, 0x01, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if got := readCapture(t, env.cfg); !bytes.Equal(got, want) {
		t.Fatalf("report = % x, want % x", got, want)
	}
}

func TestSetUnknownStateFails(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, nil, env.configPath, "--set", "purple")
	if !errors.Is(err, color.ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no stdout, got %q", out)
	}
	requireContains(t, stderr, "Usage:")
	if got := readCapture(t, env.cfg); len(got) != 0 {
		t.Fatalf("device written on invalid state: % x", got)
	}
	if code := reportError(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestColorLiteral(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath, "--color", "00ff00")
	if err != nil {
		t.Fatalf("--color: %v", err)
	}
	requireContains(t, out, "Luxafor → #00FF00")

	want := []byte{0x00, 0x01, 0xFF, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00}
	if got := readCapture(t, env.cfg); !bytes.Equal(got, want) {
		t.Fatalf("report = % x, want % x", got, want)
	}
}

func TestColorInvalidLiteral(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, nil, env.configPath, "--color", "#12345")
	if !errors.Is(err, color.ErrInvalidColorFormat) {
		t.Fatalf("expected ErrInvalidColorFormat, got %v", err)
	}
	if strings.Contains(stderr, "Usage:") {
		t.Fatalf("usage should not be printed for a bad colour: %q", stderr)
	}
}

func TestSetTakesPrecedenceOverToggleAndColor(t *testing.T) {
	env := setupCLITestEnv(t)
	dev := &testsupport.FakeDevice{}
	ctx := &commandContext{device: dev, source: testsupport.States(presence.DND)}

	out, _, err := runCLI(t, ctx, env.configPath, "--color", "0000ff", "--toggle", "--set", "on")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	requireContains(t, out, "Luxafor → #FFFFFF")
	if applied := dev.Applied(); len(applied) != 1 || applied[0] != color.White {
		t.Fatalf("applied = %v", applied)
	}
}

func TestToggleReadsPresenceCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPresence("false"))

	out, _, err := runCLI(t, nil, env.configPath, "--toggle")
	if err != nil {
		t.Fatalf("--toggle: %v", err)
	}
	requireContains(t, out, "Toggle: dnd → available")
	requireContains(t, out, "Luxafor → #00FF00")
}

func TestDeviceFailureIsNotFatal(t *testing.T) {
	env := setupCLITestEnv(t)
	dev := &testsupport.FakeDevice{}
	dev.FailApply(errors.New("unplugged"))

	_, stderr, err := runCLI(t, &commandContext{device: dev}, env.configPath, "--set", "available")
	if err != nil {
		t.Fatalf("device failure should not fail the command: %v", err)
	}
	requireContains(t, stderr, "error: unable to change colour")
}

func TestOneShotFaultTurnsDeviceOff(t *testing.T) {
	env := setupCLITestEnv(t)
	dev := &testsupport.FakeDevice{}
	exits := make(chan int, 1)
	source := presence.SourceFunc(func(context.Context) (presence.State, error) {
		panic("boom")
	})
	ctx := &commandContext{device: dev, source: source, exit: func(code int) { exits <- code }}

	_, _, _ = runCLI(t, ctx, env.configPath, "--toggle")

	select {
	case code := <-exits:
		if code != 1 {
			t.Fatalf("exit code = %d, want 1", code)
		}
	default:
		t.Fatal("expected exit to be requested")
	}
	if dev.OffCount() != 1 {
		t.Fatalf("TurnOff calls = %d, want 1", dev.OffCount())
	}
}

func TestWatchInterruptTurnsOff(t *testing.T) {
	env := setupCLITestEnv(t)
	dev := &testsupport.FakeDevice{}
	src := testsupport.States(presence.DND, presence.DND)
	signals := make(chan os.Signal, 1)
	ctx := &commandContext{
		device: dev,
		source: src,
		watch:  watchrun.Options{Signals: signals, Quiet: true, Input: strings.NewReader("")},
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := runCLI(t, ctx, env.configPath)
		done <- err
	}()

	select {
	case <-src.Exhausted():
	case <-time.After(5 * time.Second):
		t.Fatal("watch never polled")
	}
	signals <- syscall.SIGINT

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	if dev.OffCount() != 1 {
		t.Fatalf("TurnOff calls = %d, want 1", dev.OffCount())
	}
	if applied := dev.Applied(); len(applied) == 0 || applied[0] != color.Red {
		t.Fatalf("applied = %v", applied)
	}
}

func TestWatchFaultMapsExitCode(t *testing.T) {
	env := setupCLITestEnv(t)
	dev := &testsupport.FakeDevice{}
	src := testsupport.NewScriptedSource(testsupport.Step{Panic: "boom"})
	ctx := &commandContext{
		device: dev,
		source: src,
		watch:  watchrun.Options{Signals: make(chan os.Signal), Quiet: true, Input: strings.NewReader("")},
	}

	_, _, err := runCLI(t, ctx, env.configPath)
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	var fault *watch.FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected FaultError, got %v", err)
	}
	if dev.OffCount() != 1 {
		t.Fatalf("TurnOff calls = %d, want 1", dev.OffCount())
	}
}

func TestReportError(t *testing.T) {
	if code := reportError(&exitError{code: 3}); code != 3 {
		t.Fatalf("code = %d, want 3", code)
	}
	if code := reportError(context.Canceled); code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
}

func TestLogsCommandPrintsOneShotLog(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistoryDisabled())

	if _, _, err := runCLI(t, nil, env.configPath, "--set", "dnd"); err != nil {
		t.Fatalf("--set dnd: %v", err)
	}
	out, _, err := runCLI(t, nil, env.configPath, "logs", "--cli", "-n", "50")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "indicator updated")
}
