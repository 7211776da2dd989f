package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"luxafor/internal/deps"
	"luxafor/internal/preflight"
	"luxafor/internal/presence"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// presenceLabel turns a presence state into a display label, e.g. "Do Not Disturb".
func presenceLabel(state presence.State) string {
	caser := cases.Title(language.English)
	switch state {
	case presence.DND:
		return caser.String("do not disturb")
	case "":
		return "Unknown"
	default:
		return caser.String(strings.ReplaceAll(state.String(), "_", " "))
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	if len(statuses) == 0 {
		return []string{renderStatusLine("Summary", statusInfo, "no external commands required", colorize)}
	}

	missingRequired := 0
	missingOptional := 0
	for _, s := range statuses {
		if s.Available {
			continue
		}
		if s.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	lines := make([]string, 0, len(statuses)+1)
	switch {
	case missingRequired > 0:
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required missing", missingRequired), colorize))
	case missingOptional > 0:
		lines = append(lines, renderStatusLine("Summary", statusWarn, fmt.Sprintf("%d optional missing", missingOptional), colorize))
	default:
		lines = append(lines, renderStatusLine("Summary", statusOK, "all available", colorize))
	}

	for _, s := range statuses {
		switch {
		case s.Available:
			lines = append(lines, renderStatusLine(s.Name, statusOK, fmt.Sprintf("Ready (command: %s)", s.Command), colorize))
		case s.Optional:
			lines = append(lines, renderStatusLine(s.Name, statusWarn, dependencyDetail(s), colorize))
		default:
			lines = append(lines, renderStatusLine(s.Name, statusError, dependencyDetail(s), colorize))
		}
	}
	return lines
}

func dependencyDetail(s deps.Status) string {
	if s.Detail != "" {
		return s.Detail
	}
	return "not available"
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusError
		if r.Passed {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
