package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyreel/internal/clip"
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
	statusLabelWidth = 16
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.English)

// kindStyles is indexed by statusKind.
var kindStyles = [...]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func (k statusKind) style() (label, color string) {
	if int(k) < 0 || int(k) >= len(kindStyles) {
		return "INFO", ""
	}
	return kindStyles[k].label, kindStyles[k].color
}

// renderStatusLine renders "  Label:           [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	kindLabel, color := kind.style()
	var b strings.Builder
	fmt.Fprintf(&b, "%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", kindLabel)
	if message != "" {
		b.WriteString(" " + message)
	}
	return paint(b.String(), color, colorize)
}

func paint(text, color string, colorize bool) string {
	if !colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(line, ansiBlue, colorize),
		paint(strings.Repeat("-", len(line)), ansiBlue, colorize),
	}
}

// clipStatusKind maps a clip status to a display severity.
func clipStatusKind(status clip.Status) statusKind {
	switch status {
	case clip.StatusResolved:
		return statusOK
	case clip.StatusError:
		return statusError
	case clip.StatusProcessing:
		return statusWarn
	default:
		return statusInfo
	}
}

// clipStatusLabel renders a status as a title-cased word, colored when the
// output is a terminal.
func clipStatusLabel(status clip.Status, colorize bool) string {
	_, color := clipStatusKind(status).style()
	return paint(titleCaser.String(string(status)), color, colorize)
}

// shouldColorize is true only for terminal output.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// truncate collapses whitespace and cuts value to limit runes with an
// ellipsis. A non-positive limit disables truncation.
func truncate(value string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(value), " "))
	switch {
	case limit <= 0 || len(runes) <= limit:
		return string(runes)
	case limit <= 3:
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
