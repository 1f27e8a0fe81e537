// Package optio centralizes the streams a Program writes to and what the
// attached terminal can do: size, color depth and interactivity.
package optio

import (
	stdio "io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// platform is implemented per OS in io_unix.go and io_windows.go.
type platform interface {
	enableVirtualTerminal() bool
	vtEnabled() bool
	colorCapabilityLevel() int // 0=none, 1=16, 2=256, 3=truecolor
}

// IOManager holds the program streams and terminal capabilities.
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	forceColor         bool
	noColor            bool
	forceColorLevel    int
	hasForceColorLevel bool

	p platform
}

// New returns a manager bound to process stdio.
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr, p: newPlatform()}
}

// WithIn sets the input reader.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor turns color on regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.forceColor = true; m.noColor = false; return m }

// NoColor turns color off regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.noColor = true; m.forceColor = false; return m }

// ColorAuto goes back to environment detection.
func (m *IOManager) ColorAuto() *IOManager { m.noColor = false; m.forceColor = false; return m }

// ForceColorLevel pins the color level (0=none, 1=16, 2=256, 3=truecolor).
func (m *IOManager) ForceColorLevel(level int) *IOManager {
	m.forceColorLevel = level
	m.hasForceColorLevel = true
	return m
}

func (m *IOManager) In() stdio.Reader  { return m.in }
func (m *IOManager) Out() stdio.Writer { return m.out }
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal.
func (m *IOManager) IsTTY() bool { return isTerminal(m.out) }

func (m *IOManager) IsInteractive() bool { return isTerminal(m.in) && os.Getenv("CI") == "" }
func (m *IOManager) IsPiped() bool       { return !isTerminal(m.in) }
func (m *IOManager) IsRedirected() bool  { return !isTerminal(m.out) }

// Width is the terminal width in columns, then $COLUMNS, then 80.
func (m *IOManager) Width() int {
	if w, _, ok := termSize(m.out); ok {
		return w
	}
	if w, _ := sizeFromEnv(); w > 0 {
		return w
	}
	return 80
}

// Height is the terminal height in rows, then $LINES, then 24.
func (m *IOManager) Height() int {
	if _, h, ok := termSize(m.out); ok {
		return h
	}
	if _, h := sizeFromEnv(); h > 0 {
		return h
	}
	return 24
}

// SupportsColor honors NoColor/ForceColor, then NO_COLOR and FORCE_COLOR,
// then requires a terminal with a usable TERM.
func (m *IOManager) SupportsColor() bool {
	if m.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if m.forceColor || os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if goos() == "windows" {
		return m.p.vtEnabled()
	}
	if !m.IsTTY() {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// ColorLevel returns 0 for none, 1 for 16 colors, 2 for 256 and 3 for
// truecolor.
func (m *IOManager) ColorLevel() int {
	if m.hasForceColorLevel {
		return m.forceColorLevel
	}
	if !m.SupportsColor() {
		return 0
	}
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return 3
	}
	t := os.Getenv("TERM")
	if strings.Contains(t, "truecolor") || strings.Contains(t, "24bit") {
		return 3
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "vscode", "zed":
		return 3
	}
	if goos() == "windows" {
		if os.Getenv("WT_SESSION") != "" || os.Getenv("WT_PROFILE_ID") != "" || os.Getenv("ConEmuANSI") == "ON" {
			return 3
		}
		if m.p.vtEnabled() {
			return 3
		}
		if m.IsTTY() {
			return 2
		}
	}
	if strings.Contains(t, "256color") {
		return 2
	}
	if level := m.p.colorCapabilityLevel(); level > 0 {
		return level
	}
	return 1
}

// EnableVirtualTerminal turns on ANSI processing for Windows consoles. It is
// a no-op elsewhere.
func (m *IOManager) EnableVirtualTerminal() bool { return m.p.enableVirtualTerminal() }

// Colorize wraps s in the SGR code and a reset when color is supported.
func (m *IOManager) Colorize(s, code string) string {
	if !m.SupportsColor() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (m *IOManager) Bold(s string) string      { return m.Colorize(s, "1") }
func (m *IOManager) Faint(s string) string     { return m.Colorize(s, "2") }
func (m *IOManager) Italic(s string) string    { return m.Colorize(s, "3") }
func (m *IOManager) Underline(s string) string { return m.Colorize(s, "4") }

type fder interface{ Fd() uintptr }

func isTerminal(v any) bool {
	f, ok := v.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

func termSize(v any) (width, height int, ok bool) {
	f, isFile := v.(fder)
	if !isFile {
		return 0, 0, false
	}
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func sizeFromEnv() (width, height int) {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		width = n
	}
	if n, err := strconv.Atoi(os.Getenv("LINES")); err == nil && n > 0 {
		height = n
	}
	return width, height
}

func goos() string {
	if v := os.Getenv("OPTPARSE_GOOS"); v != "" {
		return v
	}
	return runtime.GOOS
}
