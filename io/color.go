package optio

import (
	"fmt"
	"strconv"
	"strings"
)

type colorKind uint8

const (
	kindBasic colorKind = iota + 1
	kindIndexed
	kindTrue
)

// ColorSpec is a color in the 16-color, 256-color or 24-bit space.
type ColorSpec struct {
	kind    colorKind
	index   int
	r, g, b uint8
}

// Basic colors: 0-7 normal, 8-15 bright.
var (
	Black   = basic(0)
	Red     = basic(1)
	Green   = basic(2)
	Yellow  = basic(3)
	Blue    = basic(4)
	Magenta = basic(5)
	Cyan    = basic(6)
	White   = basic(7)

	BrightBlack   = basic(8)
	BrightRed     = basic(9)
	BrightGreen   = basic(10)
	BrightYellow  = basic(11)
	BrightBlue    = basic(12)
	BrightMagenta = basic(13)
	BrightCyan    = basic(14)
	BrightWhite   = basic(15)
)

var (
	Orange      = Indexed(208)
	LightPurple = Indexed(141)
	Gray        = Indexed(244)
)

var (
	TrueGray         = Truecolor(128, 128, 128)
	TrueBrightRed    = Truecolor(255, 85, 85)
	TrueBrightGreen  = Truecolor(80, 250, 123)
	TrueBrightYellow = Truecolor(255, 184, 108)
	TrueBrightBlue   = Truecolor(92, 148, 252)
	TrueBrightCyan   = Truecolor(139, 233, 253)
	TrueLightPurple  = Truecolor(189, 147, 249)
)

func basic(i int) ColorSpec { return ColorSpec{kind: kindBasic, index: i} }

// Indexed returns a 256-color palette entry (0-255).
func Indexed(i int) ColorSpec { return ColorSpec{kind: kindIndexed, index: i} }

// Truecolor returns a 24-bit RGB color.
func Truecolor(r, g, b uint8) ColorSpec { return ColorSpec{kind: kindTrue, r: r, g: g, b: b} }

// Style is a fluent builder for colors and text attributes.
type Style struct {
	fg, bg                                  *ColorSpec
	bold, faint, italic, underline, inverse bool
}

func NewStyle() *Style                 { return &Style{} }
func (s *Style) Fg(c ColorSpec) *Style { s.fg = &c; return s }
func (s *Style) Bg(c ColorSpec) *Style { s.bg = &c; return s }
func (s *Style) Bold() *Style          { s.bold = true; return s }
func (s *Style) Faint() *Style         { s.faint = true; return s }
func (s *Style) Italic() *Style        { s.italic = true; return s }
func (s *Style) Underline() *Style     { s.underline = true; return s }
func (s *Style) Inverse() *Style       { s.inverse = true; return s }

// Sprint styles text when m supports color and returns it unchanged
// otherwise.
func (s *Style) Sprint(m *IOManager, text string) string {
	if !m.SupportsColor() {
		return text
	}
	seq := s.sgr(m.ColorLevel())
	if seq == "" {
		return text
	}
	return "\x1b[" + seq + "m" + text + "\x1b[0m"
}

// Sprintf formats and then styles.
func (s *Style) Sprintf(m *IOManager, format string, a ...any) string {
	return s.Sprint(m, fmt.Sprintf(format, a...))
}

func (s *Style) sgr(level int) string {
	codes := make([]string, 0, 7)
	for _, attr := range []struct {
		on   bool
		code string
	}{{s.bold, "1"}, {s.faint, "2"}, {s.italic, "3"}, {s.underline, "4"}, {s.inverse, "7"}} {
		if attr.on {
			codes = append(codes, attr.code)
		}
	}
	if s.fg != nil {
		if c := colorCode(*s.fg, false, level); c != "" {
			codes = append(codes, c)
		}
	}
	if s.bg != nil {
		if c := colorCode(*s.bg, true, level); c != "" {
			codes = append(codes, c)
		}
	}
	return strings.Join(codes, ";")
}

// colorCode renders c for the given level. Colors the terminal cannot show
// render as "" so the default color is kept.
func colorCode(c ColorSpec, bg bool, level int) string {
	base, ext := 30, "38"
	if bg {
		base, ext = 40, "48"
	}
	switch c.kind {
	case kindBasic:
		idx := min(max(c.index, 0), 15)
		if idx < 8 {
			return strconv.Itoa(base + idx)
		}
		return strconv.Itoa(base + 60 + idx - 8)
	case kindIndexed:
		if level >= 2 {
			return ext + ";5;" + strconv.Itoa(c.index)
		}
	case kindTrue:
		if level >= 3 {
			return fmt.Sprintf("%s;2;%d;%d;%d", ext, c.r, c.g, c.b)
		}
	}
	return ""
}

// Theme maps message roles to colors. Flag and Metavar color option
// strings in rendered help.
type Theme struct {
	Primary, Success, Warning, Error, Info, Debug, Muted ColorSpec
	Flag, Metavar                                        ColorSpec
}

func DefaultTheme16() Theme {
	return Theme{
		Primary: BrightBlue,
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,
		Debug:   BrightMagenta,
		Muted:   BrightBlack,
		Flag:    Cyan,
		Metavar: Yellow,
	}
}

func DefaultTheme256() Theme {
	t := DefaultTheme16()
	t.Debug = LightPurple
	t.Muted = Gray
	t.Metavar = Orange
	return t
}

func DefaultThemeTruecolor() Theme {
	return Theme{
		Primary: TrueBrightBlue,
		Success: TrueBrightGreen,
		Warning: TrueBrightYellow,
		Error:   TrueBrightRed,
		Info:    TrueBrightCyan,
		Debug:   TrueLightPurple,
		Muted:   TrueGray,
		Flag:    TrueBrightCyan,
		Metavar: TrueBrightYellow,
	}
}

// DefaultTheme picks the theme matching m's color level.
func DefaultTheme(m *IOManager) Theme {
	switch m.ColorLevel() {
	case 3:
		return DefaultThemeTruecolor()
	case 2:
		return DefaultTheme256()
	default:
		return DefaultTheme16()
	}
}
