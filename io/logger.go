package optio

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// LogLevel is the severity of a message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogFormat selects the per-level prefix.
type LogFormat int

const (
	LogFormatPlain   LogFormat = iota // no prefix
	LogFormatTagged                   // [INFO] [WARN] ...
	LogFormatSymbols                  // ◆ ✓ ▲ ✗ ●
	LogFormatCircles                  // 🔵 🟢 🟡 🔴 🟣
)

// Logger writes leveled, colorized messages through an IOManager. Warnings
// and errors go to the error stream unless ErrorsToStderr(false) is set.
type Logger struct {
	io           *IOManager
	format       LogFormat
	prefixes     map[LogLevel]string
	withTime     bool
	timeFormat   string
	errorsStderr bool
	theme        Theme
	minLevel     LogLevel
}

// NewLogger returns a plain-format logger whose theme matches m's color
// level.
func NewLogger(m *IOManager) *Logger {
	return &Logger{
		io:           m,
		format:       LogFormatPlain,
		prefixes:     map[LogLevel]string{},
		timeFormat:   "15:04:05",
		errorsStderr: true,
		theme:        DefaultTheme(m),
		minLevel:     LevelInfo,
	}
}

func prefixesFor(format LogFormat) map[LogLevel]string {
	switch format {
	case LogFormatTagged:
		return map[LogLevel]string{
			LevelDebug: "[DEBUG]", LevelInfo: "[INFO]", LevelSuccess: "[SUCCESS]",
			LevelWarning: "[WARN]", LevelError: "[ERROR]",
		}
	case LogFormatSymbols:
		return map[LogLevel]string{
			LevelDebug: "●", LevelInfo: "◆", LevelSuccess: "✓",
			LevelWarning: "▲", LevelError: "✗",
		}
	case LogFormatCircles:
		return map[LogLevel]string{
			LevelDebug: "🟣", LevelInfo: "🔵", LevelSuccess: "🟢",
			LevelWarning: "🟡", LevelError: "🔴",
		}
	default:
		return map[LogLevel]string{}
	}
}

// WithFormat switches the prefix set.
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	l.prefixes = prefixesFor(format)
	return l
}

// SetPrefix overrides the prefix of one level.
func (l *Logger) SetPrefix(level LogLevel, prefix string) *Logger {
	l.prefixes[level] = prefix
	return l
}

func (l *Logger) WithTimestamp(enabled bool) *Logger { l.withTime = enabled; return l }

// WithTimeFormat takes a time.Format layout.
func (l *Logger) WithTimeFormat(format string) *Logger { l.timeFormat = format; return l }

func (l *Logger) WithTheme(theme Theme) *Logger { l.theme = theme; return l }

// ErrorsToStderr controls whether warnings and errors use the error stream.
func (l *Logger) ErrorsToStderr(enabled bool) *Logger { l.errorsStderr = enabled; return l }

// MinLevel drops messages below level. Debug is hidden by default.
func (l *Logger) MinLevel(level LogLevel) *Logger { l.minLevel = level; return l }

// Log writes one message followed by a newline.
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	if level < l.minLevel {
		return
	}
	fmt.Fprintln(l.writer(level), l.formatMessage(level, fmt.Sprintf(format, args...)))
}

func (l *Logger) formatMessage(level LogLevel, msg string) string {
	if strings.TrimSpace(msg) == "" {
		return msg
	}
	parts := make([]string, 0, 3)
	if p := l.prefixes[level]; p != "" {
		parts = append(parts, p)
	}
	if l.withTime {
		stamp := time.Now().Format(l.timeFormat)
		if l.format != LogFormatPlain {
			stamp = "[" + stamp + "]"
		}
		parts = append(parts, stamp)
	}
	parts = append(parts, msg)
	return l.colorize(level, strings.Join(parts, " "))
}

func (l *Logger) colorize(level LogLevel, text string) string {
	var c ColorSpec
	switch level {
	case LevelDebug:
		c = l.theme.Debug
	case LevelInfo:
		c = l.theme.Info
	case LevelSuccess:
		c = l.theme.Success
	case LevelWarning:
		c = l.theme.Warning
	case LevelError:
		c = l.theme.Error
	default:
		return text
	}
	return NewStyle().Fg(c).Sprint(l.io, text)
}

func (l *Logger) writer(level LogLevel) io.Writer {
	if l.errorsStderr && level >= LevelWarning {
		return l.io.Err()
	}
	return l.io.Out()
}

func (l *Logger) Debug(format string, args ...any)   { l.Log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.Log(LevelInfo, format, args...) }
func (l *Logger) Success(format string, args ...any) { l.Log(LevelSuccess, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.Log(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.Log(LevelError, format, args...) }
