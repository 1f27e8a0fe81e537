// Package middleware wraps the action a Program runs after a successful
// parse: request logging, panic recovery, timeouts and validation.
package middleware

import (
	"context"
	"fmt"
	"time"
)

// Context is the view of a finished parse that middleware may use. It is
// implemented by *optparse.Context; middleware only depends on this
// interface so the two packages do not import each other.
type Context interface {
	// Context returns the context.Context the run was started with.
	Context() context.Context

	// Done is closed when the run is canceled or times out.
	Done() <-chan struct{}

	// Cancel cancels the run. It is idempotent.
	Cancel()

	// Args returns the leftover positional arguments. Treat as read-only.
	Args() []string

	// Set and Get carry metadata between middleware. Keys should be
	// namespaced, e.g. "logger.start".
	Set(key string, value any)
	Get(key string) any

	// Lookup returns the parsed value stored under dest.
	Lookup(dest string) (any, bool)

	// Keys lists every destination present in the parse, sorted.
	Keys() []string

	String(dest string) (string, bool)
	Int(dest string) (int, bool)
	Float(dest string) (float64, bool)
	Bool(dest string) (bool, bool)
	Strings(dest string) ([]string, bool)

	// Program describes the running program for log lines and errors.
	Program() Program
}

// Program is satisfied by *optparse.Program.
type Program interface {
	Name() string
	Description() string
}

// ActionFunc is the work a Program does once its arguments are parsed.
type ActionFunc func(ctx Context) error

// Middleware decorates an ActionFunc.
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain is an ordered list of middleware.
type MiddlewareChain []Middleware

// Apply wraps action so the first middleware in the chain runs outermost.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns the chain with middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	return append(chain, middleware...)
}

// Chain builds a chain, preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// ValidationError reports a failed validator. Field is the destination (or
// validator name) that failed.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// TimeoutError is returned when an action outlives its deadline.
type TimeoutError struct {
	Duration time.Duration
	Program  string
}

func (e *TimeoutError) Error() string {
	return e.Program + ": timed out after " + e.Duration.String()
}

// RecoveryError carries a recovered panic.
type RecoveryError struct {
	Panic   any
	Program string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return e.Program + ": panic: " + fmt.Sprint(e.Panic)
}

// Unwrap exposes the panic value when it was an error.
func (e *RecoveryError) Unwrap() error {
	err, _ := e.Panic.(error)
	return err
}

// MiddlewareConfig is shared by the constructors that take options.
type MiddlewareConfig struct {
	LogLevel         LogLevel
	LogFormat        LogFormat
	IncludeArgs      bool
	IncludeValues    bool
	PrintStack       bool
	StackSize        int
	DefaultTimeout   time.Duration
	CustomValidators map[string]ValidatorFunc
}

// LogLevel controls which run outcomes the logger reports.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogFormat is the line format of the logger.
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// MiddlewareOption mutates a MiddlewareConfig.
type MiddlewareOption func(config *MiddlewareConfig)

func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:         LogLevelInfo,
		LogFormat:        LogFormatText,
		IncludeArgs:      true,
		PrintStack:       false,
		StackSize:        4096,
		DefaultTimeout:   30 * time.Second,
		CustomValidators: make(map[string]ValidatorFunc),
	}
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.LogLevel = level }
}

func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.LogFormat = format }
}

// WithValues makes the logger include every parsed destination.
func WithValues(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.IncludeValues = enabled }
}

func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.DefaultTimeout = timeout }
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) { config.PrintStack = enabled }
}

func programName(ctx Context) string {
	if p := ctx.Program(); p != nil && p.Name() != "" {
		return p.Name()
	}
	return "program"
}
