package middleware

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
)

// PanicHandler turns a recovered panic into the error the run returns.
// stack is empty unless stack capture is enabled.
type PanicHandler func(panicVal any, prog string, stack []byte) error

// Recovery turns a panic in the action into a *RecoveryError. With
// WithStackTrace(true) the stack is captured and printed to stderr.
func Recovery(options ...MiddlewareOption) Middleware {
	return RecoveryWithWriter(os.Stderr, options...)
}

// RecoveryWithWriter is Recovery printing captured stacks to w.
func RecoveryWithWriter(w io.Writer, options ...MiddlewareOption) Middleware {
	return RecoveryWithHandler(func(panicVal any, prog string, stack []byte) error {
		if len(stack) > 0 {
			fmt.Fprintf(w, "%s: panic: %v\n%s\n", prog, panicVal, stack)
		}
		return &RecoveryError{Panic: panicVal, Program: prog, Stack: stack}
	}, options...)
}

// RecoveryWithHandler recovers panics and returns whatever handler makes of
// them.
func RecoveryWithHandler(handler PanicHandler, options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = handler(r, programName(ctx), captureStack(config))
				}
			}()
			return next(ctx)
		}
	}
}

// SafeRecovery always captures the stack but never prints it. The stack and
// panic value are stored in the metadata keys "recovery.stack" and
// "recovery.panic".
func SafeRecovery() Middleware {
	config := newConfig([]MiddlewareOption{WithStackTrace(true)})
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := captureStack(config)
					ctx.Set("recovery.stack", string(stack))
					ctx.Set("recovery.panic", r)
					err = &RecoveryError{Panic: r, Program: programName(ctx), Stack: stack}
				}
			}()
			return next(ctx)
		}
	}
}

func captureStack(config *MiddlewareConfig) []byte {
	if !config.PrintStack || config.StackSize <= 0 {
		return nil
	}
	stack := make([]byte, config.StackSize)
	return stack[:runtime.Stack(stack, false)]
}

// RecoveryStats counts recovered panics. It is safe for concurrent use.
type RecoveryStats struct {
	mu        sync.Mutex
	total     int
	lastPanic *RecoveryError
}

// Total returns how many panics were recovered.
func (s *RecoveryStats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Last returns the most recent recovered panic, or nil.
func (s *RecoveryStats) Last() *RecoveryError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPanic
}

// RecoveryWithStats recovers like Recovery and records each panic in stats.
func RecoveryWithStats(stats *RecoveryStats, options ...MiddlewareOption) Middleware {
	return RecoveryWithHandler(func(panicVal any, prog string, stack []byte) error {
		rerr := &RecoveryError{Panic: panicVal, Program: prog, Stack: stack}
		stats.mu.Lock()
		stats.total++
		stats.lastPanic = rerr
		stats.mu.Unlock()
		return rerr
	}, options...)
}
