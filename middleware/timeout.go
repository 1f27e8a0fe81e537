package middleware

import (
	"context"
	"errors"
	"time"
)

// Timeout cancels the run and returns a *TimeoutError when the action does
// not finish within duration. The action keeps running in its goroutine
// until it observes ctx.Done().
func Timeout(duration time.Duration) Middleware {
	return TimeoutWithCallback(duration, nil)
}

// TimeoutWithDefault uses the configured DefaultTimeout.
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	return Timeout(newConfig(options).DefaultTimeout)
}

// TimeoutWithCallback is Timeout calling onTimeout before returning the
// timeout error.
func TimeoutWithCallback(duration time.Duration, onTimeout func(prog string, duration time.Duration)) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			return runWithDeadline(ctx, duration, next, onTimeout, true)
		}
	}
}

// runWithDeadline runs next with a deadline. cancelRun controls whether a
// timeout also cancels the run itself; retries keep it alive between
// attempts.
func runWithDeadline(ctx Context, duration time.Duration, next ActionFunc, onTimeout func(string, time.Duration), cancelRun bool) error {
	parent := ctx.Context()
	if parent == nil {
		parent = context.Background()
	}
	deadline, cancel := context.WithTimeout(parent, duration)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &RecoveryError{Panic: r, Program: programName(ctx)}
			}
		}()
		result <- next(ctx)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return err
		}
		return context.Canceled
	case <-deadline.Done():
		if err := parent.Err(); err != nil {
			return err
		}
		prog := programName(ctx)
		if onTimeout != nil {
			onTimeout(prog, duration)
		}
		if cancelRun {
			ctx.Cancel()
		}
		return &TimeoutError{Duration: duration, Program: prog}
	}
}

// TimeoutWithRetry retries timed-out attempts up to maxRetries times. Other
// errors are returned immediately.
func TimeoutWithRetry(duration time.Duration, maxRetries int) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			var err error
			for attempt := 0; attempt <= maxRetries; attempt++ {
				err = runWithDeadline(ctx, duration, next, nil, attempt == maxRetries)
				var tErr *TimeoutError
				if !errors.As(err, &tErr) {
					return err
				}
			}
			return err
		}
	}
}

// DynamicTimeout computes the duration per run. A duration <= 0 disables
// the timeout.
func DynamicTimeout(timeoutFunc func(ctx Context) time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			duration := timeoutFunc(ctx)
			if duration <= 0 {
				return next(ctx)
			}
			return runWithDeadline(ctx, duration, next, nil, true)
		}
	}
}

// TimeoutFromOption reads the timeout from the parsed value under dest: a
// string in time.ParseDuration syntax, or a number of seconds. A missing or
// unparseable value falls back to defaultTimeout.
func TimeoutFromOption(dest string, defaultTimeout time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		if s, ok := ctx.String(dest); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d
			}
			return defaultTimeout
		}
		if secs, ok := ctx.Float(dest); ok {
			return time.Duration(secs * float64(time.Second))
		}
		return defaultTimeout
	})
}
