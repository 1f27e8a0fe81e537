package optparse

import (
	"context"
	stdio "io"

	optio "github.com/dzonerzy/go-optparse/io"
	"github.com/dzonerzy/go-optparse/middleware"
)

const exitKey = "optparse.exit"

// Context is handed to a Program's action: the parsed values, the leftover
// positionals, cancellation and the program's streams. It implements
// middleware.Context.
type Context struct {
	program  *Program
	values   *Values
	args     []string
	ctx      context.Context
	cancel   context.CancelFunc
	metadata map[string]any
}

var _ middleware.Context = (*Context)(nil)

func newContext(parent context.Context, prog *Program, values *Values, args []string) *Context {
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		program:  prog,
		values:   values,
		args:     args,
		ctx:      ctx,
		cancel:   cancel,
		metadata: make(map[string]any),
	}
}

// Context returns the context.Context of the run.
func (c *Context) Context() context.Context { return c.ctx }

func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }
func (c *Context) Err() error            { return c.ctx.Err() }

// Cancel cancels the run.
func (c *Context) Cancel() { c.cancel() }

// Set stores metadata shared between middleware and the action.
func (c *Context) Set(key string, value any) { c.metadata[key] = value }

// Get returns metadata stored with Set, or nil.
func (c *Context) Get(key string) any { return c.metadata[key] }

// Exit ends the run with code once the action returns.
func (c *Context) Exit(code int) { c.ExitWithError(nil, code) }

// ExitWithError ends the run with code and reports err.
func (c *Context) ExitWithError(err error, code int) {
	c.metadata[exitKey] = &ExitError{Code: code, Err: err}
	c.Cancel()
}

func (c *Context) exitRequest() *ExitError {
	ee, _ := c.metadata[exitKey].(*ExitError)
	return ee
}

// Values returns the parsed record.
func (c *Context) Values() *Values { return c.values }

// Args returns the leftover positionals. Treat as read-only.
func (c *Context) Args() []string { return c.args }

// NArgs is the number of leftover positionals.
func (c *Context) NArgs() int { return len(c.args) }

// Arg returns positional i, or "" when out of range.
func (c *Context) Arg(i int) string {
	if i < 0 || i >= len(c.args) {
		return ""
	}
	return c.args[i]
}

func (c *Context) Lookup(dest string) (any, bool)       { return c.values.Get(dest) }
func (c *Context) Keys() []string                       { return c.values.Keys() }
func (c *Context) String(dest string) (string, bool)    { return c.values.String(dest) }
func (c *Context) Int(dest string) (int, bool)          { return c.values.Int(dest) }
func (c *Context) Int64(dest string) (int64, bool)      { return c.values.Int64(dest) }
func (c *Context) Float(dest string) (float64, bool)    { return c.values.Float(dest) }
func (c *Context) Bool(dest string) (bool, bool)        { return c.values.Bool(dest) }
func (c *Context) Strings(dest string) ([]string, bool) { return c.values.Strings(dest) }

// Program returns the running program.
func (c *Context) Program() middleware.Program { return c.program }

func (c *Context) IO() *optio.IOManager  { return c.program.io }
func (c *Context) Logger() *optio.Logger { return c.program.logger }
func (c *Context) Stdout() stdio.Writer  { return c.program.io.Out() }
func (c *Context) Stderr() stdio.Writer  { return c.program.io.Err() }
func (c *Context) Stdin() stdio.Reader   { return c.program.io.In() }
