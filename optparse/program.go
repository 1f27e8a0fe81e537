package optparse

import (
	"context"
	"errors"
	"fmt"
	"os"

	optio "github.com/dzonerzy/go-optparse/io"
	"github.com/dzonerzy/go-optparse/middleware"
)

// ActionFunc runs after a successful parse.
type ActionFunc func(ctx *Context) error

// Program binds a Parser to process streams, an action and exit codes. It
// prints help and version to stdout, reports parse errors on stderr as
// usage followed by "prog: error: message", and runs the action through
// its middleware.
type Program struct {
	parser     *Parser
	action     ActionFunc
	before     ActionFunc
	after      ActionFunc
	middleware []middleware.Middleware
	io         *optio.IOManager
	logger     *optio.Logger
	exitCodes  *ExitCodeManager
}

// NewProgram wraps parser.
func NewProgram(parser *Parser) *Program {
	m := optio.New()
	return &Program{
		parser:    parser,
		io:        m,
		logger:    optio.NewLogger(m),
		exitCodes: NewExitCodeManager(),
	}
}

// Action sets the function run after a successful parse.
func (p *Program) Action(fn ActionFunc) *Program { p.action = fn; return p }

// Before runs fn ahead of the middleware chain. An error skips the action.
func (p *Program) Before(fn ActionFunc) *Program { p.before = fn; return p }

// After runs fn once the action returned, even when it failed. Its error
// is only reported when the action succeeded.
func (p *Program) After(fn ActionFunc) *Program { p.after = fn; return p }

// Use appends middleware around the action.
func (p *Program) Use(mw ...middleware.Middleware) *Program {
	p.middleware = append(p.middleware, mw...)
	return p
}

// IO replaces the stream manager. The logger is rebuilt on top of it.
func (p *Program) IO(m *optio.IOManager) *Program {
	p.io = m
	p.logger = optio.NewLogger(m)
	return p
}

// Logger replaces the logger used for error reports.
func (p *Program) Logger(l *optio.Logger) *Program { p.logger = l; return p }

// ExitCodes returns the exit code mapping for further configuration.
func (p *Program) ExitCodes() *ExitCodeManager { return p.exitCodes }

func (p *Program) Parser() *Parser           { return p.parser }
func (p *Program) Name() string              { return p.parser.Prog() }
func (p *Program) Description() string       { return p.parser.Description() }
func (p *Program) Streams() *optio.IOManager { return p.io }

// FormatHelp renders help at the terminal width unless the parser has its
// own formatter.
func (p *Program) FormatHelp() string {
	if p.parser.formatter != nil {
		return p.parser.FormatHelp()
	}
	return NewHelpFormatter().Width(p.io.Width()).FormatHelp(p.parser)
}

// Run parses args (program name excluded) and runs the action. Help and
// version requests print their text and return nil without running the
// action. Parse and action errors are reported on stderr and returned.
func (p *Program) Run(ctx context.Context, args []string) error {
	if os.Getenv("OPTPARSE_DISABLE_VT") == "" && p.io.IsTTY() {
		_ = p.io.EnableVirtualTerminal()
	}

	values, leftovers, err := p.parser.Parse(args)
	switch {
	case errors.Is(err, ErrHelpRequested):
		fmt.Fprint(p.io.Out(), p.FormatHelp())
		return nil
	case errors.Is(err, ErrVersionRequested):
		fmt.Fprintln(p.io.Out(), p.parser.VersionString())
		return nil
	case err != nil:
		p.reportParseError(err)
		return err
	}

	if p.action == nil {
		return nil
	}

	run := newContext(ctx, p, values, leftovers)
	defer run.Cancel()

	if p.before != nil {
		if err := p.before(run); err != nil {
			return p.finish(run, err)
		}
	}
	actionErr := p.wrapAction()(run)
	if p.after != nil {
		if err := p.after(run); err != nil && actionErr == nil {
			actionErr = err
		}
	}
	return p.finish(run, actionErr)
}

// wrapAction applies the middleware chain to the action.
func (p *Program) wrapAction() ActionFunc {
	if len(p.middleware) == 0 {
		return p.action
	}
	wrapped := middleware.Chain(p.middleware...).Apply(func(mc middleware.Context) error {
		c, ok := mc.(*Context)
		if !ok {
			return NewParseError(ErrorTypeInternal, "middleware replaced the run context")
		}
		return p.action(c)
	})
	return func(c *Context) error { return wrapped(c) }
}

// finish prefers an exit requested through the context and reports
// errors that carry a message.
func (p *Program) finish(run *Context, err error) error {
	if ee := run.exitRequest(); ee != nil {
		err = ee
	}
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) && ee.Err == nil {
		return err
	}
	p.logger.Error("%s: error: %v", p.Name(), err)
	return err
}

func (p *Program) reportParseError(err error) {
	var pe *ParseError
	if errors.As(err, &pe) {
		if usage := p.parser.FormatUsage(); usage != "" {
			fmt.Fprint(p.io.Err(), usage)
		}
	}
	p.logger.Error("%s: error: %v", p.Name(), err)
	if pe != nil && pe.Suggestion != "" {
		p.logger.Warning("Did you mean '%s'?", pe.Suggestion)
	}
}

// RunAndGetExitCode runs with args and maps the result through ExitCodes.
func (p *Program) RunAndGetExitCode(ctx context.Context, args []string) int {
	return p.exitCodes.Resolve(p.Run(ctx, args))
}

// RunAndExit runs with os.Args and exits the process with the mapped code.
func (p *Program) RunAndExit() {
	os.Exit(p.RunAndGetExitCode(context.Background(), os.Args[1:]))
}
