package optparse

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dzonerzy/go-optparse/internal/fuzzy"
	"github.com/dzonerzy/go-optparse/internal/intern"
	"github.com/dzonerzy/go-optparse/internal/pool"
)

// SuppressUsage passed to Usage removes the usage line from help output.
const SuppressUsage = "SUPPRESSUSAGE"

const defaultUsage = "%prog [options]"

// cursor is the per-parse tokenizer state: rargs holds what is left to
// scan, largs the positionals collected so far. Both are backed by pooled
// slices and must not escape the parse.
type cursor struct {
	rargs []string
	largs []string
	rbuf  *[]string
	lbuf  *[]string
}

func newCursor(args []string) *cursor {
	rbuf := pool.GetStringSlice()
	lbuf := pool.GetStringSlice()
	*rbuf = append(*rbuf, args...)
	return &cursor{rargs: *rbuf, largs: *lbuf, rbuf: rbuf, lbuf: lbuf}
}

func (c *cursor) shift() string {
	s := c.rargs[0]
	c.rargs = c.rargs[1:]
	return s
}

func (c *cursor) unshift(s string) {
	c.rargs = append([]string{s}, c.rargs...)
}

// take removes the next n arguments and returns them as a fresh slice.
func (c *cursor) take(n int) []string {
	out := slices.Clone(c.rargs[:n])
	c.rargs = c.rargs[n:]
	return out
}

// leftovers is the collected positionals followed by everything unscanned.
func (c *cursor) leftovers() []string {
	out := make([]string, 0, len(c.largs)+len(c.rargs))
	out = append(out, c.largs...)
	return append(out, c.rargs...)
}

func (c *cursor) release() {
	*c.lbuf = c.largs
	pool.PutStringSlice(c.rbuf)
	pool.PutStringSlice(c.lbuf)
	c.rargs, c.largs = nil, nil
}

// CheckFunc inspects a finished parse and may replace the leftovers or
// reject the result.
type CheckFunc func(values *Values, args []string) ([]string, error)

// Parser owns an option table, its groups and the parsing state machine.
// A Parser may be reused for sequential parses but must not be modified
// while a parse is running.
type Parser struct {
	table  *OptionTable
	list   optionList
	groups []*OptionGroup

	prog        string
	usage       string
	description string
	epilog      string
	version     string

	interspersed  bool
	helpOption    *Option
	versionOption *Option

	check       CheckFunc
	setupErrs   []error
	suggest     bool
	maxDistance int
	formatter   *HelpFormatter
}

// New creates a parser with the standard -h/--help option. An empty prog
// falls back to the base name of os.Args[0].
func New(prog, description string) *Parser {
	p := &Parser{
		table:        NewOptionTable(),
		prog:         prog,
		usage:        defaultUsage,
		description:  description,
		interspersed: true,
		suggest:      true,
		maxDistance:  2,
	}
	p.helpOption, _ = p.AddOption(Attrs{
		Action: ActionHelp,
		Help:   "show this help message and exit",
	}, "-h", "--help")
	return p
}

// Parser configuration methods

// Version sets the version string and adds a --version option.
func (p *Parser) Version(version string) *Parser {
	p.version = version
	if p.versionOption == nil {
		opt, err := p.AddOption(Attrs{
			Action: ActionVersion,
			Help:   "show program's version number and exit",
		}, "--version")
		if err != nil {
			p.recordError(err)
			return p
		}
		p.versionOption = opt
	}
	return p
}

// DisableHelp removes the automatic -h/--help option.
func (p *Parser) DisableHelp() *Parser {
	if p.helpOption == nil {
		return p
	}
	for _, flag := range p.helpOption.Flags() {
		if owner, ok := p.table.Lookup(flag); ok && owner == p.helpOption {
			_ = p.table.Remove(flag)
		}
	}
	p.helpOption = nil
	return p
}

// Usage sets the usage line. "%prog" expands to the program name, an empty
// string restores the default and SuppressUsage hides it.
func (p *Parser) Usage(usage string) *Parser {
	switch usage {
	case "":
		p.usage = defaultUsage
	case SuppressUsage:
		p.usage = ""
	default:
		p.usage = usage
	}
	return p
}

// Epilog sets text printed after the option list.
func (p *Parser) Epilog(epilog string) *Parser {
	p.epilog = epilog
	return p
}

// EnableInterspersed lets positionals and options mix (the default).
func (p *Parser) EnableInterspersed() *Parser {
	p.interspersed = true
	return p
}

// DisableInterspersed stops option scanning at the first positional.
func (p *Parser) DisableInterspersed() *Parser {
	p.interspersed = false
	return p
}

// SetConflictPolicy controls how later registrations treat reused flags.
func (p *Parser) SetConflictPolicy(policy ConflictPolicy) *Parser {
	p.table.SetPolicy(policy)
	return p
}

// SetDefault overrides the default of one destination.
func (p *Parser) SetDefault(dest string, value any) *Parser {
	p.table.SetDefault(dest, value)
	return p
}

// SetDefaults merges destination defaults.
func (p *Parser) SetDefaults(defaults map[string]any) *Parser {
	p.table.SetDefaults(defaults)
	return p
}

// CheckValues installs a hook run after every successful parse.
func (p *Parser) CheckValues(fn CheckFunc) *Parser {
	p.check = fn
	return p
}

// SuggestFlags toggles "did you mean" suggestions on unknown options.
func (p *Parser) SuggestFlags(enabled bool) *Parser {
	p.suggest = enabled
	return p
}

// MaxDistance sets the maximum edit distance for suggestions.
func (p *Parser) MaxDistance(distance int) *Parser {
	p.maxDistance = distance
	return p
}

// Formatter replaces the help formatter.
func (p *Parser) Formatter(f *HelpFormatter) *Parser {
	p.formatter = f
	return p
}

// Registration

// AddOption validates and registers a top-level option.
func (p *Parser) AddOption(attrs Attrs, flags ...string) (*Option, error) {
	opt, err := NewOption(attrs, flags...)
	if err != nil {
		return nil, err
	}
	if err := p.table.add(opt, &p.list); err != nil {
		return nil, err
	}
	return opt, nil
}

// Option starts a fluent top-level declaration.
func (p *Parser) Option(flags ...string) *OptionBuilder[*Parser] {
	return &OptionBuilder[*Parser]{parent: p, flags: flags}
}

// AddGroup creates a titled option group sharing this parser's table.
func (p *Parser) AddGroup(title, description string) *OptionGroup {
	g := &OptionGroup{parser: p, title: title, description: description}
	g.list.group = g
	p.groups = append(p.groups, g)
	return g
}

// RemoveOption unregisters one flag.
func (p *Parser) RemoveOption(flag string) error {
	return p.table.Remove(flag)
}

func (p *Parser) recordError(err error) {
	p.setupErrs = append(p.setupErrs, err)
}

// Accessors

// Table returns the parser's option table.
func (p *Parser) Table() *OptionTable { return p.table }

// Groups returns the option groups in creation order.
func (p *Parser) Groups() []*OptionGroup { return append([]*OptionGroup(nil), p.groups...) }

// Options returns the top-level options in registration order.
func (p *Parser) Options() []*Option { return append([]*Option(nil), p.list.options...) }

// AllOptions returns the top-level options followed by each group's.
func (p *Parser) AllOptions() []*Option {
	all := p.Options()
	for _, g := range p.groups {
		all = append(all, g.list.options...)
	}
	return all
}

// GroupOf returns the group owning flag, or nil when the flag is unknown
// or registered at the top level.
func (p *Parser) GroupOf(flag string) *OptionGroup {
	opt, ok := p.table.Lookup(flag)
	if !ok || opt.container == nil {
		return nil
	}
	return opt.container.group
}

// Prog returns the program name used for %prog.
func (p *Parser) Prog() string {
	if p.prog != "" {
		return p.prog
	}
	if len(os.Args) > 0 {
		return filepath.Base(os.Args[0])
	}
	return ""
}

// Description returns the description with %prog expanded.
func (p *Parser) Description() string { return p.ExpandProg(p.description) }

// VersionString returns the version with %prog expanded.
func (p *Parser) VersionString() string { return p.ExpandProg(p.version) }

// Interspersed reports whether positionals may mix with options.
func (p *Parser) Interspersed() bool { return p.interspersed }

// ExpandProg replaces every "%prog" in s with the program name.
func (p *Parser) ExpandProg(s string) string {
	return strings.ReplaceAll(s, "%prog", p.Prog())
}

// DefaultValues builds a fresh record from the table defaults. String
// defaults of typed options are run through the option's checker.
func (p *Parser) DefaultValues() (*Values, error) {
	defaults := p.table.Defaults()
	for _, opt := range p.AllOptions() {
		if opt.dest == "" {
			continue
		}
		raw, ok := defaults[opt.dest].(string)
		if !ok {
			continue
		}
		converted, err := opt.CheckValue(opt.OptString(), raw)
		if err != nil {
			return nil, err
		}
		defaults[opt.dest] = converted
	}
	return NewValues(defaults), nil
}

// Parsing

// Parse consumes args (program name excluded) into a fresh record and
// returns it with the leftover positionals. On failure the partially
// filled record and the leftovers at that point are returned with the
// error.
func (p *Parser) Parse(args []string) (*Values, []string, error) {
	if len(p.setupErrs) > 0 {
		return nil, nil, errors.Join(p.setupErrs...)
	}
	values, err := p.DefaultValues()
	if err != nil {
		return nil, nil, err
	}
	return p.ParseWith(args, values)
}

// ParseWith is Parse writing into a caller-supplied record. Defaults are
// not applied.
func (p *Parser) ParseWith(args []string, values *Values) (*Values, []string, error) {
	if values == nil {
		return p.Parse(args)
	}
	if len(p.setupErrs) > 0 {
		return nil, nil, errors.Join(p.setupErrs...)
	}

	c := newCursor(args)
	defer c.release()

	err := p.processArgs(c, values)
	leftovers := c.leftovers()
	if err != nil {
		return values, leftovers, err
	}

	if p.check != nil {
		checked, checkErr := p.check(values, leftovers)
		if checkErr != nil {
			return values, leftovers, validationError(checkErr)
		}
		leftovers = checked
	}
	return values, leftovers, nil
}

// processArgs runs the state machine until rargs is exhausted or a stop
// condition is met.
func (p *Parser) processArgs(c *cursor, values *Values) error {
	for len(c.rargs) > 0 {
		arg := c.rargs[0]
		switch {
		case arg == "--":
			c.shift()
			return nil
		case strings.HasPrefix(arg, "--"):
			if err := p.processLongOpt(c, values); err != nil {
				return err
			}
		case len(arg) > 1 && arg[0] == '-':
			if err := p.processShortOpts(c, values); err != nil {
				return err
			}
		case p.interspersed:
			c.largs = append(c.largs, c.shift())
		default:
			return nil
		}
	}
	return nil
}

// processLongOpt handles "--name" and "--name=value". An attached value is
// pushed back onto rargs, once the option is known to take one, so it is
// consumed like a separate argument.
func (p *Parser) processLongOpt(c *cursor, values *Values) error {
	arg := c.shift()
	name, value, explicit := strings.Cut(arg, "=")

	flag, err := p.table.ResolveLong(name)
	if err != nil {
		return p.withSuggestion(err)
	}
	opt := p.table.long[flag]

	var raw any
	switch {
	case opt.TakesValue():
		if explicit {
			c.unshift(value)
		}
		if raw, err = takeArgs(c, flag, opt.nargs); err != nil {
			return err
		}
	case explicit:
		return unexpectedValue(flag)
	}
	return opt.process(flag, raw, values, c)
}

// processShortOpts walks a cluster such as "-abc". A value-taking option
// claims the rest of the cluster as its first argument and ends the walk.
func (p *Parser) processShortOpts(c *cursor, values *Values) error {
	rest := c.shift()[1:]
	for rest != "" {
		r, size := utf8.DecodeRuneInString(rest)
		rest = rest[size:]

		flag := intern.ShortFlag(r)
		opt, ok := p.table.short[flag]
		if !ok {
			return p.withSuggestion(unknownOption(flag))
		}

		var raw any
		stop := false
		if opt.TakesValue() {
			if rest != "" {
				c.unshift(rest)
				stop = true
			}
			var err error
			if raw, err = takeArgs(c, flag, opt.nargs); err != nil {
				return err
			}
		}

		if err := opt.process(flag, raw, values, c); err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// takeArgs pulls nargs raw values: a string for one, a []string for more.
func takeArgs(c *cursor, flag string, nargs int) (any, error) {
	if len(c.rargs) < nargs {
		return nil, missingValue(flag, nargs)
	}
	if nargs == 1 {
		return c.shift(), nil
	}
	return c.take(nargs), nil
}

func (p *Parser) withSuggestion(err error) error {
	var pe *ParseError
	if !p.suggest || !errors.As(err, &pe) || pe.Type != ErrorTypeUnknownOption {
		return err
	}
	flags := append(p.table.ShortFlags(), p.table.LongFlags()...)
	pe.Suggestion = fuzzy.SuggestFlag(pe.Flag, flags, p.maxDistance)
	return pe
}

func validationError(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{
		Type:    ErrorTypeValidation,
		Message: err.Error(),
		Cause:   err,
	}
}
