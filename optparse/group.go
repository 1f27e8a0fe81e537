package optparse

// OptionParent is implemented by *Parser and *OptionGroup.
type OptionParent interface {
	AddOption(attrs Attrs, flags ...string) (*Option, error)
	recordError(err error)
}

// OptionGroup is a titled partition of a parser's options. It registers
// through the parser's table, so flags are unique across all groups, but
// keeps its own member list for help output.
type OptionGroup struct {
	parser      *Parser
	title       string
	description string
	list        optionList
}

// AddOption validates and registers an option as a member of the group.
func (g *OptionGroup) AddOption(attrs Attrs, flags ...string) (*Option, error) {
	opt, err := NewOption(attrs, flags...)
	if err != nil {
		return nil, err
	}
	if err := g.parser.table.add(opt, &g.list); err != nil {
		return nil, err
	}
	return opt, nil
}

// Option starts a fluent declaration inside the group.
func (g *OptionGroup) Option(flags ...string) *OptionBuilder[*OptionGroup] {
	return &OptionBuilder[*OptionGroup]{parent: g, flags: flags}
}

// Title returns the group heading.
func (g *OptionGroup) Title() string { return g.title }

// Description returns the text printed under the heading.
func (g *OptionGroup) Description() string { return g.description }

// SetDescription replaces the group description.
func (g *OptionGroup) SetDescription(description string) *OptionGroup {
	g.description = description
	return g
}

// Options returns the group's members in registration order.
func (g *OptionGroup) Options() []*Option {
	return append([]*Option(nil), g.list.options...)
}

// Parser returns the owning parser.
func (g *OptionGroup) Parser() *Parser { return g.parser }

func (g *OptionGroup) recordError(err error) { g.parser.recordError(err) }

// OptionBuilder collects option attributes fluently. Register returns the
// result directly; Back records any error on the parser, where the next
// Parse reports it.
type OptionBuilder[P OptionParent] struct {
	parent P
	flags  []string
	attrs  Attrs
}

// Action sets the action.
func (b *OptionBuilder[P]) Action(action Action) *OptionBuilder[P] {
	b.attrs.Action = action
	return b
}

// Type sets the value type.
func (b *OptionBuilder[P]) Type(typ ValueType) *OptionBuilder[P] {
	b.attrs.Type = typ
	return b
}

// Dest sets the destination key.
func (b *OptionBuilder[P]) Dest(dest string) *OptionBuilder[P] {
	b.attrs.Dest = dest
	return b
}

// Default sets the default value.
func (b *OptionBuilder[P]) Default(value any) *OptionBuilder[P] {
	b.attrs.Default = value
	return b
}

// Nargs sets how many arguments the option consumes.
func (b *OptionBuilder[P]) Nargs(n int) *OptionBuilder[P] {
	b.attrs.Nargs = n
	return b
}

// Const sets the constant for store_const and append_const.
func (b *OptionBuilder[P]) Const(value any) *OptionBuilder[P] {
	b.attrs.Const = value
	return b
}

// Choices restricts the accepted values and implies TypeChoice.
func (b *OptionBuilder[P]) Choices(choices ...string) *OptionBuilder[P] {
	b.attrs.Choices = choices
	return b
}

// Callback makes the option a callback option.
func (b *OptionBuilder[P]) Callback(fn CallbackFunc, args ...any) *OptionBuilder[P] {
	b.attrs.Action = ActionCallback
	b.attrs.Callback = fn
	if len(args) > 0 {
		b.attrs.CallbackArgs = args
	}
	return b
}

// Help sets the help text.
func (b *OptionBuilder[P]) Help(help string) *OptionBuilder[P] {
	b.attrs.Help = help
	return b
}

// Metavar sets the argument placeholder shown in help.
func (b *OptionBuilder[P]) Metavar(metavar string) *OptionBuilder[P] {
	b.attrs.Metavar = metavar
	return b
}

// Register validates and registers the option.
func (b *OptionBuilder[P]) Register() (*Option, error) {
	return b.parent.AddOption(b.attrs, b.flags...)
}

// Back registers the option and returns to the parent for continued
// chaining.
func (b *OptionBuilder[P]) Back() P {
	if _, err := b.Register(); err != nil {
		b.parent.recordError(err)
	}
	return b.parent
}
