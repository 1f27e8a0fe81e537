package optparse

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dzonerzy/go-optparse/internal/intern"
)

// SuppressHelp as an option's help text hides it from formatted help.
const SuppressHelp = "SUPPRESSHELP"

// Action is what an option does to its destination when matched.
type Action int

// The zero Action is unset and resolves to ActionStore.
const (
	ActionStore Action = iota + 1
	ActionStoreConst
	ActionStoreTrue
	ActionStoreFalse
	ActionAppend
	ActionAppendConst
	ActionCount
	ActionCallback
	ActionHelp
	ActionVersion
)

var actionNames = [...]string{
	ActionStore:       "store",
	ActionStoreConst:  "store_const",
	ActionStoreTrue:   "store_true",
	ActionStoreFalse:  "store_false",
	ActionAppend:      "append",
	ActionAppendConst: "append_const",
	ActionCount:       "count",
	ActionCallback:    "callback",
	ActionHelp:        "help",
	ActionVersion:     "version",
}

func (a Action) String() string {
	if a < ActionStore || a > ActionVersion {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction maps an action name such as "store_true" to its Action.
func ParseAction(name string) (Action, error) {
	for a := ActionStore; a <= ActionVersion; a++ {
		if actionNames[a] == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("invalid action: '%s'", name)
}

// UnmarshalText lets actions be decoded from configuration documents.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText renders the action name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// stores reports whether the action writes to a destination.
func (a Action) stores() bool {
	switch a { // exhaustive over Action
	case ActionStore, ActionStoreConst, ActionStoreTrue, ActionStoreFalse,
		ActionAppend, ActionAppendConst, ActionCount:
		return true
	case ActionCallback, ActionHelp, ActionVersion:
		return false
	}
	return false
}

// typed reports whether the action may consume an argument.
func (a Action) typed() bool {
	switch a { // exhaustive over Action
	case ActionStore, ActionAppend, ActionCallback:
		return true
	case ActionStoreConst, ActionStoreTrue, ActionStoreFalse, ActionAppendConst,
		ActionCount, ActionHelp, ActionVersion:
		return false
	}
	return false
}

// alwaysTyped reports whether the action always consumes an argument.
func (a Action) alwaysTyped() bool {
	return a == ActionStore || a == ActionAppend
}

func (a Action) takesConst() bool {
	return a == ActionStoreConst || a == ActionAppendConst
}

// ValueType selects the checker applied to raw option arguments.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeString
	TypeInt
	TypeLong
	TypeFloat
	TypeChoice
)

var typeNames = [...]string{
	TypeNone:   "",
	TypeString: "string",
	TypeInt:    "int",
	TypeLong:   "long",
	TypeFloat:  "float",
	TypeChoice: "choice",
}

func (t ValueType) String() string {
	if t < TypeNone || t > TypeChoice {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseValueType maps a type name to its ValueType. "str" is accepted as an
// alias for "string".
func ParseValueType(name string) (ValueType, error) {
	if name == "str" {
		return TypeString, nil
	}
	for t := TypeString; t <= TypeChoice; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("invalid option type: '%s'", name)
}

// UnmarshalText lets value types be decoded from configuration documents.
func (t *ValueType) UnmarshalText(text []byte) error {
	parsed, err := ParseValueType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText renders the type name.
func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CallbackFunc implements ActionCallback. value is the converted argument
// (nil when the option takes none, []any when Nargs > 1).
type CallbackFunc func(opt *Option, flag string, value any, ctx *CallbackContext, args []any) error

// Attrs carries the optional attributes of an option declaration. Zero
// fields are treated as unset.
type Attrs struct {
	Action       Action
	Type         ValueType
	Dest         string
	Default      any
	Nargs        int
	Const        any
	Choices      []string
	Callback     CallbackFunc
	CallbackArgs []any
	Help         string
	Metavar      string
}

// Option is a validated option declaration. It is immutable once built
// except for conflict resolution removing flags from it.
type Option struct {
	shortFlags []string
	longFlags  []string

	action       Action
	typ          ValueType
	dest         string
	def          any
	nargs        int
	constValue   any
	choices      []string
	callback     CallbackFunc
	callbackArgs []any
	help         string
	metavar      string

	container *optionList
}

// NewOption validates attrs against flags and returns the option. The
// checks run in a fixed order and the first failure is returned.
func NewOption(attrs Attrs, flags ...string) (*Option, error) {
	if len(flags) == 0 {
		return nil, &SpecError{Message: "at least one option string must be supplied"}
	}

	o := &Option{
		action:       attrs.Action,
		typ:          attrs.Type,
		dest:         attrs.Dest,
		def:          attrs.Default,
		nargs:        attrs.Nargs,
		constValue:   attrs.Const,
		choices:      attrs.Choices,
		callback:     attrs.Callback,
		callbackArgs: attrs.CallbackArgs,
		help:         attrs.Help,
		metavar:      attrs.Metavar,
	}
	if err := o.setFlags(flags); err != nil {
		return nil, err
	}

	checks := [...]func() error{
		o.checkAction,
		o.checkType,
		o.checkChoice,
		o.checkDest,
		o.checkConst,
		o.checkNargs,
		o.checkCallback,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Option) setFlags(flags []string) error {
	for i, flag := range flags {
		if slices.Contains(flags[:i], flag) {
			return o.specErrorf("duplicate option string '%s'", flag)
		}
		switch n := utf8.RuneCountInString(flag); {
		case n < 2:
			return o.specErrorf("invalid option string '%s': must be at least two characters long", flag)
		case n == 2:
			if flag[0] != '-' || flag[1] == '-' {
				return o.specErrorf("invalid short option string '%s': must be of the form -x, (x any non-dash char)", flag)
			}
			o.shortFlags = append(o.shortFlags, intern.Intern(flag))
		default:
			if !strings.HasPrefix(flag, "--") || flag[2] == '-' {
				return o.specErrorf("invalid long option string '%s': must start with --, followed by non-dash", flag)
			}
			o.longFlags = append(o.longFlags, intern.Intern(flag))
		}
	}
	return nil
}

func (o *Option) checkAction() error {
	if o.action == 0 {
		o.action = ActionStore
		return nil
	}
	if o.action < ActionStore || o.action > ActionVersion {
		return o.specErrorf("invalid action: '%s'", o.action)
	}
	return nil
}

func (o *Option) checkType() error {
	if o.typ == TypeNone {
		if o.action.alwaysTyped() {
			if o.choices != nil {
				o.typ = TypeChoice
			} else {
				o.typ = TypeString
			}
		}
		return nil
	}
	if o.typ < TypeString || o.typ > TypeChoice {
		return o.specErrorf("invalid option type: '%s'", o.typ)
	}
	if !o.action.typed() {
		return o.specErrorf("must not supply a type for action '%s'", o.action)
	}
	return nil
}

func (o *Option) checkChoice() error {
	if o.typ == TypeChoice {
		if len(o.choices) == 0 {
			return o.specErrorf("must supply a list of choices for type 'choice'")
		}
		return nil
	}
	if o.choices != nil {
		return o.specErrorf("must not supply choices for type '%s'", o.typ)
	}
	return nil
}

// checkDest derives a destination from the first long flag, or the first
// short flag when there are no long ones.
func (o *Option) checkDest() error {
	if o.dest != "" || (!o.action.stores() && o.typ == TypeNone) {
		return nil
	}
	if len(o.longFlags) > 0 {
		o.dest = strings.ReplaceAll(o.longFlags[0][2:], "-", "_")
	} else {
		o.dest = o.shortFlags[0][1:]
	}
	return nil
}

func (o *Option) checkConst() error {
	if o.action.takesConst() {
		if o.constValue == nil {
			return o.specErrorf("'const' must be supplied for action '%s'", o.action)
		}
		return nil
	}
	if o.constValue != nil {
		return o.specErrorf("'const' must not be supplied for action '%s'", o.action)
	}
	return nil
}

func (o *Option) checkNargs() error {
	if o.action.typed() {
		switch {
		case o.nargs == 0:
			o.nargs = 1
		case o.nargs < 0:
			return o.specErrorf("'nargs' must be positive, got %d", o.nargs)
		}
		return nil
	}
	if o.nargs != 0 {
		return o.specErrorf("'nargs' must not be supplied for action '%s'", o.action)
	}
	return nil
}

func (o *Option) checkCallback() error {
	if o.action == ActionCallback {
		if o.callback == nil {
			return o.specErrorf("callback not callable")
		}
		return nil
	}
	if o.callback != nil {
		return o.specErrorf("callback supplied for non-callback option")
	}
	if o.callbackArgs != nil {
		return o.specErrorf("callback args supplied for non-callback option")
	}
	return nil
}

func (o *Option) specErrorf(format string, args ...any) error {
	return &SpecError{Option: o.String(), Message: fmt.Sprintf(format, args...)}
}

// String joins the option's flags, short ones first: "-v/--verbose".
func (o *Option) String() string {
	return strings.Join(o.Flags(), "/")
}

// Flags returns every spelling of the option, short ones first.
func (o *Option) Flags() []string {
	flags := make([]string, 0, len(o.shortFlags)+len(o.longFlags))
	flags = append(flags, o.shortFlags...)
	return append(flags, o.longFlags...)
}

// ShortFlags returns the option's short spellings in declaration order.
func (o *Option) ShortFlags() []string { return append([]string(nil), o.shortFlags...) }

// LongFlags returns the option's long spellings in declaration order.
func (o *Option) LongFlags() []string { return append([]string(nil), o.longFlags...) }

func (o *Option) Action() Action      { return o.action }
func (o *Option) Type() ValueType     { return o.typ }
func (o *Option) Dest() string        { return o.dest }
func (o *Option) Nargs() int          { return o.nargs }
func (o *Option) Const() any          { return o.constValue }
func (o *Option) Help() string        { return o.help }
func (o *Option) Metavar() string     { return o.metavar }
func (o *Option) CallbackArgs() []any { return o.callbackArgs }

// Choices returns a copy of the accepted values for TypeChoice options.
func (o *Option) Choices() []string { return append([]string(nil), o.choices...) }

// Default returns the declared default and whether one was given.
func (o *Option) Default() (any, bool) { return o.def, o.def != nil }

// TakesValue reports whether the option consumes arguments.
func (o *Option) TakesValue() bool { return o.typ != TypeNone }

// OptString is the spelling used to name the option in messages: the first
// long flag, else the first short flag.
func (o *Option) OptString() string {
	if len(o.longFlags) > 0 {
		return o.longFlags[0]
	}
	if len(o.shortFlags) > 0 {
		return o.shortFlags[0]
	}
	return ""
}

func (o *Option) hasFlags() bool {
	return len(o.shortFlags) > 0 || len(o.longFlags) > 0
}

// dropFlag removes flag from the option's spellings.
func (o *Option) dropFlag(flag string) {
	o.shortFlags = without(o.shortFlags, flag)
	o.longFlags = without(o.longFlags, flag)
}

func without(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// process converts value and applies the option's action.
func (o *Option) process(flag string, value any, values *Values, cursor *cursor) error {
	converted, err := o.ConvertValue(flag, value)
	if err != nil {
		return err
	}
	return o.takeAction(flag, converted, values, cursor)
}

// takeAction applies the option's action to values.
func (o *Option) takeAction(flag string, value any, values *Values, cursor *cursor) error {
	switch o.action { // exhaustive over Action
	case ActionStore:
		values.Set(o.dest, value)
	case ActionStoreConst:
		values.Set(o.dest, o.constValue)
	case ActionStoreTrue:
		values.Set(o.dest, true)
	case ActionStoreFalse:
		values.Set(o.dest, false)
	case ActionAppend:
		values.Append(o.dest, value)
	case ActionAppendConst:
		values.Append(o.dest, o.constValue)
	case ActionCount:
		return values.increment(o.dest, flag)
	case ActionCallback:
		ctx := &CallbackContext{flag: flag, cursor: cursor, values: values}
		if err := o.callback(o, flag, value, ctx, o.callbackArgs); err != nil {
			return callbackError(flag, err)
		}
	case ActionHelp:
		return ErrHelpRequested
	case ActionVersion:
		return ErrVersionRequested
	default:
		return fmt.Errorf("unknown action %s", o.action)
	}
	return nil
}
