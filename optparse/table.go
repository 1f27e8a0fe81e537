package optparse

import (
	"maps"
	"slices"
	"strings"
)

// ConflictPolicy decides what happens when a new option reuses a flag.
type ConflictPolicy int

const (
	// ConflictPolicyError rejects the new option with a *ConflictError.
	ConflictPolicyError ConflictPolicy = iota
	// ConflictPolicyResolve strips the flag from the earlier owner.
	ConflictPolicyResolve
)

func (c ConflictPolicy) String() string {
	switch c { // exhaustive over ConflictPolicy
	case ConflictPolicyError:
		return "error"
	case ConflictPolicyResolve:
		return "resolve"
	}
	return "unknown"
}

// optionList is the ordered member list of one container: the parser
// itself or one of its groups.
type optionList struct {
	options []*Option
	group   *OptionGroup
}

func (l *optionList) remove(o *Option) {
	if i := slices.Index(l.options, o); i >= 0 {
		l.options = slices.Delete(l.options, i, i+1)
	}
}

// OptionTable maps every registered flag to its option and holds the
// per-destination defaults. A parser owns exactly one table; its groups
// register through it.
type OptionTable struct {
	short    map[string]*Option
	long     map[string]*Option
	defaults map[string]any
	policy   ConflictPolicy
}

// NewOptionTable returns an empty table with the ConflictPolicyError policy.
func NewOptionTable() *OptionTable {
	return &OptionTable{
		short:    make(map[string]*Option),
		long:     make(map[string]*Option),
		defaults: make(map[string]any),
	}
}

// SetPolicy changes how later registrations handle conflicts.
func (t *OptionTable) SetPolicy(policy ConflictPolicy) { t.policy = policy }

// Policy returns the current conflict policy.
func (t *OptionTable) Policy() ConflictPolicy { return t.policy }

// add registers opt as a member of list.
func (t *OptionTable) add(opt *Option, list *optionList) error {
	if opt.container != nil {
		return &SpecError{Option: opt.String(), Message: "option already registered"}
	}

	var conflicts []Conflict
	for _, flag := range opt.Flags() {
		if owner, ok := t.Lookup(flag); ok {
			conflicts = append(conflicts, Conflict{Flag: flag, Owner: owner})
		}
	}

	if len(conflicts) > 0 {
		switch t.policy { // exhaustive over ConflictPolicy
		case ConflictPolicyError:
			return &ConflictError{Option: opt.String(), Conflicts: conflicts}
		case ConflictPolicyResolve:
			for _, c := range conflicts {
				t.strip(c.Flag, c.Owner)
			}
		}
	}

	for _, flag := range opt.shortFlags {
		t.short[flag] = opt
	}
	for _, flag := range opt.longFlags {
		t.long[flag] = opt
	}
	list.options = append(list.options, opt)
	opt.container = list

	if opt.dest != "" {
		if opt.def != nil {
			t.defaults[opt.dest] = opt.def
		} else if _, seeded := t.defaults[opt.dest]; !seeded {
			t.defaults[opt.dest] = nil
		}
	}
	return nil
}

// strip removes flag from owner and the maps, dropping owner from its
// container once it has no flags left.
func (t *OptionTable) strip(flag string, owner *Option) {
	delete(t.short, flag)
	delete(t.long, flag)
	owner.dropFlag(flag)
	if !owner.hasFlags() && owner.container != nil {
		owner.container.remove(owner)
		owner.container = nil
	}
}

// Remove unregisters one flag. The owning option keeps its other flags and
// is dropped entirely once none remain.
func (t *OptionTable) Remove(flag string) error {
	owner, ok := t.Lookup(flag)
	if !ok {
		return unknownOption(flag)
	}
	t.strip(flag, owner)
	return nil
}

// Lookup returns the option registered under an exact flag spelling.
func (t *OptionTable) Lookup(flag string) (*Option, bool) {
	if o, ok := t.short[flag]; ok {
		return o, true
	}
	o, ok := t.long[flag]
	return o, ok
}

// Has reports whether flag is registered.
func (t *OptionTable) Has(flag string) bool {
	_, ok := t.Lookup(flag)
	return ok
}

// ResolveLong expands a possibly abbreviated long flag. An exact match wins;
// otherwise the token must be a prefix of exactly one registered long flag.
func (t *OptionTable) ResolveLong(token string) (string, error) {
	if _, ok := t.long[token]; ok {
		return token, nil
	}

	var candidates []string
	for flag := range t.long {
		if strings.HasPrefix(flag, token) {
			candidates = append(candidates, flag)
		}
	}

	switch len(candidates) {
	case 0:
		return "", unknownOption(token)
	case 1:
		return candidates[0], nil
	default:
		slices.Sort(candidates)
		return "", ambiguousOption(token, candidates)
	}
}

// LongFlags returns every registered long flag, sorted.
func (t *OptionTable) LongFlags() []string {
	return slices.Sorted(maps.Keys(t.long))
}

// ShortFlags returns every registered short flag, sorted.
func (t *OptionTable) ShortFlags() []string {
	return slices.Sorted(maps.Keys(t.short))
}

// Defaults returns a copy of the destination defaults.
func (t *OptionTable) Defaults() map[string]any {
	return maps.Clone(t.defaults)
}

// SetDefault overrides the default for one destination.
func (t *OptionTable) SetDefault(dest string, value any) {
	t.defaults[dest] = value
}

// SetDefaults merges defaults into the table, overriding existing entries.
func (t *OptionTable) SetDefaults(defaults map[string]any) {
	maps.Copy(t.defaults, defaults)
}
