package optparse

import (
	"fmt"
	"maps"
	"slices"
)

// Values is the result record of a parse, keyed by destination. Keys seeded
// with a nil default are present but carry no value.
type Values struct {
	data map[string]any
}

// NewValues returns a record seeded from defaults. Slice defaults are copied
// so appends never write through to the caller's slice.
func NewValues(defaults map[string]any) *Values {
	v := &Values{data: make(map[string]any, len(defaults))}
	for dest, def := range defaults {
		v.data[dest] = cloneDefault(def)
	}
	return v
}

func cloneDefault(def any) any {
	switch d := def.(type) {
	case []any:
		return slices.Clone(d)
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	default:
		return def
	}
}

// Get returns the value stored under dest and whether the key is present.
func (v *Values) Get(dest string) (any, bool) {
	val, ok := v.data[dest]
	return val, ok
}

// Has reports whether dest holds a non-nil value.
func (v *Values) Has(dest string) bool {
	return v.data[dest] != nil
}

// Set overwrites dest.
func (v *Values) Set(dest string, value any) {
	v.data[dest] = value
}

// Append adds value to the list stored under dest, creating it if needed.
func (v *Values) Append(dest string, value any) {
	switch cur := v.data[dest].(type) {
	case nil:
		v.data[dest] = []any{value}
	case []any:
		v.data[dest] = append(cur, value)
	default:
		v.data[dest] = []any{cur, value}
	}
}

// EnsureDefault stores value under dest when the key is absent or nil and
// returns whatever dest holds afterwards.
func (v *Values) EnsureDefault(dest string, value any) any {
	if v.data[dest] == nil {
		v.data[dest] = value
	}
	return v.data[dest]
}

// increment bumps a counter, starting from zero.
func (v *Values) increment(dest, flag string) error {
	switch n := v.EnsureDefault(dest, 0).(type) {
	case int:
		v.data[dest] = n + 1
	case int64:
		v.data[dest] = n + 1
	default:
		return &ParseError{
			Type:    ErrorTypeInvalidValue,
			Message: fmt.Sprintf("option %s: cannot count into non-integer value %v", flag, n),
			Flag:    flag,
		}
	}
	return nil
}

// String returns dest as a string.
func (v *Values) String(dest string) (string, bool) {
	s, ok := v.data[dest].(string)
	return s, ok
}

// Int returns dest as an int. Long values that fit are converted.
func (v *Values) Int(dest string) (int, bool) {
	switch n := v.data[dest].(type) {
	case int:
		return n, true
	case int64:
		if int64(int(n)) == n {
			return int(n), true
		}
	}
	return 0, false
}

// Int64 returns dest as an int64.
func (v *Values) Int64(dest string) (int64, bool) {
	switch n := v.data[dest].(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// Float returns dest as a float64. Integer values are widened.
func (v *Values) Float(dest string) (float64, bool) {
	switch n := v.data[dest].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns dest as a bool.
func (v *Values) Bool(dest string) (bool, bool) {
	b, ok := v.data[dest].(bool)
	return b, ok
}

// Slice returns the list stored under dest. The slice is shared with the
// record and should be treated as read-only.
func (v *Values) Slice(dest string) ([]any, bool) {
	s, ok := v.data[dest].([]any)
	return s, ok
}

// Strings returns the list under dest when every element is a string.
func (v *Values) Strings(dest string) ([]string, bool) {
	items, ok := v.data[dest].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, isString := item.(string)
		if !isString {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// Keys returns every present destination, sorted.
func (v *Values) Keys() []string {
	return slices.Sorted(maps.Keys(v.data))
}

// Map returns a shallow copy of the record.
func (v *Values) Map() map[string]any {
	return maps.Clone(v.data)
}

// Len is the number of present destinations.
func (v *Values) Len() int {
	return len(v.data)
}
