package optparse

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ParseNumber parses an integer literal. The base is chosen by prefix:
// "0x"/"0X" hex, "0b"/"0B" binary, a leading "0" octal, anything else
// signed decimal. A sign is only accepted on decimal literals.
func ParseNumber(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return parseDigits(s[2:], 16, false)
		case 'b', 'B':
			return parseDigits(s[2:], 2, false)
		}
	}
	if s[0] == '0' {
		if len(s) == 1 {
			return 0, true
		}
		return parseDigits(s[1:], 8, false)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	return parseDigits(s, 10, negative)
}

// parseDigits accumulates ASCII digits of the given base. At least one digit
// is required and the result must fit in an int64.
func parseDigits(s string, base uint64, negative bool) (int64, bool) {
	if s == "" {
		return 0, false
	}

	limit := uint64(math.MaxInt64)
	if negative {
		limit++
	}

	var n uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i])
		if !ok || d >= base {
			return 0, false
		}
		if n > (limit-d)/base {
			return 0, false
		}
		n = n*base + d
	}

	if negative {
		return int64(-n), true //nolint:gosec // bounded by limit above
	}
	return int64(n), true //nolint:gosec // bounded by limit above
}

func digitValue(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	default:
		return 0, false
	}
}

// isNumeric accepts an optional sign, digits with at most one decimal point
// (at least one digit overall) and an optional exponent.
func isNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// CheckValue converts one raw argument according to the option's type.
// flag is the spelling seen on the command line and appears in errors.
func (o *Option) CheckValue(flag, raw string) (any, error) {
	switch o.typ { // exhaustive over ValueType
	case TypeNone, TypeString:
		return raw, nil
	case TypeInt:
		n, ok := ParseNumber(raw)
		if !ok || n < math.MinInt || n > math.MaxInt {
			return nil, invalidValue(flag, raw, "option %s: invalid integer value: '%s'", flag, raw)
		}
		return int(n), nil
	case TypeLong:
		n, ok := ParseNumber(raw)
		if !ok {
			return nil, invalidValue(flag, raw, "option %s: invalid long integer value: '%s'", flag, raw)
		}
		return n, nil
	case TypeFloat:
		if !isNumeric(raw) {
			return nil, invalidValue(flag, raw, "option %s: invalid floating-point value: '%s'", flag, raw)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalidValue(flag, raw, "option %s: invalid floating-point value: '%s'", flag, raw)
		}
		return f, nil
	case TypeChoice:
		if slices.Contains(o.choices, raw) {
			return raw, nil
		}
		return nil, invalidValue(flag, raw, "option %s: invalid choice: '%s' (choose from %s)",
			flag, raw, quoteChoices(o.choices))
	}
	return nil, fmt.Errorf("unknown value type %s", o.typ)
}

// ConvertValue runs CheckValue over the raw argument: a string for
// single-argument options, a []string when Nargs > 1. A nil value is
// passed through.
func (o *Option) ConvertValue(flag string, value any) (any, error) {
	switch raw := value.(type) {
	case nil:
		return nil, nil
	case string:
		return o.CheckValue(flag, raw)
	case []string:
		out := make([]any, len(raw))
		for i, v := range raw {
			converted, err := o.CheckValue(flag, v)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}

func quoteChoices(choices []string) string {
	return "'" + strings.Join(choices, "', '") + "'"
}
