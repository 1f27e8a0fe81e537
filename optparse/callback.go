package optparse

// CallbackContext is what a callback option may touch while a parse is in
// flight: the unconsumed arguments, the leftover positionals and the value
// record. It is only valid for the duration of the callback.
type CallbackContext struct {
	flag   string
	cursor *cursor
	values *Values
}

// Flag is the spelling that triggered the callback.
func (c *CallbackContext) Flag() string { return c.flag }

// Remaining returns a copy of the arguments not yet consumed.
func (c *CallbackContext) Remaining() []string {
	return append([]string(nil), c.cursor.rargs...)
}

// Consume removes and returns the next n arguments.
func (c *CallbackContext) Consume(n int) ([]string, error) {
	if n < 0 || n > len(c.cursor.rargs) {
		return nil, missingValue(c.flag, n)
	}
	return c.cursor.take(n), nil
}

// Get reads the current value of dest.
func (c *CallbackContext) Get(dest string) (any, bool) {
	return c.values.Get(dest)
}

// Set overwrites dest.
func (c *CallbackContext) Set(dest string, value any) {
	c.values.Set(dest, value)
}

// Append adds value to the list under dest.
func (c *CallbackContext) Append(dest string, value any) {
	c.values.Append(dest, value)
}

// AddPositional records args as leftover positionals, after any collected
// so far.
func (c *CallbackContext) AddPositional(args ...string) {
	c.cursor.largs = append(c.cursor.largs, args...)
}
