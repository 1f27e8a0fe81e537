// Package intern hands out canonical strings for flag spellings.
// The tokenizer uses it to name each character of a short-option cluster
// ("-abc" -> "-a", "-b", "-c") without building a fresh string per character.
package intern

import (
	"sync"
	"unicode/utf8"
)

// Table is a thread-safe string interner.
type Table struct {
	strings map[string]string
	mu      sync.RWMutex
}

// NewTable creates an interner with the given initial capacity.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = 64
	}
	return &Table{strings: make(map[string]string, capacity)}
}

// Intern returns the canonical copy of s.
func (t *Table) Intern(s string) string {
	t.mu.RLock()
	if v, ok := t.strings[s]; ok {
		t.mu.RUnlock()
		return v
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.strings[s]; ok {
		return v
	}
	t.strings[s] = s
	return s
}

// Preload interns every string in list.
func (t *Table) Preload(list ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range list {
		t.strings[s] = s
	}
}

// Len reports how many strings are interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strings)
}

// Reset drops every interned string.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.strings)
}

// printable ASCII short flags, "-!" through "-~"
const (
	firstPrintable = '!'
	lastPrintable  = '~'
)

var shortFlags [lastPrintable - firstPrintable + 1]string

// Global is the process-wide table used by the option parser.
var Global = NewTable(128)

//nolint:gochecknoinits // short-flag table and common spellings are built once
func init() {
	for c := firstPrintable; c <= lastPrintable; c++ {
		shortFlags[c-firstPrintable] = "-" + string(rune(c))
	}
	Global.Preload(CommonLongFlags...)
}

// CommonLongFlags are long spellings almost every program registers.
var CommonLongFlags = []string{
	"--help", "--version", "--verbose", "--quiet", "--debug",
	"--output", "--input", "--config", "--force", "--dry-run",
}

// ShortFlag returns the canonical "-c" string for the rune c.
func ShortFlag(c rune) string {
	if c >= firstPrintable && c <= lastPrintable {
		return shortFlags[c-firstPrintable]
	}
	buf := make([]byte, 0, 1+utf8.UTFMax)
	buf = append(buf, '-')
	buf = utf8.AppendRune(buf, c)
	return Global.Intern(string(buf))
}

// Intern interns s in the global table.
func Intern(s string) string {
	return Global.Intern(s)
}
