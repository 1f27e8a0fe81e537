// Package fuzzy ranks registered option spellings by edit distance so that
// an unknown option can be reported together with a "did you mean" hint.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher finds close spellings within a maximum edit distance.
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher returns a matcher accepting candidates at most maxDistance
// edits away from the input.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{maxDistance: maxDistance, minLength: 2}
}

// Match is one ranked candidate.
type Match struct {
	Value    string
	Distance int
	Prefix   int // length of the shared prefix
}

// Matches returns every candidate within range, closest first. Ties are
// broken by longer shared prefix, then lexically. Dashes are ignored when
// measuring, so "-verbose" and "--verbose" compare as the same name.
func (m *Matcher) Matches(input string, candidates []string) []Match {
	name := strings.ToLower(trimDashes(input))
	if len([]rune(name)) < m.minLength {
		return nil
	}

	var matches []Match
	for _, c := range candidates {
		cname := strings.ToLower(trimDashes(c))
		if cname == name {
			continue
		}
		d := m.distance(name, cname)
		if d > m.maxDistance {
			continue
		}
		matches = append(matches, Match{Value: c, Distance: d, Prefix: commonPrefix(name, cname)})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Prefix != b.Prefix {
			return a.Prefix > b.Prefix
		}
		return a.Value < b.Value
	})
	return matches
}

// Best returns the closest candidate or "" when nothing is in range.
func (m *Matcher) Best(input string, candidates []string) string {
	matches := m.Matches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// distance is a two-row Levenshtein over runes that gives up once every
// cell of a row exceeds the matcher's limit.
func (m *Matcher) distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if abs(len(ra)-len(rb)) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	cur := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(rb); i++ {
		cur[0] = i
		rowMin := i
		for j := 1; j <= len(ra); j++ {
			cost := 1
			if ra[j-1] == rb[i-1] {
				cost = 0
			}
			cur[j] = min(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(ra)]
}

// Distance is the plain edit distance between a and b.
func Distance(a, b string) int {
	m := NewMatcher(len([]rune(a)) + len([]rune(b)))
	return m.distance(a, b)
}

func trimDashes(s string) string {
	return strings.TrimLeft(s, "-")
}

func commonPrefix(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			return i
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SuggestFlag returns the registered flag closest to flag, or "".
func SuggestFlag(flag string, registered []string, maxDistance int) string {
	return NewMatcher(maxDistance).Best(flag, registered)
}

// Suggestions returns up to limit candidates, closest first.
func Suggestions(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).Matches(input, candidates)
	out := make([]string, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Value)
	}
	return out
}
