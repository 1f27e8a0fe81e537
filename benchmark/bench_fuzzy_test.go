//nolint:testpackage // using package name 'benchmark' to access unexported fields for testing
package benchmark

import (
	"testing"

	"github.com/dzonerzy/go-optparse/internal/fuzzy"
)

// Category: fuzzy (exported paths only)

var benchFlags = []string{
	"--help", "--version", "--verbose", "--config", "--output", "--input",
	"--force", "--debug", "--port", "--host", "--timeout", "--retry",
	"-h", "-v", "-c", "-o",
}

func BenchmarkMatcher_Best(b *testing.B) {
	matcher := fuzzy.NewMatcher(2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matcher.Best("--hep", benchFlags)
	}
}

func BenchmarkMatcher_Matches(b *testing.B) {
	matcher := fuzzy.NewMatcher(2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matcher.Matches("--verbos", benchFlags)
	}
}

func BenchmarkConvenienceFunctions(b *testing.B) {
	b.Run("SuggestFlag", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fuzzy.SuggestFlag("--prot", benchFlags, 2)
		}
	})
	b.Run("Suggestions", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fuzzy.Suggestions("--ver", benchFlags, 2, 3)
		}
	})
	b.Run("Distance", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			fuzzy.Distance("configuration", "confirmation")
		}
	})
}
