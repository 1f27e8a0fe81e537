//nolint:testpackage
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dzonerzy/go-optparse/internal/declare"
	optio "github.com/dzonerzy/go-optparse/io"
	"gopkg.in/yaml.v3"
)

const probedTable = `
prog: probed
options:
  - flags: [-v, --verbose]
    action: count
  - flags: [--name]
`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runProbe(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("COLUMNS", "")
	t.Setenv("OPTPARSE_DISABLE_VT", "1")
	var out, errOut bytes.Buffer
	m := optio.New().WithIn(strings.NewReader(stdin)).WithOut(&out).WithErr(&errOut).NoColor()
	code := newProgram(m).RunAndGetExitCode(context.Background(), args)
	return code, out.String(), errOut.String()
}

func TestProbe_YAML(t *testing.T) {
	path := writeTable(t, probedTable)
	code, out, errOut := runProbe(t, "", "-t", path, "--", "-vv", "--name", "x", "rest")
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, errOut)
	}

	var got report
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Output is not YAML: %v\n%s", err, out)
	}
	if got.Values["verbose"] != 2 || got.Values["name"] != "x" {
		t.Errorf("Unexpected values %v", got.Values)
	}
	if !slices.Equal(got.Args, []string{"rest"}) || got.Error != nil {
		t.Errorf("Unexpected report %+v", got)
	}
}

func TestProbe_JSONFailure(t *testing.T) {
	path := writeTable(t, probedTable)
	code, out, errOut := runProbe(t, "", "-t", path, "-o", "json", "--", "-v", "--nmae", "x")
	if code != 2 {
		t.Errorf("Expected exit 2, got %d", code)
	}
	if errOut != "" {
		t.Errorf("Expected failure reported on stdout only, got %q", errOut)
	}

	var got report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if got.Error == nil {
		t.Fatalf("Expected error in report, got %s", out)
	}
	if got.Error.Type != "unknown_option" || got.Error.Flag != "--nmae" || got.Error.Suggestion != "--name" {
		t.Errorf("Unexpected failure %+v", got.Error)
	}
	if got.Values["verbose"] != 1.0 {
		t.Errorf("Expected partial values kept, got %v", got.Values)
	}
	if !slices.Equal(got.Args, []string{"x"}) {
		t.Errorf("Expected leftovers [x], got %v", got.Args)
	}
}

func TestProbe_ProbedHelp(t *testing.T) {
	path := writeTable(t, probedTable)
	code, out, _ := runProbe(t, "", "-t", path, "--", "--help")
	if code != 0 {
		t.Errorf("Expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(out, "Usage: probed [options]\n") {
		t.Errorf("Expected the probed table's help, got %q", out)
	}
}

func TestProbe_DescribeFromStdin(t *testing.T) {
	code, out, errOut := runProbe(t, probedTable, "--table=-", "--describe")
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, errOut)
	}
	var doc declare.Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Output is not a table: %v\n%s", err, out)
	}
	if doc.Prog != "probed" || len(doc.Options) != 2 {
		t.Errorf("Unexpected description %+v", doc)
	}
	if doc.Options[1].Dest != "name" {
		t.Errorf("Expected derived dest name, got %q", doc.Options[1].Dest)
	}
}

func TestProbe_Errors(t *testing.T) {
	bad := writeTable(t, "options:\n  - flags: [-x]\n    action: explode\n")
	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{"missing table", []string{"--", "-v"}, 3, "optprobe: error: required options missing: table"},
		{"bad table", []string{"-t", bad}, 1, "invalid action: 'explode'"},
		{"unreadable table", []string{"-t", filepath.Join(t.TempDir(), "nope.yaml")}, 1, "no such file"},
		{"bad output", []string{"-o", "xml"}, 2, "invalid choice: 'xml'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runProbe(t, "", tt.args...)
			if code != tt.code {
				t.Errorf("Expected exit %d, got %d", tt.code, code)
			}
			if !strings.Contains(errOut, tt.stderr) {
				t.Errorf("Expected %q in stderr, got %q", tt.stderr, errOut)
			}
		})
	}
}

func TestProbe_Version(t *testing.T) {
	code, out, _ := runProbe(t, "", "--version")
	if code != 0 || out != "optprobe "+version+"\n" {
		t.Errorf("Unexpected version output %d %q", code, out)
	}
}
