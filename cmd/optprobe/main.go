// Command optprobe parses an argument vector against a YAML option table
// and prints the resulting values and leftovers.
//
//	optprobe -t table.yaml -- -vv --output=x.bin file
//	optprobe -t table.yaml -o json -- --help
//	optprobe -t table.yaml --describe
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dzonerzy/go-optparse/internal/declare"
	optio "github.com/dzonerzy/go-optparse/io"
	"github.com/dzonerzy/go-optparse/middleware"
	"github.com/dzonerzy/go-optparse/optparse"
	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

var exitCodes = optparse.NewExitCodeManager()

// report is what a probe prints.
type report struct {
	Values map[string]any `yaml:"values" json:"values"`
	Args   []string       `yaml:"args" json:"args"`
	Error  *failure       `yaml:"error,omitempty" json:"error,omitempty"`
}

type failure struct {
	Type       string   `yaml:"type" json:"type"`
	Message    string   `yaml:"message" json:"message"`
	Flag       string   `yaml:"flag,omitempty" json:"flag,omitempty"`
	Value      string   `yaml:"value,omitempty" json:"value,omitempty"`
	Candidates []string `yaml:"candidates,omitempty,flow" json:"candidates,omitempty"`
	Suggestion string   `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`
}

func main() {
	newProgram(optio.New()).RunAndExit()
}

func newProgram(m *optio.IOManager) *optparse.Program {
	parser := optparse.New("optprobe", "Parse ARGS against a YAML option table and print the result.").
		Usage("%prog -t TABLE [options] -- ARGS...").
		Version("%prog " + version).
		DisableInterspersed().
		Epilog("TABLE may be - to read the table from stdin. " +
			"Help and version requests of the probed table print its own output.").
		Option("-t", "--table").Metavar("TABLE").Help("option table to load").Back().
		Option("-o", "--output").Choices("yaml", "json").Default("yaml").
		Help("output format: yaml or json (default: %default)").Back().
		Option("--describe").Action(optparse.ActionStoreTrue).
		Help("print the normalized table instead of parsing").Back().
		Option("-d", "--debug").Action(optparse.ActionStoreTrue).Help("log table details to stderr").Back()

	return optparse.NewProgram(parser).
		IO(m).
		Use(
			middleware.Recovery(),
			middleware.Validate(middleware.Required("table")),
		).
		Action(probe)
}

func probe(ctx *optparse.Context) error {
	path, _ := ctx.String("table")
	format, _ := ctx.String("output")
	if debug, _ := ctx.Bool("debug"); debug {
		ctx.Logger().MinLevel(optio.LevelDebug)
	}

	doc, err := loadTable(path, ctx.Stdin())
	if err != nil {
		return err
	}
	ctx.Logger().Debug("loaded %d options and %d groups from %s", len(doc.Options), len(doc.Groups), path)

	table, err := declare.Build(doc, nil)
	if err != nil {
		return err
	}

	if describe, _ := ctx.Bool("describe"); describe {
		return encode(ctx.Stdout(), format, declare.Describe(table))
	}

	values, leftovers, err := table.Parse(ctx.Args())
	switch {
	case errors.Is(err, optparse.ErrHelpRequested):
		fmt.Fprint(ctx.Stdout(), table.FormatHelp())
		return nil
	case errors.Is(err, optparse.ErrVersionRequested):
		fmt.Fprintln(ctx.Stdout(), table.VersionString())
		return nil
	}

	out := report{Args: leftovers}
	if values != nil {
		out.Values = values.Map()
	}
	if out.Args == nil {
		out.Args = []string{}
	}
	if err != nil {
		out.Error = describeFailure(err)
		ctx.Logger().Debug("parse failed: %v", err)
	}
	if encErr := encode(ctx.Stdout(), format, out); encErr != nil {
		return encErr
	}
	if err != nil {
		ctx.Exit(exitCodes.Resolve(err))
	}
	return nil
}

func loadTable(path string, stdin io.Reader) (*declare.Document, error) {
	if path == "-" {
		return declare.Load(stdin)
	}
	return declare.LoadFile(path)
}

func describeFailure(err error) *failure {
	var pe *optparse.ParseError
	if !errors.As(err, &pe) {
		return &failure{Type: "error", Message: err.Error()}
	}
	return &failure{
		Type:       string(pe.Type),
		Message:    pe.Message,
		Flag:       pe.Flag,
		Value:      pe.Value,
		Candidates: pe.Candidates,
		Suggestion: pe.Suggestion,
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
