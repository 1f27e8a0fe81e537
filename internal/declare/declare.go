// Package declare builds parsers from YAML option tables.
//
//	prog: fetch
//	description: Download %prog targets.
//	version: "1.4"
//	options:
//	  - flags: [-v, --verbose]
//	    action: count
//	  - flags: [-o, --output]
//	    metavar: FILE
//	    help: "write to FILE (default: %default)"
//	    default: out.bin
//	groups:
//	  - title: Network
//	    options:
//	      - flags: [--retries]
//	        type: int
//	        default: 3
package declare

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dzonerzy/go-optparse/optparse"
	"gopkg.in/yaml.v3"
)

// Document is the top level of an option table.
type Document struct {
	Prog         string       `yaml:"prog,omitempty"`
	Usage        string       `yaml:"usage,omitempty"`
	Description  string       `yaml:"description,omitempty"`
	Epilog       string       `yaml:"epilog,omitempty"`
	Version      string       `yaml:"version,omitempty"`
	Conflict     string       `yaml:"conflict,omitempty"`
	Interspersed *bool        `yaml:"interspersed,omitempty"`
	DisableHelp  bool         `yaml:"disable_help,omitempty"`
	Options      []OptionDecl `yaml:"options,omitempty"`
	Groups       []GroupDecl  `yaml:"groups,omitempty"`
}

// GroupDecl declares an option group.
type GroupDecl struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description,omitempty"`
	Options     []OptionDecl `yaml:"options,omitempty"`
}

// OptionDecl declares one option. Action and Type take their names
// ("store_true", "int"). Callback names an entry of the registry passed to
// Build.
type OptionDecl struct {
	Flags        []string           `yaml:"flags,flow"`
	Action       optparse.Action    `yaml:"action,omitempty"`
	Type         optparse.ValueType `yaml:"type,omitempty"`
	Dest         string             `yaml:"dest,omitempty"`
	Default      any                `yaml:"default,omitempty"`
	Nargs        int                `yaml:"nargs,omitempty"`
	Const        any                `yaml:"const,omitempty"`
	Choices      []string           `yaml:"choices,omitempty,flow"`
	Callback     string             `yaml:"callback,omitempty"`
	CallbackArgs []any              `yaml:"callback_args,omitempty,flow"`
	Help         string             `yaml:"help,omitempty"`
	Metavar      string             `yaml:"metavar,omitempty"`
}

// Callbacks resolves the callback names used in a document.
type Callbacks map[string]optparse.CallbackFunc

// Load decodes a document. Unknown keys are rejected.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("decode option table: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes doc as YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Build registers every declared option on a new parser. All declaration
// errors are collected and returned together.
func Build(doc *Document, callbacks Callbacks) (*optparse.Parser, error) {
	p := optparse.New(doc.Prog, doc.Description)
	if doc.DisableHelp {
		p.DisableHelp()
	}
	if doc.Usage != "" {
		p.Usage(doc.Usage)
	}
	p.Epilog(doc.Epilog)
	if doc.Version != "" {
		p.Version(doc.Version)
	}
	if doc.Interspersed != nil && !*doc.Interspersed {
		p.DisableInterspersed()
	}

	switch doc.Conflict {
	case "", "error":
	case "resolve":
		p.SetConflictPolicy(optparse.ConflictPolicyResolve)
	default:
		return nil, fmt.Errorf("unknown conflict policy %q", doc.Conflict)
	}

	var errs []error
	for i, decl := range doc.Options {
		if err := register(p, decl, callbacks); err != nil {
			errs = append(errs, fmt.Errorf("options[%d]: %w", i, err))
		}
	}
	for gi, g := range doc.Groups {
		group := p.AddGroup(g.Title, g.Description)
		for i, decl := range g.Options {
			if err := register(group, decl, callbacks); err != nil {
				errs = append(errs, fmt.Errorf("groups[%d].options[%d]: %w", gi, i, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}

func register(parent optparse.OptionParent, decl OptionDecl, callbacks Callbacks) error {
	attrs, err := decl.attrs(callbacks)
	if err != nil {
		return err
	}
	_, err = parent.AddOption(attrs, decl.Flags...)
	return err
}

func (d OptionDecl) attrs(callbacks Callbacks) (optparse.Attrs, error) {
	attrs := optparse.Attrs{
		Action:       d.Action,
		Type:         d.Type,
		Dest:         d.Dest,
		Default:      d.Default,
		Nargs:        d.Nargs,
		Const:        d.Const,
		Choices:      d.Choices,
		CallbackArgs: d.CallbackArgs,
		Help:         d.Help,
		Metavar:      d.Metavar,
	}
	if d.Callback != "" {
		fn, ok := callbacks[d.Callback]
		if !ok {
			return attrs, fmt.Errorf("unknown callback %q", d.Callback)
		}
		attrs.Callback = fn
		if attrs.Action == 0 {
			attrs.Action = optparse.ActionCallback
		}
	}
	// YAML integers decode as int; long options keep int64 defaults.
	if n, ok := attrs.Default.(int); ok && d.Type == optparse.TypeLong {
		attrs.Default = int64(n)
	}
	return attrs, nil
}

// Describe renders the options of p as a document. The automatic help and
// version options are left out, as are callbacks, whose functions have no
// name.
func Describe(p *optparse.Parser) *Document {
	doc := &Document{
		Prog:        p.Prog(),
		Description: p.Description(),
		Version:     p.VersionString(),
		Options:     describeOptions(p.Options()),
	}
	if p.Table().Policy() == optparse.ConflictPolicyResolve {
		doc.Conflict = "resolve"
	}
	if !p.Interspersed() {
		off := false
		doc.Interspersed = &off
	}
	for _, g := range p.Groups() {
		doc.Groups = append(doc.Groups, GroupDecl{
			Title:       g.Title(),
			Description: g.Description(),
			Options:     describeOptions(g.Options()),
		})
	}
	return doc
}

func describeOptions(opts []*optparse.Option) []OptionDecl {
	var out []OptionDecl
	for _, o := range opts {
		switch o.Action() {
		case optparse.ActionHelp, optparse.ActionVersion, optparse.ActionCallback:
			continue
		}
		decl := OptionDecl{
			Flags:   o.Flags(),
			Action:  o.Action(),
			Type:    o.Type(),
			Dest:    o.Dest(),
			Const:   o.Const(),
			Choices: o.Choices(),
			Help:    o.Help(),
			Metavar: o.Metavar(),
		}
		if def, ok := o.Default(); ok {
			decl.Default = def
		}
		if o.Nargs() > 1 {
			decl.Nargs = o.Nargs()
		}
		if len(decl.Choices) == 0 {
			decl.Choices = nil
		}
		out = append(out, decl)
	}
	return out
}
