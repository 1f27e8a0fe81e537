package optparse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dzonerzy/go-optparse/internal/pool"
)

// HelpFormatter renders a parser's help as an indented option list. Help
// text is wrapped to the configured width and "%default" in an option's
// help is replaced by its destination default.
type HelpFormatter struct {
	indentIncrement int
	maxHelpPosition int
	width           int
}

// NewHelpFormatter returns a formatter for an 80-column terminal.
func NewHelpFormatter() *HelpFormatter {
	return &HelpFormatter{indentIncrement: 2, maxHelpPosition: 24, width: 80}
}

// Width sets the total line width. Values below 40 are raised to 40.
func (f *HelpFormatter) Width(width int) *HelpFormatter {
	f.width = max(width, 40)
	return f
}

// MaxHelpPosition caps the column at which help text starts.
func (f *HelpFormatter) MaxHelpPosition(pos int) *HelpFormatter {
	f.maxHelpPosition = pos
	return f
}

// OptionStrings renders the flags of o with their metavar, short flags
// first: "-f FILE, --file=FILE".
func (f *HelpFormatter) OptionStrings(o *Option) string {
	parts := make([]string, 0, len(o.shortFlags)+len(o.longFlags))
	metavar := ""
	if o.TakesValue() {
		metavar = o.metavar
		if metavar == "" {
			metavar = strings.ToUpper(o.dest)
		}
		if metavar == "" {
			metavar = "VALUE"
		}
	}
	for _, flag := range o.shortFlags {
		if metavar != "" {
			flag += " " + metavar
		}
		parts = append(parts, flag)
	}
	for _, flag := range o.longFlags {
		if metavar != "" {
			flag += "=" + metavar
		}
		parts = append(parts, flag)
	}
	return strings.Join(parts, ", ")
}

// FormatHelp renders usage, description, the option list with groups and
// the epilog.
func (f *HelpFormatter) FormatHelp(p *Parser) string {
	bufp := pool.GetBuffer(1024)
	buf := *bufp
	defer func() {
		*bufp = buf
		pool.PutBuffer(bufp)
	}()

	if usage := p.FormatUsage(); usage != "" {
		buf = append(buf, usage...)
		buf = append(buf, '\n')
	}
	if desc := p.Description(); desc != "" {
		for _, line := range wrapText(desc, f.width) {
			buf = append(buf, line...)
			buf = append(buf, '\n')
		}
		buf = append(buf, '\n')
	}

	helpPos := f.helpPosition(p)
	buf = append(buf, "Options:\n"...)
	for _, opt := range p.list.options {
		buf = f.appendOption(buf, p, opt, f.indentIncrement, helpPos)
	}

	for _, g := range p.groups {
		indent := strings.Repeat(" ", f.indentIncrement)
		buf = append(buf, '\n')
		buf = append(buf, indent...)
		buf = append(buf, g.title...)
		buf = append(buf, ":\n"...)
		if g.description != "" {
			inner := strings.Repeat(" ", 2*f.indentIncrement)
			for _, line := range wrapText(p.ExpandProg(g.description), f.width-len(inner)) {
				buf = append(buf, inner...)
				buf = append(buf, line...)
				buf = append(buf, '\n')
			}
			buf = append(buf, '\n')
		}
		for _, opt := range g.list.options {
			buf = f.appendOption(buf, p, opt, 2*f.indentIncrement, helpPos)
		}
	}

	if p.epilog != "" {
		buf = append(buf, '\n')
		for _, line := range wrapText(p.ExpandProg(p.epilog), f.width) {
			buf = append(buf, line...)
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}

// helpPosition is the column where help text starts: just past the widest
// option string, capped at maxHelpPosition.
func (f *HelpFormatter) helpPosition(p *Parser) int {
	widest := 0
	for _, opt := range p.list.options {
		if opt.help != SuppressHelp {
			widest = max(widest, utf8.RuneCountInString(f.OptionStrings(opt))+f.indentIncrement)
		}
	}
	for _, g := range p.groups {
		for _, opt := range g.list.options {
			if opt.help != SuppressHelp {
				widest = max(widest, utf8.RuneCountInString(f.OptionStrings(opt))+2*f.indentIncrement)
			}
		}
	}
	return min(widest+2, f.maxHelpPosition)
}

func (f *HelpFormatter) appendOption(buf []byte, p *Parser, opt *Option, indent, helpPos int) []byte {
	if opt.help == SuppressHelp {
		return buf
	}

	opts := f.OptionStrings(opt)
	width := utf8.RuneCountInString(opts)
	buf = append(buf, strings.Repeat(" ", indent)...)
	buf = append(buf, opts...)

	if opt.help == "" {
		return append(buf, '\n')
	}

	lines := wrapText(f.expandDefault(p, opt), max(f.width-helpPos, 11))
	if indent+width+2 > helpPos {
		buf = append(buf, '\n')
		buf = append(buf, strings.Repeat(" ", helpPos)...)
	} else {
		buf = append(buf, strings.Repeat(" ", helpPos-indent-width)...)
	}
	for i, line := range lines {
		if i > 0 {
			buf = append(buf, strings.Repeat(" ", helpPos)...)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return buf
}

func (f *HelpFormatter) expandDefault(p *Parser, opt *Option) string {
	if !strings.Contains(opt.help, "%default") {
		return opt.help
	}
	text := "none"
	if def := p.table.defaults[opt.dest]; opt.dest != "" && def != nil {
		text = fmt.Sprint(def)
	}
	return strings.ReplaceAll(opt.help, "%default", text)
}

// wrapText fills words greedily into lines of at most width runes. A word
// longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	lineLen := utf8.RuneCountInString(line)
	for _, word := range words[1:] {
		n := utf8.RuneCountInString(word)
		if lineLen+1+n > width {
			lines = append(lines, line)
			line, lineLen = word, n
			continue
		}
		line += " " + word
		lineLen += 1 + n
	}
	return append(lines, line)
}

// FormatHelp renders the full help text.
func (p *Parser) FormatHelp() string {
	f := p.formatter
	if f == nil {
		f = NewHelpFormatter()
	}
	return f.FormatHelp(p)
}

// FormatUsage renders the usage line, or "" when it is suppressed.
func (p *Parser) FormatUsage() string {
	if p.usage == "" {
		return ""
	}
	return "Usage: " + p.ExpandProg(p.usage) + "\n"
}
