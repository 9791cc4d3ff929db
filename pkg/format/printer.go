// Package format renders parsed SQL back to text.
//
// Two layouts are supported: a pretty layout with one clause per line, used
// by "butter fmt", and an inline layout that renders on a single line, used
// to name computed output fields.
package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
)

const indentSize = 2

// Printer handles SQL formatting with proper indentation and style.
type Printer struct {
	dialect     *dialect.Dialect
	output      *bytes.Buffer
	depth       int
	atLineStart bool

	// inline collapses line breaks to single spaces and drops indentation.
	inline       bool
	pendingSpace bool
}

func newPrinter(d *dialect.Dialect, inline bool) *Printer {
	return &Printer{
		dialect:     d,
		output:      &bytes.Buffer{},
		atLineStart: !inline,
		inline:      inline,
	}
}

// String returns the formatted output.
func (p *Printer) String() string {
	if p.inline {
		return p.output.String()
	}
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *Printer) write(s string) {
	if s == "" {
		return
	}
	if p.inline {
		if p.pendingSpace && s[0] != ')' && s[0] != ' ' && s[0] != ',' && !p.lastByteIs('(', ' ') {
			p.output.WriteByte(' ')
		}
		p.pendingSpace = false
	} else if p.atLineStart && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) lastByteIs(chars ...byte) bool {
	b := p.output.Bytes()
	if len(b) == 0 {
		return true
	}
	last := b[len(b)-1]
	for _, c := range chars {
		if last == c {
			return true
		}
	}
	return false
}

func (p *Printer) writeln() {
	if p.inline {
		p.pendingSpace = true
		return
	}
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) keyword(s string) {
	p.write(strings.ToUpper(s))
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	if p.inline {
		p.pendingSpace = true
		return
	}
	p.output.WriteByte(' ')
}

// kw prints keywords for the given token types.
func (p *Printer) kw(tokens ...token.TokenType) {
	for i, t := range tokens {
		if i > 0 {
			p.space()
		}
		p.write(t.String())
	}
}

// ident writes an identifier, quoting it when it would not lex back as one.
func (p *Printer) ident(name string) {
	if needsQuoting(name) {
		p.write(p.dialect.QuoteIdentifier(name))
		return
	}
	p.write(name)
}

// identPath writes dot-separated identifiers.
func (p *Printer) identPath(parts ...string) {
	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !first {
			p.write(".")
		}
		p.ident(part)
		first = false
	}
}

// columnRef writes a column reference. Parts written quoted stay quoted.
func (p *Printer) columnRef(ref *parser.ColumnRef) {
	for i, part := range ref.Parts {
		if i > 0 {
			p.write(".")
		}
		if ref.IsQuoted(i) {
			p.write(p.dialect.QuoteIdentifier(part))
			continue
		}
		p.ident(part)
	}
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= 0x80:
		case (c >= '0' && c <= '9') || c == '$':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return token.IsKeyword(token.LookupIdent(strings.ToLower(name)))
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			} else {
				p.space()
			}
		}
	}
}
