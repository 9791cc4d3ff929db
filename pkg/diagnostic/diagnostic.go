// Package diagnostic turns analysis failures into located, human-readable
// reports with a numbered excerpt of the offending source.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
)

// Diagnostic is a problem found in one source file. Pos is unset when no
// location is known.
type Diagnostic struct {
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Message  string         `json:"message" yaml:"message"`
	Pos      token.Position `json:"-" yaml:"-"`
	Excerpt  string         `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Err      error          `json:"-" yaml:"-"`

	// Mirrors of Pos for serialized output.
	Line   int `json:"line,omitempty" yaml:"line,omitempty"`
	Column int `json:"column,omitempty" yaml:"column,omitempty"`
}

// New creates a diagnostic located at pos with an excerpt of source.
func New(path string, sev Severity, pos token.Position, msg, source string) *Diagnostic {
	d := &Diagnostic{Path: path, Severity: sev, Message: msg}
	d.locate(pos, source)
	return d
}

// FromError wraps err as an error-severity diagnostic. The location comes
// from a *parser.ParseError when err carries one, and otherwise from a
// "Line: <n>," marker in the message.
func FromError(path, source string, err error) *Diagnostic {
	d := &Diagnostic{Path: path, Severity: SeverityError, Message: err.Error(), Err: err}
	d.locate(Locate(err), source)
	return d
}

// Locate returns the position an error refers to, if any.
func Locate(err error) token.Position {
	if pe, ok := parser.AsParseError(err); ok && pe.Pos.IsValid() {
		return pe.Pos
	}
	if line, ok := ExtractLine(err.Error()); ok {
		return token.Position{Line: line}
	}
	return token.Position{}
}

func (d *Diagnostic) locate(pos token.Position, source string) {
	d.Pos = pos
	if !pos.IsValid() {
		return
	}
	d.Line, d.Column = pos.Line, pos.Column
	d.Excerpt = Window(source, pos.Line)
}

// HasLocation reports whether the diagnostic points at a line.
func (d *Diagnostic) HasLocation() bool {
	return d.Pos.IsValid()
}

// Error renders "path:line:col: severity: message".
func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.Path != "" {
		b.WriteString(d.Path)
		if d.Pos.IsValid() {
			fmt.Fprintf(&b, ":%d", d.Pos.Line)
			if d.Pos.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Pos.Column)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Unwrap returns the underlying error.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Long renders the message followed by the indented excerpt.
func (d *Diagnostic) Long() string {
	if d.Excerpt == "" {
		return d.Error()
	}
	return d.Error() + "\n" + indent(d.Excerpt, "    ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// List is a set of diagnostics.
type List []*Diagnostic

// Count returns how many diagnostics have the given severity.
func (l List) Count(sev Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	return l.Count(SeverityError) > 0
}
