package resolver

import (
	"encoding/json"

	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/leapstack-labs/butter/pkg/token"
)

// StatementKind classifies an analyzed statement.
type StatementKind string

// Statement kinds.
const (
	KindSelect StatementKind = "select"
	KindInsert StatementKind = "insert"
	KindUpdate StatementKind = "update"
	KindDelete StatementKind = "delete"
	KindOther  StatementKind = "other"
)

// Source is the provenance of an output field. It is one of TableColumn,
// Computed or Unresolved.
type Source interface {
	Kind() SourceKind
	sealed()
}

// SourceKind names the concrete Source variant.
type SourceKind string

// Source kinds.
const (
	SourceTableColumn SourceKind = "table_column"
	SourceComputed    SourceKind = "computed"
	SourceUnresolved  SourceKind = "unresolved"
)

// TableColumn is a field read directly from a table column.
type TableColumn struct {
	Database string
	Schema   string
	Table    string
	Column   string
}

// Ref returns the table part of the provenance.
func (c TableColumn) Ref() schema.TableRef {
	return schema.TableRef{Database: c.Database, Schema: c.Schema, Table: c.Table}
}

// Computed is a field derived from an expression.
type Computed struct {
	Expression string
}

// Unresolved is a field whose origin could not be determined.
type Unresolved struct {
	Reason string
}

func (TableColumn) Kind() SourceKind { return SourceTableColumn }
func (Computed) Kind() SourceKind    { return SourceComputed }
func (Unresolved) Kind() SourceKind  { return SourceUnresolved }

func (TableColumn) sealed() {}
func (Computed) sealed()    {}
func (Unresolved) sealed()  {}

// OutputField is one column of a statement's result set.
type OutputField struct {
	Name   string
	Source Source
	Type   string // declared column type; empty when unknown
	Pos    token.Position
}

// Resolved reports whether the field has a known origin.
func (f OutputField) Resolved() bool {
	_, bad := f.Source.(Unresolved)
	return !bad
}

// InputField is one bound parameter of a statement.
type InputField struct {
	Name    string
	Type    string // inferred from context; empty when unknown
	Ordinal int    // 1-based, by first occurrence
	Pos     token.Position
}

// Notice is a non-fatal observation made while resolving a statement.
type Notice struct {
	Message string
	Pos     token.Position
}

// QueryAnalysis is the result of resolving one statement.
type QueryAnalysis struct {
	Kind    StatementKind
	Outputs []OutputField
	Inputs  []InputField
	Notices []Notice
	Pos     token.Position
}

// Unresolved returns the output fields without a known origin.
func (a *QueryAnalysis) Unresolved() []OutputField {
	var out []OutputField
	for _, f := range a.Outputs {
		if !f.Resolved() {
			out = append(out, f)
		}
	}
	return out
}

// ---------- Serialization ----------

type sourceDoc struct {
	Kind       SourceKind `json:"kind" yaml:"kind"`
	Database   string     `json:"database,omitempty" yaml:"database,omitempty"`
	Schema     string     `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table      string     `json:"table,omitempty" yaml:"table,omitempty"`
	Column     string     `json:"column,omitempty" yaml:"column,omitempty"`
	Expression string     `json:"expression,omitempty" yaml:"expression,omitempty"`
	Reason     string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func docOf(s Source) sourceDoc {
	switch s := s.(type) {
	case TableColumn:
		return sourceDoc{Kind: s.Kind(), Database: s.Database, Schema: s.Schema, Table: s.Table, Column: s.Column}
	case Computed:
		return sourceDoc{Kind: s.Kind(), Expression: s.Expression}
	case Unresolved:
		return sourceDoc{Kind: s.Kind(), Reason: s.Reason}
	}
	return sourceDoc{}
}

type outputDoc struct {
	Name   string    `json:"name" yaml:"name"`
	Type   string    `json:"type" yaml:"type"`
	Source sourceDoc `json:"source" yaml:"source"`
	Line   int       `json:"line,omitempty" yaml:"line,omitempty"`
}

func (f OutputField) doc() outputDoc {
	return outputDoc{Name: f.Name, Type: f.Type, Source: docOf(f.Source), Line: f.Pos.Line}
}

// MarshalJSON encodes the source as an object tagged with its kind.
func (f OutputField) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.doc())
}

// MarshalYAML mirrors MarshalJSON.
func (f OutputField) MarshalYAML() (any, error) {
	return f.doc(), nil
}

type inputDoc struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// MarshalJSON encodes the field with its source line.
func (f InputField) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputDoc{Name: f.Name, Type: f.Type, Ordinal: f.Ordinal, Line: f.Pos.Line})
}

// MarshalYAML mirrors MarshalJSON.
func (f InputField) MarshalYAML() (any, error) {
	return inputDoc{Name: f.Name, Type: f.Type, Ordinal: f.Ordinal, Line: f.Pos.Line}, nil
}

type noticeDoc struct {
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// MarshalJSON encodes the notice with its position.
func (n Notice) MarshalJSON() ([]byte, error) {
	return json.Marshal(noticeDoc{Message: n.Message, Line: n.Pos.Line, Column: n.Pos.Column})
}

// MarshalYAML mirrors MarshalJSON.
func (n Notice) MarshalYAML() (any, error) {
	return noticeDoc{Message: n.Message, Line: n.Pos.Line, Column: n.Pos.Column}, nil
}

type analysisDoc struct {
	Kind    StatementKind `json:"kind" yaml:"kind"`
	Line    int           `json:"line,omitempty" yaml:"line,omitempty"`
	Outputs []OutputField `json:"outputs" yaml:"outputs"`
	Inputs  []InputField  `json:"inputs" yaml:"inputs"`
	Notices []Notice      `json:"notices,omitempty" yaml:"notices,omitempty"`
}

func (a *QueryAnalysis) doc() analysisDoc {
	d := analysisDoc{Kind: a.Kind, Line: a.Pos.Line, Outputs: a.Outputs, Inputs: a.Inputs, Notices: a.Notices}
	if d.Outputs == nil {
		d.Outputs = []OutputField{}
	}
	if d.Inputs == nil {
		d.Inputs = []InputField{}
	}
	return d
}

// MarshalJSON encodes the analysis with empty slices rather than null.
func (a *QueryAnalysis) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.doc())
}

// MarshalYAML mirrors MarshalJSON.
func (a *QueryAnalysis) MarshalYAML() (any, error) {
	return a.doc(), nil
}
