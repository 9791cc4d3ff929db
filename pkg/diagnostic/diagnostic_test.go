package diagnostic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/dialects/generic"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLine(t *testing.T) {
	tests := []struct {
		msg  string
		line int
		ok   bool
	}{
		{"syntax error: expected table name at Line: 3, Column: 7", 3, true},
		{"Expected ), found: EOF at Line: 12, Column 4", 12, true},
		{"Line: 1,", 1, true},
		{"tokenize error: unterminated string", 0, false},
		{"Line: 4 Column: 2", 0, false},
		{"Line: x, Column: 2", 0, false},
		{"Line: 0, Column: 2", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			line, ok := diagnostic.ExtractLine(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.line, line)
		})
	}
}

func TestWindow(t *testing.T) {
	source := "l1\nl2\nl3\nl4\nl5\nl6\n"

	tests := []struct {
		name string
		line int
		want string
	}{
		{"middle", 4, "2\tl2\n3\tl3\n4\tl4\n5\tl5\n6\tl6"},
		{"first line", 1, "1\tl1\n2\tl2\n3\tl3"},
		{"second line", 2, "1\tl1\n2\tl2\n3\tl3\n4\tl4"},
		{"last line", 6, "4\tl4\n5\tl5\n6\tl6"},
		{"one past the end", 7, "5\tl5\n6\tl6"},
		{"far past the end", 40, ""},
		{"zero", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostic.Window(source, tt.line))
		})
	}

	assert.Equal(t, "1\tonly", diagnostic.Window("only", 1))
	assert.Equal(t, "1\ta\n2\tb", diagnostic.Window("a\r\nb\r\n", 1))
	assert.Empty(t, diagnostic.Window("", 1))
}

func TestFromError_ParseError(t *testing.T) {
	source := "SELECT a\nFROM t\nWHERE )\n"
	_, err := parser.Parse(source, generic.Generic)
	require.Error(t, err)

	d := diagnostic.FromError("queries/q.sql", source, err)
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	require.True(t, d.HasLocation())
	assert.Equal(t, 3, d.Pos.Line)
	assert.Equal(t, "1\tSELECT a\n2\tFROM t\n3\tWHERE )", d.Excerpt)

	var pe *parser.ParseError
	assert.True(t, errors.As(d, &pe), "the parse error stays reachable")
	assert.Contains(t, d.Error(), "queries/q.sql:3:7: error: syntax error")
}

func TestFromError_MessageOnly(t *testing.T) {
	source := "a\nb\nc"
	err := fmt.Errorf("bad input at Line: 2, Column: 1")

	d := diagnostic.FromError("x.sql", source, err)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, "1\ta\n2\tb\n3\tc", d.Excerpt)
	assert.Equal(t, "x.sql:2: error: bad input at Line: 2, Column: 1", d.Error())
}

func TestFromError_NoLocation(t *testing.T) {
	d := diagnostic.FromError("x.sql", "SELECT 1", errors.New("permission denied"))
	assert.False(t, d.HasLocation())
	assert.Empty(t, d.Excerpt)
	assert.Equal(t, "x.sql: error: permission denied", d.Error())
	assert.Equal(t, d.Error(), d.Long())
}

func TestDiagnostic_Long(t *testing.T) {
	d := diagnostic.New("q.sql", diagnostic.SeverityWarning, token.Position{Line: 1, Column: 8}, "unresolved", "SELECT x")
	assert.Equal(t, "q.sql:1:8: warning: unresolved\n    1\tSELECT x", d.Long())
}

func TestDiagnostic_JSON(t *testing.T) {
	d := diagnostic.New("q.sql", diagnostic.SeverityWarning, token.Position{Line: 1, Column: 8}, "unresolved", "SELECT x")
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"q.sql","severity":"warning","message":"unresolved","excerpt":"1\tSELECT x","line":1,"column":8}`, string(data))
}

func TestList(t *testing.T) {
	l := diagnostic.List{
		{Severity: diagnostic.SeverityWarning},
		{Severity: diagnostic.SeverityError},
		{Severity: diagnostic.SeverityWarning},
	}
	assert.Equal(t, 2, l.Count(diagnostic.SeverityWarning))
	assert.True(t, l.HasErrors())
	assert.False(t, diagnostic.List{}.HasErrors())
}

func TestParseSeverity(t *testing.T) {
	s, ok := diagnostic.ParseSeverity("ERROR")
	assert.True(t, ok)
	assert.Equal(t, diagnostic.SeverityError, s)

	_, ok = diagnostic.ParseSeverity("fatal")
	assert.False(t, ok)
}
