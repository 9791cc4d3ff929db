package output

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"TEXT", ModeText, false},
		{"md", ModeMarkdown, false},
		{"markdown", ModeMarkdown, false},
		{"json", ModeJSON, false},
		{"yml", ModeYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
		{"", false, ModeMarkdown},
	}
	for _, tt := range tests {
		r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode %q tty %v", tt.mode, tt.isTTY)
	}
}

func TestMarkdownOutput(t *testing.T) {
	r, out, _ := newTestRenderer(ModeAuto, false)

	r.Header(2, "Schema")
	r.Table([]string{"Column", "Type"}, [][]string{{"id", "INTEGER"}, {"name", "TEXT"}})
	r.CodeBlock("sql", "SELECT 1\n")
	r.StatusLine("queries/a.sql", "success", "2 statements")
	r.Success("done")

	s := out.String()
	assert.False(t, ansiPattern.MatchString(s), "markdown output has no ANSI codes")
	assert.Contains(t, s, "## Schema\n")
	assert.Regexp(t, `\|\s*Column\s*\|\s*Type\s*\|`, s)
	assert.Regexp(t, `\|\s*id\s*\|\s*INTEGER\s*\|`, s)
	assert.Contains(t, s, "```sql\nSELECT 1\n```")
	assert.Contains(t, s, "- queries/a.sql  2 statements")
	assert.Contains(t, s, "**done**")
	assert.Equal(t, 2, strings.Count(s, "```"))
}

func TestTextOutput(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)

	r.Header(1, "Schema")
	r.Table([]string{"Column", "Type"}, [][]string{{"id", "INTEGER"}})
	r.Warning("careful")

	s := out.String()
	assert.Contains(t, s, "Schema\n")
	assert.Contains(t, s, "┌")
	assert.Contains(t, s, "INTEGER")
	assert.Contains(t, errOut.String(), "! careful")
}

func TestEncode(t *testing.T) {
	v := map[string]any{"name": "users", "columns": []string{"id"}}

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, true)
		ok, err := r.Encode(v)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"name": "users", "columns": ["id"]}`, out.String())
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeYAML, false)
		ok, err := r.Encode(v)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, out.String(), "name: users\n")
		assert.Contains(t, out.String(), "- id\n")
	})

	t.Run("text is not structured", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, true)
		ok, err := r.Encode(v)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, out.String())
	})
}
