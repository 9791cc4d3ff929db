package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		strategy NormalizationStrategy
		input    string
		want     string
	}{
		{"lowercase", NormLowercase, "Users", "users"},
		{"uppercase", NormUppercase, "Users", "USERS"},
		{"case sensitive", NormCaseSensitive, "Users", "Users"},
		{"case insensitive", NormCaseInsensitive, "Users", "users"},
		{"case insensitive non-ascii", NormCaseInsensitive, "ÄPFEL", "äpfel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Config{Name: "t", Identifiers: IdentifierConfig{Normalization: tt.strategy}}).Build()
			assert.Equal(t, tt.want, d.NormalizeName(tt.input))
		})
	}
}

func TestEqualNames(t *testing.T) {
	ci := New(Config{Name: "ci", Identifiers: IdentifierConfig{Normalization: NormCaseInsensitive}}).Build()
	cs := New(Config{Name: "cs", Identifiers: IdentifierConfig{Normalization: NormCaseSensitive}}).Build()

	assert.True(t, ci.EqualNames("Orders", "orders"))
	assert.False(t, cs.EqualNames("Orders", "orders"))
}

func TestNormalizeIdent(t *testing.T) {
	tests := []struct {
		norm   NormalizationStrategy
		name   string
		quoted bool
		want   string
	}{
		{NormLowercase, "Users", false, "users"},
		{NormLowercase, "Users", true, "Users"},
		{NormUppercase, "users", false, "USERS"},
		{NormUppercase, "users", true, "users"},
		{NormCaseInsensitive, "Users", true, "users"},
		{NormCaseSensitive, "Users", false, "Users"},
	}

	for _, tt := range tests {
		d := New(Config{Name: "t", Identifiers: IdentifierConfig{Normalization: tt.norm}}).Build()
		assert.Equal(t, tt.want, d.NormalizeIdent(tt.name, tt.quoted), "%v %q quoted=%v", tt.norm, tt.name, tt.quoted)
	}
}

func TestQuoting(t *testing.T) {
	d := New(Config{
		Name: "t",
		Identifiers: IdentifierConfig{
			Quote:      QuotePair{'"', '"'},
			Alternates: []QuotePair{{'[', ']'}},
		},
	}).WithReservedWords("order").Build()

	closing, ok := d.IsQuoteOpen('[')
	require.True(t, ok)
	assert.Equal(t, byte(']'), closing)
	_, ok = d.IsQuoteOpen('`')
	assert.False(t, ok)

	assert.Equal(t, `"order"`, d.QuoteIdentifierIfNeeded("order"))
	assert.Equal(t, "total", d.QuoteIdentifierIfNeeded("total"))
	assert.Equal(t, `"a""b"`, d.QuoteIdentifier(`a"b`))
}

func TestFormatPlaceholder(t *testing.T) {
	q := New(Config{Name: "q"}).Build()
	dollar := New(Config{Name: "d", Placeholder: PlaceholderDollar}).Build()
	assert.Equal(t, "?", q.FormatPlaceholder(3))
	assert.Equal(t, "$3", dollar.FormatPlaceholder(3))
}

func TestRegistry(t *testing.T) {
	Register(New(Config{Name: "RegistryTest", Aliases: []string{"rt"}}).Build())

	d, ok := Get("registrytest")
	require.True(t, ok)
	assert.Equal(t, "RegistryTest", d.Name)

	d, ok = Get("RT")
	require.True(t, ok)
	assert.Equal(t, "RegistryTest", d.Name)

	assert.Contains(t, List(), "registrytest")

	_, err := Lookup("")
	assert.ErrorIs(t, err, ErrDialectRequired)

	_, err = Lookup("oracle")
	require.ErrorIs(t, err, ErrUnknownDialect)
	assert.Contains(t, err.Error(), "registrytest")
}
