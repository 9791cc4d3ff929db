// Package dialect provides SQL dialect configuration.
//
// A Dialect tells the lexer which quote characters delimit identifiers,
// which comment and cast spellings are legal, and how identifiers are
// normalized for comparison. Concrete dialects are registered from
// pkg/dialects/*/ packages.
package dialect

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizationStrategy defines how identifiers are normalized for comparison.
type NormalizationStrategy int

const (
	// NormLowercase folds identifiers to lowercase (PostgreSQL).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase folds identifiers to uppercase.
	NormUppercase
	// NormCaseSensitive compares identifiers exactly as written.
	NormCaseSensitive
	// NormCaseInsensitive compares identifiers with Unicode case folding (SQLite, MySQL).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc.
	PlaceholderDollar
)

// QuotePair is an opening and closing identifier quote.
type QuotePair struct {
	Open  byte
	Close byte
}

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         QuotePair   // canonical quote used when rendering
	Alternates    []QuotePair // additional quotes accepted by the lexer
	Normalization NormalizationStrategy
}

// Config is the static definition of a dialect.
type Config struct {
	Name        string
	Aliases     []string
	Identifiers IdentifierConfig
	Placeholder PlaceholderStyle

	// CastOperator enables the "expr::type" cast syntax.
	CastOperator bool
	// HashComments enables "#" line comments.
	HashComments bool
}

// Dialect is an immutable, registered SQL dialect.
type Dialect struct {
	Config

	reserved map[string]struct{}
}

// Builder assembles a Dialect.
type Builder struct {
	d *Dialect
}

// New starts building a dialect from cfg.
func New(cfg Config) *Builder {
	return &Builder{d: &Dialect{
		Config:   cfg,
		reserved: make(map[string]struct{}),
	}}
}

// WithReservedWords marks words that must be quoted when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.d.reserved[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	return b.d
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case NormLowercase:
		return strings.ToLower(name)
	case NormUppercase:
		return strings.ToUpper(name)
	case NormCaseInsensitive:
		// A Caser carries state, so each call gets its own.
		return cases.Fold().String(name)
	default: // NormCaseSensitive
		return name
	}
}

// EqualNames reports whether two identifiers refer to the same object.
func (d *Dialect) EqualNames(a, b string) bool {
	return d.NormalizeName(a) == d.NormalizeName(b)
}

// NormalizeIdent normalizes an identifier that may have been quoted. Quoted
// names are exact in dialects that fold unquoted names to one case.
func (d *Dialect) NormalizeIdent(name string, quoted bool) string {
	if quoted {
		switch d.Identifiers.Normalization {
		case NormLowercase, NormUppercase:
			return name
		}
	}
	return d.NormalizeName(name)
}

// IsQuoteOpen reports whether c opens a quoted identifier, returning the
// matching closing character.
func (d *Dialect) IsQuoteOpen(c byte) (byte, bool) {
	if c != 0 && c == d.Identifiers.Quote.Open {
		return d.Identifiers.Quote.Close, true
	}
	for _, q := range d.Identifiers.Alternates {
		if c == q.Open {
			return q.Close, true
		}
	}
	return 0, false
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reserved[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's canonical quote.
func (d *Dialect) QuoteIdentifier(name string) string {
	q := d.Identifiers.Quote
	closing := string(q.Close)
	escaped := strings.ReplaceAll(name, closing, closing+closing)
	return string(q.Open) + escaped + closing
}

// QuoteIdentifierIfNeeded quotes an identifier only if it's a reserved word.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// FormatPlaceholder returns a placeholder for the given 1-based parameter index.
func (d *Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// String returns the dialect name.
func (d *Dialect) String() string {
	return d.Name
}
