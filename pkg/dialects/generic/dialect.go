// Package generic provides the ANSI-flavored default dialect.
package generic

import "github.com/leapstack-labs/butter/pkg/dialect"

func init() {
	dialect.Register(Generic)
}

// Generic accepts double-quoted and backtick identifiers and compares
// names case-insensitively.
var Generic = dialect.New(dialect.Config{
	Name:    "generic",
	Aliases: []string{"ansi"},
	Identifiers: dialect.IdentifierConfig{
		Quote:         dialect.QuotePair{Open: '"', Close: '"'},
		Alternates:    []dialect.QuotePair{{Open: '`', Close: '`'}},
		Normalization: dialect.NormCaseInsensitive,
	},
	Placeholder: dialect.PlaceholderQuestion,
}).
	WithReservedWords("select", "from", "where", "group", "order", "by", "table", "user").
	Build()
