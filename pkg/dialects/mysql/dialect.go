// Package mysql provides the MySQL dialect definition.
package mysql

import "github.com/leapstack-labs/butter/pkg/dialect"

func init() {
	dialect.Register(MySQL)
}

// MySQL quotes identifiers with backticks and allows "#" comments.
var MySQL = dialect.New(dialect.Config{
	Name:    "mysql",
	Aliases: []string{"mariadb"},
	Identifiers: dialect.IdentifierConfig{
		Quote:         dialect.QuotePair{Open: '`', Close: '`'},
		Normalization: dialect.NormCaseInsensitive,
	},
	Placeholder:  dialect.PlaceholderQuestion,
	HashComments: true,
}).
	WithReservedWords(
		"accessible", "add", "all", "alter", "and", "as", "asc", "between",
		"by", "case", "change", "check", "column", "condition", "constraint",
		"create", "cross", "database", "default", "delete", "desc", "distinct",
		"drop", "else", "exists", "false", "for", "foreign", "from", "group",
		"having", "if", "in", "index", "inner", "insert", "interval", "into",
		"is", "join", "key", "keys", "left", "like", "limit", "natural", "not",
		"null", "on", "or", "order", "outer", "primary", "references", "right",
		"schema", "select", "set", "table", "then", "to", "true", "union",
		"unique", "update", "usage", "using", "values", "when", "where", "with",
	).
	Build()
