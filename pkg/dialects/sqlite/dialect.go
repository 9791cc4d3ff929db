// Package sqlite provides the SQLite dialect definition.
package sqlite

import "github.com/leapstack-labs/butter/pkg/dialect"

func init() {
	dialect.Register(SQLite)
}

// SQLite accepts "x", `x` and [x] identifier quoting.
var SQLite = dialect.New(dialect.Config{
	Name:    "sqlite",
	Aliases: []string{"sqlite3"},
	Identifiers: dialect.IdentifierConfig{
		Quote: dialect.QuotePair{Open: '"', Close: '"'},
		Alternates: []dialect.QuotePair{
			{Open: '`', Close: '`'},
			{Open: '[', Close: ']'},
		},
		Normalization: dialect.NormCaseInsensitive,
	},
	Placeholder: dialect.PlaceholderQuestion,
}).
	WithReservedWords(
		"abort", "action", "add", "after", "all", "alter", "analyze", "and", "as",
		"asc", "attach", "autoincrement", "before", "begin", "between", "by",
		"cascade", "case", "cast", "check", "collate", "column", "commit",
		"conflict", "constraint", "create", "cross", "default", "delete", "desc",
		"distinct", "drop", "else", "end", "escape", "except", "exists", "from",
		"full", "group", "having", "in", "index", "inner", "insert", "intersect",
		"into", "is", "join", "key", "left", "like", "limit", "natural", "not",
		"null", "offset", "on", "or", "order", "outer", "primary", "references",
		"returning", "right", "select", "set", "table", "then", "to", "union",
		"unique", "update", "using", "values", "when", "where", "with",
	).
	Build()
