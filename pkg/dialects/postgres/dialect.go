// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/butter/pkg/dialect"

func init() {
	dialect.Register(Postgres)
}

// postgresReservedWords contains common PostgreSQL reserved words.
// For a complete list, use pg_get_keywords() at runtime.
var postgresReservedWords = []string{
	"user", "order", "group", "table", "select", "from", "where", "index",
	"all", "and", "any", "array", "as", "asc", "authorization", "between",
	"both", "case", "cast", "check", "collate", "column", "constraint",
	"create", "cross", "current_date", "current_role", "current_time",
	"current_timestamp", "current_user", "default", "desc", "distinct", "do",
	"else", "end", "except", "false", "fetch", "for", "foreign", "full",
	"grant", "having", "ilike", "in", "inner", "intersect", "into", "is",
	"join", "lateral", "leading", "left", "like", "limit", "natural", "not",
	"null", "offset", "on", "only", "or", "outer", "primary", "references",
	"returning", "right", "some", "then", "to", "true", "union", "unique",
	"using", "when", "window", "with",
}

// Postgres is the PostgreSQL dialect. Unquoted identifiers fold to
// lowercase and "::" casts are accepted.
var Postgres = dialect.New(dialect.Config{
	Name:    "postgresql",
	Aliases: []string{"postgres", "pg"},
	Identifiers: dialect.IdentifierConfig{
		Quote:         dialect.QuotePair{Open: '"', Close: '"'},
		Normalization: dialect.NormLowercase,
	},
	Placeholder:  dialect.PlaceholderDollar,
	CastOperator: true,
}).
	WithReservedWords(postgresReservedWords...).
	Build()
