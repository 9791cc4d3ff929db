package parser

import (
	"fmt"

	"github.com/leapstack-labs/butter/pkg/token"
)

// FROM clause parsing: table references, derived tables, table functions, JOINs.
//
// Grammar:
//
//	from_clause    → table_ref (join)*
//	table_ref      → table_name | derived_table | table_function
//	table_name     → [[catalog "."] schema "."] identifier [alias]
//	derived_table  → [LATERAL] "(" select ")" [alias]
//	table_function → identifier "(" [expr_list] ")" [alias]
//	join           → [NATURAL] join_type JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	               | "," table_ref
//	join_type      → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableRef()}
	for {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}
	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() TableRef {
	start := p.token.Pos
	lateral := p.match(token.LATERAL)

	if p.check(token.LPAREN) {
		p.nextToken()
		derived := &DerivedTable{Start: start, Lateral: lateral}
		derived.Select = p.parseSelect()
		p.expect(token.RPAREN)
		derived.Alias, derived.AliasQuoted = p.parseAlias()
		return derived
	}

	if isIdent(p.token) && p.checkPeek(token.LPAREN) {
		fn := p.parseFuncCall(p.parseIdent(), start)
		tf := &TableFunction{Start: start, Func: fn}
		tf.Alias, tf.AliasQuoted = p.parseAlias()
		return tf
	}

	table := p.parseTableName()
	table.Alias, table.AliasQuoted = p.parseAlias()
	return table
}

// parseTableName parses a table name with optional schema and catalog.
// No alias is consumed.
func (p *Parser) parseTableName() *TableName {
	table := &TableName{Start: p.token.Pos}
	if !isIdent(p.token) {
		p.fail(fmt.Sprintf(ErrUnexpectedToken, "table name", describe(p.token)))
	}

	var parts []string
	var quoted []bool
	for {
		name, q := p.parseName()
		parts = append(parts, name)
		quoted = append(quoted, q)
		if !p.match(token.DOT) {
			break
		}
	}

	switch len(parts) {
	case 1:
		table.Name, table.NameQuoted = parts[0], quoted[0]
	case 2:
		table.Schema, table.Name = parts[0], parts[1]
		table.SchemaQuoted, table.NameQuoted = quoted[0], quoted[1]
	case 3:
		table.Catalog, table.Schema, table.Name = parts[0], parts[1], parts[2]
		table.CatalogQuoted, table.SchemaQuoted, table.NameQuoted = quoted[0], quoted[1], quoted[2]
	default:
		p.failAt(KindSyntax, table.Start, fmt.Sprintf("table name has too many parts: %d", len(parts)))
	}
	return table
}

// parseJoin parses a JOIN clause. It returns nil when no join follows.
func (p *Parser) parseJoin() *Join {
	join := &Join{}

	if p.match(token.COMMA) {
		join.Type = JoinComma
		join.Right = p.parseTableRef()
		return join
	}

	if p.match(token.NATURAL) {
		join.Natural = true
	}

	switch p.token.Type {
	case token.JOIN:
		join.Type = JoinInner
	case token.INNER:
		join.Type = JoinInner
		p.nextToken()
	case token.LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(token.OUTER)
	case token.RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(token.OUTER)
	case token.FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		join.Type = JoinCross
		p.nextToken()
	default:
		if join.Natural {
			p.fail(fmt.Sprintf(ErrUnexpectedToken, "JOIN", describe(p.token)))
		}
		return nil
	}

	p.expect(token.JOIN)
	join.Right = p.parseTableRef()
	p.parseJoinCondition(join)
	return join
}

// parseJoinCondition handles ON, USING and NATURAL validation.
func (p *Parser) parseJoinCondition(join *Join) {
	switch {
	case join.Natural:
		if p.check(token.ON) || p.check(token.USING) {
			p.fail(fmt.Sprintf("NATURAL JOIN cannot have %s clause", p.token.Type))
		}
	case p.match(token.ON):
		join.Condition = p.parseExpression()
	case p.match(token.USING):
		join.Using = p.parseParenIdentList()
	}
}
