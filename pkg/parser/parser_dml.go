package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/token"
)

// Data modification parsing: INSERT, UPDATE, DELETE.
//
// Grammar:
//
//	insert      → (INSERT [OR action | IGNORE] | REPLACE) [INTO] table_name [AS identifier]
//	              ["(" ident_list ")"] (VALUES row ("," row)* | select | DEFAULT VALUES)
//	              [upsert] [returning]
//	row         → "(" expr_list ")"
//	upsert      → ON CONFLICT ["(" ident_list ")" [WHERE expr]]
//	              DO (NOTHING | UPDATE SET assignments [WHERE expr])
//	            | ON DUPLICATE KEY UPDATE assignments
//	update      → UPDATE [OR action] table_name [alias] SET assignments
//	              [FROM from_clause] [WHERE expr] [ORDER BY order_list] [LIMIT expr] [returning]
//	delete      → DELETE FROM table_name [alias] [USING from_clause]
//	              [WHERE expr] [ORDER BY order_list] [LIMIT expr] [returning]
//	assignments → column_ref "=" expr ("," column_ref "=" expr)*
//	returning   → RETURNING select_list

// parseInsert parses an INSERT or REPLACE statement.
func (p *Parser) parseInsert() *InsertStmt {
	stmt := &InsertStmt{Start: p.token.Pos}

	if p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "replace") {
		stmt.Or = "REPLACE"
		stmt.Replace = true
		p.nextToken()
	} else {
		p.expect(token.INSERT)
		switch {
		case p.match(token.OR):
			stmt.Or = strings.ToUpper(p.parseIdent())
		case p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "ignore"):
			stmt.Or = "IGNORE"
			p.nextToken()
		}
	}

	p.match(token.INTO)
	stmt.Table = p.parseTableName()
	if p.match(token.AS) {
		stmt.Table.Alias, stmt.Table.AliasQuoted = p.parseName()
	}

	if p.check(token.LPAREN) && !p.peekIsQuery() {
		stmt.Columns, stmt.ColumnsQuoted = p.parseParenNameList()
	}

	switch {
	case p.match(token.VALUES):
		stmt.Values = append(stmt.Values, p.parseValuesRow())
		for p.match(token.COMMA) {
			stmt.Values = append(stmt.Values, p.parseValuesRow())
		}
	case p.check(token.SELECT) || p.check(token.WITH) || p.check(token.LPAREN):
		stmt.Select = p.parseSelect()
	case p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "default"):
		p.nextToken()
		p.expect(token.VALUES)
		stmt.DefaultValues = true
	default:
		p.fail(fmt.Sprintf(ErrUnexpectedToken, "VALUES or SELECT", describe(p.token)))
	}

	if p.check(token.ON) {
		stmt.OnConflict = p.parseUpsert()
	}
	if p.check(token.RETURNING) {
		stmt.Returning = p.parseReturning()
	}
	return stmt
}

// parseValuesRow parses "( expr_list )".
func (p *Parser) parseValuesRow() []Expr {
	p.expect(token.LPAREN)
	row := p.parseExpressionList()
	p.expect(token.RPAREN)
	return row
}

// parseUpsert parses ON CONFLICT ... or ON DUPLICATE KEY UPDATE ...
func (p *Parser) parseUpsert() *OnConflict {
	p.expect(token.ON)
	oc := &OnConflict{}

	if p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "duplicate") {
		p.nextToken()
		if !p.check(token.IDENT) || !strings.EqualFold(p.token.Literal, "key") {
			p.fail(fmt.Sprintf(ErrUnexpectedToken, "KEY", describe(p.token)))
		}
		p.nextToken()
		p.expect(token.UPDATE)
		oc.Set = p.parseAssignments()
		return oc
	}

	p.expect(token.CONFLICT)
	if p.check(token.LPAREN) {
		oc.Target = p.parseParenIdentList()
		if p.match(token.WHERE) {
			// Partial-index predicate; only its placeholders matter.
			oc.Where = p.parseExpression()
		}
	} else if p.match(token.ON) {
		// ON CONFLICT ON CONSTRAINT name
		p.parseIdent()
		p.parseIdent()
	}

	p.expect(token.DO)
	if p.match(token.NOTHING) {
		oc.DoNothing = true
		return oc
	}
	p.expect(token.UPDATE)
	p.expect(token.SET)
	oc.Set = p.parseAssignments()
	if p.match(token.WHERE) {
		oc.Where = p.parseExpression()
	}
	return oc
}

// parseAssignments parses "col = expr (, col = expr)*".
func (p *Parser) parseAssignments() []*Assignment {
	var set []*Assignment
	for {
		start := p.token.Pos
		col := &ColumnRef{Start: start}
		for {
			name, quoted := p.parseName()
			col.Parts = append(col.Parts, name)
			col.Quoted = append(col.Quoted, quoted)
			if !p.match(token.DOT) {
				break
			}
		}
		p.expect(token.EQ)
		set = append(set, &Assignment{Column: col, Value: p.parseExpression()})
		if !p.match(token.COMMA) {
			return set
		}
	}
}

// parseReturning parses RETURNING select_list.
func (p *Parser) parseReturning() []SelectItem {
	p.expect(token.RETURNING)
	return p.parseSelectList()
}

// parseUpdate parses an UPDATE statement.
func (p *Parser) parseUpdate() *UpdateStmt {
	stmt := &UpdateStmt{Start: p.token.Pos}
	p.expect(token.UPDATE)
	if p.match(token.OR) {
		p.parseIdent()
	}

	stmt.Table = p.parseTableName()
	stmt.Table.Alias, stmt.Table.AliasQuoted = p.parseAlias()

	p.expect(token.SET)
	stmt.Set = p.parseAssignments()

	if p.match(token.FROM) {
		stmt.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	if p.check(token.ORDER) {
		stmt.OrderBy = p.parseOrderBy()
	}
	if p.match(token.LIMIT) {
		stmt.Limit = p.parseExpression()
	}
	if p.check(token.RETURNING) {
		stmt.Returning = p.parseReturning()
	}
	return stmt
}

// parseDelete parses a DELETE statement.
func (p *Parser) parseDelete() *DeleteStmt {
	stmt := &DeleteStmt{Start: p.token.Pos}
	p.expect(token.DELETE)
	p.expect(token.FROM)

	stmt.Table = p.parseTableName()
	stmt.Table.Alias, stmt.Table.AliasQuoted = p.parseAlias()

	if p.match(token.USING) {
		stmt.Using = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	if p.check(token.ORDER) {
		stmt.OrderBy = p.parseOrderBy()
	}
	if p.match(token.LIMIT) {
		stmt.Limit = p.parseExpression()
	}
	if p.check(token.RETURNING) {
		stmt.Returning = p.parseReturning()
	}
	return stmt
}
