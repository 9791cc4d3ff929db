package parser

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/token"
)

// CREATE TABLE parsing.
//
// Grammar:
//
//	create_table → CREATE [TEMP|TEMPORARY] TABLE [IF NOT EXISTS] table_name
//	               ( "(" element ("," element)* ")" [table_options] | AS select )
//	element      → column_def | table_constraint
//	column_def   → identifier [type_text] constraint*
//	type_text    → every token up to the first constraint keyword, "," or ")"
//
// Column constraints and table constraints are skipped; only names and type
// text are kept.

// columnStopWords end a column's type text.
var columnStopWords = map[string]bool{
	"primary": true, "not": true, "null": true, "default": true,
	"unique": true, "check": true, "references": true, "constraint": true,
	"collate": true, "generated": true, "auto_increment": true,
	"autoincrement": true, "comment": true, "on": true, "as": true,
}

// tableConstraintWords start a table-level constraint element.
var tableConstraintWords = map[string]bool{
	"constraint": true, "primary": true, "unique": true, "check": true,
	"foreign": true, "exclude": true,
}

// indexWords start a MySQL inline index ("KEY idx (a)") but are also
// plausible column names.
var indexWords = map[string]bool{
	"key": true, "index": true, "fulltext": true, "spatial": true,
}

// sizedTypes take a parenthesized length, so "key VARCHAR(20)" is a column.
var sizedTypes = map[string]bool{
	"varchar": true, "char": true, "character": true, "nvarchar": true,
	"nchar": true, "varbinary": true, "binary": true, "bit": true,
	"decimal": true, "numeric": true, "float": true, "double": true,
	"real": true, "int": true, "integer": true, "tinyint": true,
	"smallint": true, "mediumint": true, "bigint": true, "enum": true,
	"set": true, "timestamp": true, "time": true, "datetime": true,
}

// parseCreateTable parses a CREATE TABLE statement.
func (p *Parser) parseCreateTable() *CreateTableStmt {
	stmt := &CreateTableStmt{Start: p.token.Pos}
	p.expect(token.CREATE)
	if p.match(token.TEMP) || p.match(token.TEMPORARY) {
		stmt.Temporary = true
	}
	p.expect(token.TABLE)
	if p.check(token.IF) {
		p.nextToken()
		p.expect(token.NOT)
		p.expect(token.EXISTS)
		stmt.IfNotExists = true
	}
	stmt.Name = p.parseTableName()

	if p.match(token.AS) {
		stmt.AsSelect = p.parseSelect()
		return stmt
	}

	p.expect(token.LPAREN)
	for {
		if col := p.parseTableElement(); col != nil {
			stmt.Columns = append(stmt.Columns, col)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)

	// Table options (WITHOUT ROWID, ENGINE=InnoDB, STRICT) run to the end
	// of the statement.
	for !p.check(token.SEMICOLON) && !p.check(token.EOF) {
		if p.check(token.ILLEGAL) {
			p.fail("unexpected input")
		}
		p.nextToken()
	}
	return stmt
}

// isTableConstraint reports whether the cursor starts a table-level
// constraint rather than a column definition.
func (p *Parser) isTableConstraint() bool {
	if p.token.Quoted {
		return false
	}
	word := strings.ToLower(p.token.Literal)
	if tableConstraintWords[word] {
		return true
	}
	if !indexWords[word] {
		return false
	}
	switch {
	case p.checkPeek(token.LPAREN):
		return true
	case p.checkPeek(token.IDENT) && indexWords[strings.ToLower(p.peek.Literal)]:
		return true
	case p.checkPeek(token.IDENT) && p.peek2.Type == token.LPAREN:
		return !sizedTypes[strings.ToLower(p.peek.Literal)]
	}
	return false
}

// parseTableElement parses a column definition, or skips a table
// constraint and returns nil.
func (p *Parser) parseTableElement() *ColumnDef {
	if p.isTableConstraint() {
		p.skipBalanced()
		return nil
	}

	col := &ColumnDef{Start: p.token.Pos}
	// Column names may be non-reserved keywords ("key", "end", "desc").
	if token.IsKeyword(p.token.Type) {
		col.Name = p.token.Literal
		p.nextToken()
	} else {
		col.Name, col.Quoted = p.parseName()
	}

	start := p.token.Pos.Offset
	depth := 0
	for !p.atElementEnd(depth) {
		if depth == 0 && !p.token.Quoted && columnStopWords[strings.ToLower(p.token.Literal)] {
			break
		}
		switch p.token.Type {
		case token.LPAREN, token.LBRACKET:
			depth++
		case token.RPAREN, token.RBRACKET:
			depth--
		}
		p.nextToken()
	}
	if p.token.Pos.Offset > start {
		col.Type = collapseSpace(p.input[start:p.prevEnd])
	}

	p.skipBalanced()
	return col
}

// atElementEnd reports whether the cursor is at "," or ")" at depth 0, or at EOF.
func (p *Parser) atElementEnd(depth int) bool {
	switch p.token.Type {
	case token.EOF, token.SEMICOLON:
		return true
	case token.COMMA, token.RPAREN:
		return depth == 0
	case token.ILLEGAL:
		p.fail("unexpected input")
	}
	return false
}

// skipBalanced advances to the next "," or ")" at depth 0, or to the end
// of the statement.
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.atElementEnd(depth) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.nextToken()
	}
}
