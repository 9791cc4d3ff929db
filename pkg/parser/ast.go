package parser

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// Expr is a value expression.
type Expr interface {
	Node
	exprNode()
}

// TableRef is an item in a FROM clause.
type TableRef interface {
	Node
	tableRefNode()
}

// ---------- Statements ----------

// SelectStmt is a complete SELECT, including an optional WITH clause.
type SelectStmt struct {
	Start token.Position
	With  *WithClause
	Body  *SelectBody
}

// WithClause holds common table expressions.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE is a single common table expression.
type CTE struct {
	Name       string
	NameQuoted bool
	Columns    []string
	Select     *SelectStmt
}

// SetOpType is UNION, INTERSECT or EXCEPT.
type SetOpType string

// Set operations.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectBody is a select core optionally combined with another body.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SelectCore is a single SELECT ... FROM ... block.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem is one projection item.
type SelectItem struct {
	Start           token.Position
	Star            bool     // SELECT *
	TableStar       []string // SELECT t.* (qualifier parts)
	TableStarQuoted []bool   // parallel to TableStar
	Expr            Expr
	Alias           string
}

// OrderByItem is one ORDER BY entry.
type OrderByItem struct {
	Expr  Expr
	Desc  bool
	Nulls string // "", "FIRST" or "LAST"
}

// InsertStmt is INSERT INTO ... VALUES | SELECT.
type InsertStmt struct {
	Start         token.Position
	Or            string // conflict clause for INSERT OR <action>
	Replace       bool   // written as REPLACE INTO
	Table         *TableName
	Columns       []string
	ColumnsQuoted []bool // parallel to Columns
	Values        [][]Expr
	Select        *SelectStmt
	DefaultValues bool
	OnConflict    *OnConflict
	Returning     []SelectItem
}

// OnConflict is an upsert clause: ON CONFLICT or ON DUPLICATE KEY UPDATE.
type OnConflict struct {
	Target    []string
	DoNothing bool
	Set       []*Assignment
	Where     Expr
}

// UpdateStmt is UPDATE ... SET ... [FROM] [WHERE] [RETURNING].
type UpdateStmt struct {
	Start     token.Position
	Table     *TableName
	Set       []*Assignment
	From      *FromClause
	Where     Expr
	OrderBy   []OrderByItem
	Limit     Expr
	Returning []SelectItem
}

// Assignment is "column = value" in SET.
type Assignment struct {
	Column *ColumnRef
	Value  Expr
}

// DeleteStmt is DELETE FROM ... [USING] [WHERE] [RETURNING].
type DeleteStmt struct {
	Start     token.Position
	Table     *TableName
	Using     *FromClause
	Where     Expr
	OrderBy   []OrderByItem
	Limit     Expr
	Returning []SelectItem
}

// CreateTableStmt is CREATE TABLE.
type CreateTableStmt struct {
	Start       token.Position
	Name        *TableName
	Temporary   bool
	IfNotExists bool
	Columns     []*ColumnDef
	AsSelect    *SelectStmt
}

// ColumnDef is one column of a CREATE TABLE.
type ColumnDef struct {
	Start  token.Position
	Name   string
	Quoted bool
	Type   string // type-expression text as written, e.g. "VARCHAR(255)"
}

// OtherStmt is any statement the analyzer does not model.
type OtherStmt struct {
	Start   token.Position
	Keyword string
	Text    string
}

// ---------- FROM clause ----------

// FromClause is the FROM source plus its joins.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// JoinType is the kind of join.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// Join is one JOIN entry.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr
	Using     []string
}

// TableName is a possibly qualified table reference.
type TableName struct {
	Start   token.Position
	Catalog string
	Schema  string
	Name    string
	Alias   string

	// Set for parts written as quoted identifiers.
	CatalogQuoted bool
	SchemaQuoted  bool
	NameQuoted    bool
	AliasQuoted   bool
}

// QualifiedName renders catalog.schema.name without empty parts.
func (t *TableName) QualifiedName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Catalog, t.Schema, t.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// DerivedTable is a subquery in FROM.
type DerivedTable struct {
	Start       token.Position
	Lateral     bool
	Select      *SelectStmt
	Alias       string
	AliasQuoted bool
}

// TableFunction is a function call used as a FROM item.
type TableFunction struct {
	Start       token.Position
	Func        *FuncCall
	Alias       string
	AliasQuoted bool
}

// ---------- Expressions ----------

// LiteralType classifies literals.
type LiteralType int

// Literal kinds.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal is a constant.
type Literal struct {
	Start token.Position
	Type  LiteralType
	Value string
}

// ColumnRef is a column reference with up to three qualifiers.
type ColumnRef struct {
	Start  token.Position
	Parts  []string // 1 to 4 parts, the last one is the column
	Quoted []bool   // parallel to Parts; may be nil when no part is quoted
}

// Column returns the column name.
func (c *ColumnRef) Column() string {
	return c.Parts[len(c.Parts)-1]
}

// Qualifier returns the parts before the column.
func (c *ColumnRef) Qualifier() []string {
	return c.Parts[:len(c.Parts)-1]
}

// IsQuoted reports whether part i was written as a quoted identifier.
func (c *ColumnRef) IsQuoted(i int) bool {
	return i < len(c.Quoted) && c.Quoted[i]
}

// ColumnQuoted reports whether the column part was quoted.
func (c *ColumnRef) ColumnQuoted() bool {
	return c.IsQuoted(len(c.Parts) - 1)
}

// PlaceholderKind distinguishes parameter spellings.
type PlaceholderKind int

// Placeholder kinds.
const (
	// PlaceholderPositional is a bare "?".
	PlaceholderPositional PlaceholderKind = iota
	// PlaceholderNumbered is "$1" or "?1".
	PlaceholderNumbered
	// PlaceholderNamed is ":name", "@name" or "$name".
	PlaceholderNamed
)

// Placeholder is a bound parameter.
type Placeholder struct {
	Start token.Position
	Text  string
	Kind  PlaceholderKind
}

// BinaryExpr is "left op right".
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

// UnaryExpr is a prefix operator.
type UnaryExpr struct {
	Start token.Position
	Op    token.TokenType
	Expr  Expr
}

// FuncCall is a function invocation.
type FuncCall struct {
	Start    token.Position
	Name     string
	Distinct bool
	Star     bool
	Args     []Expr
	Filter   Expr
	Window   *WindowSpec
}

// WindowSpec is an OVER clause.
type WindowSpec struct {
	Name        string // OVER w
	PartitionBy []Expr
	OrderBy     []OrderByItem
	Frame       string // raw frame clause text
}

// CaseExpr is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	Start   token.Position
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr is CAST(expr AS type) or expr::type.
type CastExpr struct {
	Start    token.Position
	Expr     Expr
	TypeName string
	Operator bool // written with ::
	Typed    bool // typed literal: DATE '2024-01-01'
}

// InExpr is "expr [NOT] IN (values | subquery)".
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

// BetweenExpr is "expr [NOT] BETWEEN low AND high".
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// IsNullExpr is "expr IS [NOT] NULL".
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

// IsBoolExpr is "expr IS [NOT] TRUE|FALSE".
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool
}

// LikeExpr is "expr [NOT] LIKE|ILIKE pattern".
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Op      token.TokenType
	Pattern Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Start token.Position
	Expr  Expr
}

// RowExpr is a parenthesized list "(a, b)".
type RowExpr struct {
	Start token.Position
	Exprs []Expr
}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	Start  token.Position
	Select *SelectStmt
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Start  token.Position
	Not    bool
	Select *SelectStmt
}

// ---------- Node implementations ----------

func (s *SelectStmt) Pos() token.Position      { return s.Start }
func (s *InsertStmt) Pos() token.Position      { return s.Start }
func (s *UpdateStmt) Pos() token.Position      { return s.Start }
func (s *DeleteStmt) Pos() token.Position      { return s.Start }
func (s *CreateTableStmt) Pos() token.Position { return s.Start }
func (s *OtherStmt) Pos() token.Position       { return s.Start }

func (*SelectStmt) statementNode()      {}
func (*InsertStmt) statementNode()      {}
func (*UpdateStmt) statementNode()      {}
func (*DeleteStmt) statementNode()      {}
func (*CreateTableStmt) statementNode() {}
func (*OtherStmt) statementNode()       {}

func (t *TableName) Pos() token.Position     { return t.Start }
func (t *DerivedTable) Pos() token.Position  { return t.Start }
func (t *TableFunction) Pos() token.Position { return t.Start }

func (*TableName) tableRefNode()     {}
func (*DerivedTable) tableRefNode()  {}
func (*TableFunction) tableRefNode() {}

func (e *Literal) Pos() token.Position      { return e.Start }
func (e *ColumnRef) Pos() token.Position    { return e.Start }
func (e *Placeholder) Pos() token.Position  { return e.Start }
func (e *BinaryExpr) Pos() token.Position   { return e.Left.Pos() }
func (e *UnaryExpr) Pos() token.Position    { return e.Start }
func (e *FuncCall) Pos() token.Position     { return e.Start }
func (e *CaseExpr) Pos() token.Position     { return e.Start }
func (e *CastExpr) Pos() token.Position     { return e.Start }
func (e *InExpr) Pos() token.Position       { return e.Expr.Pos() }
func (e *BetweenExpr) Pos() token.Position  { return e.Expr.Pos() }
func (e *IsNullExpr) Pos() token.Position   { return e.Expr.Pos() }
func (e *IsBoolExpr) Pos() token.Position   { return e.Expr.Pos() }
func (e *LikeExpr) Pos() token.Position     { return e.Expr.Pos() }
func (e *ParenExpr) Pos() token.Position    { return e.Start }
func (e *RowExpr) Pos() token.Position      { return e.Start }
func (e *SubqueryExpr) Pos() token.Position { return e.Start }
func (e *ExistsExpr) Pos() token.Position   { return e.Start }

func (*Literal) exprNode()      {}
func (*ColumnRef) exprNode()    {}
func (*Placeholder) exprNode()  {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*FuncCall) exprNode()     {}
func (*CaseExpr) exprNode()     {}
func (*CastExpr) exprNode()     {}
func (*InExpr) exprNode()       {}
func (*BetweenExpr) exprNode()  {}
func (*IsNullExpr) exprNode()   {}
func (*IsBoolExpr) exprNode()   {}
func (*LikeExpr) exprNode()     {}
func (*ParenExpr) exprNode()    {}
func (*RowExpr) exprNode()      {}
func (*SubqueryExpr) exprNode() {}
func (*ExistsExpr) exprNode()   {}
