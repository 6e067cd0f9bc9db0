// Package ast defines the syntax tree produced by the parser.
//
// Statement and Expression are sealed interfaces: only the node types in this
// package implement them, so consumers switch over a closed set of variants.
// Nodes are plain values, built once by the parser and never mutated.
package ast

import (
	"strings"

	"github.com/koba/emql/internal/schema"
)

// Statement is a top-level statement node
type Statement interface {
	statementNode()
}

// Expression is a value-producing node
type Expression interface {
	expressionNode()
	String() string
}

// StatementList holds several statements separated by ';'
type StatementList struct {
	Statements []Statement
}

// SelectStatement is SELECT ... FROM ... [JOIN ...] [WHERE] [GROUP BY] [ORDER BY]
type SelectStatement struct {
	Columns []SelectItem
	From    FromClause
	Joins   []JoinClause
	Where   *WhereClause
	GroupBy *GroupByClause
	OrderBy *OrderByClause
}

// InsertStatement is INSERT INTO table [(columns)] VALUES (values)
type InsertStatement struct {
	Table   string
	Columns []string
	Values  []Expression
}

// Assignment is one `column = expression` of an UPDATE
type Assignment struct {
	Column string
	Value  Expression
}

// UpdateStatement is UPDATE table SET assignments [WHERE]
type UpdateStatement struct {
	Table       string
	Assignments []Assignment
	Where       *WhereClause
}

// DeleteStatement is DELETE FROM table [WHERE]
type DeleteStatement struct {
	Table string
	Where *WhereClause
}

// CreateTableStatement is CREATE TABLE name (definitions)
type CreateTableStatement struct {
	Table       string
	Columns     []ColumnDefinition
	Constraints []TableConstraint
}

// CreateDatabaseStatement is CREATE DATABASE name
type CreateDatabaseStatement struct {
	Name string
}

// UseDatabaseStatement is USE name
type UseDatabaseStatement struct {
	Name string
}

func (*StatementList) statementNode()           {}
func (*SelectStatement) statementNode()         {}
func (*InsertStatement) statementNode()         {}
func (*UpdateStatement) statementNode()         {}
func (*DeleteStatement) statementNode()         {}
func (*CreateTableStatement) statementNode()    {}
func (*CreateDatabaseStatement) statementNode() {}
func (*UseDatabaseStatement) statementNode()    {}

// SelectItem is one entry of the select list
type SelectItem struct {
	Expr  Expression
	Alias string
}

// FromClause names the driving table
type FromClause struct {
	Table string
	Alias string
}

// Name returns the alias when present, otherwise the table name
func (f FromClause) Name() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Table
}

// JoinType is the join flavour
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	default:
		return "INNER"
	}
}

// JoinClause is [INNER|LEFT|RIGHT] JOIN table [alias] ON condition
type JoinClause struct {
	Type  JoinType
	Table string
	Alias string
	On    Expression
}

// Name returns the alias when present, otherwise the table name
func (j JoinClause) Name() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Table
}

// WhereClause is a row predicate
type WhereClause struct {
	Condition Expression
}

// GroupByClause lists the grouping expressions
type GroupByClause struct {
	Exprs []Expression
}

// OrderTerm is one ORDER BY key
type OrderTerm struct {
	Expr       Expression
	Descending bool
}

// OrderByClause lists the ordering keys, most significant first
type OrderByClause struct {
	Terms []OrderTerm
}

// ColumnDefinition is `name: type constraint*` inside CREATE TABLE
type ColumnDefinition struct {
	Name        string
	Type        schema.DataType
	Constraints []ColumnConstraint
}

// ColumnConstraint is a column-level constraint; Default is set only for DEFAULT
type ColumnConstraint struct {
	Kind    schema.ConstraintKind
	Default Expression
}

// TableConstraint is PRIMARY KEY (c), UNIQUE (c) or FOREIGN KEY (c) REFERENCES t(c)
type TableConstraint struct {
	Kind      schema.ConstraintKind
	Column    string
	RefTable  string
	RefColumn string
}

// BinaryExpression applies Operator to Left and Right
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

// UnaryExpression is a prefix operator, currently only "-"
type UnaryExpression struct {
	Operator string
	Operand  Expression
}

// Literal is a number (float64), string, boolean or null (nil)
type Literal struct {
	Value interface{}
}

// Identifier is a column reference, optionally qualified by a table or alias
type Identifier struct {
	Table string
	Name  string
}

// AllColumns is `*` (Table empty) or `table.*`
type AllColumns struct {
	Table string
}

func (*BinaryExpression) expressionNode() {}
func (*UnaryExpression) expressionNode()  {}
func (*Literal) expressionNode()          {}
func (*Identifier) expressionNode()       {}
func (*AllColumns) expressionNode()       {}

func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

func (e *UnaryExpression) String() string {
	return e.Operator + e.Operand.String()
}

func (e *Literal) String() string {
	return schema.FormatLiteral(e.Value)
}

func (e *Identifier) String() string {
	if e.Table != "" {
		return e.Table + "." + e.Name
	}
	return e.Name
}

func (e *AllColumns) String() string {
	if e.Table != "" {
		return e.Table + ".*"
	}
	return "*"
}

// Operators accepted in BinaryExpression.Operator
const (
	OpAnd  = "and"
	OpOr   = "or"
	OpEq   = "="
	OpNeq  = "!="
	OpLt   = "<"
	OpGt   = ">"
	OpLte  = "<="
	OpGte  = ">="
	OpLike = "like"
	OpAdd  = "+"
	OpSub  = "-"
	OpMul  = "*"
	OpDiv  = "/"
)

// IsComparison reports whether op is one of the comparators
func IsComparison(op string) bool {
	switch strings.ToLower(op) {
	case OpEq, OpNeq, OpLt, OpGt, OpLte, OpGte, OpLike:
		return true
	}
	return false
}
