// Package ast defines the abstract syntax tree for xorlang.
package ast

import (
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	ExprBase
	Value int64
}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	ExprBase
	Value string
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NullLiteral represents null.
type NullLiteral struct {
	ExprBase
}

// ThisExpr represents the 'this' keyword.
type ThisExpr struct {
	ExprBase
}

// UnaryExpr represents a unary operation: -x, +x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents a binary operation: a + b, x == y.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// AssignExpr represents an assignment: target = value. Assignment is an
// expression yielding the assigned value; the target must be an identifier
// or a member access.
type AssignExpr struct {
	ExprBase
	Target Expr
	Value  Expr
}

// CallExpr represents a function call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// MemberExpr represents member access: a.b.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property string
}

// NewExpr represents object creation: new ClassName(args).
type NewExpr struct {
	ExprBase
	ClassName string
	Args      []Expr
}

// ImportExpr represents the module-loader form: import name. It evaluates
// to the module's environment as a namespace value.
type ImportExpr struct {
	ExprBase
	Module string
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// VarDeclStmt represents a variable declaration: var x = expr.
type VarDeclStmt struct {
	StmtBase
	Name string
	Init Expr // may be nil if no initializer
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	StmtBase
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	StmtBase
}

// BlockStmt represents a block of statements: { ... }. It is also the root
// of a parsed program.
type BlockStmt struct {
	StmtBase
	Stmts []Node
}

// IfStmt represents an if/elif/else chain.
type IfStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
	Elifs     []ElifClause
	ElseBody  *BlockStmt // may be nil
}

// ElifClause represents a single "elif" branch.
type ElifClause struct {
	Span      span.Span
	Condition Expr
	Body      *BlockStmt
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

// ForStmt represents a C-style for loop: for (init; condition; update) { body }.
// Any clause may be nil; a nil condition means the body runs exactly once.
type ForStmt struct {
	StmtBase
	Init      Node // VarDeclStmt or ExprStmt, or nil
	Condition Expr // or nil
	Update    Node // ExprStmt or nil
	Body      *BlockStmt
}

// ============================================================
// Declarations (also implement Stmt for top-level use)
// ============================================================

// FuncDecl represents a function definition: func name(params) { ... }.
// Name may be empty for anonymous functions; either way the definition
// evaluates to the function value.
type FuncDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   *BlockStmt
}

// ClassDecl represents a class definition. Members are func definitions
// only; an init member acts as the constructor.
type ClassDecl struct {
	StmtBase
	Name    string
	Members []*FuncDecl
}
