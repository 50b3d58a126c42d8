// Package cst states the contract for the concrete parse tree that the
// lexer and context-free parser are expected to hand off to this compiler.
// Both of those stages are treated as external collaborators here; this
// package is the narrow interface joosc actually needs
// from whatever parser implementation sits upstream, so the AST builder in
// internal/ast has something concrete to consume.
package cst

import "github.com/cs444-joos/joosc/internal/source"

// Kind identifies the grammar production a Node instantiates. The set is
// closed over the Joos 1W grammar; joosc's AST builder switches over it
// exhaustively and treats an unrecognized Kind as an internal error (the
// parser should never produce one).
type Kind int

const (
	KindCompilationUnit Kind = iota
	KindPackageDecl
	KindSingleTypeImport
	KindOnDemandImport
	KindClassDecl
	KindInterfaceDecl
	KindModifierList
	KindExtendsClause
	KindImplementsClause
	KindFieldDecl
	KindMethodDecl
	KindConstructorDecl
	KindFormalParam
	KindBlock
	KindLocalVarDecl
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindReturnStmt
	KindExprStmt
	KindName
	KindQualifiedName
	KindLiteral
	KindThis
	KindArrayType
	KindPrimitiveType
	KindBinaryExpr
	KindUnaryExpr
	KindAssignExpr
	KindCastExpr
	KindInstanceofExpr
	KindNewObjectExpr
	KindNewArrayExpr
	KindFieldAccessExpr
	KindMethodCallExpr
	KindArrayAccessExpr
)

// Node is the minimal surface the AST builder needs from a concrete parse
// tree node: what production it is, where it came from in the source, its
// literal text (identifiers, literals, operators), and its children in
// grammar order. Real parsers return a tree of these, or of a type that
// happens to satisfy this interface; joosc never constructs one itself
// outside of tests.
type Node interface {
	Kind() Kind
	Span() source.Span
	Text() string
	Children() []Node
}
