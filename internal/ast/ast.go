// Package ast defines the typed Abstract Syntax Tree for Joos 1W.
//
// Every node is a tagged variant implemented as a distinct Go struct
// satisfying one of the marker interfaces below (Expression, Statement,
// Declaration, TypeExpr). Later passes annotate nodes in place by writing to
// dedicated fields (Type, Binding, Constant on Expression; ReachableIn,
// CompletesNormally on Statement) rather than rewriting the tree: nodes stay
// immutable in shape, and passes only ever add to or overwrite an attribute
// slot.
package ast

import (
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// Node is the base interface every AST node satisfies.
type Node interface {
	Span() source.Span
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	exprNode()
	// ExprAttrs returns the mutable attribute slot every expression carries,
	// populated incrementally by name resolution, type checking, and
	// constant folding.
	ExprAttrs() *ExprAttrs
}

// ExprAttrs holds the attributes a pass bolts onto an expression after it is
// built. All fields are nil/zero until the owning pass runs.
type ExprAttrs struct {
	Type     types.Type // set by typecheck
	Binding  Binding    // set by resolve
	Constant *Const     // set by analysis, nil if not a compile-time constant
}

// Binding classifies what a resolved name turned out to mean: a local
// variable, a field, a type, or a package prefix.
type Binding interface{ bindingNode() }

// Const is the compile-time value of a constant expression.
type Const struct {
	// Kind is one of "int", "boolean", "string", "char", "null".
	Kind string
	I32  int32
	Bool bool
	Str  string
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	stmtNode()
	// StmtAttrs returns the mutable attribute slot populated by static
	// analysis (reachability).
	StmtAttrs() *StmtAttrs
}

// StmtAttrs holds the reachability/completion attributes every statement
// carries once static analysis has run.
type StmtAttrs struct {
	ReachableIn       bool
	CompletesNormally bool
	// set once the analyser has visited this statement; distinguishes
	// "false because unreachable" from "not yet analysed".
	Visited bool
}

// Declaration is a top-level or member declaration.
type Declaration interface {
	Node
	declNode()
}

// TypeExpr is a syntactic type reference as written in source, before it is
// resolved to a types.Type by the index/resolve passes.
type TypeExpr interface {
	Node
	typeExprNode()
}

type baseNode struct{ span source.Span }

func (b baseNode) Span() source.Span { return b.span }
