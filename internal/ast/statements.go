package ast

import "github.com/cs444-joos/joosc/internal/source"

type stmtBase struct {
	baseNode
	attrs StmtAttrs
}

func (s *stmtBase) stmtNode()             {}
func (s *stmtBase) StmtAttrs() *StmtAttrs { return &s.attrs }

func newStmtBase(span source.Span) stmtBase { return stmtBase{baseNode: baseNode{span}} }

// Block is `{ stmts }`. It introduces a new scope: a local's scope begins
// after its declarator and ends at the enclosing block.
type Block struct {
	stmtBase
	Stmts []Statement
}

func NewBlock(span source.Span, stmts []Statement) *Block {
	return &Block{stmtBase: newStmtBase(span), Stmts: stmts}
}
func (b *Block) String() string { return "{...}" }

// LocalVarDecl is `T name = init;` (init optional). Joos requires every
// local to be declared with an initializer-capable statement, one per
// statement (no C-style comma lists).
type LocalVarDecl struct {
	stmtBase
	Name string
	T    TypeExpr
	Init Expression // nil if uninitialized
}

func NewLocalVarDecl(span source.Span, name string, t TypeExpr, init Expression) *LocalVarDecl {
	return &LocalVarDecl{stmtBase: newStmtBase(span), Name: name, T: t, Init: init}
}
func (l *LocalVarDecl) String() string { return "var " + l.Name }

// IfStmt is `if (cond) then [else else_]`.
type IfStmt struct {
	stmtBase
	Cond Expression
	Then Statement
	Else Statement // nil if no else-branch
}

func NewIfStmt(span source.Span, cond Expression, then, els Statement) *IfStmt {
	return &IfStmt{stmtBase: newStmtBase(span), Cond: cond, Then: then, Else: els}
}
func (i *IfStmt) String() string { return "if (...)" }

// WhileStmt is `while (cond) body`. Joos has no do-while (weeded).
type WhileStmt struct {
	stmtBase
	Cond Expression
	Body Statement
}

func NewWhileStmt(span source.Span, cond Expression, body Statement) *WhileStmt {
	return &WhileStmt{stmtBase: newStmtBase(span), Cond: cond, Body: body}
}
func (w *WhileStmt) String() string { return "while (...)" }

// ForStmt is `for (init; cond; update) body`. Any of Init/Cond/Update may be
// nil (Joos permits the usual omitted-clause for-loop forms).
type ForStmt struct {
	stmtBase
	Init   Statement // LocalVarDecl or ExprStmt, or nil
	Cond   Expression
	Update Statement // ExprStmt, or nil
	Body   Statement
}

func NewForStmt(span source.Span, init Statement, cond Expression, update Statement, body Statement) *ForStmt {
	return &ForStmt{stmtBase: newStmtBase(span), Init: init, Cond: cond, Update: update, Body: body}
}
func (f *ForStmt) String() string { return "for (...)" }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	stmtBase
	Value Expression // nil for a bare `return;`
}

func NewReturnStmt(span source.Span, value Expression) *ReturnStmt {
	return &ReturnStmt{stmtBase: newStmtBase(span), Value: value}
}
func (r *ReturnStmt) String() string { return "return" }

// ExprStmt is an expression used as a statement (assignment, method call, or
// object creation — the only three Joos permits at statement position).
type ExprStmt struct {
	stmtBase
	Expr Expression
}

func NewExprStmt(span source.Span, e Expression) *ExprStmt {
	return &ExprStmt{stmtBase: newStmtBase(span), Expr: e}
}
func (e *ExprStmt) String() string { return e.Expr.String() + ";" }

// EmptyStmt is a bare `;`.
type EmptyStmt struct{ stmtBase }

func NewEmptyStmt(span source.Span) *EmptyStmt { return &EmptyStmt{stmtBase: newStmtBase(span)} }
func (e *EmptyStmt) String() string            { return ";" }
