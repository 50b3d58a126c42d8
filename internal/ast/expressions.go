package ast

import "github.com/cs444-joos/joosc/internal/source"

type exprBase struct {
	baseNode
	attrs ExprAttrs
}

func (e *exprBase) exprNode()            {}
func (e *exprBase) ExprAttrs() *ExprAttrs { return &e.attrs }

// Literal is an integer, boolean, char, string, or null literal.
type Literal struct {
	exprBase
	// Kind is one of "int", "boolean", "char", "string", "null".
	Kind string
	// Raw is the literal as written (pre weeder-validated integer range).
	Raw string
}

func (l *Literal) String() string { return l.Raw }

// NameExpr is a simple or qualified name prior to disambiguation.
// Before resolve runs, it is just dotted identifiers; resolve classifies
// the longest resolvable prefix and records it on Binding, leaving any
// unmatched dotted suffix for typecheck to walk as field/static accesses.
type NameExpr struct {
	exprBase
	Parts []string
}

func (n *NameExpr) String() string { return joinDots(n.Parts) }

func joinDots(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// ThisExpr is `this`.
type ThisExpr struct{ exprBase }

func (t *ThisExpr) String() string { return "this" }

// BinaryExpr covers all binary operators (+, -, *, /, %, <, <=, >, >=, ==,
// !=, &&, ||, &, |).
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expression
	Right Expression
}

func (b *BinaryExpr) String() string { return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")" }

// UnaryExpr covers unary +, -, !.
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expression
}

func (u *UnaryExpr) String() string { return "(" + u.Op + u.Operand.String() + ")" }

// AssignExpr is `lhs = rhs`. Joos has no compound assignment operators.
type AssignExpr struct {
	exprBase
	Target Expression
	Value  Expression
}

func (a *AssignExpr) String() string { return a.Target.String() + " = " + a.Value.String() }

// CastExpr is `(T) e`.
type CastExpr struct {
	exprBase
	T    TypeExpr
	Expr Expression
}

func (c *CastExpr) String() string { return "(" + c.T.String() + ") " + c.Expr.String() }

// InstanceofExpr is `e instanceof T`.
type InstanceofExpr struct {
	exprBase
	Expr Expression
	T    TypeExpr
}

func (i *InstanceofExpr) String() string { return i.Expr.String() + " instanceof " + i.T.String() }

// NewObjectExpr is `new T(args)`.
type NewObjectExpr struct {
	exprBase
	T    TypeExpr
	Args []Expression
	// ResolvedCtor is filled in by typecheck after overload resolution.
	ResolvedCtor *ConstructorDecl
}

func (n *NewObjectExpr) String() string { return "new " + n.T.String() + "(...)" }

// NewArrayExpr is `new T[n]`. Multidimensional array creation is rejected by
// the weeder, so Dim is a single expression, not a list.
type NewArrayExpr struct {
	exprBase
	Elem TypeExpr
	Dim  Expression
}

func (n *NewArrayExpr) String() string { return "new " + n.Elem.String() + "[...]" }

// FieldAccessExpr is `receiver.Name`, produced either directly by the parser
// or by resolve rewriting a NameExpr's unresolved suffix.
type FieldAccessExpr struct {
	exprBase
	Receiver Expression
	Name     string
	// ResolvedField is filled in by resolve/typecheck.
	ResolvedField *FieldDecl
}

func (f *FieldAccessExpr) String() string { return f.Receiver.String() + "." + f.Name }

// MethodCallExpr is `receiver.Name(args)`; Receiver is nil for an unqualified
// call (implicit `this` or a static import-free call).
type MethodCallExpr struct {
	exprBase
	Receiver Expression
	Name     string
	Args     []Expression
	// ResolvedMethod is filled in by typecheck after overload resolution.
	ResolvedMethod *MethodDecl
}

func (m *MethodCallExpr) String() string { return m.Name + "(...)" }

// ArrayAccessExpr is `array[index]`.
type ArrayAccessExpr struct {
	exprBase
	Array Expression
	Index Expression
}

func (a *ArrayAccessExpr) String() string { return a.Array.String() + "[" + a.Index.String() + "]" }

func newExprBase(span source.Span) exprBase { return exprBase{baseNode: baseNode{span}} }

// Constructors below give tests and the AST builder a terse way to build
// nodes without repeating the exprBase boilerplate.

func NewLiteral(span source.Span, kind, raw string) *Literal {
	return &Literal{exprBase: newExprBase(span), Kind: kind, Raw: raw}
}

func NewName(span source.Span, parts ...string) *NameExpr {
	return &NameExpr{exprBase: newExprBase(span), Parts: parts}
}

func NewThis(span source.Span) *ThisExpr { return &ThisExpr{exprBase: newExprBase(span)} }

func NewBinary(span source.Span, op string, l, r Expression) *BinaryExpr {
	return &BinaryExpr{exprBase: newExprBase(span), Op: op, Left: l, Right: r}
}

func NewUnary(span source.Span, op string, operand Expression) *UnaryExpr {
	return &UnaryExpr{exprBase: newExprBase(span), Op: op, Operand: operand}
}

func NewAssign(span source.Span, target, value Expression) *AssignExpr {
	return &AssignExpr{exprBase: newExprBase(span), Target: target, Value: value}
}

func NewCast(span source.Span, t TypeExpr, e Expression) *CastExpr {
	return &CastExpr{exprBase: newExprBase(span), T: t, Expr: e}
}

func NewInstanceof(span source.Span, e Expression, t TypeExpr) *InstanceofExpr {
	return &InstanceofExpr{exprBase: newExprBase(span), Expr: e, T: t}
}

func NewNewObject(span source.Span, t TypeExpr, args []Expression) *NewObjectExpr {
	return &NewObjectExpr{exprBase: newExprBase(span), T: t, Args: args}
}

func NewNewArray(span source.Span, elem TypeExpr, dim Expression) *NewArrayExpr {
	return &NewArrayExpr{exprBase: newExprBase(span), Elem: elem, Dim: dim}
}

func NewFieldAccess(span source.Span, recv Expression, name string) *FieldAccessExpr {
	return &FieldAccessExpr{exprBase: newExprBase(span), Receiver: recv, Name: name}
}

func NewMethodCall(span source.Span, recv Expression, name string, args []Expression) *MethodCallExpr {
	return &MethodCallExpr{exprBase: newExprBase(span), Receiver: recv, Name: name, Args: args}
}

func NewArrayAccess(span source.Span, arr, idx Expression) *ArrayAccessExpr {
	return &ArrayAccessExpr{exprBase: newExprBase(span), Array: arr, Index: idx}
}
