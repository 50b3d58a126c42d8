package ast

import (
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// PrimitiveTypeExpr is `int`, `boolean`, etc. as written in source.
type PrimitiveTypeExpr struct {
	baseNode
	Prim types.Primitive
}

func (p *PrimitiveTypeExpr) typeExprNode()  {}
func (p *PrimitiveTypeExpr) String() string { return p.Prim.String() }

// NamedTypeExpr is a (possibly qualified) class or interface type name, not
// yet resolved to a TypeDecl; internal/index resolves it.
type NamedTypeExpr struct {
	baseNode
	Name string // as written, e.g. "String" or "java.util.List" if ever qualified
}

func (n *NamedTypeExpr) typeExprNode()  {}
func (n *NamedTypeExpr) String() string { return n.Name }

// ArrayTypeExpr is `T[]`.
type ArrayTypeExpr struct {
	baseNode
	Elem TypeExpr
}

func (a *ArrayTypeExpr) typeExprNode()  {}
func (a *ArrayTypeExpr) String() string { return a.Elem.String() + "[]" }

// VoidTypeExpr marks a method's absent return type.
type VoidTypeExpr struct{ baseNode }

func (v *VoidTypeExpr) typeExprNode()  {}
func (v *VoidTypeExpr) String() string { return "void" }

// TypeExprKey renders a TypeExpr into a string suitable for method-signature
// identity: the erased parameter types. It does not resolve named types:
// a named type renders as written, and internal/hierarchy compares
// signatures by this key (through MethodDecl.SignatureKey) as it is, so
// the same type written once by simple name and once qualified gives two
// different keys.
func TypeExprKey(t TypeExpr) string {
	if t == nil {
		return "void"
	}
	switch te := t.(type) {
	case *PrimitiveTypeExpr:
		return te.Prim.String()
	case *NamedTypeExpr:
		return te.Name
	case *ArrayTypeExpr:
		return TypeExprKey(te.Elem) + "[]"
	case *VoidTypeExpr:
		return "void"
	default:
		return "?"
	}
}

func NewPrimitiveTypeExpr(span source.Span, p types.Primitive) *PrimitiveTypeExpr {
	return &PrimitiveTypeExpr{baseNode: baseNode{span}, Prim: p}
}

func NewNamedTypeExpr(span source.Span, name string) *NamedTypeExpr {
	return &NamedTypeExpr{baseNode: baseNode{span}, Name: name}
}

func NewArrayTypeExpr(span source.Span, elem TypeExpr) *ArrayTypeExpr {
	return &ArrayTypeExpr{baseNode: baseNode{span}, Elem: elem}
}

func NewVoidTypeExpr(span source.Span) *VoidTypeExpr {
	return &VoidTypeExpr{baseNode: baseNode{span}}
}
