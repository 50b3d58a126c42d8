// Package types implements the Joos 1W type system: the Type tagged variant
// and the subtype/assignability relation.
//
// types deliberately has no dependency on internal/ast: a declared class or
// interface is referred to here only through the ClassRef identity
// interface, which internal/hierarchy's *TypeDecl satisfies. This keeps the
// type system usable from the index and hierarchy passes without a cycle
// back into the AST package that also wants to embed a types.Type in every
// expression's attribute slot.
package types

import "fmt"

// Kind tags the variant.
type Kind int

const (
	KindPrimitive Kind = iota
	KindArray
	KindReference
	KindNull
	KindVoid
)

// Primitive enumerates the four Joos primitive types plus boolean.
type Primitive int

const (
	Byte Primitive = iota
	Short
	Int
	Char
	Boolean
)

func (p Primitive) String() string {
	switch p {
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Char:
		return "char"
	case Boolean:
		return "boolean"
	default:
		return "<bad primitive>"
	}
}

// ClassRef is the identity a Reference type carries: a canonical name and
// enough of the hierarchy shape to decide subtyping. internal/hierarchy's
// *TypeDecl is the only implementation that matters in practice.
type ClassRef interface {
	CanonicalName() string
	IsInterface() bool
	IsFinal() bool
	IsAbstract() bool
	// SuperclassRef returns the direct superclass, or nil for
	// java.lang.Object and for interfaces.
	SuperclassRef() ClassRef
	// SuperinterfaceRefs returns the directly declared superinterfaces (for
	// an interface) or directly implemented interfaces (for a class).
	SuperinterfaceRefs() []ClassRef
}

// Type is the tagged variant for a Joos type. Equality is structural; use
// Equal, not ==, since Array and Reference carry pointers/interfaces.
type Type struct {
	kind Kind
	prim Primitive
	elem *Type    // KindArray
	ref  ClassRef // KindReference
}

func Prim(p Primitive) Type          { return Type{kind: KindPrimitive, prim: p} }
func Array(elem Type) Type           { return Type{kind: KindArray, elem: &elem} }
func Reference(ref ClassRef) Type    { return Type{kind: KindReference, ref: ref} }
func NullType() Type                 { return Type{kind: KindNull} }
func Void() Type                     { return Type{kind: KindVoid} }

func (t Type) Kind() Kind       { return t.kind }
func (t Type) Primitive() Primitive { return t.prim }
func (t Type) Elem() Type       { return *t.elem }
func (t Type) Ref() ClassRef    { return t.ref }
func (t Type) IsPrimitive() bool { return t.kind == KindPrimitive }
func (t Type) IsNumeric() bool {
	return t.kind == KindPrimitive && t.prim != Boolean
}
func (t Type) IsArray() bool     { return t.kind == KindArray }
func (t Type) IsReference() bool { return t.kind == KindReference }
func (t Type) IsNull() bool      { return t.kind == KindNull }
func (t Type) IsVoid() bool      { return t.kind == KindVoid }
func (t Type) IsBoolean() bool   { return t.kind == KindPrimitive && t.prim == Boolean }

// String formats the type the way Joos source would write it.
func (t Type) String() string {
	switch t.kind {
	case KindPrimitive:
		return t.prim.String()
	case KindArray:
		return t.Elem().String() + "[]"
	case KindReference:
		if t.ref == nil {
			return "<unresolved>"
		}
		return t.ref.CanonicalName()
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	default:
		return "<bad type>"
	}
}

// Equal is structural equality: same primitive, same array element type
// recursively, or the same reference identity (by canonical name).
func Equal(a, b Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindPrimitive:
		return a.prim == b.prim
	case KindArray:
		return Equal(a.Elem(), b.Elem())
	case KindReference:
		if a.ref == nil || b.ref == nil {
			return a.ref == b.ref
		}
		return a.ref.CanonicalName() == b.ref.CanonicalName()
	case KindNull, KindVoid:
		return true
	default:
		return false
	}
}

// IsSubtypeOf walks the class/interface hierarchy: S <: T iff T is
// java.lang.Object, or T is reachable from S by following
// SuperclassRef/SuperinterfaceRefs edges.
func IsSubtypeOf(sub, sup ClassRef) bool {
	if sub == nil || sup == nil {
		return false
	}
	if sub.CanonicalName() == sup.CanonicalName() {
		return true
	}
	if sup.CanonicalName() == ObjectCanonicalName {
		return true
	}
	if s := sub.SuperclassRef(); s != nil && IsSubtypeOf(s, sup) {
		return true
	}
	for _, i := range sub.SuperinterfaceRefs() {
		if IsSubtypeOf(i, sup) {
			return true
		}
	}
	return false
}

// ObjectCanonicalName is the canonical name every class implicitly extends
// and every reference type is assignable to.
const ObjectCanonicalName = "java.lang.Object"

// WideningNumeric reports whether a numeric primitive s widens to t without
// a cast: byte -> short -> int, char -> int. char and short do not widen to
// each other.
func WideningNumeric(s, t Primitive) bool {
	if s == t {
		return true
	}
	switch s {
	case Byte:
		return t == Short || t == Int
	case Short:
		return t == Int
	case Char:
		return t == Int
	default:
		return false
	}
}

// AssignableTo implements the language's assignability relation.
func AssignableTo(s, t Type) bool {
	if Equal(s, t) {
		return true
	}
	switch {
	case s.IsNull() && (t.IsReference() || t.IsArray()):
		return true
	case s.IsPrimitive() && t.IsPrimitive() && !s.IsBoolean() && !t.IsBoolean():
		return WideningNumeric(s.Primitive(), t.Primitive())
	case s.IsReference() && t.IsReference():
		return IsSubtypeOf(s.Ref(), t.Ref())
	case s.IsArray() && t.IsReference() && t.Ref().CanonicalName() == ObjectCanonicalName:
		return true
	case s.IsArray() && t.IsArray():
		se, te := s.Elem(), t.Elem()
		if se.IsReference() && te.IsReference() {
			// Arrays are covariant for reference element types.
			return IsSubtypeOf(se.Ref(), te.Ref())
		}
		// Invariant for primitive element types.
		return Equal(se, te)
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindReference:
		return "reference"
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
