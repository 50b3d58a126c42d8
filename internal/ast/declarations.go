package ast

import (
	"strings"

	"github.com/cs444-joos/joosc/internal/source"
)

// Modifier is a single declared modifier keyword.
type Modifier int

const (
	ModPublic Modifier = iota
	ModProtected
	ModAbstract
	ModFinal
	ModStatic
	ModNative
)

// Modifiers is an unordered set of declared modifiers, as written in source.
type Modifiers map[Modifier]bool

func (m Modifiers) Has(mod Modifier) bool { return m[mod] }

// CompilationUnit is one source file's AST: optional package, imports, and
// exactly one top-level type.
type CompilationUnit struct {
	baseNode
	FileName         string
	PackageName      string // "" for the unnamed package
	SingleImports    []SingleTypeImport
	OnDemandImports  []string // package names, excluding the implicit java.lang
	Type             TypeDecl
}

func NewCompilationUnit(span source.Span, fileName, pkg string) *CompilationUnit {
	return &CompilationUnit{baseNode: baseNode{span}, FileName: fileName, PackageName: pkg}
}

func (c *CompilationUnit) String() string { return "compilation unit " + c.FileName }

// SingleTypeImport is an `import p.q.Simple;` declaration.
type SingleTypeImport struct {
	Span          source.Span
	CanonicalName string // "p.q.Simple"
	SimpleName    string // "Simple"
}

// TypeDecl is the tagged variant {Class, Interface} of a top-level type.
type TypeDecl interface {
	Declaration
	CanonicalName() string
	SimpleName() string
	PackageName() string
	Modifiers() Modifiers
	IsInterface() bool
	Fields() []*FieldDecl
	Methods() []*MethodDecl
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	baseNode
	Pkg          string
	Name         string
	Mods         Modifiers
	Super        TypeExpr // nil means implicit java.lang.Object
	Interfaces   []TypeExpr
	FieldDecls   []*FieldDecl
	MethodDecls  []*MethodDecl
	Constructors []*ConstructorDecl
}

func (c *ClassDecl) declNode()                 {}
func (c *ClassDecl) CanonicalName() string     { return canonical(c.Pkg, c.Name) }
func (c *ClassDecl) SimpleName() string        { return c.Name }
func (c *ClassDecl) PackageName() string       { return c.Pkg }
func (c *ClassDecl) Modifiers() Modifiers      { return c.Mods }
func (c *ClassDecl) IsInterface() bool         { return false }
func (c *ClassDecl) Fields() []*FieldDecl      { return c.FieldDecls }
func (c *ClassDecl) Methods() []*MethodDecl    { return c.MethodDecls }
func (c *ClassDecl) String() string            { return "class " + c.CanonicalName() }

// InterfaceDecl is an interface declaration. Interfaces have no fields, no
// constructors, and only abstract methods.
type InterfaceDecl struct {
	baseNode
	Pkg         string
	Name        string
	Mods        Modifiers
	Extends     []TypeExpr
	MethodDecls []*MethodDecl
}

func (i *InterfaceDecl) declNode()                 {}
func (i *InterfaceDecl) CanonicalName() string     { return canonical(i.Pkg, i.Name) }
func (i *InterfaceDecl) SimpleName() string        { return i.Name }
func (i *InterfaceDecl) PackageName() string       { return i.Pkg }
func (i *InterfaceDecl) Modifiers() Modifiers      { return i.Mods }
func (i *InterfaceDecl) IsInterface() bool         { return true }
func (i *InterfaceDecl) Fields() []*FieldDecl      { return nil }
func (i *InterfaceDecl) Methods() []*MethodDecl    { return i.MethodDecls }
func (i *InterfaceDecl) String() string            { return "interface " + i.CanonicalName() }

func NewClassDecl(span source.Span, pkg, name string, mods Modifiers) *ClassDecl {
	return &ClassDecl{baseNode: baseNode{span}, Pkg: pkg, Name: name, Mods: mods}
}

func NewInterfaceDecl(span source.Span, pkg, name string, mods Modifiers) *InterfaceDecl {
	return &InterfaceDecl{baseNode: baseNode{span}, Pkg: pkg, Name: name, Mods: mods}
}

func NewFieldDecl(span source.Span, name string, mods Modifiers, t TypeExpr, init Expression, order int) *FieldDecl {
	return &FieldDecl{baseNode: baseNode{span}, Name: name, Mods: mods, DeclaredT: t, Init: init, OrderIndex: order}
}

func NewMethodDecl(span source.Span, name string, mods Modifiers, ret TypeExpr, params []Param, body *Block) *MethodDecl {
	return &MethodDecl{baseNode: baseNode{span}, Name: name, Mods: mods, ReturnT: ret, Params: params, Body: body}
}

func NewConstructorDecl(span source.Span, params []Param, body *Block) *ConstructorDecl {
	return &ConstructorDecl{baseNode: baseNode{span}, Params: params, Body: body}
}

func canonical(pkg, simple string) string {
	if pkg == "" {
		return simple
	}
	return pkg + "." + simple
}

// FieldDecl is a field declaration.
type FieldDecl struct {
	baseNode
	Owner       TypeDecl
	Name        string
	Mods        Modifiers
	DeclaredT   TypeExpr
	Init        Expression // nil if uninitialized
	OrderIndex  int
}

func (f *FieldDecl) declNode() {}
func (f *FieldDecl) String() string { return "field " + f.Name }

// Param is a formal parameter.
type Param struct {
	Span source.Span
	Name string
	T    TypeExpr
}

// MethodDecl is a method declaration.
type MethodDecl struct {
	baseNode
	Owner      TypeDecl
	Name       string
	Mods       Modifiers
	ReturnT    TypeExpr // nil means void
	Params     []Param
	Body       *Block // nil for abstract/native methods
}

func (m *MethodDecl) declNode()     {}
func (m *MethodDecl) String() string { return "method " + m.Name }

// SignatureKey returns the (name, erased parameter type) identity used for
// method identity within an inheritance frame. It is computed from
// the TypeExpr syntax, not the resolved types.Type, so it is available
// immediately after parsing, before the index/resolve passes run.
func (m *MethodDecl) SignatureKey() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	for _, p := range m.Params {
		sb.WriteByte('#')
		sb.WriteString(TypeExprKey(p.T))
	}
	return sb.String()
}

// ConstructorDecl is a constructor declaration (classes only).
type ConstructorDecl struct {
	baseNode
	Owner  TypeDecl
	Params []Param
	Body   *Block
}

func (c *ConstructorDecl) declNode()     {}
func (c *ConstructorDecl) String() string { return "constructor" }

func (c *ConstructorDecl) SignatureKey() string {
	var sb strings.Builder
	sb.WriteString("<init>")
	for _, p := range c.Params {
		sb.WriteByte('#')
		sb.WriteString(TypeExprKey(p.T))
	}
	return sb.String()
}
