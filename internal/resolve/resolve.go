// Package resolve implements JLS §6.5 name reclassification over the typed
// AST: a dotted name is matched left-to-right as one of local/parameter,
// field-of-this, or a type (single-type-import, same-package, or on-demand),
// with the unmatched suffix left for typecheck to walk as a chain of field
// accesses.
//
// Scopes are modeled as an immutable, persistent chain (Env), grounded on
// go-dws/internal/semantic's Scope.Parent chain but made persistent rather
// than mutated in place: introducing a local produces a new Env layered over
// the parent instead of inserting into a shared map, so a statement that
// re-enters an earlier scope (as analysis and typecheck's re-walks do) never
// observes a local declared later in the same block.
package resolve

import (
	"strings"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// Env is one frame of the persistent lexical-scope chain.
type Env struct {
	name   string
	typ    types.Type
	parent *Env
}

// NewEnv returns the empty environment (no locals in scope).
func NewEnv() *Env { return nil }

// WithLocal returns a new environment with name added, without mutating e.
func (e *Env) WithLocal(name string, t types.Type) *Env {
	return &Env{name: name, typ: t, parent: e}
}

// Lookup searches innermost-first.
func (e *Env) Lookup(name string) (types.Type, bool) {
	for f := e; f != nil; f = f.parent {
		if f.name == name {
			return f.typ, true
		}
	}
	return types.Type{}, false
}

// LocalBinding is the reclassification result for a name matching a local
// variable or parameter.
type LocalBinding struct{ Type types.Type }

func (*LocalBinding) bindingNode() {}

// FieldBinding is the reclassification result for a name matching an
// (implicit this.) field, walking the superclass chain.
type FieldBinding struct {
	Field *ast.FieldDecl
	Owner *hierarchy.TypeDecl
}

func (*FieldBinding) bindingNode() {}

// TypeBinding is the reclassification result for a name whose matched prefix
// denotes a type; Remaining holds the dotted suffix still to resolve (static
// field/method accesses), left for typecheck.
type TypeBinding struct {
	Type      *hierarchy.TypeDecl
	Remaining []string
}

func (*TypeBinding) bindingNode() {}

// PackageBinding is the reclassification result for a prefix that matches no
// local, field, or type, but is a valid package name prefix: only possible
// partway through resolving a longer qualified type name.
type PackageBinding struct {
	Prefix    string
	Remaining []string
}

func (*PackageBinding) bindingNode() {}

// unitContext carries what's needed to classify names within one
// compilation unit's one enclosing type.
type unitContext struct {
	global  *index.Global
	graph   *hierarchy.Graph
	imports *index.Imports
	self    *hierarchy.TypeDecl
	static  bool // true inside a static method: `this` and instance members out of scope
}

// Resolve walks every method and constructor body in program, classifying
// every NameExpr it finds and recording the result on ExprAttrs.Binding.
func Resolve(program *ast.Program, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	for _, cu := range program.Units {
		if cu.Type == nil {
			continue
		}
		imp := index.Resolve(global, cu, diags)
		self := graph.Node(cu.Type.CanonicalName())
		if self == nil {
			continue
		}
		resolveUnit(cu, self, imp, global, graph, diags)
	}
}

func resolveUnit(cu *ast.CompilationUnit, self *hierarchy.TypeDecl, imp *index.Imports, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	switch td := cu.Type.(type) {
	case *ast.ClassDecl:
		for _, f := range td.FieldDecls {
			if f.Init != nil {
				ctx := unitContext{global: global, graph: graph, imports: imp, self: self, static: f.Mods.Has(ast.ModStatic)}
				resolveExpr(f.Init, NewEnv(), ctx, diags)
			}
		}
		for _, m := range td.MethodDecls {
			resolveMethod(m, self, imp, global, graph, diags)
		}
		for _, ctor := range td.Constructors {
			resolveConstructor(ctor, self, imp, global, graph, diags)
		}
	case *ast.InterfaceDecl:
		// Interface methods have no bodies; nothing to resolve.
	}
}

func resolveMethod(m *ast.MethodDecl, self *hierarchy.TypeDecl, imp *index.Imports, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	if m.Body == nil {
		return
	}
	ctx := unitContext{global: global, graph: graph, imports: imp, self: self, static: m.Mods.Has(ast.ModStatic)}
	env := NewEnv()
	for _, p := range m.Params {
		env = env.WithLocal(p.Name, declaredParamType(p, ctx))
	}
	resolveBlock(m.Body, env, ctx, diags)
}

func resolveConstructor(c *ast.ConstructorDecl, self *hierarchy.TypeDecl, imp *index.Imports, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	ctx := unitContext{global: global, graph: graph, imports: imp, self: self, static: false}
	env := NewEnv()
	for _, p := range c.Params {
		env = env.WithLocal(p.Name, declaredParamType(p, ctx))
	}
	resolveBlock(c.Body, env, ctx, diags)
}

// declaredParamType renders a parameter's declared TypeExpr into a types.Type
// sufficient for local lookups; reference types resolve through the unit's
// import table so array/class parameter fields can be chased by NameExpr
// suffix resolution.
func declaredParamType(p ast.Param, ctx unitContext) types.Type {
	return typeExprToType(p.T, ctx)
}

func resolveBlock(b *ast.Block, env *Env, ctx unitContext, diags *diag.List) *Env {
	for _, stmt := range b.Stmts {
		env = resolveStmt(stmt, env, ctx, diags)
	}
	return env
}

// resolveStmt resolves one statement and returns the environment visible to
// the *next* statement in the same block (only LocalVarDecl extends it).
func resolveStmt(stmt ast.Statement, env *Env, ctx unitContext, diags *diag.List) *Env {
	switch s := stmt.(type) {
	case *ast.Block:
		resolveBlock(s, env, ctx, diags)
		return env
	case *ast.LocalVarDecl:
		if s.Init != nil {
			resolveExpr(s.Init, env, ctx, diags)
		}
		return env.WithLocal(s.Name, typeExprToType(s.T, ctx))
	case *ast.IfStmt:
		resolveExpr(s.Cond, env, ctx, diags)
		resolveStmt(s.Then, env, ctx, diags)
		if s.Else != nil {
			resolveStmt(s.Else, env, ctx, diags)
		}
		return env
	case *ast.WhileStmt:
		resolveExpr(s.Cond, env, ctx, diags)
		resolveStmt(s.Body, env, ctx, diags)
		return env
	case *ast.ForStmt:
		forEnv := env
		if s.Init != nil {
			forEnv = resolveStmt(s.Init, forEnv, ctx, diags)
		}
		if s.Cond != nil {
			resolveExpr(s.Cond, forEnv, ctx, diags)
		}
		if s.Update != nil {
			resolveStmt(s.Update, forEnv, ctx, diags)
		}
		resolveStmt(s.Body, forEnv, ctx, diags)
		return env
	case *ast.ReturnStmt:
		if s.Value != nil {
			resolveExpr(s.Value, env, ctx, diags)
		}
		return env
	case *ast.ExprStmt:
		resolveExpr(s.Expr, env, ctx, diags)
		return env
	case *ast.EmptyStmt:
		return env
	default:
		return env
	}
}

func resolveExpr(e ast.Expression, env *Env, ctx unitContext, diags *diag.List) {
	switch expr := e.(type) {
	case *ast.NameExpr:
		if b := classifyName(expr.Parts, expr.Span(), env, ctx, diags); b != nil {
			expr.ExprAttrs().Binding = b
		}
	case *ast.BinaryExpr:
		resolveExpr(expr.Left, env, ctx, diags)
		resolveExpr(expr.Right, env, ctx, diags)
	case *ast.UnaryExpr:
		resolveExpr(expr.Operand, env, ctx, diags)
	case *ast.AssignExpr:
		resolveExpr(expr.Target, env, ctx, diags)
		resolveExpr(expr.Value, env, ctx, diags)
	case *ast.CastExpr:
		resolveExpr(expr.Expr, env, ctx, diags)
	case *ast.InstanceofExpr:
		resolveExpr(expr.Expr, env, ctx, diags)
	case *ast.NewObjectExpr:
		for _, a := range expr.Args {
			resolveExpr(a, env, ctx, diags)
		}
	case *ast.NewArrayExpr:
		resolveExpr(expr.Dim, env, ctx, diags)
	case *ast.FieldAccessExpr:
		resolveExpr(expr.Receiver, env, ctx, diags)
	case *ast.MethodCallExpr:
		if expr.Receiver != nil {
			resolveExpr(expr.Receiver, env, ctx, diags)
		}
		for _, a := range expr.Args {
			resolveExpr(a, env, ctx, diags)
		}
	case *ast.ArrayAccessExpr:
		resolveExpr(expr.Array, env, ctx, diags)
		resolveExpr(expr.Index, env, ctx, diags)
	}
}

// classifyName implements the greedy longest-prefix reclassification: local,
// then field-of-this, then type (single-import / same-package / on-demand),
// then package prefix. Reports a KindEnvironment diagnostic and returns nil
// if no classification applies.
func classifyName(parts []string, span source.Span, env *Env, ctx unitContext, diags *diag.List) ast.Binding {
	first := parts[0]

	if t, ok := env.Lookup(first); ok {
		return &LocalBinding{Type: t}
	}

	if !ctx.static {
		if field, owner := lookupField(ctx.graph, ctx.self, first); field != nil {
			if !accessible(field.Mods, owner, ctx.self, ctx.self) {
				diags.Addf(diag.KindEnvironment, span,
					"field %q of %q is not accessible here", first, owner.CanonicalName())
			}
			return &FieldBinding{Field: field, Owner: owner}
		}
	}

	var quiet diag.List
	if td := index.ResolveSimpleTypeName(ctx.global, ctx.imports, first, span, &quiet); td != nil {
		node := ctx.graph.Node(td.CanonicalName())
		return &TypeBinding{Type: node, Remaining: parts[1:]}
	}

	// Try progressively longer dotted prefixes as a fully-qualified canonical
	// name (java.lang.Object, java.lang.String, or any declared type).
	joined := first
	for i := 1; i < len(parts); i++ {
		joined = joined + "." + parts[i]
		if td := ctx.global.Lookup(joined); td != nil {
			node := ctx.graph.Node(td.CanonicalName())
			return &TypeBinding{Type: node, Remaining: parts[i+1:]}
		}
	}

	if isPackagePrefix(ctx.global, first) {
		return &PackageBinding{Prefix: first, Remaining: parts[1:]}
	}

	diags.Addf(diag.KindEnvironment, span, "cannot resolve name %q", strings.Join(parts, "."))
	return nil
}

// isPackagePrefix reports whether prefix is a known package name or a strict
// prefix of one (e.g. "java" is a prefix of "java.lang").
func isPackagePrefix(global *index.Global, prefix string) bool {
	for _, p := range global.Packages() {
		if p == prefix || strings.HasPrefix(p, prefix+".") {
			return true
		}
	}
	return false
}

// lookupField walks the superclass chain looking for a field by simple name,
// the same way contains-set merges methods (own fields shadow inherited).
func lookupField(graph *hierarchy.Graph, node *hierarchy.TypeDecl, name string) (*ast.FieldDecl, *hierarchy.TypeDecl) {
	for n := node; n != nil; n = n.Super {
		for _, f := range n.Decl.Fields() {
			if f.Name == name {
				return f, n
			}
		}
	}
	return nil, nil
}

// accessible reports whether a field declared in owner, with the given
// modifiers, can be read from within self through a receiver of static type
// receiver. Public and same-package access is always allowed; protected
// access additionally requires self to be a subclass of owner AND the
// receiver's own static type to be self or a subtype of self, not merely
// some other supertype of owner (JLS/spec.md §4.4: a protected member of an
// unrelated subclass reached through a supertype-typed receiver is not
// accessible).
func accessible(mods ast.Modifiers, owner, self, receiver *hierarchy.TypeDecl) bool {
	if mods.Has(ast.ModPublic) {
		return true
	}
	if owner.Decl.PackageName() == self.Decl.PackageName() {
		return true
	}
	if mods.Has(ast.ModProtected) {
		return types.IsSubtypeOf(self, owner) && types.IsSubtypeOf(receiver, self)
	}
	return false
}

func typeExprToType(t ast.TypeExpr, ctx unitContext) types.Type {
	switch te := t.(type) {
	case *ast.PrimitiveTypeExpr:
		return types.Prim(te.Prim)
	case *ast.ArrayTypeExpr:
		elem := typeExprToType(te.Elem, ctx)
		return types.Array(elem)
	case *ast.NamedTypeExpr:
		var quiet diag.List
		td := index.ResolveSimpleTypeName(ctx.global, ctx.imports, te.Name, te.Span(), &quiet)
		if td == nil {
			return types.Type{}
		}
		return types.Reference(ctx.graph.Node(td.CanonicalName()))
	case *ast.VoidTypeExpr:
		return types.Void()
	default:
		return types.Type{}
	}
}
