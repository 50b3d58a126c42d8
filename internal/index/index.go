// Package index implements the global canonical-name table and
// per-compilation-unit import resolution.
package index

import (
	"sort"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// Global is the whole-program canonical-name table.
type Global struct {
	byName map[string]ast.TypeDecl
}

// Build constructs the Global index, reporting a KindEnvironment diagnostic
// for every duplicate canonical name. java.lang.Object and java.lang.String
// are seeded in first, the way a real Joos toolchain seeds them from a
// fixed class-path entry rather than expecting user source to supply them.
func Build(program *ast.Program, diags *diag.List) *Global {
	g := &Global{byName: map[string]ast.TypeDecl{}}
	seedJavaLang(g)

	for _, td := range program.AllTypeDecls() {
		name := td.CanonicalName()
		if existing, ok := g.byName[name]; ok {
			diags.Addf(diag.KindEnvironment, td.Span(),
				"duplicate declaration of %q (also declared at %s)", name, existing.Span())
			continue
		}
		g.byName[name] = td
	}
	return g
}

// Lookup returns the TypeDecl for a canonical name, or nil.
func (g *Global) Lookup(canonicalName string) ast.TypeDecl { return g.byName[canonicalName] }

// InPackage returns every type declared in the given package, sorted by
// simple name for deterministic ambiguity-error ordering.
func (g *Global) InPackage(pkg string) []ast.TypeDecl {
	var out []ast.TypeDecl
	for _, td := range g.byName {
		if td.PackageName() == pkg {
			out = append(out, td)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimpleName() < out[j].SimpleName() })
	return out
}

func (g *Global) register(td ast.TypeDecl) { g.byName[td.CanonicalName()] = td }

// Packages returns every distinct non-empty package name known to the
// index, sorted. resolve uses this to tell a package-name prefix of a
// qualified type reference apart from a genuinely unresolvable name.
func (g *Global) Packages() []string {
	seen := map[string]bool{}
	for _, td := range g.byName {
		if td.PackageName() != "" {
			seen[td.PackageName()] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Imports is the resolved import table for one compilation unit:
// eagerly-resolved single-type imports plus the set of on-demand
// package imports, java.lang implicitly included at lowest priority.
type Imports struct {
	Unit           *ast.CompilationUnit
	SingleByName   map[string]ast.TypeDecl // simple name -> resolved type
	OnDemand       []string                // package names, java.lang last
}

// Resolve builds the Imports table for one unit, reporting every
// import error (unresolved single-type import, clashing single-type
// imports of different declarations, a single-type import clashing with the
// unit's own top-level type).
func Resolve(g *Global, cu *ast.CompilationUnit, diags *diag.List) *Imports {
	imp := &Imports{Unit: cu, SingleByName: map[string]ast.TypeDecl{}}

	for _, si := range cu.SingleImports {
		td := g.Lookup(si.CanonicalName)
		if td == nil {
			diags.Addf(diag.KindEnvironment, si.Span, "import %q does not resolve to a declared type", si.CanonicalName)
			continue
		}
		if existing, ok := imp.SingleByName[si.SimpleName]; ok && existing.CanonicalName() != td.CanonicalName() {
			diags.Addf(diag.KindEnvironment, si.Span,
				"single-type import %q conflicts with earlier import of a different %q",
				si.CanonicalName, si.SimpleName)
			continue
		}
		imp.SingleByName[si.SimpleName] = td
	}

	if cu.Type != nil {
		if existing, ok := imp.SingleByName[cu.Type.SimpleName()]; ok && existing.CanonicalName() != cu.Type.CanonicalName() {
			diags.Addf(diag.KindEnvironment, cu.Type.Span(),
				"single-type import of %q conflicts with the compilation unit's own top-level type",
				cu.Type.SimpleName())
		}
	}

	imp.OnDemand = append(imp.OnDemand, cu.OnDemandImports...)
	imp.OnDemand = append(imp.OnDemand, "java.lang")

	return imp
}

// ResolveSimpleTypeName implements the four-step name-resolution order for a
// simple type name:
//
//  1. the enclosing class itself (a type referring to its own simple name)
//  2. single-type-imports
//  3. same package
//  4. on-demand imports, ambiguous if more than one on-demand package
//     declares the name (java.lang's implicit import participates here too,
//     at lowest priority, so an explicit on-demand import of the same
//     simple name from another package is still reported ambiguous against
//     it — java.lang's priority is never special-cased away entirely, only
//     guaranteed to be considered last when no other candidate exists).
func ResolveSimpleTypeName(g *Global, imp *Imports, simpleName string, span source.Span, diags *diag.List) ast.TypeDecl {
	if imp.Unit.Type != nil && imp.Unit.Type.SimpleName() == simpleName {
		return imp.Unit.Type
	}
	if td, ok := imp.SingleByName[simpleName]; ok {
		return td
	}
	for _, td := range g.InPackage(imp.Unit.PackageName) {
		if td.SimpleName() == simpleName {
			return td
		}
	}

	var candidates []ast.TypeDecl
	for _, pkg := range imp.OnDemand {
		for _, td := range g.InPackage(pkg) {
			if td.SimpleName() == simpleName {
				candidates = append(candidates, td)
			}
		}
	}
	switch len(candidates) {
	case 0:
		diags.Addf(diag.KindEnvironment, span, "cannot resolve type %q", simpleName)
		return nil
	case 1:
		return candidates[0]
	default:
		diags.Addf(diag.KindEnvironment, span, "type %q is ambiguous among on-demand imports", simpleName)
		return nil
	}
}

func seedJavaLang(g *Global) {
	object := ast.NewClassDecl(source.Span{}, "java.lang", "Object", ast.Modifiers{ast.ModPublic: true})
	toString := ast.NewMethodDecl(source.Span{}, "toString", ast.Modifiers{ast.ModPublic: true},
		ast.NewNamedTypeExpr(source.Span{}, "String"), nil, ast.NewBlock(source.Span{}, nil))
	toString.Owner = object
	equals := ast.NewMethodDecl(source.Span{}, "equals", ast.Modifiers{ast.ModPublic: true},
		ast.NewPrimitiveTypeExpr(source.Span{}, types.Boolean), []ast.Param{{T: ast.NewNamedTypeExpr(source.Span{}, "Object")}},
		ast.NewBlock(source.Span{}, nil))
	equals.Owner = object
	object.MethodDecls = []*ast.MethodDecl{toString, equals}
	g.register(object)

	str := ast.NewClassDecl(source.Span{}, "java.lang", "String", ast.Modifiers{ast.ModPublic: true, ast.ModFinal: true})
	str.Super = ast.NewNamedTypeExpr(source.Span{}, "Object")
	strToString := ast.NewMethodDecl(source.Span{}, "toString", ast.Modifiers{ast.ModPublic: true},
		ast.NewNamedTypeExpr(source.Span{}, "String"), nil, ast.NewBlock(source.Span{}, nil))
	strToString.Owner = str
	str.MethodDecls = []*ast.MethodDecl{strToString}
	g.register(str)
}
