// Package hierarchy validates the class/interface graph and computes each
// type's contains-set: the set of methods visible on a given reference type
// per JLS §8.4.6. It uses a worklist/memoization discipline for the
// fixpoint traversal of the class graph.
package hierarchy

import (
	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/types"
)

// TypeDecl wraps a declared class or interface with its resolved hierarchy
// edges. It implements types.ClassRef, so the rest of the compiler's
// subtype/assignability logic (internal/types.IsSubtypeOf) works directly
// against it.
type TypeDecl struct {
	Decl       ast.TypeDecl
	Super      *TypeDecl   // nil for Object and for interfaces
	Interfaces []*TypeDecl // superinterfaces (interface) or implemented interfaces (class)

	// containsSet is filled in by computeContainsSet, keyed by signature.
	containsSet map[string]*MethodEntry
	computing   bool // cycle guard during the worklist traversal
}

func (t *TypeDecl) CanonicalName() string        { return t.Decl.CanonicalName() }
func (t *TypeDecl) IsInterface() bool            { return t.Decl.IsInterface() }
func (t *TypeDecl) IsFinal() bool                { return t.Decl.Modifiers().Has(ast.ModFinal) }
func (t *TypeDecl) IsAbstract() bool             { return t.Decl.Modifiers().Has(ast.ModAbstract) }
func (t *TypeDecl) SuperclassRef() types.ClassRef {
	if t.Super == nil {
		return nil
	}
	return t.Super
}
func (t *TypeDecl) SuperinterfaceRefs() []types.ClassRef {
	out := make([]types.ClassRef, len(t.Interfaces))
	for i, iface := range t.Interfaces {
		out[i] = iface
	}
	return out
}

// MethodEntry is one entry of a type's contains-set: the method visible
// through that type, and which declaration actually supplies its body (the
// "most concrete" winner when two supertypes disagree).
type MethodEntry struct {
	Signature string
	Method    *ast.MethodDecl
	// DeclaringType is the TypeDecl that declares Method.
	DeclaringType *TypeDecl
}

// Graph is the whole-program hierarchy.
type Graph struct {
	nodes map[string]*TypeDecl
}

func (g *Graph) Node(canonicalName string) *TypeDecl { return g.nodes[canonicalName] }

// Nodes returns every declared type in the program, including the seeded
// java.lang.Object/String, in no particular order. internal/ir uses this to
// lay out every class and to compute each one's subtype-test column against
// the whole type universe.
func (g *Graph) Nodes() []*TypeDecl {
	out := make([]*TypeDecl, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// ContainsSet returns the computed contains-set for a type, computing it
// (and all its supertypes', memoized) on first request.
func (g *Graph) ContainsSet(t *TypeDecl) map[string]*MethodEntry {
	if t.containsSet == nil {
		g.computeContainsSet(t, &diag.List{})
	}
	return t.containsSet
}

// Build validates the hierarchy and returns the resulting Graph. Every rule
// is checked; on any error the returned Graph is still usable for
// introspection, but the driver should not proceed to resolve/typecheck —
// each pass only runs once the ones before it are clean.
func Build(program *ast.Program, global *index.Global, diags *diag.List) *Graph {
	g := &Graph{nodes: map[string]*TypeDecl{}}

	// Pass 1: create a node for every declared type (including the seeded
	// java.lang.Object/String) so references can resolve regardless of
	// declaration order.
	for _, td := range allDecls(program, global) {
		g.nodes[td.CanonicalName()] = &TypeDecl{Decl: td}
	}

	// Pass 2: resolve Super/Interfaces edges per compilation unit, using
	// that unit's own import table — name resolution applies to
	// extends/implements clauses too.
	for _, cu := range program.Units {
		if cu.Type == nil {
			continue
		}
		imp := index.Resolve(global, cu, diags)
		node := g.nodes[cu.Type.CanonicalName()]
		resolveEdges(g, node, cu.Type, global, imp, diags)
	}
	linkObjectSuperclass(g)

	if diags.HasErrors() {
		return g
	}

	checkNoCycles(g, diags)
	if diags.HasErrors() {
		return g
	}

	checkExtendsImplementsKinds(g, diags)
	checkFinalNotExtended(g, diags)

	for _, node := range g.nodes {
		g.computeContainsSet(node, diags)
	}

	for _, node := range g.nodes {
		checkAbstractCoverage(g, node, diags)
	}

	return g
}

func allDecls(program *ast.Program, global *index.Global) []ast.TypeDecl {
	decls := program.AllTypeDecls()
	decls = append(decls, global.Lookup("java.lang.Object"), global.Lookup("java.lang.String"))
	return decls
}

// linkObjectSuperclass gives every class except Object itself an implicit
// `extends java.lang.Object` when it declared no explicit superclass.
func linkObjectSuperclass(g *Graph) {
	object := g.nodes["java.lang.Object"]
	for name, node := range g.nodes {
		if name == "java.lang.Object" || node.IsInterface() {
			continue
		}
		if node.Super == nil {
			node.Super = object
		}
	}
}

func resolveEdges(g *Graph, node *TypeDecl, td ast.TypeDecl, global *index.Global, imp *index.Imports, diags *diag.List) {
	switch decl := td.(type) {
	case *ast.ClassDecl:
		if decl.Super != nil {
			if named, ok := decl.Super.(*ast.NamedTypeExpr); ok {
				resolved := index.ResolveSimpleTypeName(global, imp, named.Name, named.Span(), diags)
				if resolved != nil {
					node.Super = g.nodes[resolved.CanonicalName()]
				}
			}
		}
		for _, ifaceExpr := range decl.Interfaces {
			if named, ok := ifaceExpr.(*ast.NamedTypeExpr); ok {
				resolved := index.ResolveSimpleTypeName(global, imp, named.Name, named.Span(), diags)
				if resolved != nil {
					node.Interfaces = append(node.Interfaces, g.nodes[resolved.CanonicalName()])
				}
			}
		}
	case *ast.InterfaceDecl:
		for _, extExpr := range decl.Extends {
			if named, ok := extExpr.(*ast.NamedTypeExpr); ok {
				resolved := index.ResolveSimpleTypeName(global, imp, named.Name, named.Span(), diags)
				if resolved != nil {
					node.Interfaces = append(node.Interfaces, g.nodes[resolved.CanonicalName()])
				}
			}
		}
	}
}

func checkExtendsImplementsKinds(g *Graph, diags *diag.List) {
	for _, node := range g.nodes {
		if node.IsInterface() {
			for _, sup := range node.Interfaces {
				if !sup.IsInterface() {
					diags.Addf(diag.KindHierarchy, node.Decl.Span(),
						"interface %q cannot extend class %q", node.CanonicalName(), sup.CanonicalName())
				}
			}
			continue
		}
		if node.Super != nil && node.Super.IsInterface() {
			diags.Addf(diag.KindHierarchy, node.Decl.Span(),
				"class %q cannot extend interface %q", node.CanonicalName(), node.Super.CanonicalName())
		}
		for _, impl := range node.Interfaces {
			if !impl.IsInterface() {
				diags.Addf(diag.KindHierarchy, node.Decl.Span(),
					"class %q cannot implement class %q", node.CanonicalName(), impl.CanonicalName())
			}
		}
	}
}

func checkFinalNotExtended(g *Graph, diags *diag.List) {
	for _, node := range g.nodes {
		if node.Super != nil && node.Super.IsFinal() {
			diags.Addf(diag.KindHierarchy, node.Decl.Span(),
				"class %q cannot extend final class %q", node.CanonicalName(), node.Super.CanonicalName())
		}
	}
}

// checkNoCycles rejects cycles in the transitive closure of extends/
// implements edges, across classes and interfaces together.
func checkNoCycles(g *Graph, diags *diag.List) {
	const (
		white = iota
		gray
		black
	)
	color := map[string]int{}
	var visit func(n *TypeDecl) bool
	visit = func(n *TypeDecl) bool {
		color[n.CanonicalName()] = gray
		edges := n.Interfaces
		if n.Super != nil {
			edges = append(edges, n.Super)
		}
		for _, e := range edges {
			switch color[e.CanonicalName()] {
			case gray:
				diags.Addf(diag.KindHierarchy, n.Decl.Span(),
					"cyclic hierarchy involving %q and %q", n.CanonicalName(), e.CanonicalName())
				return true
			case white:
				if visit(e) {
					return true
				}
			}
		}
		color[n.CanonicalName()] = black
		return false
	}
	for _, n := range g.nodes {
		if color[n.CanonicalName()] == white {
			visit(n)
		}
	}
}

// computeContainsSet performs the upward, memoized traversal: a type's
// contains-set is its own declared methods overlaid on the merge of its
// supertypes' contains-sets, with conflicts checked at merge time.
func (g *Graph) computeContainsSet(node *TypeDecl, diags *diag.List) map[string]*MethodEntry {
	if node.containsSet != nil {
		return node.containsSet
	}
	if node.computing {
		// checkNoCycles already reports this; avoid infinite recursion.
		return map[string]*MethodEntry{}
	}
	node.computing = true
	defer func() { node.computing = false }()

	merged := map[string]*MethodEntry{}

	supertypes := append([]*TypeDecl{}, node.Interfaces...)
	if node.Super != nil {
		supertypes = append(supertypes, node.Super)
	}
	if node.IsInterface() {
		// java.lang.Object's public methods are implicitly contained in
		// every interface.
		if object := g.nodes["java.lang.Object"]; object != nil {
			supertypes = append(supertypes, object)
		}
	}

	for _, sup := range supertypes {
		for sig, entry := range g.computeContainsSet(sup, diags) {
			mergeEntry(merged, sig, entry, diags, node)
		}
	}

	for _, m := range node.Decl.Methods() {
		sig := m.SignatureKey()
		entry := &MethodEntry{Signature: sig, Method: m, DeclaringType: node}
		mergeOwn(merged, sig, entry, diags)
	}

	node.containsSet = merged
	return merged
}

func mergeEntry(merged map[string]*MethodEntry, sig string, incoming *MethodEntry, diags *diag.List, owner *TypeDecl) {
	existing, ok := merged[sig]
	if !ok {
		merged[sig] = incoming
		return
	}
	if existing.DeclaringType == incoming.DeclaringType {
		return
	}
	resolveConflict(merged, sig, existing, incoming, diags, owner)
}

func mergeOwn(merged map[string]*MethodEntry, sig string, incoming *MethodEntry, diags *diag.List) {
	if existing, ok := merged[sig]; ok {
		if existing.Method.Mods.Has(ast.ModFinal) {
			diags.Addf(diag.KindHierarchy, incoming.Method.Span(),
				"method %q cannot override final method declared in %q",
				incoming.Method.Name, existing.DeclaringType.CanonicalName())
		}
		if existing.Method.Mods.Has(ast.ModProtected) && incoming.Method.Mods.Has(ast.ModPublic) {
			// narrowing the other way (protected -> public) widens
			// visibility, which is allowed; only narrowing is rejected.
		} else if existing.Method.Mods.Has(ast.ModPublic) && !incoming.Method.Mods.Has(ast.ModPublic) {
			diags.Addf(diag.KindHierarchy, incoming.Method.Span(),
				"method %q cannot narrow visibility of the method it overrides", incoming.Method.Name)
		}
		if retTypeKey(existing.Method) != retTypeKey(incoming.Method) {
			diags.Addf(diag.KindHierarchy, incoming.Method.Span(),
				"method %q conflicts on return type with the method it overrides", incoming.Method.Name)
		}
		if existing.Method.Mods.Has(ast.ModStatic) != incoming.Method.Mods.Has(ast.ModStatic) {
			diags.Addf(diag.KindHierarchy, incoming.Method.Span(),
				"method %q conflicts on static/instance with the method it overrides", incoming.Method.Name)
		}
	}
	merged[sig] = incoming
}

// resolveConflict merges two contains-set entries for the same signature
// inherited from different supertypes.
func resolveConflict(merged map[string]*MethodEntry, sig string, a, b *MethodEntry, diags *diag.List, owner *TypeDecl) {
	aAbs := a.Method.Body == nil
	bAbs := b.Method.Body == nil
	switch {
	case aAbs && !bAbs:
		merged[sig] = b
	case !aAbs && bAbs:
		merged[sig] = a
	case aAbs && bAbs:
		merged[sig] = a
	default:
		// both concrete, from different types: ambiguous unless identical
		// signatures came from a common ancestor (diamond through
		// interfaces sharing Object, already deduped by map identity).
		diags.Addf(diag.KindHierarchy, owner.Decl.Span(),
			"class %q inherits conflicting concrete implementations of %q from %q and %q",
			owner.CanonicalName(), sig, a.DeclaringType.CanonicalName(), b.DeclaringType.CanonicalName())
		merged[sig] = a
	}
	if retTypeKey(a.Method) != retTypeKey(b.Method) {
		diags.Addf(diag.KindHierarchy, owner.Decl.Span(),
			"class %q inherits %q with conflicting return types from %q and %q",
			owner.CanonicalName(), sig, a.DeclaringType.CanonicalName(), b.DeclaringType.CanonicalName())
	}
}

func retTypeKey(m *ast.MethodDecl) string { return ast.TypeExprKey(m.ReturnT) }

// checkAbstractCoverage enforces that a class must declare a body for
// every inherited abstract method, or be abstract itself.
func checkAbstractCoverage(g *Graph, node *TypeDecl, diags *diag.List) {
	if node.IsInterface() || node.IsAbstract() {
		return
	}
	for sig, entry := range g.ContainsSet(node) {
		if entry.Method.Body == nil {
			diags.Addf(diag.KindHierarchy, node.Decl.Span(),
				"non-abstract class %q does not implement abstract method %q (from %q)",
				node.CanonicalName(), sig, entry.DeclaringType.CanonicalName())
		}
	}
}
