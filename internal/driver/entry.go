package driver

import (
	"fmt"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// FindEntryPoint locates the designated start class: the one class in the
// whole program declaring a `public static int test()` method taking no
// arguments, the convention this coursework's test harness drives a joosc
// build with (spec.md §4.9 names "the designated start class" without
// pinning down how it's chosen, so this resolves that open question).
// Exactly one such method must exist.
func FindEntryPoint(program *ast.Program) (className, signature string, err error) {
	var found []*ast.MethodDecl
	for _, td := range program.AllTypeDecls() {
		cd, ok := td.(*ast.ClassDecl)
		if !ok {
			continue
		}
		for _, m := range cd.MethodDecls {
			if isEntryCandidate(m) {
				found = append(found, m)
			}
		}
	}
	switch len(found) {
	case 0:
		return "", "", fmt.Errorf("no class declares `public static int test()`; nothing to run")
	case 1:
		m := found[0]
		return m.Owner.CanonicalName(), m.SignatureKey(), nil
	default:
		return "", "", fmt.Errorf("%d classes declare `public static int test()`; exactly one start class is required", len(found))
	}
}

func isEntryCandidate(m *ast.MethodDecl) bool {
	if m.Name != "test" {
		return false
	}
	if !m.Mods.Has(ast.ModPublic) || !m.Mods.Has(ast.ModStatic) {
		return false
	}
	if len(m.Params) != 0 {
		return false
	}
	prim, ok := m.ReturnT.(*ast.PrimitiveTypeExpr)
	return ok && prim.Prim == types.Int
}

// sourceOf picks a span to attach a whole-program diagnostic to (no single
// offending node exists when the problem is "zero or many" start classes):
// the first compilation unit's type declaration, or an empty span if the
// program has no units at all.
func sourceOf(program *ast.Program) source.Span {
	if len(program.Units) > 0 && program.Units[0].Type != nil {
		return program.Units[0].Type.Span()
	}
	return source.Span{}
}
