package index

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/source"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func TestBuildDetectsDuplicateCanonicalNames(t *testing.T) {
	a1 := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	a2 := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	cu1 := ast.NewCompilationUnit(sp(), "A.java", "p")
	cu1.Type = a1
	cu2 := ast.NewCompilationUnit(sp(), "A2.java", "p")
	cu2.Type = a2

	var diags diag.List
	Build(ast.NewProgram([]*ast.CompilationUnit{cu1, cu2}), &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a duplicate-declaration error")
	}
}

func TestResolveSimpleTypeNameOrder(t *testing.T) {
	a := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	b := ast.NewClassDecl(sp(), "p", "B", ast.Modifiers{ast.ModPublic: true})
	cuA := ast.NewCompilationUnit(sp(), "A.java", "p")
	cuA.Type = a
	cuB := ast.NewCompilationUnit(sp(), "B.java", "p")
	cuB.Type = b

	var diags diag.List
	g := Build(ast.NewProgram([]*ast.CompilationUnit{cuA, cuB}), &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected build errors: %s", diags.Format(false))
	}

	imp := Resolve(g, cuA, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected import errors: %s", diags.Format(false))
	}

	resolved := ResolveSimpleTypeName(g, imp, "B", sp(), &diags)
	if resolved == nil || resolved.CanonicalName() != "p.B" {
		t.Fatalf("expected same-package resolution of B, got %v", resolved)
	}

	resolved = ResolveSimpleTypeName(g, imp, "Object", sp(), &diags)
	if resolved == nil || resolved.CanonicalName() != "java.lang.Object" {
		t.Fatalf("expected implicit java.lang.Object resolution, got %v", resolved)
	}
}

func TestResolveUnresolvedImportIsReported(t *testing.T) {
	a := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	cu := ast.NewCompilationUnit(sp(), "A.java", "p")
	cu.Type = a
	cu.SingleImports = []ast.SingleTypeImport{{Span: sp(), CanonicalName: "q.Missing", SimpleName: "Missing"}}

	var diags diag.List
	g := Build(ast.NewProgram([]*ast.CompilationUnit{cu}), &diags)
	Resolve(g, cu, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected an unresolved-import error")
	}
}
