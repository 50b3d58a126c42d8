package driver

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func classWithTest(name string, mods ast.Modifiers) *ast.ClassDecl {
	cd := ast.NewClassDecl(sp(), "", name, ast.Modifiers{ast.ModPublic: true})
	m := ast.NewMethodDecl(sp(), "test", mods, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, ast.NewBlock(sp(), nil))
	m.Owner = cd
	cd.MethodDecls = []*ast.MethodDecl{m}
	return cd
}

func TestFindEntryPointSingleCandidate(t *testing.T) {
	cd := classWithTest("A", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true})
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd
	program := ast.NewProgram([]*ast.CompilationUnit{cu})

	className, sig, err := FindEntryPoint(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if className != "A" {
		t.Fatalf("expected entry class A, got %s", className)
	}
	if sig != "test" {
		t.Fatalf("expected entry signature \"test\", got %s", sig)
	}
}

func TestFindEntryPointRejectsNonStaticOrNonPublic(t *testing.T) {
	cd := classWithTest("A", ast.Modifiers{ast.ModPublic: true}) // missing static
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd
	program := ast.NewProgram([]*ast.CompilationUnit{cu})

	if _, _, err := FindEntryPoint(program); err == nil {
		t.Fatalf("expected an error when no class declares a conforming test()")
	}
}

func TestFindEntryPointRejectsAmbiguousCandidates(t *testing.T) {
	a := classWithTest("A", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true})
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := classWithTest("B", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true})
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	program := ast.NewProgram([]*ast.CompilationUnit{cuA, cuB})
	if _, _, err := FindEntryPoint(program); err == nil {
		t.Fatalf("expected an error when multiple classes declare a conforming test()")
	}
}

func TestExitCodeMapsDiagnostics(t *testing.T) {
	var clean diag.List
	if got := ExitCode(&clean); got != diag.ExitSuccess {
		t.Fatalf("expected ExitSuccess for no diagnostics, got %d", got)
	}

	var warn diag.List
	warn.Addf(diag.KindReachability, sp(), "unreachable statement")
	if got := ExitCode(&warn); got != diag.ExitWarning {
		t.Fatalf("expected ExitWarning for a reachability-only diagnostic, got %d", got)
	}

	var frontEnd diag.List
	frontEnd.Addf(diag.KindType, sp(), "type error")
	if got := ExitCode(&frontEnd); got != diag.ExitFrontEnd {
		t.Fatalf("expected ExitFrontEnd for a type error, got %d", got)
	}

	var internal diag.List
	internal.Addf(diag.KindInternal, sp(), "internal error")
	if got := ExitCode(&internal); got != diag.ExitInternalError {
		t.Fatalf("expected ExitInternalError for an internal diagnostic, got %d", got)
	}
}
