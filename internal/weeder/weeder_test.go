package weeder

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/source"
)

func span() source.Span {
	return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}}
}

func TestWeedInsertsImplicitDefaultConstructor(t *testing.T) {
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cu := ast.NewCompilationUnit(span(), "A.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format(false))
	}
	if len(cd.Constructors) != 1 {
		t.Fatalf("expected an implicit constructor to be inserted, got %d", len(cd.Constructors))
	}
}

func TestWeedRejectsFinalMethod(t *testing.T) {
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.MethodDecls = append(cd.MethodDecls, ast.NewMethodDecl(span(), "f", ast.Modifiers{ast.ModFinal: true}, ast.NewVoidTypeExpr(span()), nil, ast.NewBlock(span(), nil)))
	cu := ast.NewCompilationUnit(span(), "A.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a weeder error for a final method")
	}
	for _, e := range diags.Errors() {
		if e.Kind != diag.KindWeeder {
			t.Errorf("expected KindWeeder, got %v", e.Kind)
		}
	}
}

func TestWeedRejectsFileNameMismatch(t *testing.T) {
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cu := ast.NewCompilationUnit(span(), "B.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a weeder error for class/file name mismatch")
	}
}

func TestCheckIntegerLiteralBoundary(t *testing.T) {
	if _, msg := CheckIntegerLiteral("2147483648", false); msg == nil {
		t.Fatalf("expected 2^31 without negation to be rejected")
	}
	if v, msg := CheckIntegerLiteral("2147483648", true); msg != nil || v != -2147483648 {
		t.Fatalf("expected negated 2^31 to be accepted as -2147483648, got v=%d msg=%v", v, msg)
	}
}

func TestWeedRejectsOutOfRangeIntegerLiteralInMethodBody(t *testing.T) {
	decl := ast.NewLocalVarDecl(span(), "x", ast.NewNamedTypeExpr(span(), "int"), ast.NewLiteral(span(), "int", "2147483648"))
	body := ast.NewBlock(span(), []ast.Statement{decl})
	m := ast.NewMethodDecl(span(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(span()), nil, body)
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.MethodDecls = append(cd.MethodDecls, m)
	cu := ast.NewCompilationUnit(span(), "A.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected 2147483648 (unnegated) to be rejected as an out-of-range integer literal")
	}
	for _, e := range diags.Errors() {
		if e.Kind != diag.KindWeeder {
			t.Errorf("expected KindWeeder, got %v", e.Kind)
		}
	}
}

func TestWeedAcceptsNegatedMaxIntLiteralInMethodBody(t *testing.T) {
	negated := ast.NewUnary(span(), "-", ast.NewLiteral(span(), "int", "2147483648"))
	ret := ast.NewReturnStmt(span(), negated)
	body := ast.NewBlock(span(), []ast.Statement{ret})
	m := ast.NewMethodDecl(span(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(span()), nil, body)
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.MethodDecls = append(cd.MethodDecls, m)
	cu := ast.NewCompilationUnit(span(), "A.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if diags.HasErrors() {
		t.Fatalf("expected -2147483648 to be accepted, got: %s", diags.Format(false))
	}
}

func TestWeedRejectsFinalFieldWithoutInitializer(t *testing.T) {
	cd := ast.NewClassDecl(span(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.FieldDecls = append(cd.FieldDecls, ast.NewFieldDecl(span(), "x", ast.Modifiers{ast.ModFinal: true}, ast.NewNamedTypeExpr(span(), "int"), nil, 0))
	cu := ast.NewCompilationUnit(span(), "A.java", "")
	cu.Type = cd

	var diags diag.List
	Weed(cu, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a weeder error for an uninitialized final field")
	}
}
