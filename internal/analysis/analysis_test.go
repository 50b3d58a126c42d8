package analysis

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func intLit(v string) *ast.Literal { return ast.NewLiteral(sp(), "int", v) }
func boolLit(v string) *ast.Literal { return ast.NewLiteral(sp(), "boolean", v) }

func localRead(name string) *ast.NameExpr {
	n := ast.NewName(sp(), name)
	n.ExprAttrs().Binding = &resolve.LocalBinding{Type: types.Prim(types.Int)}
	return n
}

func TestFoldBinaryIntArithmetic(t *testing.T) {
	e := ast.NewBinary(sp(), "+", intLit("2"), intLit("3"))
	var diags diag.List
	foldExpr(e, map[*ast.FieldDecl]*ast.Const{}, &diags)
	c := e.ExprAttrs().Constant
	if c == nil || c.Kind != "int" || c.I32 != 5 {
		t.Fatalf("expected constant 5, got %+v", c)
	}
}

func TestFoldUnaryNegation(t *testing.T) {
	e := ast.NewUnary(sp(), "-", intLit("7"))
	var diags diag.List
	foldExpr(e, map[*ast.FieldDecl]*ast.Const{}, &diags)
	c := e.ExprAttrs().Constant
	if c == nil || c.I32 != -7 {
		t.Fatalf("expected constant -7, got %+v", c)
	}
}

func TestFoldStringConcatenation(t *testing.T) {
	e := ast.NewBinary(sp(), "+", ast.NewLiteral(sp(), "string", `"a"`), intLit("1"))
	var diags diag.List
	foldExpr(e, map[*ast.FieldDecl]*ast.Const{}, &diags)
	c := e.ExprAttrs().Constant
	if c == nil || c.Kind != "string" || c.Str != "a1" {
		t.Fatalf("expected constant string \"a1\", got %+v", c)
	}
}

func TestFoldRejectsOutOfRangeUnicodeEscapeInStringLiteral(t *testing.T) {
	e := ast.NewLiteral(sp(), "string", "\"\\uFFFF\"")
	var diags diag.List
	c := foldExpr(e, map[*ast.FieldDecl]*ast.Const{}, &diags)
	if c != nil {
		t.Fatalf("expected \\uFFFF to fail to fold as a constant, got %+v", c)
	}
	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for an out-of-ASCII-range unicode escape")
	}
	for _, e := range diags.Errors() {
		if e.Kind != diag.KindWeeder {
			t.Errorf("expected KindWeeder, got %v", e.Kind)
		}
	}
}

func TestFoldAcceptsInRangeUnicodeEscapeInStringLiteral(t *testing.T) {
	e := ast.NewLiteral(sp(), "string", "\"\\u0041\"")
	var diags diag.List
	c := foldExpr(e, map[*ast.FieldDecl]*ast.Const{}, &diags)
	if c == nil || c.Kind != "string" || c.Str != "A" {
		t.Fatalf("expected \\u0041 to fold to the string \"A\", got %+v", c)
	}
	if diags.HasAny() {
		t.Fatalf("unexpected diagnostics: %s", diags.Format(false))
	}
}

func TestReachabilityMarksCodeAfterReturnUnreachable(t *testing.T) {
	ret := ast.NewReturnStmt(sp(), intLit("1"))
	after := ast.NewExprStmt(sp(), ast.NewAssign(sp(), localRead("x"), intLit("2")))
	body := ast.NewBlock(sp(), []ast.Statement{ret, after})

	var diags diag.List
	analyzeMethodBody(body, false, &diags)

	if after.StmtAttrs().ReachableIn {
		t.Fatalf("expected statement after return to be unreachable")
	}
	if !diags.HasAny() {
		t.Fatalf("expected an unreachable-statement diagnostic")
	}
}

func TestReachabilityIfTrueFoldsElseUnreachable(t *testing.T) {
	then := ast.NewReturnStmt(sp(), intLit("1"))
	els := ast.NewReturnStmt(sp(), intLit("2"))
	ifStmt := ast.NewIfStmt(sp(), boolLit("true"), then, els)
	body := ast.NewBlock(sp(), []ast.Statement{ifStmt})

	var diags diag.List
	foldExpr(ifStmt.Cond, map[*ast.FieldDecl]*ast.Const{}, &diags)
	completes := reachBlock(body, true, &diags)

	if completes {
		t.Fatalf("expected if(true){return;}else{return;} to not complete normally")
	}
	if els.StmtAttrs().ReachableIn {
		t.Fatalf("expected the else branch of if(true) to be unreachable")
	}
}

func TestNonVoidMethodMustNotCompleteNormally(t *testing.T) {
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewEmptyStmt(sp())})
	var diags diag.List
	analyzeMethodBody(body, false, &diags)
	if !diags.HasAny() {
		t.Fatalf("expected a missing-return diagnostic for a non-void method")
	}
}

func TestDefiniteAssignmentRejectsReadBeforeAssignment(t *testing.T) {
	decl := ast.NewLocalVarDecl(sp(), "x", ast.NewPrimitiveTypeExpr(sp(), types.Int), nil)
	read := ast.NewExprStmt(sp(), localRead("x"))
	body := ast.NewBlock(sp(), []ast.Statement{decl, read})

	var diags diag.List
	checkDefiniteAssignment(map[string]bool{}, body, &diags)

	if !diags.HasAny() {
		t.Fatalf("expected a definite-assignment diagnostic for reading x before assignment")
	}
	for _, e := range diags.Errors() {
		if e.Kind != diag.KindDefiniteAssignment {
			t.Errorf("expected KindDefiniteAssignment, got %v", e.Kind)
		}
	}
}

func TestDefiniteAssignmentAcceptsIfElseBothAssign(t *testing.T) {
	decl := ast.NewLocalVarDecl(sp(), "x", ast.NewPrimitiveTypeExpr(sp(), types.Int), nil)
	thenAssign := ast.NewExprStmt(sp(), ast.NewAssign(sp(), localRead("x"), intLit("1")))
	elseAssign := ast.NewExprStmt(sp(), ast.NewAssign(sp(), localRead("x"), intLit("2")))
	ifStmt := ast.NewIfStmt(sp(), boolLit("true"), thenAssign, elseAssign)
	read := ast.NewExprStmt(sp(), localRead("x"))
	body := ast.NewBlock(sp(), []ast.Statement{decl, ifStmt, read})

	var diags diag.List
	checkDefiniteAssignment(map[string]bool{}, body, &diags)

	if diags.HasAny() {
		t.Fatalf("unexpected diagnostics: %s", diags.Format(false))
	}
}

func TestDefiniteAssignmentLoopBodyNotAssumedOnExit(t *testing.T) {
	decl := ast.NewLocalVarDecl(sp(), "x", ast.NewPrimitiveTypeExpr(sp(), types.Int), nil)
	assignInLoop := ast.NewExprStmt(sp(), ast.NewAssign(sp(), localRead("x"), intLit("1")))
	loop := ast.NewWhileStmt(sp(), boolLit("true"), assignInLoop)
	read := ast.NewExprStmt(sp(), localRead("x"))
	body := ast.NewBlock(sp(), []ast.Statement{decl, loop, read})

	var diags diag.List
	checkDefiniteAssignment(map[string]bool{}, body, &diags)

	if !diags.HasAny() {
		t.Fatalf("expected x read after the loop to still be flagged: loop body may run zero times")
	}
}
