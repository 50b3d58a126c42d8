package resolve

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func TestResolveClassifiesLocalBeforeField(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.FieldDecls = append(cd.FieldDecls, ast.NewFieldDecl(sp(), "x", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, 0))
	nameExpr := ast.NewName(sp(), "x")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), nameExpr)})
	m := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()),
		[]ast.Param{{Name: "x", T: ast.NewPrimitiveTypeExpr(sp(), types.Boolean)}}, body)
	cd.MethodDecls = append(cd.MethodDecls, m)
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd

	program := ast.NewProgram([]*ast.CompilationUnit{cu})
	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected hierarchy errors: %s", diags.Format(false))
	}

	Resolve(program, global, graph, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected resolve errors: %s", diags.Format(false))
	}

	binding := nameExpr.ExprAttrs().Binding
	lb, ok := binding.(*LocalBinding)
	if !ok {
		t.Fatalf("expected a LocalBinding for the parameter shadowing the field, got %T", binding)
	}
	if !lb.Type.IsBoolean() {
		t.Fatalf("expected the parameter's boolean type, got %v", lb.Type)
	}
}

func TestResolveClassifiesFieldOfThis(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	field := ast.NewFieldDecl(sp(), "count", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, 0)
	cd.FieldDecls = append(cd.FieldDecls, field)
	nameExpr := ast.NewName(sp(), "count")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), nameExpr)})
	m := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, body)
	cd.MethodDecls = append(cd.MethodDecls, m)
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd

	program := ast.NewProgram([]*ast.CompilationUnit{cu})
	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	Resolve(program, global, graph, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected resolve errors: %s", diags.Format(false))
	}

	fb, ok := nameExpr.ExprAttrs().Binding.(*FieldBinding)
	if !ok {
		t.Fatalf("expected a FieldBinding, got %T", nameExpr.ExprAttrs().Binding)
	}
	if fb.Field != field {
		t.Fatalf("expected the binding to point at the declared field")
	}
}

func TestResolveClassifiesTypeName(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	nameExpr := ast.NewName(sp(), "Object")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), nameExpr)})
	m := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, body)
	cd.MethodDecls = append(cd.MethodDecls, m)
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd

	program := ast.NewProgram([]*ast.CompilationUnit{cu})
	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	Resolve(program, global, graph, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected resolve errors: %s", diags.Format(false))
	}

	tb, ok := nameExpr.ExprAttrs().Binding.(*TypeBinding)
	if !ok {
		t.Fatalf("expected a TypeBinding, got %T", nameExpr.ExprAttrs().Binding)
	}
	if tb.Type.CanonicalName() != "java.lang.Object" {
		t.Fatalf("expected java.lang.Object, got %v", tb.Type.CanonicalName())
	}
}

func TestResolveReportsUnknownName(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	nameExpr := ast.NewName(sp(), "nonexistent")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), nameExpr)})
	m := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, body)
	cd.MethodDecls = append(cd.MethodDecls, m)
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd

	program := ast.NewProgram([]*ast.CompilationUnit{cu})
	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	Resolve(program, global, graph, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected an unresolved-name error")
	}
}
