package hierarchy

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/source"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func buildProgram(units ...*ast.CompilationUnit) *ast.Program { return ast.NewProgram(units) }

func TestBuildRejectsExtendingFinalClass(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true, ast.ModFinal: true})
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	program := buildProgram(cuA, cuB)
	var diags diag.List
	global := index.Build(program, &diags)
	Build(program, global, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected an error extending a final class")
	}
}

func TestBuildRejectsCyclicHierarchy(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	a.Super = ast.NewNamedTypeExpr(sp(), "B")
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	program := buildProgram(cuA, cuB)
	var diags diag.List
	global := index.Build(program, &diags)
	Build(program, global, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a cyclic hierarchy error")
	}
}

func TestBuildRejectsMissingAbstractImplementation(t *testing.T) {
	iface := ast.NewInterfaceDecl(sp(), "", "I", ast.Modifiers{ast.ModPublic: true})
	iface.MethodDecls = []*ast.MethodDecl{
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, nil),
	}
	cuI := ast.NewCompilationUnit(sp(), "I.java", "")
	cuI.Type = iface

	c := ast.NewClassDecl(sp(), "", "C", ast.Modifiers{ast.ModPublic: true})
	c.Interfaces = []ast.TypeExpr{ast.NewNamedTypeExpr(sp(), "I")}
	c.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuC := ast.NewCompilationUnit(sp(), "C.java", "")
	cuC.Type = c

	program := buildProgram(cuI, cuC)
	var diags diag.List
	global := index.Build(program, &diags)
	Build(program, global, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected an error for an unimplemented abstract method")
	}
}

func TestBuildAcceptsImplementedInterface(t *testing.T) {
	iface := ast.NewInterfaceDecl(sp(), "", "I", ast.Modifiers{ast.ModPublic: true})
	iface.MethodDecls = []*ast.MethodDecl{
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, nil),
	}
	cuI := ast.NewCompilationUnit(sp(), "I.java", "")
	cuI.Type = iface

	c := ast.NewClassDecl(sp(), "", "C", ast.Modifiers{ast.ModPublic: true})
	c.Interfaces = []ast.TypeExpr{ast.NewNamedTypeExpr(sp(), "I")}
	c.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	c.MethodDecls = []*ast.MethodDecl{
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, ast.NewBlock(sp(), nil)),
	}
	cuC := ast.NewCompilationUnit(sp(), "C.java", "")
	cuC.Type = c

	program := buildProgram(cuI, cuC)
	var diags diag.List
	global := index.Build(program, &diags)
	g := Build(program, global, &diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format(false))
	}
	node := g.Node("C")
	if node == nil {
		t.Fatalf("expected a node for C")
	}
	if _, ok := g.ContainsSet(node)["f"]; !ok {
		t.Fatalf("expected C's contains-set to include f, got %v", g.ContainsSet(node))
	}
}

func TestBuildRejectsOverridingFinalMethod(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	a.MethodDecls = []*ast.MethodDecl{
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true, ast.ModFinal: true}, ast.NewVoidTypeExpr(sp()), nil, ast.NewBlock(sp(), nil)),
	}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	b.MethodDecls = []*ast.MethodDecl{
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, ast.NewBlock(sp(), nil)),
	}
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	program := buildProgram(cuA, cuB)
	var diags diag.List
	global := index.Build(program, &diags)
	Build(program, global, &diags)

	if !diags.HasErrors() {
		t.Fatalf("expected an error overriding a final method")
	}
}
