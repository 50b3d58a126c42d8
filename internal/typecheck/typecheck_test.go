package typecheck

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

func checkProgram(t *testing.T, cus ...*ast.CompilationUnit) *diag.List {
	t.Helper()
	program := ast.NewProgram(cus)
	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected hierarchy errors: %s", diags.Format(false))
	}
	resolve.Resolve(program, global, graph, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected resolve errors: %s", diags.Format(false))
	}
	Check(program, global, graph, &diags)
	return &diags
}

// TestFieldAccessRejectsProtectedThroughSupertypeReceiver covers spec.md
// §4.4: a protected member of an unrelated class reached through a receiver
// whose static type is a supertype of the accessing class, rather than that
// class or one of its own subtypes, is not accessible — even though the
// accessing class is itself a subclass of the declaring class.
func TestFieldAccessRejectsProtectedThroughSupertypeReceiver(t *testing.T) {
	a := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	a.FieldDecls = append(a.FieldDecls, ast.NewFieldDecl(sp(), "x", ast.Modifiers{ast.ModProtected: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), ast.NewLiteral(sp(), "int", "0"), 0))
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "p")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "q", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	access := ast.NewFieldAccess(sp(), ast.NewName(sp(), "a"), "x")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), access)})
	m := ast.NewMethodDecl(sp(), "m", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()),
		[]ast.Param{{Name: "a", T: ast.NewNamedTypeExpr(sp(), "A")}}, body)
	b.MethodDecls = append(b.MethodDecls, m)
	cuB := ast.NewCompilationUnit(sp(), "B.java", "q")
	cuB.SingleImports = []ast.SingleTypeImport{{Span: sp(), CanonicalName: "p.A", SimpleName: "A"}}
	cuB.Type = b

	diags := checkProgram(t, cuA, cuB)
	if !diags.HasErrors() {
		t.Fatalf("expected a type error reaching a protected field through a supertype-typed receiver")
	}
}

// TestFieldAccessAcceptsProtectedThroughOwnTypeReceiver is the same setup,
// but the receiver's static type is the accessing class itself, which is
// accessible.
func TestFieldAccessAcceptsProtectedThroughOwnTypeReceiver(t *testing.T) {
	a := ast.NewClassDecl(sp(), "p", "A", ast.Modifiers{ast.ModPublic: true})
	a.FieldDecls = append(a.FieldDecls, ast.NewFieldDecl(sp(), "x", ast.Modifiers{ast.ModProtected: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), ast.NewLiteral(sp(), "int", "0"), 0))
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "p")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "q", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	access := ast.NewFieldAccess(sp(), ast.NewName(sp(), "b"), "x")
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewExprStmt(sp(), access)})
	m := ast.NewMethodDecl(sp(), "m", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()),
		[]ast.Param{{Name: "b", T: ast.NewNamedTypeExpr(sp(), "B")}}, body)
	b.MethodDecls = append(b.MethodDecls, m)
	cuB := ast.NewCompilationUnit(sp(), "B.java", "q")
	cuB.SingleImports = []ast.SingleTypeImport{{Span: sp(), CanonicalName: "p.A", SimpleName: "A"}}
	cuB.Type = b

	diags := checkProgram(t, cuA, cuB)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format(false))
	}
}

// TestMethodCallOnTypeNameOnlyMatchesStaticMethod covers spec.md §4.5: static
// and instance methods never mix in a candidate set. A.f() (receiver is the
// bare type name) must only ever consider the static overload of f, even
// though an instance overload with a different arity also exists.
func TestMethodCallOnTypeNameOnlyMatchesStaticMethod(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "C", ast.Modifiers{ast.ModPublic: true})
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cd.MethodDecls = append(cd.MethodDecls,
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), ast.NewLiteral(sp(), "int", "1"))})),
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true},
			ast.NewPrimitiveTypeExpr(sp(), types.Int),
			[]ast.Param{{Name: "x", T: ast.NewPrimitiveTypeExpr(sp(), types.Int)}},
			ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), ast.NewName(sp(), "x"))})),
	)
	call := ast.NewMethodCall(sp(), ast.NewName(sp(), "C"), "f", nil)
	g := ast.NewMethodDecl(sp(), "g", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil,
		ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), call)}))
	cd.MethodDecls = append(cd.MethodDecls, g)
	cu := ast.NewCompilationUnit(sp(), "C.java", "")
	cu.Type = cd

	diags := checkProgram(t, cu)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Format(false))
	}
	if call.ResolvedMethod == nil || !call.ResolvedMethod.Mods.Has(ast.ModStatic) {
		t.Fatalf("expected C.f() to resolve to the static overload, got %+v", call.ResolvedMethod)
	}
}

// TestMethodCallOnInstanceNeverMatchesStaticMethod is the companion case: a
// call through an instance-valued receiver must not admit a static method of
// the same name, even when it is the only method by that name in scope.
func TestMethodCallOnInstanceNeverMatchesStaticMethod(t *testing.T) {
	cd := ast.NewClassDecl(sp(), "", "D", ast.Modifiers{ast.ModPublic: true})
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cd.MethodDecls = append(cd.MethodDecls,
		ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), ast.NewLiteral(sp(), "int", "1"))})),
	)
	call := ast.NewMethodCall(sp(), ast.NewName(sp(), "d"), "f", nil)
	g := ast.NewMethodDecl(sp(), "g", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int),
		[]ast.Param{{Name: "d", T: ast.NewNamedTypeExpr(sp(), "D")}},
		ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), call)}))
	cd.MethodDecls = append(cd.MethodDecls, g)
	cu := ast.NewCompilationUnit(sp(), "D.java", "")
	cu.Type = cd

	diags := checkProgram(t, cu)
	if !diags.HasErrors() {
		t.Fatalf("expected an error: a static method must not be callable through an instance receiver")
	}
}
