package driver

import (
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/types"
)

// helloProgram builds spec.md §8 scenario 1 by hand: a single class
// declaring a no-arg constructor and a public static int test() returning
// the constant 123, the smallest whole program FindEntryPoint accepts.
func helloProgram() *ast.Program {
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cd.Constructors[0].Owner = cd

	lit := ast.NewLiteral(sp(), "int", "123")
	ret := ast.NewReturnStmt(sp(), lit)
	body := ast.NewBlock(sp(), []ast.Statement{ret})
	test := ast.NewMethodDecl(sp(), "test",
		ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true},
		ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, body)
	test.Owner = cd
	cd.MethodDecls = []*ast.MethodDecl{test}

	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd
	return ast.NewProgram([]*ast.CompilationUnit{cu})
}

// TestCompileCleanProgramProducesOneUnitPerFilePlusStart exercises the
// whole pipeline (spec.md §8 scenario 1): expect a clean compile, one
// emitted assembly unit for A.java, plus the shared start.s.
func TestCompileCleanProgramProducesOneUnitPerFilePlusStart(t *testing.T) {
	ctx := Compile(helloProgram(), Options{Opt: false})
	if ctx.Diags.HasAny() {
		t.Fatalf("unexpected diagnostics: %s", ctx.Diags.Format(false))
	}
	if ExitCode(&ctx.Diags) != diag.ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d", ExitCode(&ctx.Diags))
	}
	if len(ctx.Units) != 2 {
		t.Fatalf("expected 2 emitted units (A.s, start.s), got %d", len(ctx.Units))
	}
	foundStart := false
	for _, u := range ctx.Units {
		if u.Name == "start.s" {
			foundStart = true
		}
	}
	if !foundStart {
		t.Fatalf("expected a start.s unit among %v", ctx.Units)
	}
}

// TestOptAndOptNoneProduceIdenticalDiagnostics checks the property
// DESIGN.md records for --opt vs --opt-none: the register allocator choice
// never changes which diagnostics a compile produces, only the assembly
// downstream of a clean one. diag.Diff renders any divergence as a
// unified diff instead of an opaque byte-inequality failure.
func TestOptAndOptNoneProduceIdenticalDiagnostics(t *testing.T) {
	trivial := Compile(helloProgram(), Options{Opt: false})
	linearScan := Compile(helloProgram(), Options{Opt: true})

	if d := diag.Diff("--opt-none", "--opt", &trivial.Diags, &linearScan.Diags); d != "" {
		t.Fatalf("--opt and --opt-none diagnostics diverged:\n%s", d)
	}
}
