package codegen

import (
	"strings"
	"testing"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/ir"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

func sp() source.Span { return source.Span{Start: source.Position{File: "A.java", Line: 1, Column: 1}} }

// buildLoweredHello lowers the same minimal program spec.md §8 scenario 1
// describes (a class with a no-arg constructor and a public static
// int test() returning a constant) straight through to IR, skipping
// the front-end passes this package doesn't depend on.
func buildLoweredHello(t *testing.T) *ir.Program {
	t.Helper()
	cd := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	cd.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cd.Constructors[0].Owner = cd

	lit := ast.NewLiteral(sp(), "int", "123")
	lit.ExprAttrs().Constant = &ast.Const{Kind: "int", I32: 123}
	body := ast.NewBlock(sp(), []ast.Statement{ast.NewReturnStmt(sp(), lit)})
	test := ast.NewMethodDecl(sp(), "test",
		ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true},
		ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, body)
	test.Owner = cd
	cd.MethodDecls = []*ast.MethodDecl{test}

	cu := ast.NewCompilationUnit(sp(), "A.java", "")
	cu.Type = cd
	program := ast.NewProgram([]*ast.CompilationUnit{cu})

	var diags diag.List
	global := index.Build(program, &diags)
	graph := hierarchy.Build(program, global, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected hierarchy errors: %s", diags.Format(false))
	}
	layouts := ir.BuildLayouts(graph, graph.Nodes())
	return ir.Lower(program, graph, layouts, "A", "test")
}

// assertUnits checks the structural properties every EmitProgram call must
// hold regardless of which allocator produced it: one unit per source
// file plus a shared start.s declaring the process entry point.
func assertUnits(t *testing.T, units []Unit) {
	t.Helper()
	if len(units) != 2 {
		t.Fatalf("expected 2 units (A.s, start.s), got %d: %v", len(units), units)
	}
	var aUnit, startUnit *Unit
	for i := range units {
		switch units[i].Name {
		case "A.s":
			aUnit = &units[i]
		case "start.s":
			startUnit = &units[i]
		}
	}
	if aUnit == nil {
		t.Fatalf("expected an A.s unit, got %v", units)
	}
	if startUnit == nil {
		t.Fatalf("expected a start.s unit, got %v", units)
	}
	if !strings.Contains(startUnit.Text, "global _start") {
		t.Errorf("start.s missing the program entry point declaration:\n%s", startUnit.Text)
	}
	if !strings.Contains(startUnit.Text, "_start:") {
		t.Errorf("start.s missing the _start label:\n%s", startUnit.Text)
	}
	if !strings.Contains(aUnit.Text, "A.test") {
		t.Errorf("A.s missing a label for A.test:\n%s", aUnit.Text)
	}
}

func TestEmitProgramTrivialAllocatorStructure(t *testing.T) {
	prog := buildLoweredHello(t)
	units := EmitProgram(prog, NewTrivialAllocator())
	assertUnits(t, units)
}

func TestEmitProgramLinearScanAllocatorStructure(t *testing.T) {
	prog := buildLoweredHello(t)
	units := EmitProgram(prog, NewLinearScanAllocator())
	assertUnits(t, units)
}

// TestBothAllocatorsEmitSameLabelSet checks a property any register
// allocator choice must preserve: the set of code labels defined across
// the program is identical whether temporaries live on the stack or in
// registers — allocation only changes how a value moves, never the
// control-flow skeleton tiling built.
func TestBothAllocatorsEmitSameLabelSet(t *testing.T) {
	trivial := EmitProgram(buildLoweredHello(t), NewTrivialAllocator())
	linearScan := EmitProgram(buildLoweredHello(t), NewLinearScanAllocator())

	labelCount := func(units []Unit) int {
		n := 0
		for _, u := range units {
			n += strings.Count(u.Text, ":\n")
		}
		return n
	}
	if a, b := labelCount(trivial), labelCount(linearScan); a != b {
		t.Fatalf("expected the same number of labels regardless of allocator, got %d (trivial) vs %d (linear scan)", a, b)
	}
}
