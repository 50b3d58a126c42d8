package ir

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

func buildGraph(t *testing.T, units ...*ast.CompilationUnit) *hierarchy.Graph {
	t.Helper()
	program := ast.NewProgram(units)
	var diags diag.List
	global := index.Build(program, &diags)
	g := hierarchy.Build(program, global, &diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected hierarchy errors: %s", diags.Format(false))
	}
	return g
}

func intParam(name string) ast.Param {
	return ast.Param{Name: name, T: ast.NewPrimitiveTypeExpr(sp(), types.Int)}
}

// intLit builds an int literal already folded to its constant value, as
// internal/analysis would have left it by the time lowering runs.
func intLit(v int32) *ast.Literal {
	l := ast.NewLiteral(sp(), "int", "")
	l.ExprAttrs().Constant = &ast.Const{Kind: "int", I32: v}
	return l
}

// TestBuildLayoutsInheritsFieldsAndReusesOverrideSlot checks that B's layout
// appends its own field after A's, and that overriding f keeps the slot A
// assigned it rather than appending a new one.
func TestBuildLayoutsInheritsFieldsAndReusesOverrideSlot(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	fField := ast.NewFieldDecl(sp(), "x", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, 0)
	fField.Owner = a
	a.FieldDecls = []*ast.FieldDecl{fField}
	aMethod := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, ast.NewBlock(sp(), nil))
	aMethod.Owner = a
	a.MethodDecls = []*ast.MethodDecl{aMethod}
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	gField := ast.NewFieldDecl(sp(), "y", ast.Modifiers{ast.ModPublic: true}, ast.NewPrimitiveTypeExpr(sp(), types.Int), nil, 0)
	gField.Owner = b
	b.FieldDecls = []*ast.FieldDecl{gField}
	bMethod := ast.NewMethodDecl(sp(), "f", ast.Modifiers{ast.ModPublic: true}, ast.NewVoidTypeExpr(sp()), nil, ast.NewBlock(sp(), nil))
	bMethod.Owner = b
	b.MethodDecls = []*ast.MethodDecl{bMethod}
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	graph := buildGraph(t, cuA, cuB)
	layouts := BuildLayouts(graph, graph.Nodes())

	la := layouts.Lookup("A")
	lb := layouts.Lookup("B")
	if la == nil || lb == nil {
		t.Fatalf("expected layouts for both A and B")
	}
	if len(lb.Fields) != 2 {
		t.Fatalf("expected B to inherit A's field plus its own, got %d", len(lb.Fields))
	}
	if lb.Fields[0].Field != fField || lb.Fields[1].Field != gField {
		t.Fatalf("expected inherited field first, own field second")
	}
	if lb.Fields[1].Offset != la.InstanceSize {
		t.Fatalf("expected B's own field to start where A's instance ends")
	}

	aSlot, ok := la.SlotOf["f"]
	if !ok {
		t.Fatalf("expected A to assign f a vtable slot")
	}
	bSlot, ok := lb.SlotOf["f"]
	if !ok {
		t.Fatalf("expected B to inherit f's vtable slot")
	}
	if aSlot != bSlot {
		t.Fatalf("expected B's override of f to reuse A's slot %d, got %d", aSlot, bSlot)
	}
	if lb.VTable[bSlot].Owner.CanonicalName() != "B" {
		t.Fatalf("expected B's vtable slot to point at B's own override")
	}
}

func TestBuildLayoutsSubtypeColumn(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a

	b := ast.NewClassDecl(sp(), "", "B", ast.Modifiers{ast.ModPublic: true})
	b.Super = ast.NewNamedTypeExpr(sp(), "A")
	b.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuB := ast.NewCompilationUnit(sp(), "B.java", "")
	cuB.Type = b

	graph := buildGraph(t, cuA, cuB)
	layouts := BuildLayouts(graph, graph.Nodes())

	lb := layouts.Lookup("B")
	if !lb.SubtypeColumn["A"] {
		t.Fatalf("expected B <: A in B's subtype column")
	}
	if !lb.SubtypeColumn["java.lang.Object"] {
		t.Fatalf("expected every class to be a subtype of java.lang.Object")
	}
	if lb.SubtypeColumn["B"] != true {
		t.Fatalf("expected B <: B (reflexive)")
	}
}

// localRead builds a NameExpr already resolved to a local/parameter of type
// int, as resolve would have left it.
func localRead(name string) *ast.NameExpr {
	n := ast.NewName(sp(), name)
	n.ExprAttrs().Binding = &resolve.LocalBinding{Type: types.Prim(types.Int)}
	return n
}

// TestLowerMethodAddsParametersArithmetic builds `static int add(int a, int
// b) { return a + b; }` directly (skipping resolve/typecheck, whose work is
// already reflected on the node attributes) and checks the lowered body
// computes the sum and returns it.
func TestLowerMethodAddsParametersArithmetic(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a
	graph := buildGraph(t, cuA)
	layouts := BuildLayouts(graph, graph.Nodes())

	sum := ast.NewBinary(sp(), "+", localRead("a"), localRead("b"))
	ret := ast.NewReturnStmt(sp(), sum)
	body := ast.NewBlock(sp(), []ast.Statement{ret})
	method := ast.NewMethodDecl(sp(), "add", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true},
		ast.NewPrimitiveTypeExpr(sp(), types.Int), []ast.Param{intParam("a"), intParam("b")}, body)
	method.Owner = a

	lowered := lowerMethod(graph.Node("A"), layouts, method)

	if len(lowered.ParamTemps) != 2 {
		t.Fatalf("expected 2 param temps for a static method, got %d", len(lowered.ParamTemps))
	}

	var sawAdd, sawReturn bool
	for _, s := range lowered.Body {
		switch st := s.(type) {
		case Compute:
			if st.Op == OpAdd {
				sawAdd = true
			}
		case Return:
			if st.Value != nil {
				sawReturn = true
			}
		}
	}
	if !sawAdd {
		t.Fatalf("expected a Compute(OpAdd) instruction in the lowered body")
	}
	if !sawReturn {
		t.Fatalf("expected a Return carrying the sum")
	}
}

func TestLowerIfElseBothReturnEmitsCJumpGraph(t *testing.T) {
	a := ast.NewClassDecl(sp(), "", "A", ast.Modifiers{ast.ModPublic: true})
	a.Constructors = []*ast.ConstructorDecl{ast.NewConstructorDecl(sp(), nil, ast.NewBlock(sp(), nil))}
	cuA := ast.NewCompilationUnit(sp(), "A.java", "")
	cuA.Type = a
	graph := buildGraph(t, cuA)
	layouts := BuildLayouts(graph, graph.Nodes())

	cond := ast.NewBinary(sp(), "<", localRead("a"), localRead("b"))
	thenRet := ast.NewReturnStmt(sp(), intLit(1))
	elseRet := ast.NewReturnStmt(sp(), intLit(2))
	ifStmt := ast.NewIfStmt(sp(), cond, thenRet, elseRet)
	body := ast.NewBlock(sp(), []ast.Statement{ifStmt})
	method := ast.NewMethodDecl(sp(), "cmp", ast.Modifiers{ast.ModPublic: true, ast.ModStatic: true},
		ast.NewPrimitiveTypeExpr(sp(), types.Int), []ast.Param{intParam("a"), intParam("b")}, body)
	method.Owner = a

	lowered := lowerMethod(graph.Node("A"), layouts, method)

	var sawCJump bool
	var returns int
	for _, s := range lowered.Body {
		switch s.(type) {
		case CJump:
			sawCJump = true
		case Return:
			returns++
		}
	}
	if !sawCJump {
		t.Fatalf("expected the if's condition to lower to a CJump")
	}
	if returns < 2 {
		t.Fatalf("expected both branches' returns to survive lowering, got %d", returns)
	}
}
