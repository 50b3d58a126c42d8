// Package analysis implements the three dataflow passes that run after type
// checking: constant folding, reachability, and definite assignment
// (spec.md §4.6). It writes its results onto the same per-node attribute
// slots the earlier passes use (ast.ExprAttrs.Constant, ast.StmtAttrs),
// never rewriting the tree itself, mirroring how resolve and typecheck
// annotate rather than mutate.
//
// Constant folding runs first since reachability's constant-condition
// folding ("if (false)", "while (true)") needs to know whether a condition
// is a compile-time constant before it can decide reachability. Definite
// assignment does not read the folded constants.
package analysis

import (
	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
)

// Analyze runs constant folding, reachability, and definite assignment over
// every method, constructor, and field initializer in program.
func Analyze(program *ast.Program, diags *diag.List) {
	foldProgram(program, diags)

	for _, cu := range program.Units {
		cd, ok := cu.Type.(*ast.ClassDecl)
		if !ok {
			continue
		}
		for _, m := range cd.MethodDecls {
			if m.Body == nil {
				continue
			}
			analyzeMethodBody(m.Body, isVoid(m.ReturnT), diags)
			checkDefiniteAssignment(paramNames(m.Params), m.Body, diags)
		}
		for _, ctor := range cd.Constructors {
			analyzeMethodBody(ctor.Body, true, diags)
			checkDefiniteAssignment(paramNames(ctor.Params), ctor.Body, diags)
		}
	}
}

func isVoid(t ast.TypeExpr) bool {
	_, ok := t.(*ast.VoidTypeExpr)
	return ok || t == nil
}

func paramNames(params []ast.Param) map[string]bool {
	out := make(map[string]bool, len(params))
	for _, p := range params {
		out[p.Name] = true
	}
	return out
}

// analyzeMethodBody runs reachability over one method or constructor body:
// the first statement is reachable, a non-void method must not complete
// normally, and every unreachable statement is reported.
func analyzeMethodBody(body *ast.Block, voidReturn bool, diags *diag.List) {
	completesNormally := reachBlock(body, true, diags)
	if !voidReturn && completesNormally {
		diags.Addf(diag.KindReachability, body.Span(),
			"missing return statement: method can complete normally without returning a value")
	}
}
