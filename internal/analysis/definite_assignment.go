package analysis

import (
	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/resolve"
)

// assignedSet is the set of locals definitely assigned on every path
// reaching a program point. It is passed and returned by value-ish copy
// (cloneSet) at every branch point rather than mutated in place, the same
// discipline resolve.Env uses for lexical scoping: a join point computes a
// fresh set (the intersection) instead of reconciling two mutations of one
// shared map.
type assignedSet map[string]bool

func cloneSet(s assignedSet) assignedSet {
	out := make(assignedSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// intersectSets returns the set of names assigned in every one of sets: the
// merge rule at a join point (spec.md §4.6, "merge at join points is
// intersection").
func intersectSets(sets ...assignedSet) assignedSet {
	if len(sets) == 0 {
		return assignedSet{}
	}
	out := cloneSet(sets[0])
	for _, s := range sets[1:] {
		for name := range out {
			if !s[name] {
				delete(out, name)
			}
		}
	}
	return out
}

// checkDefiniteAssignment walks one method/constructor body, given the
// locals already assigned on entry (the formal parameters), reporting a
// diag.KindDefiniteAssignment violation at every read of a local not
// definitely assigned on every path reaching it.
func checkDefiniteAssignment(params map[string]bool, body *ast.Block, diags *diag.List) {
	initial := make(assignedSet, len(params))
	for name := range params {
		initial[name] = true
	}
	daBlock(initial, body, diags)
}

func daBlock(assigned assignedSet, b *ast.Block, diags *diag.List) assignedSet {
	for _, stmt := range b.Stmts {
		assigned = daStmt(assigned, stmt, diags)
	}
	return assigned
}

func daStmt(assigned assignedSet, stmt ast.Statement, diags *diag.List) assignedSet {
	switch s := stmt.(type) {
	case *ast.Block:
		return daBlock(assigned, s, diags)
	case *ast.LocalVarDecl:
		if s.Init != nil {
			daExpr(assigned, s.Init, diags)
			assigned = cloneSet(assigned)
			assigned[s.Name] = true
		}
		return assigned
	case *ast.IfStmt:
		daExpr(assigned, s.Cond, diags)
		thenSet := daStmt(cloneSet(assigned), s.Then, diags)
		if s.Else == nil {
			return intersectSets(thenSet, assigned)
		}
		elseSet := daStmt(cloneSet(assigned), s.Else, diags)
		return intersectSets(thenSet, elseSet)
	case *ast.WhileStmt:
		// The condition is evaluated against the pre-loop set; the body may
		// run zero times, so nothing it assigns is assumed afterward.
		daExpr(assigned, s.Cond, diags)
		daStmt(cloneSet(assigned), s.Body, diags)
		return assigned
	case *ast.ForStmt:
		preLoop := assigned
		if s.Init != nil {
			preLoop = daStmt(cloneSet(assigned), s.Init, diags)
		}
		if s.Cond != nil {
			daExpr(preLoop, s.Cond, diags)
		}
		bodySet := daStmt(cloneSet(preLoop), s.Body, diags)
		if s.Update != nil {
			daStmt(bodySet, s.Update, diags)
		}
		return preLoop
	case *ast.ReturnStmt:
		if s.Value != nil {
			daExpr(assigned, s.Value, diags)
		}
		return assigned
	case *ast.ExprStmt:
		daExpr(assigned, s.Expr, diags)
		return assigned
	default:
		return assigned
	}
}

// localNameOf reports the simple name a NameExpr denotes when it resolved
// to a local variable or parameter binding (resolve never records a
// suffix for LocalBinding — see resolve.classifyName — so Parts[0] is the
// whole name).
func localNameOf(e ast.Expression) (string, bool) {
	n, ok := e.(*ast.NameExpr)
	if !ok {
		return "", false
	}
	if _, ok := n.ExprAttrs().Binding.(*resolve.LocalBinding); !ok {
		return "", false
	}
	return n.Parts[0], true
}

// daExpr recurses through an expression checking every read of a local
// against assigned, and folds the effect of a nested assignment expression
// into the live set for anything evaluated after it in the same
// expression (e.g. `int y = (x = 1) + x;`).
func daExpr(assigned assignedSet, e ast.Expression, diags *diag.List) {
	switch expr := e.(type) {
	case *ast.NameExpr:
		if name, ok := localNameOf(expr); ok && !assigned[name] {
			diags.Addf(diag.KindDefiniteAssignment, expr.Span(),
				"local variable %q might not have been assigned", name)
		}
	case *ast.BinaryExpr:
		daExpr(assigned, expr.Left, diags)
		daExpr(assigned, expr.Right, diags)
	case *ast.UnaryExpr:
		daExpr(assigned, expr.Operand, diags)
	case *ast.AssignExpr:
		daExpr(assigned, expr.Value, diags)
		if name, ok := localNameOf(expr.Target); ok {
			assigned[name] = true
		} else {
			daExpr(assigned, expr.Target, diags)
		}
	case *ast.CastExpr:
		daExpr(assigned, expr.Expr, diags)
	case *ast.InstanceofExpr:
		daExpr(assigned, expr.Expr, diags)
	case *ast.NewObjectExpr:
		for _, a := range expr.Args {
			daExpr(assigned, a, diags)
		}
	case *ast.NewArrayExpr:
		daExpr(assigned, expr.Dim, diags)
	case *ast.FieldAccessExpr:
		daExpr(assigned, expr.Receiver, diags)
	case *ast.MethodCallExpr:
		if expr.Receiver != nil {
			daExpr(assigned, expr.Receiver, diags)
		}
		for _, a := range expr.Args {
			daExpr(assigned, a, diags)
		}
	case *ast.ArrayAccessExpr:
		daExpr(assigned, expr.Array, diags)
		daExpr(assigned, expr.Index, diags)
	}
}
