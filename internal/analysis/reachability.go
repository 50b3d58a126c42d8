package analysis

import (
	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
)

// reachBlock threads reachability through a block's statements in order,
// returning whether the block as a whole completes normally.
func reachBlock(b *ast.Block, reachableIn bool, diags *diag.List) bool {
	reachable := reachableIn
	for _, stmt := range b.Stmts {
		reachable = reachStmt(stmt, reachable, diags)
	}
	return reachable
}

// reachStmt sets stmt's ReachableIn/CompletesNormally attributes and returns
// CompletesNormally, reporting an unreachable-statement diagnostic the first
// time a statement is visited with reachableIn false.
func reachStmt(stmt ast.Statement, reachableIn bool, diags *diag.List) bool {
	attrs := stmt.StmtAttrs()
	attrs.ReachableIn = reachableIn
	attrs.Visited = true
	if !reachableIn {
		diags.Addf(diag.KindReachability, stmt.Span(), "unreachable statement")
	}

	completes := reachStmtKind(stmt, reachableIn, diags)
	attrs.CompletesNormally = completes
	return completes
}

func reachStmtKind(stmt ast.Statement, reachableIn bool, diags *diag.List) bool {
	switch s := stmt.(type) {
	case *ast.Block:
		return reachBlock(s, reachableIn, diags)
	case *ast.LocalVarDecl, *ast.ExprStmt, *ast.EmptyStmt:
		return reachableIn
	case *ast.ReturnStmt:
		return false
	case *ast.IfStmt:
		return reachIf(s, reachableIn, diags)
	case *ast.WhileStmt:
		return reachWhile(s, reachableIn, diags)
	case *ast.ForStmt:
		return reachFor(s, reachableIn, diags)
	default:
		return reachableIn
	}
}

// reachIf implements spec.md §4.6: an if without an else passes
// reachability through both branches and completes normally whenever the
// if-statement itself is reached (control can always bypass the
// then-branch); an if/else only completes normally if both branches do.
func reachIf(s *ast.IfStmt, reachableIn bool, diags *diag.List) bool {
	condVal, isConst := constBool(s.Cond)

	thenReachable, elseReachable := reachableIn, reachableIn
	if reachableIn && isConst {
		thenReachable, elseReachable = condVal, !condVal
	}

	thenCompletes := reachStmt(s.Then, thenReachable, diags)

	if s.Else == nil {
		return reachableIn
	}
	elseCompletes := reachStmt(s.Else, elseReachable, diags)

	if isConst {
		if condVal {
			return thenCompletes
		}
		return elseCompletes
	}
	return thenCompletes && elseCompletes
}

// reachWhile implements "while(true) makes following statements unreachable
// ... ; while (false) body is unreachable".
func reachWhile(s *ast.WhileStmt, reachableIn bool, diags *diag.List) bool {
	condVal, isConst := constBool(s.Cond)

	bodyReachable := reachableIn
	if reachableIn && isConst && !condVal {
		bodyReachable = false
	}
	reachStmt(s.Body, bodyReachable, diags)

	if reachableIn && isConst && condVal {
		// Joos has no break, so an unconditionally-true loop never exits.
		return false
	}
	return reachableIn
}

// reachFor mirrors reachWhile; a missing condition is treated as constantly
// true (the `for (;;)` idiom for an infinite loop).
func reachFor(s *ast.ForStmt, reachableIn bool, diags *diag.List) bool {
	if s.Init != nil {
		reachStmt(s.Init, reachableIn, diags)
	}

	condVal, isConst := true, true
	if s.Cond != nil {
		condVal, isConst = constBool(s.Cond)
	}

	bodyReachable := reachableIn
	if reachableIn && isConst && !condVal {
		bodyReachable = false
	}
	reachStmt(s.Body, bodyReachable, diags)
	if s.Update != nil {
		reachStmt(s.Update, bodyReachable, diags)
	}

	if reachableIn && isConst && condVal {
		return false
	}
	return reachableIn
}

// constBool reports a boolean expression's folded constant value, if
// constant folding (which runs before reachability) recorded one.
func constBool(e ast.Expression) (value bool, isConst bool) {
	c := e.ExprAttrs().Constant
	if c == nil || c.Kind != "boolean" {
		return false, false
	}
	return c.Bool, true
}
