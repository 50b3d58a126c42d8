// Package weeder implements post-parse syntactic restrictions the
// context-free grammar cannot itself enforce. It runs on each
// compilation unit's AST in isolation, in the go-dws semantic.Pass style
// (one Run per unit, errors accumulated rather than returned early).
//
// Several restrictions on statement forms (no switch, do-while, break,
// continue, try/catch/finally, synchronized, throw, labeled statements, no
// array initializers, no multidimensional array creation) are enforced
// structurally: internal/ast has no node type for any of them, so the AST
// builder can never produce one from a conforming parse tree. Rules that
// *can* manifest on this AST — modifier conflicts, literal bounds, class/
// file agreement, constructor requirements — are checked explicitly below.
package weeder

import (
	"strconv"
	"strings"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/source"
	"golang.org/x/text/unicode/norm"
)

// Weed runs every weeder rule over one compilation unit, appending any
// violation to diags. It never returns early: the goal is to surface as
// many independent failures as possible within a single pass.
func Weed(cu *ast.CompilationUnit, diags *diag.List) {
	if cu.Type == nil {
		return
	}
	checkOneTypePerFile(cu, diags)
	checkFileNameAgreement(cu, diags)

	switch td := cu.Type.(type) {
	case *ast.ClassDecl:
		weedClass(td, diags)
	case *ast.InterfaceDecl:
		weedInterface(td, diags)
	}
}

func checkOneTypePerFile(cu *ast.CompilationUnit, diags *diag.List) {
	// The AST builder already enforces "one top-level type" structurally
	// (CompilationUnit.Type is a single field, not a slice); this check
	// exists to give a weeder-classified diagnostic if that invariant is
	// ever violated by a future multi-type parse-tree shape.
	if cu.Type == nil {
		diags.Addf(diag.KindWeeder, cu.Span(), "compilation unit declares no top-level type")
	}
}

func checkFileNameAgreement(cu *ast.CompilationUnit, diags *diag.List) {
	base := cu.FileName
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".java")
	if base != cu.Type.SimpleName() {
		diags.Addf(diag.KindWeeder, cu.Type.Span(),
			"class %q must be declared in a file named %s.java, not %s",
			cu.Type.SimpleName(), cu.Type.SimpleName(), cu.FileName)
	}
}

func weedClass(cd *ast.ClassDecl, diags *diag.List) {
	checkModifiers(cd.Mods, diags, cd.Span())
	if cd.Mods.Has(ast.ModAbstract) && cd.Mods.Has(ast.ModFinal) {
		diags.Addf(diag.KindWeeder, cd.Span(), "class %q cannot be both abstract and final", cd.Name)
	}

	for _, f := range cd.FieldDecls {
		weedField(f, diags)
	}
	for _, m := range cd.MethodDecls {
		weedMethod(m, diags)
	}

	// "implicit default constructor inserted only if the class declares no
	// constructor" — the hierarchy/layout passes consume Constructors, so
	// the weeder inserts the synthetic no-arg constructor here, once, the
	// way go-dws's parser synthesizes implicit nodes rather than leaving
	// every later pass to special-case "zero constructors".
	if len(cd.Constructors) == 0 {
		cd.Constructors = append(cd.Constructors, ast.NewConstructorDecl(cd.Span(), nil, ast.NewBlock(cd.Span(), nil)))
	}

	seen := map[string]bool{}
	for _, ctor := range cd.Constructors {
		key := ctor.SignatureKey()
		if seen[key] {
			diags.Addf(diag.KindWeeder, ctor.Span(), "duplicate constructor signature %s", key)
		}
		seen[key] = true
	}

	weedClassLiterals(cd, diags)
}

// weedClassLiterals walks every field initializer, method body, and
// constructor body in cd looking for integer literals, checking each
// against CheckIntegerLiteral's range rule (spec.md §4.1: "integer literals
// outside [0, 2^31] are rejected; the value 2^31 is only valid when
// immediately preceded by unary minus"). This is the same fold-shaped
// statement/expression descent internal/analysis's foldBlock/foldStmt use,
// run here instead so an out-of-range literal is rejected at weed time
// rather than silently surviving into type checking.
func weedClassLiterals(cd *ast.ClassDecl, diags *diag.List) {
	for _, f := range cd.FieldDecls {
		if f.Init != nil {
			weedExpr(f.Init, diags)
		}
	}
	for _, m := range cd.MethodDecls {
		if m.Body != nil {
			weedBlock(m.Body, diags)
		}
	}
	for _, ctor := range cd.Constructors {
		if ctor.Body != nil {
			weedBlock(ctor.Body, diags)
		}
	}
}

func weedBlock(b *ast.Block, diags *diag.List) {
	for _, s := range b.Stmts {
		weedStmt(s, diags)
	}
}

func weedStmt(stmt ast.Statement, diags *diag.List) {
	switch s := stmt.(type) {
	case *ast.Block:
		weedBlock(s, diags)
	case *ast.LocalVarDecl:
		if s.Init != nil {
			weedExpr(s.Init, diags)
		}
	case *ast.IfStmt:
		weedExpr(s.Cond, diags)
		weedStmt(s.Then, diags)
		if s.Else != nil {
			weedStmt(s.Else, diags)
		}
	case *ast.WhileStmt:
		weedExpr(s.Cond, diags)
		weedStmt(s.Body, diags)
	case *ast.ForStmt:
		if s.Init != nil {
			weedStmt(s.Init, diags)
		}
		if s.Cond != nil {
			weedExpr(s.Cond, diags)
		}
		if s.Update != nil {
			weedStmt(s.Update, diags)
		}
		weedStmt(s.Body, diags)
	case *ast.ReturnStmt:
		if s.Value != nil {
			weedExpr(s.Value, diags)
		}
	case *ast.ExprStmt:
		weedExpr(s.Expr, diags)
	}
}

// weedExpr descends into e looking for integer literals. A literal
// immediately under a unary minus is checked as negated so that
// -2147483648 (the one legal occurrence of 2^31) is accepted.
func weedExpr(e ast.Expression, diags *diag.List) {
	switch expr := e.(type) {
	case *ast.Literal:
		weedLiteral(expr, false, diags)
	case *ast.UnaryExpr:
		if lit, ok := expr.Operand.(*ast.Literal); ok && expr.Op == "-" {
			weedLiteral(lit, true, diags)
			return
		}
		weedExpr(expr.Operand, diags)
	case *ast.BinaryExpr:
		weedExpr(expr.Left, diags)
		weedExpr(expr.Right, diags)
	case *ast.AssignExpr:
		weedExpr(expr.Target, diags)
		weedExpr(expr.Value, diags)
	case *ast.CastExpr:
		weedExpr(expr.Expr, diags)
	case *ast.InstanceofExpr:
		weedExpr(expr.Expr, diags)
	case *ast.NewObjectExpr:
		for _, a := range expr.Args {
			weedExpr(a, diags)
		}
	case *ast.NewArrayExpr:
		weedExpr(expr.Dim, diags)
	case *ast.FieldAccessExpr:
		weedExpr(expr.Receiver, diags)
	case *ast.MethodCallExpr:
		if expr.Receiver != nil {
			weedExpr(expr.Receiver, diags)
		}
		for _, a := range expr.Args {
			weedExpr(a, diags)
		}
	case *ast.ArrayAccessExpr:
		weedExpr(expr.Array, diags)
		weedExpr(expr.Index, diags)
	}
}

func weedLiteral(l *ast.Literal, negated bool, diags *diag.List) {
	if l.Kind != "int" {
		return
	}
	if _, msg := CheckIntegerLiteral(l.Raw, negated); msg != nil {
		diags.Addf(diag.KindWeeder, l.Span(), "%s", *msg)
	}
}

func weedInterface(id *ast.InterfaceDecl, diags *diag.List) {
	checkModifiers(id.Mods, diags, id.Span())
	for _, m := range id.MethodDecls {
		if m.Body != nil {
			diags.Addf(diag.KindWeeder, m.Span(), "interface method %q must not have a body", m.Name)
		}
		weedMethod(m, diags)
	}
}

func checkModifiers(mods ast.Modifiers, diags *diag.List, span source.Span) {
	if mods.Has(ast.ModPublic) && mods.Has(ast.ModProtected) {
		diags.Addf(diag.KindWeeder, span, "cannot combine public and protected modifiers")
	}
	if mods.Has(ast.ModAbstract) && mods.Has(ast.ModStatic) {
		diags.Addf(diag.KindWeeder, span, "cannot combine abstract and static modifiers")
	}
	if mods.Has(ast.ModAbstract) && mods.Has(ast.ModNative) {
		diags.Addf(diag.KindWeeder, span, "cannot combine abstract and native modifiers")
	}
	if mods.Has(ast.ModNative) && !mods.Has(ast.ModStatic) {
		diags.Addf(diag.KindWeeder, span, "a native method must be static")
	}
}

func weedField(f *ast.FieldDecl, diags *diag.List) {
	if f.Mods.Has(ast.ModFinal) && f.Init == nil {
		diags.Addf(diag.KindWeeder, f.Span(), "final field %q must have an initializer", f.Name)
	}
	if _, ok := f.DeclaredT.(*ast.VoidTypeExpr); ok {
		diags.Addf(diag.KindWeeder, f.Span(), "field %q cannot have type void", f.Name)
	}
	if f.Mods.Has(ast.ModAbstract) || f.Mods.Has(ast.ModNative) {
		diags.Addf(diag.KindWeeder, f.Span(), "field %q cannot be abstract or native", f.Name)
	}
}

func weedMethod(m *ast.MethodDecl, diags *diag.List) {
	checkModifiers(m.Mods, diags, m.Span())
	if m.Mods.Has(ast.ModFinal) {
		diags.Addf(diag.KindWeeder, m.Span(), "method %q cannot be declared final", m.Name)
	}
	if m.Mods.Has(ast.ModAbstract) && m.Body != nil {
		diags.Addf(diag.KindWeeder, m.Span(), "abstract method %q cannot have a body", m.Name)
	}
	if m.Mods.Has(ast.ModNative) && m.Body != nil {
		diags.Addf(diag.KindWeeder, m.Span(), "native method %q cannot have a body", m.Name)
	}
	if !m.Mods.Has(ast.ModAbstract) && !m.Mods.Has(ast.ModNative) && m.Body == nil {
		diags.Addf(diag.KindWeeder, m.Span(), "method %q must have a body unless abstract or native", m.Name)
	}
}

// MaxIntLiteral is 2^31; this single value is permitted only when
// immediately preceded by unary minus (i.e. as the literal -2147483648).
const MaxIntLiteral = int64(1) << 31

// CheckIntegerLiteral validates an integer literal's text against int's
// range, given whether it is immediately negated.
func CheckIntegerLiteral(raw string, negated bool) (int32, *string) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		msg := "integer literal is not a valid decimal number"
		return 0, &msg
	}
	if v < 0 {
		msg := "integer literal cannot be negative"
		return 0, &msg
	}
	if v > MaxIntLiteral || (v == MaxIntLiteral && !negated) {
		msg := "integer literal out of range: " + raw
		return 0, &msg
	}
	if negated {
		return int32(-v), nil
	}
	return int32(v), nil
}

// ValidateUnicodeEscape checks that a decoded unicode/octal escape in a
// char or string literal, once normalized, stays within ASCII: source files
// are ASCII, so an escape must still decode to an ASCII code point.
// Normalizing through golang.org/x/text/unicode/norm before the range check
// catches a combining-mark escape sequence that only *looks* like a single
// ASCII code point in its un-normalized form.
func ValidateUnicodeEscape(decoded rune) bool {
	normalized := norm.NFC.String(string(decoded))
	for _, r := range normalized {
		if r > 127 {
			return false
		}
	}
	return true
}
