// Constant folding (spec.md §4.6): literals, unary +/-/!, binary operators
// over two constants, and reads of a final field whose own initializer
// folded to a constant, are evaluated at compile time and recorded on
// ast.ExprAttrs.Constant for reachability and the code generator to use.
package analysis

import (
	"strconv"
	"strings"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
	"github.com/cs444-joos/joosc/internal/weeder"
)

// foldProgram folds every field initializer and method/constructor body in
// program. Field initializers are folded in a few fixed rounds first so
// that one final field's constant initializer can reference another
// already-folded final field regardless of declaration order across
// compilation units (spec.md doesn't specify an evaluation order for
// static initializers across classes — see DESIGN.md — so this is a
// best-effort fixpoint rather than a dependency-ordered evaluation).
func foldProgram(program *ast.Program, diags *diag.List) {
	fieldConst := map[*ast.FieldDecl]*ast.Const{}
	for round := 0; round < 3; round++ {
		for _, cu := range program.Units {
			cd, ok := cu.Type.(*ast.ClassDecl)
			if !ok {
				continue
			}
			for _, f := range cd.FieldDecls {
				if f.Init == nil {
					continue
				}
				if c := foldExpr(f.Init, fieldConst, diags); c != nil && f.Mods.Has(ast.ModFinal) {
					fieldConst[f] = c
				}
			}
		}
	}

	for _, cu := range program.Units {
		cd, ok := cu.Type.(*ast.ClassDecl)
		if !ok {
			continue
		}
		for _, m := range cd.MethodDecls {
			if m.Body != nil {
				foldBlock(m.Body, fieldConst, diags)
			}
		}
		for _, ctor := range cd.Constructors {
			foldBlock(ctor.Body, fieldConst, diags)
		}
	}
}

func foldBlock(b *ast.Block, fieldConst map[*ast.FieldDecl]*ast.Const, diags *diag.List) {
	for _, stmt := range b.Stmts {
		foldStmt(stmt, fieldConst, diags)
	}
}

func foldStmt(stmt ast.Statement, fieldConst map[*ast.FieldDecl]*ast.Const, diags *diag.List) {
	switch s := stmt.(type) {
	case *ast.Block:
		foldBlock(s, fieldConst, diags)
	case *ast.LocalVarDecl:
		if s.Init != nil {
			foldExpr(s.Init, fieldConst, diags)
		}
	case *ast.IfStmt:
		foldExpr(s.Cond, fieldConst, diags)
		foldStmt(s.Then, fieldConst, diags)
		if s.Else != nil {
			foldStmt(s.Else, fieldConst, diags)
		}
	case *ast.WhileStmt:
		foldExpr(s.Cond, fieldConst, diags)
		foldStmt(s.Body, fieldConst, diags)
	case *ast.ForStmt:
		if s.Init != nil {
			foldStmt(s.Init, fieldConst, diags)
		}
		if s.Cond != nil {
			foldExpr(s.Cond, fieldConst, diags)
		}
		if s.Update != nil {
			foldStmt(s.Update, fieldConst, diags)
		}
		foldStmt(s.Body, fieldConst, diags)
	case *ast.ReturnStmt:
		if s.Value != nil {
			foldExpr(s.Value, fieldConst, diags)
		}
	case *ast.ExprStmt:
		foldExpr(s.Expr, fieldConst, diags)
	}
}

// foldExpr computes e's compile-time value bottom-up, recording it on
// e.ExprAttrs().Constant and returning it (nil if e is not constant).
func foldExpr(e ast.Expression, fieldConst map[*ast.FieldDecl]*ast.Const, diags *diag.List) *ast.Const {
	c := computeConst(e, fieldConst, diags)
	if c != nil {
		e.ExprAttrs().Constant = c
	}
	return c
}

func computeConst(e ast.Expression, fieldConst map[*ast.FieldDecl]*ast.Const, diags *diag.List) *ast.Const {
	switch expr := e.(type) {
	case *ast.Literal:
		return literalConst(expr, diags)
	case *ast.NameExpr:
		if fb, ok := expr.ExprAttrs().Binding.(*resolve.FieldBinding); ok && len(expr.Parts) == 1 {
			if fb.Field.Mods.Has(ast.ModFinal) {
				return fieldConst[fb.Field]
			}
		}
		return nil
	case *ast.FieldAccessExpr:
		foldExpr(expr.Receiver, fieldConst, diags)
		if expr.ResolvedField != nil && expr.ResolvedField.Mods.Has(ast.ModFinal) {
			return fieldConst[expr.ResolvedField]
		}
		return nil
	case *ast.UnaryExpr:
		operand := foldExpr(expr.Operand, fieldConst, diags)
		if operand == nil {
			return nil
		}
		return foldUnary(expr.Op, operand)
	case *ast.BinaryExpr:
		l := foldExpr(expr.Left, fieldConst, diags)
		r := foldExpr(expr.Right, fieldConst, diags)
		if l == nil || r == nil {
			return nil
		}
		return foldBinary(expr.Op, l, r)
	case *ast.CastExpr:
		inner := foldExpr(expr.Expr, fieldConst, diags)
		if inner == nil || inner.Kind != "int" {
			return nil
		}
		// A narrowing cast truncates the folded value the same way the
		// lowered cast does at run time: byte and short sign-extend from
		// 8 and 16 bits, char keeps the low 16 bits unsigned.
		v := inner.I32
		if t := expr.ExprAttrs().Type; t.IsPrimitive() {
			switch t.Primitive() {
			case types.Byte:
				v = int32(int8(v))
			case types.Short:
				v = int32(int16(v))
			case types.Char:
				return &ast.Const{Kind: "char", I32: int32(uint16(v))}
			}
		}
		return &ast.Const{Kind: "int", I32: v}
	default:
		// Method calls, object/array creation, array access, assignment,
		// instanceof, and `this` are never compile-time constants.
		for _, sub := range subexprs(e) {
			foldExpr(sub, fieldConst, diags)
		}
		return nil
	}
}

// subexprs returns e's immediate child expressions, purely so every
// expression in a method body gets folded (and therefore gets a recorded
// Constant of nil where it isn't one) even when it sits under a
// non-constant node like a method call's argument list.
func subexprs(e ast.Expression) []ast.Expression {
	switch expr := e.(type) {
	case *ast.AssignExpr:
		return []ast.Expression{expr.Target, expr.Value}
	case *ast.InstanceofExpr:
		return []ast.Expression{expr.Expr}
	case *ast.NewObjectExpr:
		return expr.Args
	case *ast.NewArrayExpr:
		return []ast.Expression{expr.Dim}
	case *ast.MethodCallExpr:
		out := expr.Args
		if expr.Receiver != nil {
			out = append([]ast.Expression{expr.Receiver}, out...)
		}
		return out
	case *ast.ArrayAccessExpr:
		return []ast.Expression{expr.Array, expr.Index}
	default:
		return nil
	}
}

func literalConst(l *ast.Literal, diags *diag.List) *ast.Const {
	switch l.Kind {
	case "int":
		v, err := strconv.ParseInt(l.Raw, 10, 64)
		if err != nil || v < 0 || v > (1<<31) {
			return nil
		}
		return &ast.Const{Kind: "int", I32: int32(v)}
	case "boolean":
		return &ast.Const{Kind: "boolean", Bool: l.Raw == "true"}
	case "char":
		r, ok := decodeCharLiteral(l.Raw, l.Span(), diags)
		if !ok {
			return nil
		}
		return &ast.Const{Kind: "char", I32: int32(r)}
	case "string":
		s, ok := decodeStringLiteral(l.Raw, l.Span(), diags)
		if !ok {
			return nil
		}
		return &ast.Const{Kind: "string", Str: s}
	case "null":
		return &ast.Const{Kind: "null"}
	default:
		return nil
	}
}

func foldUnary(op string, operand *ast.Const) *ast.Const {
	switch op {
	case "+":
		if operand.Kind != "int" {
			return nil
		}
		return operand
	case "-":
		if operand.Kind != "int" {
			return nil
		}
		return &ast.Const{Kind: "int", I32: -operand.I32}
	case "!":
		if operand.Kind != "boolean" {
			return nil
		}
		return &ast.Const{Kind: "boolean", Bool: !operand.Bool}
	default:
		return nil
	}
}

func foldBinary(op string, l, r *ast.Const) *ast.Const {
	if op == "+" && (l.Kind == "string" || r.Kind == "string") {
		return &ast.Const{Kind: "string", Str: constToString(l) + constToString(r)}
	}
	switch op {
	case "+", "-", "*", "/", "%":
		if l.Kind != "int" || r.Kind != "int" {
			return nil
		}
		if (op == "/" || op == "%") && r.I32 == 0 {
			return nil // left to the emitted code's zero-divisor check
		}
		return &ast.Const{Kind: "int", I32: foldIntArith(op, l.I32, r.I32)}
	case "<", "<=", ">", ">=":
		if l.Kind != "int" || r.Kind != "int" {
			return nil
		}
		return &ast.Const{Kind: "boolean", Bool: foldIntCompare(op, l.I32, r.I32)}
	case "==", "!=":
		eq := constEqual(l, r)
		if op == "!=" {
			eq = !eq
		}
		return &ast.Const{Kind: "boolean", Bool: eq}
	case "&&", "||", "&", "|":
		if l.Kind != "boolean" || r.Kind != "boolean" {
			return nil
		}
		var v bool
		if op == "&&" || op == "&" {
			v = l.Bool && r.Bool
		} else {
			v = l.Bool || r.Bool
		}
		return &ast.Const{Kind: "boolean", Bool: v}
	default:
		return nil
	}
}

// foldIntArith evaluates one int operator. The division-by-zero check is a
// runtime concern: foldBinary leaves a / or % with a zero divisor unfolded,
// so the lowered OpDiv/OpMod reaches codegen, whose tile compares the
// divisor with zero and calls __exception. The r == 0 guards below only
// keep this function from panicking and are never reached from foldBinary.
func foldIntArith(op string, l, r int32) int32 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "%":
		if r == 0 {
			return 0
		}
		return l % r
	default:
		return 0
	}
}

func foldIntCompare(op string, l, r int32) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	default:
		return false
	}
}

func constEqual(l, r *ast.Const) bool {
	if l.Kind == "null" || r.Kind == "null" {
		return l.Kind == r.Kind
	}
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case "int":
		return l.I32 == r.I32
	case "boolean":
		return l.Bool == r.Bool
	case "string":
		return l.Str == r.Str
	default:
		return false
	}
}

func constToString(c *ast.Const) string {
	switch c.Kind {
	case "string":
		return c.Str
	case "int":
		return strconv.Itoa(int(c.I32))
	case "boolean":
		return strconv.FormatBool(c.Bool)
	case "char":
		return string(rune(c.I32))
	case "null":
		return "null"
	default:
		return ""
	}
}

// decodeCharLiteral strips the surrounding quotes from a `'x'` literal and
// decodes the single escape sequence or rune inside.
func decodeCharLiteral(raw string, span source.Span, diags *diag.List) (rune, bool) {
	if len(raw) < 3 || raw[0] != '\'' || raw[len(raw)-1] != '\'' {
		return 0, false
	}
	s, ok := decodeEscapes(raw[1:len(raw)-1], span, diags)
	if !ok || len(s) == 0 {
		return 0, false
	}
	runes := []rune(s)
	return runes[0], true
}

// decodeStringLiteral strips the surrounding quotes from a `"..."` literal
// and decodes its escape sequences.
func decodeStringLiteral(raw string, span source.Span, diags *diag.List) (string, bool) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", false
	}
	return decodeEscapes(raw[1:len(raw)-1], span, diags)
}

// decodeEscapes handles the Joos/Java escape set: \n \t \r \b \f \\ \' \"
// \0, octal \ddd, and unicode \uXXXX. The two escapes that can decode to a
// non-ASCII code point (\u and octal, since octal reaches up to \377) are
// range-checked through weeder.ValidateUnicodeEscape, reporting a
// diag.KindWeeder diagnostic at span rather than silently accepting a
// decoded rune the weeder's own literal-validation pass (spec.md §4.1,
// "Octal/unicode escapes validated") would have rejected had it run on this
// same raw escape.
func decodeEscapes(s string, span source.Span, diags *diag.List) (string, bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		case 'u':
			if i+4 >= len(s) {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", false
			}
			if !weeder.ValidateUnicodeEscape(rune(v)) {
				diags.Addf(diag.KindWeeder, span, "unicode escape \\u%04x decodes outside the ASCII range Joos source files are restricted to", v)
				return "", false
			}
			sb.WriteRune(rune(v))
			i += 4
		default:
			if s[i] >= '0' && s[i] <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				v, err := strconv.ParseUint(s[i:j], 8, 32)
				if err != nil {
					return "", false
				}
				if !weeder.ValidateUnicodeEscape(rune(v)) {
					diags.Addf(diag.KindWeeder, span, "octal escape \\%s decodes outside the ASCII range Joos source files are restricted to", s[i:j])
					return "", false
				}
				sb.WriteRune(rune(v))
				i = j - 1
			} else {
				return "", false
			}
		}
	}
	return sb.String(), true
}
