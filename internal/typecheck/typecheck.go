// Package typecheck assigns a types.Type to every expression, enforcing
// assignability, overload resolution, and the cast/instanceof/array rules.
// It runs after resolve: every NameExpr already carries a resolve.Binding,
// which this package turns into a types.Type and, for the TypeBinding/
// PackageBinding cases, a chain of field lookups over the unmatched suffix.
package typecheck

import (
	"strings"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/source"
	"github.com/cs444-joos/joosc/internal/types"
)

// unitContext carries what's needed to type an expression within one
// compilation unit's one enclosing type.
type unitContext struct {
	global *index.Global
	graph  *hierarchy.Graph
	self   *hierarchy.TypeDecl
	static bool
}

// Check walks every method, constructor, and field initializer in program,
// assigning a types.Type to every expression and reporting diag.KindType
// violations.
func Check(program *ast.Program, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	for _, cu := range program.Units {
		if cu.Type == nil {
			continue
		}
		self := graph.Node(cu.Type.CanonicalName())
		if self == nil {
			continue
		}
		checkUnit(cu, self, global, graph, diags)
	}
}

func checkUnit(cu *ast.CompilationUnit, self *hierarchy.TypeDecl, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	cd, ok := cu.Type.(*ast.ClassDecl)
	if !ok {
		return // interface methods have no bodies to type
	}
	for _, f := range cd.FieldDecls {
		if f.Init == nil {
			continue
		}
		ctx := unitContext{global: global, graph: graph, self: self, static: f.Mods.Has(ast.ModStatic)}
		declared := resolveDeclaredType(f.DeclaredT, ctx)
		actual := typeExpr(f.Init, resolve.NewEnv(), ctx, diags)
		if !types.AssignableTo(actual, declared) {
			diags.Addf(diag.KindType, f.Init.Span(),
				"cannot initialize field %q of type %s with value of type %s", f.Name, declared, actual)
		}
	}
	for _, m := range cd.MethodDecls {
		checkMethod(m, self, global, graph, diags)
	}
	for _, ctor := range cd.Constructors {
		checkConstructor(ctor, self, global, graph, diags)
	}
}

func checkMethod(m *ast.MethodDecl, self *hierarchy.TypeDecl, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	if m.Body == nil {
		return
	}
	ctx := unitContext{global: global, graph: graph, self: self, static: m.Mods.Has(ast.ModStatic)}
	env := resolve.NewEnv()
	for _, p := range m.Params {
		env = env.WithLocal(p.Name, resolveDeclaredType(p.T, ctx))
	}
	declaredReturn := resolveDeclaredType(m.ReturnT, ctx)
	checkBlock(m.Body, env, ctx, declaredReturn, diags)
}

func checkConstructor(c *ast.ConstructorDecl, self *hierarchy.TypeDecl, global *index.Global, graph *hierarchy.Graph, diags *diag.List) {
	ctx := unitContext{global: global, graph: graph, self: self, static: false}
	env := resolve.NewEnv()
	for _, p := range c.Params {
		env = env.WithLocal(p.Name, resolveDeclaredType(p.T, ctx))
	}
	checkBlock(c.Body, env, ctx, types.Void(), diags)
}

func checkBlock(b *ast.Block, env *resolve.Env, ctx unitContext, declaredReturn types.Type, diags *diag.List) *resolve.Env {
	for _, stmt := range b.Stmts {
		env = checkStmt(stmt, env, ctx, declaredReturn, diags)
	}
	return env
}

func checkStmt(stmt ast.Statement, env *resolve.Env, ctx unitContext, declaredReturn types.Type, diags *diag.List) *resolve.Env {
	switch s := stmt.(type) {
	case *ast.Block:
		checkBlock(s, env, ctx, declaredReturn, diags)
		return env
	case *ast.LocalVarDecl:
		declared := resolveDeclaredType(s.T, ctx)
		if s.Init != nil {
			actual := typeExpr(s.Init, env, ctx, diags)
			if !types.AssignableTo(actual, declared) {
				diags.Addf(diag.KindType, s.Init.Span(),
					"cannot initialize local %q of type %s with value of type %s", s.Name, declared, actual)
			}
		}
		return env.WithLocal(s.Name, declared)
	case *ast.IfStmt:
		cond := typeExpr(s.Cond, env, ctx, diags)
		if !cond.IsBoolean() {
			diags.Addf(diag.KindType, s.Cond.Span(), "if condition must be boolean, got %s", cond)
		}
		checkStmt(s.Then, env, ctx, declaredReturn, diags)
		if s.Else != nil {
			checkStmt(s.Else, env, ctx, declaredReturn, diags)
		}
		return env
	case *ast.WhileStmt:
		cond := typeExpr(s.Cond, env, ctx, diags)
		if !cond.IsBoolean() {
			diags.Addf(diag.KindType, s.Cond.Span(), "while condition must be boolean, got %s", cond)
		}
		checkStmt(s.Body, env, ctx, declaredReturn, diags)
		return env
	case *ast.ForStmt:
		forEnv := env
		if s.Init != nil {
			forEnv = checkStmt(s.Init, forEnv, ctx, declaredReturn, diags)
		}
		if s.Cond != nil {
			cond := typeExpr(s.Cond, forEnv, ctx, diags)
			if !cond.IsBoolean() {
				diags.Addf(diag.KindType, s.Cond.Span(), "for condition must be boolean, got %s", cond)
			}
		}
		if s.Update != nil {
			checkStmt(s.Update, forEnv, ctx, declaredReturn, diags)
		}
		checkStmt(s.Body, forEnv, ctx, declaredReturn, diags)
		return env
	case *ast.ReturnStmt:
		if s.Value == nil {
			if !declaredReturn.IsVoid() {
				diags.Addf(diag.KindType, s.Span(), "missing return value for non-void method")
			}
			return env
		}
		actual := typeExpr(s.Value, env, ctx, diags)
		if declaredReturn.IsVoid() {
			diags.Addf(diag.KindType, s.Value.Span(), "void method cannot return a value")
		} else if !types.AssignableTo(actual, declaredReturn) {
			diags.Addf(diag.KindType, s.Value.Span(), "cannot return %s from a method declared to return %s", actual, declaredReturn)
		}
		return env
	case *ast.ExprStmt:
		typeExpr(s.Expr, env, ctx, diags)
		return env
	default:
		return env
	}
}

// typeExpr computes and records e's type, recursing into subexpressions.
func typeExpr(e ast.Expression, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	t := computeType(e, env, ctx, diags)
	e.ExprAttrs().Type = t
	return t
}

func computeType(e ast.Expression, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	switch expr := e.(type) {
	case *ast.Literal:
		return literalType(expr, ctx)
	case *ast.NameExpr:
		return nameType(expr, env, ctx, diags)
	case *ast.ThisExpr:
		if ctx.static {
			diags.Addf(diag.KindType, expr.Span(), "cannot use 'this' in a static context")
		}
		return types.Reference(ctx.self)
	case *ast.BinaryExpr:
		return binaryType(expr, env, ctx, diags)
	case *ast.UnaryExpr:
		return unaryType(expr, env, ctx, diags)
	case *ast.AssignExpr:
		return assignType(expr, env, ctx, diags)
	case *ast.CastExpr:
		return castType(expr, env, ctx, diags)
	case *ast.InstanceofExpr:
		return instanceofType(expr, env, ctx, diags)
	case *ast.NewObjectExpr:
		return newObjectType(expr, env, ctx, diags)
	case *ast.NewArrayExpr:
		return newArrayType(expr, env, ctx, diags)
	case *ast.FieldAccessExpr:
		return fieldAccessType(expr, env, ctx, diags)
	case *ast.MethodCallExpr:
		return methodCallType(expr, env, ctx, diags)
	case *ast.ArrayAccessExpr:
		return arrayAccessType(expr, env, ctx, diags)
	default:
		return types.Type{}
	}
}

func literalType(l *ast.Literal, ctx unitContext) types.Type {
	switch l.Kind {
	case "int":
		return types.Prim(types.Int)
	case "boolean":
		return types.Prim(types.Boolean)
	case "char":
		return types.Prim(types.Char)
	case "string":
		return stringType(ctx)
	case "null":
		return types.NullType()
	default:
		return types.Type{}
	}
}

// nameType turns a resolved Binding into a types.Type, walking any unmatched
// dotted suffix left by resolve as a chain of field accesses.
func nameType(n *ast.NameExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	switch b := n.ExprAttrs().Binding.(type) {
	case *resolve.LocalBinding:
		return b.Type
	case *resolve.FieldBinding:
		t := resolveDeclaredType(b.Field.DeclaredT, ctx)
		return walkFieldSuffix(t, remainingOf(n, 1), n.Span(), ctx, diags)
	case *resolve.TypeBinding:
		if len(b.Remaining) == 0 {
			diags.Addf(diag.KindType, n.Span(), "type name %q cannot be used as a value", b.Type.CanonicalName())
			return types.Type{}
		}
		first, rest := b.Remaining[0], b.Remaining[1:]
		field, owner := lookupField(ctx.graph, b.Type, first)
		if field == nil {
			diags.Addf(diag.KindType, n.Span(), "type %q has no static member %q", b.Type.CanonicalName(), first)
			return types.Type{}
		}
		if !field.Mods.Has(ast.ModStatic) {
			diags.Addf(diag.KindType, n.Span(), "member %q of %q is not static", first, owner.CanonicalName())
		}
		return walkFieldSuffix(resolveDeclaredType(field.DeclaredT, ctx), rest, n.Span(), ctx, diags)
	case *resolve.PackageBinding:
		diags.Addf(diag.KindType, n.Span(), "%q does not resolve to a type or value", n.String())
		return types.Type{}
	default:
		// resolve already reported an error for this name.
		return types.Type{}
	}
}

// remainingOf returns n.Parts[from:], used to walk a FieldBinding's suffix
// (everything after the first part, which named the field itself).
func remainingOf(n *ast.NameExpr, from int) []string {
	if from >= len(n.Parts) {
		return nil
	}
	return n.Parts[from:]
}

func walkFieldSuffix(t types.Type, suffix []string, span source.Span, ctx unitContext, diags *diag.List) types.Type {
	cur := t
	for _, name := range suffix {
		if !cur.IsReference() || cur.Ref() == nil {
			diags.Addf(diag.KindType, span, "cannot access member %q of non-reference type %s", name, cur)
			return types.Type{}
		}
		node, ok := cur.Ref().(*hierarchy.TypeDecl)
		if !ok {
			return types.Type{}
		}
		field, owner := lookupField(ctx.graph, node, name)
		if field == nil {
			diags.Addf(diag.KindType, span, "type %q has no field %q", node.CanonicalName(), name)
			return types.Type{}
		}
		_ = owner
		cur = resolveDeclaredType(field.DeclaredT, ctx)
	}
	return cur
}

func binaryType(b *ast.BinaryExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	l := typeExpr(b.Left, env, ctx, diags)
	r := typeExpr(b.Right, env, ctx, diags)
	switch b.Op {
	case "+":
		if isStringType(l) || isStringType(r) {
			if l.IsVoid() || r.IsVoid() {
				diags.Addf(diag.KindType, b.Span(), "cannot concatenate a void value")
			}
			return stringType(ctx)
		}
		if !l.IsNumeric() || !r.IsNumeric() {
			diags.Addf(diag.KindType, b.Span(), "operator + requires numeric or String operands, got %s and %s", l, r)
		}
		return types.Prim(types.Int)
	case "-", "*", "/", "%":
		if !l.IsNumeric() || !r.IsNumeric() {
			diags.Addf(diag.KindType, b.Span(), "operator %s requires numeric operands, got %s and %s", b.Op, l, r)
		}
		return types.Prim(types.Int)
	case "<", "<=", ">", ">=":
		if !l.IsNumeric() || !r.IsNumeric() {
			diags.Addf(diag.KindType, b.Span(), "operator %s requires numeric operands, got %s and %s", b.Op, l, r)
		}
		return types.Prim(types.Boolean)
	case "==", "!=":
		if l.IsNumeric() && r.IsNumeric() {
			// ok, numeric comparison with promotion
		} else if l.IsBoolean() && r.IsBoolean() {
			// ok, boolean comparison
		} else if (l.IsReference() || l.IsNull()) && (r.IsReference() || r.IsNull()) {
			if !l.IsNull() && !r.IsNull() && !types.AssignableTo(l, r) && !types.AssignableTo(r, l) {
				diags.Addf(diag.KindType, b.Span(), "incomparable types %s and %s", l, r)
			}
		} else {
			diags.Addf(diag.KindType, b.Span(), "incomparable types %s and %s", l, r)
		}
		return types.Prim(types.Boolean)
	case "&&", "||", "&", "|":
		if !l.IsBoolean() || !r.IsBoolean() {
			diags.Addf(diag.KindType, b.Span(), "operator %s requires boolean operands, got %s and %s", b.Op, l, r)
		}
		return types.Prim(types.Boolean)
	default:
		return types.Type{}
	}
}

func unaryType(u *ast.UnaryExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	t := typeExpr(u.Operand, env, ctx, diags)
	switch u.Op {
	case "+", "-":
		if !t.IsNumeric() {
			diags.Addf(diag.KindType, u.Span(), "unary %s requires a numeric operand, got %s", u.Op, t)
		}
		return types.Prim(types.Int)
	case "!":
		if !t.IsBoolean() {
			diags.Addf(diag.KindType, u.Span(), "unary ! requires a boolean operand, got %s", t)
		}
		return types.Prim(types.Boolean)
	default:
		return types.Type{}
	}
}

func assignType(a *ast.AssignExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	lhs := typeExpr(a.Target, env, ctx, diags)
	rhs := typeExpr(a.Value, env, ctx, diags)
	if fa, ok := a.Target.(*ast.FieldAccessExpr); ok && fa.ResolvedField != nil && fa.ResolvedField.Mods.Has(ast.ModFinal) {
		diags.Addf(diag.KindType, a.Span(), "cannot assign to final field %q outside its declaration", fa.ResolvedField.Name)
	}
	if n, ok := a.Target.(*ast.NameExpr); ok {
		if fb, ok := n.ExprAttrs().Binding.(*resolve.FieldBinding); ok && fb.Field.Mods.Has(ast.ModFinal) {
			diags.Addf(diag.KindType, a.Span(), "cannot assign to final field %q outside its declaration", fb.Field.Name)
		}
	}
	if !types.AssignableTo(rhs, lhs) {
		diags.Addf(diag.KindType, a.Span(), "cannot assign value of type %s to target of type %s", rhs, lhs)
	}
	return lhs
}

func castType(c *ast.CastExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	from := typeExpr(c.Expr, env, ctx, diags)
	to := resolveDeclaredType(c.T, ctx)
	if !castAllowed(from, to) {
		diags.Addf(diag.KindType, c.Span(), "cannot cast %s to %s", from, to)
	}
	return to
}

// castAllowed permits identity, numeric widening/narrowing in both
// directions, and reference casts where either type is a subtype of the
// other (checked again at runtime by the generated code).
func castAllowed(from, to types.Type) bool {
	if types.Equal(from, to) {
		return true
	}
	if from.IsPrimitive() && to.IsPrimitive() && !from.IsBoolean() && !to.IsBoolean() {
		return true
	}
	if (from.IsReference() || from.IsNull()) && (to.IsReference() || to.IsArray()) {
		if from.IsNull() {
			return true
		}
		if to.IsReference() {
			return types.IsSubtypeOf(from.Ref(), to.Ref()) || types.IsSubtypeOf(to.Ref(), from.Ref())
		}
	}
	if from.IsArray() && to.IsArray() {
		return true
	}
	return false
}

func instanceofType(i *ast.InstanceofExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	l := typeExpr(i.Expr, env, ctx, diags)
	if !l.IsReference() && !l.IsNull() && !l.IsArray() {
		diags.Addf(diag.KindType, i.Span(), "instanceof requires a reference operand, got %s", l)
	}
	resolveDeclaredType(i.T, ctx)
	return types.Prim(types.Boolean)
}

func newObjectType(n *ast.NewObjectExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = typeExpr(a, env, ctx, diags)
	}
	declared := resolveDeclaredType(n.T, ctx)
	if !declared.IsReference() || declared.Ref() == nil {
		diags.Addf(diag.KindType, n.Span(), "cannot instantiate non-reference type %s", declared)
		return declared
	}
	node, ok := declared.Ref().(*hierarchy.TypeDecl)
	if !ok {
		return declared
	}
	if node.IsInterface() {
		diags.Addf(diag.KindType, n.Span(), "cannot instantiate interface %q", node.CanonicalName())
		return declared
	}
	if node.IsAbstract() {
		diags.Addf(diag.KindType, n.Span(), "cannot instantiate abstract class %q", node.CanonicalName())
		return declared
	}
	cd, ok := node.Decl.(*ast.ClassDecl)
	if !ok {
		return declared
	}
	candidates := make([]candidate, 0, len(cd.Constructors))
	for _, ctor := range cd.Constructors {
		candidates = append(candidates, candidate{params: paramTypes(ctor.Params, ctx), ctor: ctor})
	}
	chosen, err := resolveOverload(candidates, argTypes)
	if err != "" {
		diags.Addf(diag.KindType, n.Span(), "constructor for %q: %s", node.CanonicalName(), err)
		return declared
	}
	n.ResolvedCtor = chosen.ctor
	return declared
}

func newArrayType(n *ast.NewArrayExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	dim := typeExpr(n.Dim, env, ctx, diags)
	if !dim.IsNumeric() {
		diags.Addf(diag.KindType, n.Dim.Span(), "array size must be int-assignable, got %s", dim)
	}
	elem := resolveDeclaredType(n.Elem, ctx)
	return types.Array(elem)
}

func fieldAccessType(f *ast.FieldAccessExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	recv := typeExpr(f.Receiver, env, ctx, diags)
	if recv.IsArray() && f.Name == "length" {
		return types.Prim(types.Int)
	}
	if !recv.IsReference() || recv.Ref() == nil {
		diags.Addf(diag.KindType, f.Span(), "cannot access field %q of non-reference type %s", f.Name, recv)
		return types.Type{}
	}
	node, ok := recv.Ref().(*hierarchy.TypeDecl)
	if !ok {
		return types.Type{}
	}
	field, owner := lookupField(ctx.graph, node, f.Name)
	if field == nil {
		diags.Addf(diag.KindType, f.Span(), "type %q has no field %q", node.CanonicalName(), f.Name)
		return types.Type{}
	}
	f.ResolvedField = field
	if !accessible(field.Mods, owner, ctx.self, node) {
		diags.Addf(diag.KindType, f.Span(), "field %q of %q is not accessible here", f.Name, owner.CanonicalName())
	}
	return resolveDeclaredType(field.DeclaredT, ctx)
}

// methodCallType types a method call's receiver, then gathers overload
// candidates. Per spec.md §4.5 ("static methods and instance methods never
// mix in a candidate set; receiver context determines which applies"), the
// form the call is written in picks one set or the other: a bare type name
// receiver (e.g. T.m(...)) admits only static methods, any other receiver —
// expression-valued, or the implicit receiver of an unqualified call —
// admits only instance methods; an unqualified call written inside a static
// method admits only static methods, since there is no implicit this there.
func methodCallType(m *ast.MethodCallExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	argTypes := make([]types.Type, len(m.Args))
	for i, a := range m.Args {
		argTypes[i] = typeExpr(a, env, ctx, diags)
	}

	var node *hierarchy.TypeDecl
	staticReceiver := false
	switch {
	case m.Receiver == nil:
		node = ctx.self
		staticReceiver = ctx.static
	default:
		if td := typeNameReceiver(m.Receiver); td != nil {
			node, staticReceiver = td, true
			break
		}
		recv := typeExpr(m.Receiver, env, ctx, diags)
		if !recv.IsReference() || recv.Ref() == nil {
			diags.Addf(diag.KindType, m.Span(), "cannot call method %q on non-reference type %s", m.Name, recv)
			return types.Type{}
		}
		var ok bool
		node, ok = recv.Ref().(*hierarchy.TypeDecl)
		if !ok {
			return types.Type{}
		}
	}

	candidates := make([]candidate, 0)
	for sig, entry := range ctx.graph.ContainsSet(node) {
		if methodNameOf(sig) != m.Name {
			continue
		}
		if entry.Method.Mods.Has(ast.ModStatic) != staticReceiver {
			continue
		}
		candidates = append(candidates, candidate{params: paramTypes(entry.Method.Params, ctx), method: entry.Method})
	}
	chosen, err := resolveOverload(candidates, argTypes)
	if err != "" {
		diags.Addf(diag.KindType, m.Span(), "call to %q: %s", m.Name, err)
		return types.Type{}
	}
	m.ResolvedMethod = chosen.method
	return resolveDeclaredType(chosen.method.ReturnT, ctx)
}

// typeNameReceiver reports the type a method-call receiver names directly
// (e.g. the T in T.m(...)), or nil if recv is an expression rather than a
// bare type name. Only a NameExpr whose whole dotted chain resolve already
// consumed as a TypeBinding (nothing left over in Remaining) names a type
// this way; a TypeBinding with a non-empty Remaining instead denotes a
// static field read (Foo.bar), an expression whose resolved value, not Foo
// itself, is the receiver.
func typeNameReceiver(recv ast.Expression) *hierarchy.TypeDecl {
	n, ok := recv.(*ast.NameExpr)
	if !ok {
		return nil
	}
	tb, ok := n.ExprAttrs().Binding.(*resolve.TypeBinding)
	if !ok || len(tb.Remaining) != 0 {
		return nil
	}
	return tb.Type
}

func methodNameOf(sig string) string {
	if i := strings.IndexByte(sig, '#'); i >= 0 {
		return sig[:i]
	}
	return sig
}

func arrayAccessType(a *ast.ArrayAccessExpr, env *resolve.Env, ctx unitContext, diags *diag.List) types.Type {
	arr := typeExpr(a.Array, env, ctx, diags)
	idx := typeExpr(a.Index, env, ctx, diags)
	if !idx.IsNumeric() {
		diags.Addf(diag.KindType, a.Index.Span(), "array index must be int-assignable, got %s", idx)
	}
	if !arr.IsArray() {
		diags.Addf(diag.KindType, a.Array.Span(), "cannot index non-array type %s", arr)
		return types.Type{}
	}
	return arr.Elem()
}

// candidate is one applicable-or-not overload: either a method or a
// constructor, carrying its formal parameter types for comparison.
type candidate struct {
	params []types.Type
	method *ast.MethodDecl
	ctor   *ast.ConstructorDecl
}

// resolveOverload implements the applicability-then-most-specific algorithm:
// gather candidates whose arity matches and whose actuals are each
// assignable to the corresponding formal, then pick the one whose formals
// are each assignable to every other applicable candidate's formals.
func resolveOverload(candidates []candidate, args []types.Type) (candidate, string) {
	var applicable []candidate
	for _, c := range candidates {
		if len(c.params) != len(args) {
			continue
		}
		ok := true
		for i, p := range c.params {
			if !types.AssignableTo(args[i], p) {
				ok = false
				break
			}
		}
		if ok {
			applicable = append(applicable, c)
		}
	}
	switch len(applicable) {
	case 0:
		return candidate{}, "no applicable method"
	case 1:
		return applicable[0], ""
	}
	var mostSpecific []candidate
	for _, a := range applicable {
		isMostSpecific := true
		for _, b := range applicable {
			if !moreSpecificOrEqual(a, b) {
				isMostSpecific = false
				break
			}
		}
		if isMostSpecific {
			mostSpecific = append(mostSpecific, a)
		}
	}
	if len(mostSpecific) == 0 {
		return candidate{}, "ambiguous method call"
	}
	// All members of mostSpecific are mutually as-specific; any ambiguity
	// among them is reported if they don't collapse to one distinct overload.
	first := mostSpecific[0]
	for _, c := range mostSpecific[1:] {
		if !sameParams(c.params, first.params) {
			return candidate{}, "ambiguous method call"
		}
	}
	return first, ""
}

// moreSpecificOrEqual reports whether every formal of a is assignable to the
// corresponding formal of b (a is at least as specific as b).
func moreSpecificOrEqual(a, b candidate) bool {
	for i := range a.params {
		if !types.AssignableTo(a.params[i], b.params[i]) {
			return false
		}
	}
	return true
}

func sameParams(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !types.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func paramTypes(params []ast.Param, ctx unitContext) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = resolveDeclaredType(p.T, ctx)
	}
	return out
}

// resolveDeclaredType renders a syntactic TypeExpr into a types.Type using
// the hierarchy graph already built for the whole program; NamedTypeExpr
// resolution here is a plain lookup against the same-named class/interface
// by canonical or simple name already disambiguated by index/hierarchy, not
// a fresh import-aware resolution (that happened once, in resolve/hierarchy;
// repeating it per TypeExpr here would require re-threading each unit's
// Imports table through every call site for no new information).
func resolveDeclaredType(t ast.TypeExpr, ctx unitContext) types.Type {
	switch te := t.(type) {
	case *ast.PrimitiveTypeExpr:
		return types.Prim(te.Prim)
	case *ast.ArrayTypeExpr:
		return types.Array(resolveDeclaredType(te.Elem, ctx))
	case *ast.NamedTypeExpr:
		if td := ctx.global.Lookup(te.Name); td != nil {
			return types.Reference(ctx.graph.Node(td.CanonicalName()))
		}
		for _, td := range ctx.global.InPackage(ctx.self.Decl.PackageName()) {
			if td.SimpleName() == te.Name {
				return types.Reference(ctx.graph.Node(td.CanonicalName()))
			}
		}
		return types.Type{}
	case *ast.VoidTypeExpr, nil:
		return types.Void()
	default:
		return types.Type{}
	}
}

func isStringType(t types.Type) bool {
	return t.IsReference() && t.Ref() != nil && t.Ref().CanonicalName() == "java.lang.String"
}

func stringType(ctx unitContext) types.Type {
	if td := ctx.global.Lookup("java.lang.String"); td != nil {
		return types.Reference(ctx.graph.Node(td.CanonicalName()))
	}
	return types.Type{}
}

// lookupField walks the superclass chain looking for a field by simple name,
// own fields shadowing inherited ones, mirroring resolve's own helper (a
// copy, since resolve's is unexported).
func lookupField(graph *hierarchy.Graph, node *hierarchy.TypeDecl, name string) (*ast.FieldDecl, *hierarchy.TypeDecl) {
	for n := node; n != nil; n = n.Super {
		for _, f := range n.Decl.Fields() {
			if f.Name == name {
				return f, n
			}
		}
	}
	return nil, nil
}

// accessible reports whether a field declared in owner can be read from
// within self through a receiver of static type receiver, mirroring resolve's
// rule (public/same-package always; protected additionally requires self <:
// owner AND the receiver's own static type to be self or a subtype of self —
// a protected member of an unrelated subclass reached through a
// supertype-typed receiver is not accessible).
func accessible(mods ast.Modifiers, owner, self, receiver *hierarchy.TypeDecl) bool {
	if mods.Has(ast.ModPublic) {
		return true
	}
	if owner.Decl.PackageName() == self.Decl.PackageName() {
		return true
	}
	if mods.Has(ast.ModProtected) {
		return types.IsSubtypeOf(self, owner) && types.IsSubtypeOf(receiver, self)
	}
	return false
}
