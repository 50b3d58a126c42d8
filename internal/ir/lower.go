package ir

import (
	"fmt"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/types"
)

// Lower translates a fully type-checked and analysed program into its
// three-address form. It assumes every earlier pass succeeded: lowering
// never itself reports a diag.List error, since by this point there is
// nothing left to diagnose (an unresolved binding or missing layout entry
// here is an internal-error bug, not a program error, and panics rather
// than trying to recover).
func Lower(program *ast.Program, graph *hierarchy.Graph, layouts *Layouts, entryClass, entryMethodSig string) *Program {
	out := &Program{EntryClass: entryClass, EntryMethod: entryClass + "." + entryMethodSig}

	for _, cu := range program.Units {
		cd, ok := cu.Type.(*ast.ClassDecl)
		if !ok {
			continue // interfaces carry no code
		}
		node := graph.Node(cd.CanonicalName())
		layout := layouts.Lookup(cd.CanonicalName())
		class := &Class{
			FileName:    cu.FileName,
			Layout:      layout,
			VTableLabel: vtableLabel(cd.CanonicalName()),
			Init:        lowerStaticInit(cd, layouts),
		}
		for _, m := range cd.MethodDecls {
			if m.Body == nil {
				continue // abstract/native: no code to lower
			}
			class.Methods = append(class.Methods, lowerMethod(node, layouts, m))
		}
		for _, c := range cd.Constructors {
			class.Constructors = append(class.Constructors, lowerConstructor(node, layouts, c))
		}
		out.Classes = append(out.Classes, class)
	}
	return out
}

func vtableLabel(canonicalName string) string { return canonicalName + "$vtable" }

// staticFieldAddr is the memory location a static field's label names:
// wrapping the label in a MemVal (rather than using the NameVal bare, which
// internal/codegen treats as the label's own address) tells codegen this is
// a load/store target, not a code or vtable pointer being taken by value.
func staticFieldAddr(owner, field string) MemVal {
	return MemVal{Base: NameVal{Label: owner + "." + field}, Offset: 0}
}

func methodLabel(owner *hierarchy.TypeDecl, m *ast.MethodDecl) string {
	return owner.CanonicalName() + "." + m.SignatureKey()
}

func ctorLabel(owner *hierarchy.TypeDecl, c *ast.ConstructorDecl) string {
	return owner.CanonicalName() + "." + c.SignatureKey()
}

// lowerCtx carries one method body's lowering state: the fresh-temp and
// fresh-label counters, and the mapping from local/parameter name to the
// temp holding its current value.
type lowerCtx struct {
	self     *hierarchy.TypeDecl
	layouts  *Layouts
	nextTemp int
	nextLbl  int
	locals   map[string]int // name -> temp ID
	thisTemp int             // 0 when the method is static (no receiver)
	isStatic bool
}

func newLowerCtx(self *hierarchy.TypeDecl, layouts *Layouts, static bool) *lowerCtx {
	lx := &lowerCtx{self: self, layouts: layouts, locals: map[string]int{}, isStatic: static}
	if !static {
		lx.thisTemp = lx.newTemp()
	}
	return lx
}

func (lx *lowerCtx) newTemp() int {
	id := lx.nextTemp
	lx.nextTemp++
	return id
}

func (lx *lowerCtx) newLabel(prefix string) string {
	id := lx.nextLbl
	lx.nextLbl++
	return fmt.Sprintf(".L%s%d", prefix, id)
}

func lowerStaticInit(cd *ast.ClassDecl, layouts *Layouts) *Method {
	lx := newLowerCtx(nil, layouts, true)
	var body []Stmt
	for _, f := range cd.FieldDecls {
		if !f.Mods.Has(ast.ModStatic) || f.Init == nil {
			continue
		}
		stmts, val := lx.lowerExpr(f.Init)
		body = append(body, stmts...)
		body = append(body, Move{Dst: staticFieldAddr(cd.CanonicalName(), f.Name), Src: val})
	}
	body = append(body, Return{})
	return &Method{Label: cd.CanonicalName() + ".<clinit>", NumTemps: lx.nextTemp, Body: body}
}

func lowerMethod(owner *hierarchy.TypeDecl, layouts *Layouts, m *ast.MethodDecl) *Method {
	lx := newLowerCtx(owner, layouts, m.Mods.Has(ast.ModStatic))
	var params []int
	if !lx.isStatic {
		params = append(params, lx.thisTemp)
	}
	for _, p := range m.Params {
		t := lx.newTemp()
		lx.locals[p.Name] = t
		params = append(params, t)
	}
	body := lx.lowerBlock(m.Body)
	body = append(body, Return{})
	return &Method{Label: methodLabel(owner, m), ParamTemps: params, NumTemps: lx.nextTemp, Body: body}
}

func lowerConstructor(owner *hierarchy.TypeDecl, layouts *Layouts, c *ast.ConstructorDecl) *Method {
	lx := newLowerCtx(owner, layouts, false)
	params := []int{lx.thisTemp}
	for _, p := range c.Params {
		t := lx.newTemp()
		lx.locals[p.Name] = t
		params = append(params, t)
	}
	body := lx.lowerBlock(c.Body)
	body = append(body, Return{})
	return &Method{Label: ctorLabel(owner, c), ParamTemps: params, NumTemps: lx.nextTemp, Body: body}
}

func (lx *lowerCtx) lowerBlock(b *ast.Block) []Stmt {
	var out []Stmt
	for _, s := range b.Stmts {
		out = append(out, lx.lowerStmt(s)...)
	}
	return out
}

func (lx *lowerCtx) lowerStmt(stmt ast.Statement) []Stmt {
	switch s := stmt.(type) {
	case *ast.Block:
		return lx.lowerBlock(s)
	case *ast.EmptyStmt:
		return nil
	case *ast.LocalVarDecl:
		t := lx.newTemp()
		lx.locals[s.Name] = t
		if s.Init == nil {
			return nil
		}
		stmts, val := lx.lowerExpr(s.Init)
		return append(stmts, Move{Dst: TempVal{ID: t}, Src: val})
	case *ast.ExprStmt:
		stmts, _ := lx.lowerExpr(s.Expr)
		return stmts
	case *ast.ReturnStmt:
		if s.Value == nil {
			return []Stmt{Return{}}
		}
		stmts, val := lx.lowerExpr(s.Value)
		return append(stmts, Return{Value: val})
	case *ast.IfStmt:
		return lx.lowerIf(s)
	case *ast.WhileStmt:
		return lx.lowerWhile(s)
	case *ast.ForStmt:
		return lx.lowerFor(s)
	default:
		panic(fmt.Sprintf("ir: unhandled statement kind %T", stmt))
	}
}

func (lx *lowerCtx) lowerIf(s *ast.IfStmt) []Stmt {
	tLabel, fLabel, done := lx.newLabel("then"), lx.newLabel("else"), lx.newLabel("endif")
	out := lx.lowerCond(s.Cond, tLabel, fLabel)
	out = append(out, LabelStmt{tLabel})
	out = append(out, lx.lowerStmt(s.Then)...)
	out = append(out, Jump{done})
	out = append(out, LabelStmt{fLabel})
	if s.Else != nil {
		out = append(out, lx.lowerStmt(s.Else)...)
	}
	out = append(out, LabelStmt{done})
	return out
}

func (lx *lowerCtx) lowerWhile(s *ast.WhileStmt) []Stmt {
	top, body, done := lx.newLabel("loop"), lx.newLabel("body"), lx.newLabel("done")
	out := []Stmt{LabelStmt{top}}
	out = append(out, lx.lowerCond(s.Cond, body, done)...)
	out = append(out, LabelStmt{body})
	out = append(out, lx.lowerStmt(s.Body)...)
	out = append(out, Jump{top})
	out = append(out, LabelStmt{done})
	return out
}

func (lx *lowerCtx) lowerFor(s *ast.ForStmt) []Stmt {
	var out []Stmt
	if s.Init != nil {
		out = append(out, lx.lowerStmt(s.Init)...)
	}
	top, body, done := lx.newLabel("loop"), lx.newLabel("body"), lx.newLabel("done")
	out = append(out, LabelStmt{top})
	if s.Cond != nil {
		out = append(out, lx.lowerCond(s.Cond, body, done)...)
	} else {
		out = append(out, Jump{body})
	}
	out = append(out, LabelStmt{body})
	out = append(out, lx.lowerStmt(s.Body)...)
	if s.Update != nil {
		out = append(out, lx.lowerStmt(s.Update)...)
	}
	out = append(out, Jump{top})
	out = append(out, LabelStmt{done})
	return out
}

// lowerCond lowers a boolean expression directly into a CJump graph rather
// than through an intermediate boolean temporary, recursing through &&, ||,
// and ! to short-circuit exactly as Joos requires.
func (lx *lowerCtx) lowerCond(e ast.Expression, tLabel, fLabel string) []Stmt {
	if lit, ok := e.(*ast.Literal); ok && lit.Kind == "boolean" {
		if lit.Raw == "true" {
			return []Stmt{Jump{tLabel}}
		}
		return []Stmt{Jump{fLabel}}
	}
	if bin, ok := e.(*ast.BinaryExpr); ok {
		switch bin.Op {
		case "&&":
			mid := lx.newLabel("and")
			out := lx.lowerCond(bin.Left, mid, fLabel)
			out = append(out, LabelStmt{mid})
			return append(out, lx.lowerCond(bin.Right, tLabel, fLabel)...)
		case "||":
			mid := lx.newLabel("or")
			out := lx.lowerCond(bin.Left, tLabel, mid)
			out = append(out, LabelStmt{mid})
			return append(out, lx.lowerCond(bin.Right, tLabel, fLabel)...)
		}
	}
	if un, ok := e.(*ast.UnaryExpr); ok && un.Op == "!" {
		return lx.lowerCond(un.Operand, fLabel, tLabel)
	}
	stmts, val := lx.lowerExpr(e)
	return append(stmts, CJump{Cond: val, TLabel: tLabel, FLabel: fLabel})
}

// lowerExpr lowers e to a (stmts, value) pair: stmts must run, in order,
// before value is read.
func (lx *lowerCtx) lowerExpr(e ast.Expression) ([]Stmt, Value) {
	switch expr := e.(type) {
	case *ast.Literal:
		return nil, literalValue(expr)
	case *ast.ThisExpr:
		return nil, TempVal{ID: lx.thisTemp}
	case *ast.NameExpr:
		return lx.lowerName(expr)
	case *ast.BinaryExpr:
		return lx.lowerBinary(expr)
	case *ast.UnaryExpr:
		return lx.lowerUnary(expr)
	case *ast.AssignExpr:
		return lx.lowerAssign(expr)
	case *ast.CastExpr:
		return lx.lowerCast(expr)
	case *ast.InstanceofExpr:
		return lx.lowerInstanceof(expr)
	case *ast.NewObjectExpr:
		return lx.lowerNewObject(expr)
	case *ast.NewArrayExpr:
		return lx.lowerNewArray(expr)
	case *ast.FieldAccessExpr:
		return lx.lowerFieldAccess(expr)
	case *ast.MethodCallExpr:
		return lx.lowerMethodCall(expr)
	case *ast.ArrayAccessExpr:
		return lx.lowerArrayAccess(expr)
	default:
		panic(fmt.Sprintf("ir: unhandled expression kind %T", e))
	}
}

func literalValue(l *ast.Literal) Value {
	if c := l.ExprAttrs().Constant; c != nil {
		switch c.Kind {
		case "int", "char":
			return ConstVal{I32: c.I32}
		case "boolean":
			if c.Bool {
				return ConstVal{I32: 1}
			}
			return ConstVal{I32: 0}
		case "string":
			return NameVal{Label: stringLiteralLabel(c.Str)}
		case "null":
			return ConstVal{I32: 0}
		}
	}
	if l.Kind == "null" {
		return ConstVal{I32: 0}
	}
	panic("ir: literal " + l.Raw + " was not constant-folded before lowering")
}

// stringLiteralLabel names the pooled global a string literal's runtime
// java.lang.String object is built from; internal/codegen is responsible
// for emitting one such object per distinct label, deduplicated by content.
func stringLiteralLabel(s string) string {
	return fmt.Sprintf(".Lstr$%x", []byte(s))
}

func (lx *lowerCtx) lowerName(n *ast.NameExpr) ([]Stmt, Value) {
	switch b := n.ExprAttrs().Binding.(type) {
	case *resolve.LocalBinding:
		t, ok := lx.locals[n.Parts[0]]
		if !ok {
			panic("ir: local " + n.Parts[0] + " has no assigned temp")
		}
		return nil, TempVal{ID: t}
	case *resolve.FieldBinding:
		return lx.loadField(TempVal{ID: lx.thisTemp}, b.Field)
	case *resolve.TypeBinding:
		// A bare qualified static reference with no further suffix, e.g. a
		// NameExpr resolving wholly to a type used only for its identity
		// (never a runtime value on its own): typecheck rejects any such
		// use that would need a value, so Remaining is always non-empty
		// when lowering actually reaches here for a static field chain.
		return lx.loadStaticChain(b.Type, b.Remaining)
	default:
		panic(fmt.Sprintf("ir: unhandled name binding %T", b))
	}
}

func (lx *lowerCtx) loadField(recv Value, f *ast.FieldDecl) ([]Stmt, Value) {
	dst := TempVal{ID: lx.newTemp()}
	return []Stmt{Compute{Dst: dst, Op: OpLoadField, Args: []Value{recv}, Imm: lx.fieldOffset(f)}}, dst
}

func (lx *lowerCtx) fieldOffset(f *ast.FieldDecl) int32 {
	owner := lx.layouts.byNameOf(f)
	return owner.FieldOffset(f)
}

// loadStaticChain walks a dotted suffix of static field accesses starting
// from a resolved type, e.g. `Foo.BAR` or `Foo.Bar.BAZ`.
func (lx *lowerCtx) loadStaticChain(t *hierarchy.TypeDecl, remaining []string) ([]Stmt, Value) {
	if len(remaining) == 0 {
		panic("ir: type-only name used in value position")
	}
	field := findStaticField(t, remaining[0])
	dst := TempVal{ID: lx.newTemp()}
	stmts := []Stmt{Move{Dst: dst, Src: staticFieldAddr(t.CanonicalName(), field.Name)}}
	for _, name := range remaining[1:] {
		f := findStaticField(t, name) // only reached by a static field itself of reference type
		more, val := lx.loadField(dst, f)
		stmts = append(stmts, more...)
		dst = val.(TempVal)
	}
	return stmts, dst
}

func findStaticField(t *hierarchy.TypeDecl, name string) *ast.FieldDecl {
	for _, f := range t.Decl.Fields() {
		if f.Name == name {
			return f
		}
	}
	if t.Super != nil {
		return findStaticField(t.Super, name)
	}
	panic("ir: static field " + name + " not found on " + t.CanonicalName())
}

func (lx *lowerCtx) lowerBinary(b *ast.BinaryExpr) ([]Stmt, Value) {
	if b.Op == "&&" || b.Op == "||" {
		return lx.lowerShortCircuitValue(b)
	}
	if c := b.ExprAttrs().Constant; c != nil {
		return nil, constValue(c)
	}
	lstmts, lval := lx.lowerExpr(b.Left)
	rstmts, rval := lx.lowerExpr(b.Right)
	stmts := append(lstmts, rstmts...)

	if isStringConcat(b) {
		dst := TempVal{ID: lx.newTemp()}
		return append(stmts, Compute{Dst: dst, Op: OpConcatString, Args: []Value{lval, rval}}), dst
	}

	op, ok := binOp(b.Op)
	if !ok {
		panic("ir: unhandled binary operator " + b.Op)
	}
	dst := TempVal{ID: lx.newTemp()}
	return append(stmts, Compute{Dst: dst, Op: op, Args: []Value{lval, rval}}), dst
}

// lowerShortCircuitValue materializes a &&/|| expression used as a value
// (not directly as a condition) by running the same CJump graph lowerCond
// would and writing 0/1 into a fresh temp at the taken branch.
func (lx *lowerCtx) lowerShortCircuitValue(b *ast.BinaryExpr) ([]Stmt, Value) {
	tLabel, fLabel, done := lx.newLabel("sct"), lx.newLabel("scf"), lx.newLabel("scdone")
	dst := TempVal{ID: lx.newTemp()}
	out := lx.lowerCond(b, tLabel, fLabel)
	out = append(out, LabelStmt{tLabel}, Move{Dst: dst, Src: ConstVal{I32: 1}}, Jump{done})
	out = append(out, LabelStmt{fLabel}, Move{Dst: dst, Src: ConstVal{I32: 0}}, Jump{done})
	out = append(out, LabelStmt{done})
	return out, dst
}

func isStringConcat(b *ast.BinaryExpr) bool {
	if b.Op != "+" {
		return false
	}
	t := b.ExprAttrs().Type
	return t.IsReference() && t.Ref() != nil && t.Ref().CanonicalName() == "java.lang.String"
}

func binOp(op string) (Op, bool) {
	switch op {
	case "+":
		return OpAdd, true
	case "-":
		return OpSub, true
	case "*":
		return OpMul, true
	case "/":
		return OpDiv, true
	case "%":
		return OpMod, true
	case "<":
		return OpCmpLT, true
	case "<=":
		return OpCmpLE, true
	case ">":
		return OpCmpGT, true
	case ">=":
		return OpCmpGE, true
	case "==":
		return OpCmpEQ, true
	case "!=":
		return OpCmpNE, true
	case "&":
		return OpAnd, true
	case "|":
		return OpOr, true
	default:
		return 0, false
	}
}

func constValue(c *ast.Const) Value {
	switch c.Kind {
	case "int", "char":
		return ConstVal{I32: c.I32}
	case "boolean":
		if c.Bool {
			return ConstVal{I32: 1}
		}
		return ConstVal{I32: 0}
	case "string":
		return NameVal{Label: stringLiteralLabel(c.Str)}
	default:
		return ConstVal{I32: 0}
	}
}

func (lx *lowerCtx) lowerUnary(u *ast.UnaryExpr) ([]Stmt, Value) {
	if c := u.ExprAttrs().Constant; c != nil {
		return nil, constValue(c)
	}
	if u.Op == "!" {
		tLabel, fLabel, done := lx.newLabel("nott"), lx.newLabel("notf"), lx.newLabel("notdone")
		dst := TempVal{ID: lx.newTemp()}
		out := lx.lowerCond(u, tLabel, fLabel)
		out = append(out, LabelStmt{tLabel}, Move{Dst: dst, Src: ConstVal{I32: 1}}, Jump{done})
		out = append(out, LabelStmt{fLabel}, Move{Dst: dst, Src: ConstVal{I32: 0}}, Jump{done})
		out = append(out, LabelStmt{done})
		return out, dst
	}
	stmts, val := lx.lowerExpr(u.Operand)
	if u.Op == "+" {
		return stmts, val
	}
	dst := TempVal{ID: lx.newTemp()}
	return append(stmts, Compute{Dst: dst, Op: OpNeg, Args: []Value{val}}), dst
}

func (lx *lowerCtx) lowerAssign(a *ast.AssignExpr) ([]Stmt, Value) {
	rstmts, rval := lx.lowerExpr(a.Value)
	switch target := a.Target.(type) {
	case *ast.NameExpr:
		switch b := target.ExprAttrs().Binding.(type) {
		case *resolve.LocalBinding:
			t := lx.locals[target.Parts[0]]
			return append(rstmts, Move{Dst: TempVal{ID: t}, Src: rval}), TempVal{ID: t}
		case *resolve.FieldBinding:
			return lx.storeField(rstmts, TempVal{ID: lx.thisTemp}, b.Field, rval)
		default:
			panic(fmt.Sprintf("ir: unassignable name binding %T", b))
		}
	case *ast.FieldAccessExpr:
		rstmts2, recv := lx.lowerExpr(target.Receiver)
		stmts := append(rstmts, rstmts2...)
		return lx.storeField(stmts, recv, target.ResolvedField, rval)
	case *ast.ArrayAccessExpr:
		astmts, arr := lx.lowerExpr(target.Array)
		istmts, idx := lx.lowerExpr(target.Index)
		stmts := append(rstmts, astmts...)
		stmts = append(stmts, istmts...)
		stmts = append(stmts, Compute{Op: OpStoreElem, Args: []Value{arr, idx, rval}})
		return stmts, rval
	default:
		panic(fmt.Sprintf("ir: unhandled assignment target %T", a.Target))
	}
}

func (lx *lowerCtx) storeField(stmts []Stmt, recv Value, f *ast.FieldDecl, val Value) ([]Stmt, Value) {
	stmts = append(stmts, Compute{Op: OpStoreField, Args: []Value{recv, val}, Imm: lx.fieldOffset(f)})
	return stmts, val
}

func (lx *lowerCtx) lowerCast(c *ast.CastExpr) ([]Stmt, Value) {
	stmts, val := lx.lowerExpr(c.Expr)
	target := c.ExprAttrs().Type
	if target.IsPrimitive() && !target.IsBoolean() {
		width := int32(32)
		switch target.Primitive() {
		case types.Byte:
			width = 8
		case types.Short:
			width = 16
		case types.Char:
			// char is unsigned: keep the low 16 bits, zero-extended.
			dst := TempVal{ID: lx.newTemp()}
			return append(stmts, Compute{Dst: dst, Op: OpAnd, Args: []Value{val, ConstVal{I32: 0xFFFF}}}), dst
		}
		if width == 32 {
			return stmts, val
		}
		dst := TempVal{ID: lx.newTemp()}
		return append(stmts, Compute{Dst: dst, Op: OpTruncate, Args: []Value{val}, Imm: width}), dst
	}
	if target.IsReference() {
		dst := TempVal{ID: lx.newTemp()}
		stmts = append(stmts, Compute{Dst: dst, Op: OpCheckCast, Args: []Value{val}, Imm: lx.typeColumnIndex(target.Ref().CanonicalName())})
		return stmts, dst
	}
	return stmts, val
}

// typeColumnIndex is the key an instanceof/cast check looks for in the
// object's subtype column: the StableHash of the target type's name.
// internal/codegen emits each class's subtype column as the StableHash
// values of its SubtypeColumn names and scans it for this key.
func (lx *lowerCtx) typeColumnIndex(canonicalName string) int32 { return stableHash(canonicalName) }

func stableHash(s string) int32 { return StableHash(s) }

// StableHash is the same per-name hash typeColumnIndex uses, exported so
// internal/codegen can compute matching keys when it emits each class's
// subtype-column table: every OpSubtypeTest/OpCheckCast Imm value is
// StableHash of some canonical type name, and codegen's table just needs to
// contain that same value for every name in the receiver's SubtypeColumn.
func StableHash(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	return h
}

func (lx *lowerCtx) lowerInstanceof(i *ast.InstanceofExpr) ([]Stmt, Value) {
	stmts, val := lx.lowerExpr(i.Expr)
	name := namedTypeCanonical(i.T)
	dst := TempVal{ID: lx.newTemp()}
	return append(stmts, Compute{Dst: dst, Op: OpSubtypeTest, Args: []Value{val}, Imm: lx.typeColumnIndex(name)}), dst
}

func namedTypeCanonical(t ast.TypeExpr) string {
	if n, ok := t.(*ast.NamedTypeExpr); ok {
		return n.Name
	}
	return ast.TypeExprKey(t)
}

func (lx *lowerCtx) lowerNewObject(n *ast.NewObjectExpr) ([]Stmt, Value) {
	ownerName := n.ResolvedCtor.Owner.CanonicalName()
	layout := lx.layouts.Lookup(ownerName)
	objTemp := TempVal{ID: lx.newTemp()}
	var stmts []Stmt
	stmts = append(stmts, Compute{Dst: objTemp, Op: OpAlloc, Imm: layout.InstanceSize})
	stmts = append(stmts, Move{Dst: MemVal{Base: objTemp, Offset: 0}, Src: NameVal{Label: vtableLabel(ownerName)}})

	args := []Value{objTemp}
	for _, a := range n.Args {
		astmts, aval := lx.lowerExpr(a)
		stmts = append(stmts, astmts...)
		args = append(args, aval)
	}
	stmts = append(stmts, Call{Target: NameVal{Label: ctorLabel(layout.Type, n.ResolvedCtor)}, Args: args})
	return stmts, objTemp
}

func (lx *lowerCtx) lowerNewArray(n *ast.NewArrayExpr) ([]Stmt, Value) {
	stmts, length := lx.lowerExpr(n.Dim)
	elemSize := int32(4)
	dst := TempVal{ID: lx.newTemp()}
	stmts = append(stmts, Compute{Dst: dst, Op: OpAllocArray, Args: []Value{length}, Imm: elemSize})
	return stmts, dst
}

func (lx *lowerCtx) lowerFieldAccess(f *ast.FieldAccessExpr) ([]Stmt, Value) {
	if f.Name == "length" && f.Receiver.ExprAttrs().Type.IsArray() {
		stmts, arr := lx.lowerExpr(f.Receiver)
		dst := TempVal{ID: lx.newTemp()}
		return append(stmts, Compute{Dst: dst, Op: OpArrayLength, Args: []Value{arr}}), dst
	}
	stmts, recv := lx.lowerExpr(f.Receiver)
	more, val := lx.loadField(recv, f.ResolvedField)
	return append(stmts, more...), val
}

func (lx *lowerCtx) lowerArrayAccess(a *ast.ArrayAccessExpr) ([]Stmt, Value) {
	astmts, arr := lx.lowerExpr(a.Array)
	istmts, idx := lx.lowerExpr(a.Index)
	stmts := append(astmts, istmts...)
	dst := TempVal{ID: lx.newTemp()}
	return append(stmts, Compute{Dst: dst, Op: OpLoadElem, Args: []Value{arr, idx}}), dst
}

func (lx *lowerCtx) lowerMethodCall(m *ast.MethodCallExpr) ([]Stmt, Value) {
	method := m.ResolvedMethod
	var stmts []Stmt
	var args []Value

	static := method.Mods.Has(ast.ModStatic)
	var recv Value
	if !static {
		if m.Receiver != nil {
			rs, rv := lx.lowerExpr(m.Receiver)
			stmts = append(stmts, rs...)
			recv = rv
		} else {
			recv = TempVal{ID: lx.thisTemp}
		}
		args = append(args, recv)
	}
	for _, a := range m.Args {
		as, av := lx.lowerExpr(a)
		stmts = append(stmts, as...)
		args = append(args, av)
	}

	var dst Value
	if !isVoidMethod(method) {
		dst = TempVal{ID: lx.newTemp()}
	}

	if static {
		stmts = append(stmts, Call{Dst: dst, Target: NameVal{Label: method.Owner.CanonicalName() + "." + method.SignatureKey()}, Args: args})
		return stmts, dst
	}

	vtbl := TempVal{ID: lx.newTemp()}
	stmts = append(stmts, Compute{Dst: vtbl, Op: OpLoadVTable, Args: []Value{recv}})
	slot := lx.slotOf(m, method)
	target := TempVal{ID: lx.newTemp()}
	stmts = append(stmts, Compute{Dst: target, Op: OpLoadSlot, Args: []Value{vtbl}, Imm: int32(slot)})
	stmts = append(stmts, Call{Dst: dst, Target: target, Args: args})
	return stmts, dst
}

// slotOf finds the vtable slot a virtual call resolves to. Slot numbering
// is invariant across the whole subtree sharing this signature (see
// layout.go's build), so any layout containing the signature gives the
// right answer; the static type of the receiver is always an implementor.
func (lx *lowerCtx) slotOf(call *ast.MethodCallExpr, method *ast.MethodDecl) int {
	var recvType types.Type
	if call.Receiver != nil {
		recvType = call.Receiver.ExprAttrs().Type
	} else {
		recvType = types.Reference(lx.self)
	}
	if !recvType.IsReference() || recvType.Ref() == nil {
		panic("ir: virtual call on non-reference receiver")
	}
	layout := lx.layouts.Lookup(recvType.Ref().CanonicalName())
	if layout == nil {
		panic("ir: no layout for " + recvType.Ref().CanonicalName())
	}
	if idx, ok := layout.SlotOf[method.SignatureKey()]; ok {
		return idx
	}
	panic("ir: method " + method.SignatureKey() + " not found in " + recvType.Ref().CanonicalName() + "'s vtable")
}

func isVoidMethod(m *ast.MethodDecl) bool {
	_, void := m.ReturnT.(*ast.VoidTypeExpr)
	return void
}

func (ls *Layouts) byNameOf(f *ast.FieldDecl) *ClassLayout {
	return ls.Lookup(f.Owner.CanonicalName())
}
