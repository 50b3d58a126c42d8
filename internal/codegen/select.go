package codegen

import (
	"fmt"

	"github.com/cs444-joos/joosc/internal/ir"
)

// gen carries one method's selection state: the allocator's location
// assignment, the writer it emits into, and a counter for the fresh local
// labels a single ir.Stmt sometimes needs (a null check, a cast-failure
// trap). Local labels are dot-prefixed, which NASM scopes to the preceding
// non-dot label automatically, so per-method uniqueness is all this needs —
// no cross-method prefixing.
type gen struct {
	w        *asmWriter
	locs     map[int]Loc
	nextLK   int
	retLabel string
}

func newGen(w *asmWriter, locs map[int]Loc, retLabel string) *gen {
	return &gen{w: w, locs: locs, retLabel: retLabel}
}

func (g *gen) freshLabel(tag string) string {
	g.nextLK++
	return fmt.Sprintf(".L%s%d", tag, g.nextLK)
}

// operand renders v as an instruction operand: an immediate, a register
// name, or a sized stack reference. NameVal renders as the bare symbol,
// matching the convention documented on staticFieldAddr in internal/ir:
// a bare name is that symbol's address, used directly as an immediate by
// NASM (`mov eax, Foo$vtable` loads the address, not a value at it).
func (g *gen) operand(v ir.Value) string {
	switch val := v.(type) {
	case ir.ConstVal:
		return fmt.Sprintf("%d", val.I32)
	case ir.NameVal:
		return val.Label
	case ir.TempVal:
		loc := g.locs[val.ID]
		if !loc.onStack() {
			return loc.Reg
		}
		return fmt.Sprintf("dword [ebp-%d]", loc.StackOffset)
	case ir.MemVal:
		return g.addrOf(val)
	}
	panic("codegen: unhandled value operand")
}

// loadBaseReg ensures a pointer-valued operand ends up in a register,
// emitting a load into scratch first if it's stack-resident, and returns the
// register name to address through.
func (g *gen) loadBaseReg(scratch string, base ir.Value) string {
	if t, ok := base.(ir.TempVal); ok {
		if loc := g.locs[t.ID]; !loc.onStack() {
			return loc.Reg
		}
	}
	g.w.insn("mov", scratch, g.operand(base))
	return scratch
}

// addrOf renders a MemVal as a bracketed memory operand. A NameVal base is a
// global address (a static field's label) and needs no register; any other
// base is an object/array pointer that must be loaded into a register before
// it can itself be dereferenced.
func (g *gen) addrOf(m ir.MemVal) string {
	if name, ok := m.Base.(ir.NameVal); ok {
		if m.Offset == 0 {
			return fmt.Sprintf("dword [%s]", name.Label)
		}
		return fmt.Sprintf("dword [%s+%d]", name.Label, m.Offset)
	}
	reg := g.loadBaseReg("edx", m.Base)
	if m.Offset == 0 {
		return fmt.Sprintf("dword [%s]", reg)
	}
	return fmt.Sprintf("dword [%s+%d]", reg, m.Offset)
}

// store writes the value currently in srcReg into dst, the Compute/Move
// destination. dst is always a TempVal in practice (field/array stores go
// through OpStoreField/OpStoreElem, which take their target as an Arg, not a
// Dst), but MemVal is handled too since lowerStaticInit's Move targets one.
func (g *gen) store(dst ir.Value, srcReg string) {
	if dst == nil {
		return
	}
	if mv, ok := dst.(ir.MemVal); ok {
		g.w.insn("mov", g.addrOf(mv), srcReg)
		return
	}
	g.w.insn("mov", g.operand(dst), srcReg)
}

// emitMethod selects and emits one method body, wrapping it in the cdecl
// prologue/epilogue the allocator's FrameSize determined.
func emitMethod(w *asmWriter, m *ir.Method, alloc Allocator) {
	locs := alloc.Assign(m)
	frame := alloc.FrameSize(m)
	retLabel := m.Label + "$ret"
	g := newGen(w, locs, retLabel)

	w.label(m.Label)
	w.insn("push", "ebp")
	w.insn("mov", "ebp", "esp")
	if frame > 0 {
		w.insn("sub", "esp", fmt.Sprintf("%d", frame))
	}
	w.insn("push", "ebx")
	w.insn("push", "esi")
	w.insn("push", "edi")

	for i, id := range m.ParamTemps {
		// cdecl: arguments sit above the return address, in order, at
		// ebp+8, ebp+12, ... Copy each into its assigned temp location
		// once up front rather than special-casing param reads later.
		argOff := 8 + 4*i
		g.w.insn("mov", "eax", fmt.Sprintf("dword [ebp+%d]", argOff))
		g.store(ir.TempVal{ID: id}, "eax")
	}

	for _, stmt := range m.Body {
		g.emitStmt(stmt)
	}

	w.label(retLabel)
	w.insn("pop", "edi")
	w.insn("pop", "esi")
	w.insn("pop", "ebx")
	w.insn("mov", "esp", "ebp")
	w.insn("pop", "ebp")
	w.insn("ret")
}

func (g *gen) emitStmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case ir.LabelStmt:
		g.w.label(s.Name)
	case ir.Jump:
		g.w.insn("jmp", s.Label)
	case ir.CJump:
		g.w.insn("mov", "eax", g.operand(s.Cond))
		g.w.insn("test", "eax", "eax")
		g.w.insn("jne", s.TLabel)
		g.w.insn("jmp", s.FLabel)
	case ir.Move:
		g.emitMove(s)
	case ir.Compute:
		g.emitCompute(s)
	case ir.Call:
		g.emitCall(s)
	case ir.Return:
		g.emitReturn(s)
	default:
		panic("codegen: unhandled stmt kind")
	}
}

func (g *gen) emitMove(m ir.Move) {
	g.w.insn("mov", "eax", g.operand(m.Src))
	g.store(m.Dst, "eax")
}

// emitReturn leaves its value (if any) in eax, the cdecl return register,
// then jumps to the shared epilogue rather than duplicating it at every
// return site.
func (g *gen) emitReturn(r ir.Return) {
	if r.Value != nil {
		g.w.insn("mov", "eax", g.operand(r.Value))
	}
	g.w.insn("jmp", g.retLabel)
}

func (g *gen) emitCall(c ir.Call) {
	for i := len(c.Args) - 1; i >= 0; i-- {
		g.w.insn("push", g.operand(c.Args[i]))
	}
	switch target := c.Target.(type) {
	case ir.NameVal:
		g.w.insn("call", target.Label)
	default:
		reg := g.loadBaseReg("eax", c.Target)
		g.w.insn("call", reg)
	}
	if len(c.Args) > 0 {
		g.w.insn("add", "esp", fmt.Sprintf("%d", 4*len(c.Args)))
	}
	if c.Dst != nil {
		g.store(c.Dst, "eax")
	}
}

var cmpSetcc = map[ir.Op]string{
	ir.OpCmpLT: "setl",
	ir.OpCmpLE: "setle",
	ir.OpCmpGT: "setg",
	ir.OpCmpGE: "setge",
	ir.OpCmpEQ: "sete",
	ir.OpCmpNE: "setne",
}

func (g *gen) emitCompute(c ir.Compute) {
	switch c.Op {
	case ir.OpAdd, ir.OpSub:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		op := "add"
		if c.Op == ir.OpSub {
			op = "sub"
		}
		g.w.insn(op, "eax", g.operand(c.Args[1]))
		g.store(c.Dst, "eax")

	case ir.OpMul:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		g.w.insn("imul", "eax", g.operand(c.Args[1]))
		g.store(c.Dst, "eax")

	case ir.OpDiv, ir.OpMod:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		g.w.insn("cdq")
		divisor := g.operand(c.Args[1])
		if _, isConst := c.Args[1].(ir.ConstVal); isConst {
			g.w.insn("mov", "ecx", divisor)
			divisor = "ecx"
		}
		nonZero := g.freshLabel("divnz")
		g.w.insn("cmp", divisor, "0")
		g.w.insn("jne", nonZero)
		g.w.insn("call", "__exception")
		g.w.label(nonZero)
		g.w.insn("idiv", divisor)
		if c.Op == ir.OpDiv {
			g.store(c.Dst, "eax")
		} else {
			g.store(c.Dst, "edx")
		}

	case ir.OpNeg:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		g.w.insn("neg", "eax")
		g.store(c.Dst, "eax")

	case ir.OpNot:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		g.w.insn("xor", "eax", "1")
		g.store(c.Dst, "eax")

	case ir.OpAnd, ir.OpOr:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		op := "and"
		if c.Op == ir.OpOr {
			op = "or"
		}
		g.w.insn(op, "eax", g.operand(c.Args[1]))
		g.store(c.Dst, "eax")

	case ir.OpCmpLT, ir.OpCmpLE, ir.OpCmpGT, ir.OpCmpGE, ir.OpCmpEQ, ir.OpCmpNE:
		g.w.insn("mov", "eax", g.operand(c.Args[0]))
		g.w.insn("cmp", "eax", g.operand(c.Args[1]))
		g.w.insn(cmpSetcc[c.Op], "al")
		g.w.insn("movzx", "eax", "al")
		g.store(c.Dst, "eax")

	case ir.OpLoadVTable:
		reg := g.loadBaseReg("eax", c.Args[0])
		ok := g.freshLabel("vtnn")
		g.w.insn("test", reg, reg)
		g.w.insn("jne", ok)
		g.w.insn("call", "__exception")
		g.w.label(ok)
		g.w.insn("mov", "eax", fmt.Sprintf("dword [%s]", reg))
		g.store(c.Dst, "eax")

	case ir.OpLoadSlot:
		reg := g.loadBaseReg("eax", c.Args[0])
		g.w.insn("mov", "eax", fmt.Sprintf("dword [%s+%d]", reg, 4*(c.Imm+1)))
		g.store(c.Dst, "eax")

	case ir.OpLoadField:
		reg := g.loadBaseReg("eax", c.Args[0])
		ok := g.freshLabel("fldnn")
		g.w.insn("test", reg, reg)
		g.w.insn("jne", ok)
		g.w.insn("call", "__exception")
		g.w.label(ok)
		g.w.insn("mov", "eax", fmt.Sprintf("dword [%s+%d]", reg, c.Imm))
		g.store(c.Dst, "eax")

	case ir.OpStoreField:
		reg := g.loadBaseReg("ebx", c.Args[0])
		ok := g.freshLabel("fldnn")
		g.w.insn("test", reg, reg)
		g.w.insn("jne", ok)
		g.w.insn("call", "__exception")
		g.w.label(ok)
		g.w.insn("mov", "eax", g.operand(c.Args[1]))
		g.w.insn("mov", fmt.Sprintf("dword [%s+%d]", reg, c.Imm), "eax")

	case ir.OpArrayLength:
		reg := g.loadBaseReg("eax", c.Args[0])
		ok := g.freshLabel("arrnn")
		g.w.insn("test", reg, reg)
		g.w.insn("jne", ok)
		g.w.insn("call", "__exception")
		g.w.label(ok)
		g.w.insn("mov", "eax", fmt.Sprintf("dword [%s]", reg))
		g.store(c.Dst, "eax")

	case ir.OpLoadElem:
		g.emitElemBoundsCheck(c.Args[0], c.Args[1])
		// eax: array base, ecx: index, both left live by the bounds check.
		g.w.insn("mov", "edx", "dword [eax+ecx*4+4]")
		g.store(c.Dst, "edx")

	case ir.OpStoreElem:
		g.emitElemBoundsCheck(c.Args[0], c.Args[1])
		g.w.insn("mov", "edx", g.operand(c.Args[2]))
		g.w.insn("mov", "dword [eax+ecx*4+4]", "edx")

	case ir.OpAlloc:
		g.w.insn("push", fmt.Sprintf("%d", c.Imm))
		g.w.insn("call", "__malloc")
		g.w.insn("add", "esp", "4")
		g.store(c.Dst, "eax")

	case ir.OpAllocArray:
		g.w.insn("mov", "ebx", g.operand(c.Args[0])) // element count, preserved
		g.w.insn("mov", "eax", "ebx")
		g.w.insn("imul", "eax", fmt.Sprintf("%d", c.Imm))
		g.w.insn("add", "eax", "4")
		g.w.insn("push", "eax")
		g.w.insn("call", "__malloc")
		g.w.insn("add", "esp", "4")
		g.w.insn("mov", "dword [eax]", "ebx")
		g.store(c.Dst, "eax")

	case ir.OpSubtypeTest:
		g.emitSubtypeScan(c.Args[0], c.Imm, c.Dst, false)

	case ir.OpCheckCast:
		g.emitSubtypeScan(c.Args[0], c.Imm, c.Dst, true)

	case ir.OpConcatString:
		g.w.insn("push", g.operand(c.Args[1]))
		g.w.insn("push", g.operand(c.Args[0]))
		g.w.insn("call", "__joos_string_concat")
		g.w.insn("add", "esp", "8")
		g.store(c.Dst, "eax")

	case ir.OpStringOf:
		g.w.insn("push", g.operand(c.Args[0]))
		g.w.insn("call", fmt.Sprintf("__joos_string_of_%d", c.Imm))
		g.w.insn("add", "esp", "4")
		g.store(c.Dst, "eax")

	case ir.OpTruncate:
		g.emitTruncate(c)

	default:
		panic("codegen: unhandled Op")
	}
}

// emitElemBoundsCheck loads the array pointer into eax and the index into
// ecx, null- and bounds-checking first. Callers that follow may address
// [eax+ecx*4+4] directly (offset 4 skips the length header word).
func (g *gen) emitElemBoundsCheck(arr, idx ir.Value) {
	reg := g.loadBaseReg("eax", arr)
	if reg != "eax" {
		g.w.insn("mov", "eax", reg)
	}
	nullOK := g.freshLabel("arrnn")
	g.w.insn("test", "eax", "eax")
	g.w.insn("jne", nullOK)
	g.w.insn("call", "__exception")
	g.w.label(nullOK)

	g.w.insn("mov", "ecx", g.operand(idx))
	boundsOK := g.freshLabel("arrbc")
	g.w.insn("cmp", "ecx", "dword [eax]")
	g.w.insn("jae", "__exception") // unsigned compare: also catches negative indices
	g.w.label(boundsOK)
}

// emitSubtypeScan walks the object's vtable's subtype column (a
// zero-terminated array of stable-hash values, stored at the vtable's own
// offset 0) looking for target. asCast trapping into __exception on failure
// instead of producing a 0/1 result, and treats a null receiver as always
// passing (a cast of null never fails) rather than always failing (an
// instanceof test on null is always false).
func (g *gen) emitSubtypeScan(obj ir.Value, target int32, dst ir.Value, asCast bool) {
	objReg := g.loadBaseReg("ebx", obj)
	if objReg != "ebx" {
		g.w.insn("mov", "ebx", objReg)
	}

	nullLabel := g.freshLabel("stnull")
	doneLabel := g.freshLabel("stdone")
	foundLabel := g.freshLabel("stfound")
	notFoundLabel := g.freshLabel("stmiss")
	loopLabel := g.freshLabel("stloop")

	g.w.insn("test", "ebx", "ebx")
	g.w.insn("je", nullLabel)

	g.w.insn("mov", "eax", "dword [ebx]")   // vtable pointer
	g.w.insn("mov", "eax", "dword [eax]")   // subtype column pointer
	g.w.label(loopLabel)
	g.w.insn("mov", "ecx", "dword [eax]")
	g.w.insn("cmp", "ecx", "0")
	g.w.insn("je", notFoundLabel)
	g.w.insn("cmp", "ecx", fmt.Sprintf("%d", target))
	g.w.insn("je", foundLabel)
	g.w.insn("add", "eax", "4")
	g.w.insn("jmp", loopLabel)

	g.w.label(notFoundLabel)
	if asCast {
		g.w.insn("call", "__exception")
	} else {
		g.w.insn("mov", "eax", "0")
		g.w.insn("jmp", doneLabel)
	}

	g.w.label(foundLabel)
	if asCast {
		g.w.insn("jmp", doneLabel)
	} else {
		g.w.insn("mov", "eax", "1")
		g.w.insn("jmp", doneLabel)
	}

	g.w.label(nullLabel)
	if asCast {
		g.w.insn("jmp", doneLabel) // null always satisfies a cast
	} else {
		g.w.insn("mov", "eax", "0")
	}

	g.w.label(doneLabel)
	if asCast {
		g.store(dst, "ebx") // a cast's value is the object itself, unchanged
	} else {
		g.store(dst, "eax")
	}
}

func (g *gen) emitTruncate(c ir.Compute) {
	g.w.insn("mov", "eax", g.operand(c.Args[0]))
	switch c.Imm {
	case 8:
		g.w.insn("movsx", "eax", "al")
	case 16:
		// Imm 16 is short's width: a cast to char lowers to an OpAnd
		// with 0xFFFF instead, so this tile only ever sign-extends.
		g.w.insn("movsx", "eax", "ax")
	}
	g.store(c.Dst, "eax")
}
