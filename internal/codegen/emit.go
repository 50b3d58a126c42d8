// Package codegen performs maximal-munch instruction selection over
// internal/ir's three-address form, producing NASM-syntax x86-32 text
// assembly: one tile per ir.Stmt/ir.Compute, a caller-chosen register
// allocator (internal/codegen.NewTrivialAllocator or NewLinearScanAllocator)
// deciding whether a temporary lives in a register or a stack slot.
//
// The emitted object layout, calling convention, and runtime contract
// follow spec.md §4.9/§4.10: cdecl argument passing, a vtable pointer at
// object offset 0, and calls out to __malloc/__exception/__debexit plus
// NATIVEjava.io.OutputStream.nativeWrite for the one native method Joos
// programs can call.
package codegen

import (
	"fmt"
	"strings"

	"github.com/cs444-joos/joosc/internal/ir"
)

// asmWriter accumulates one compilation unit's assembly text. Grounded on
// go-dws/internal/bytecode's Disassembler, which likewise accumulates
// output through buffered Fprintf calls rather than building the whole
// string ahead of time.
type asmWriter struct {
	sb strings.Builder
}

func (w *asmWriter) section(name string) { fmt.Fprintf(&w.sb, "section %s\n", name) }
func (w *asmWriter) global(label string)  { fmt.Fprintf(&w.sb, "global %s\n", label) }
func (w *asmWriter) extern(label string)  { fmt.Fprintf(&w.sb, "extern %s\n", label) }
func (w *asmWriter) label(name string)    { fmt.Fprintf(&w.sb, "%s:\n", name) }
func (w *asmWriter) comment(s string)     { fmt.Fprintf(&w.sb, "\t; %s\n", s) }

func (w *asmWriter) insn(op string, operands ...string) {
	if len(operands) == 0 {
		fmt.Fprintf(&w.sb, "\t%s\n", op)
		return
	}
	fmt.Fprintf(&w.sb, "\t%s %s\n", op, strings.Join(operands, ", "))
}

func (w *asmWriter) dd(label string, value int32) {
	fmt.Fprintf(&w.sb, "%s: dd %d\n", label, value)
}

func (w *asmWriter) String() string { return w.sb.String() }

// collectLabels builds the small lookup codegen needs while emitting one
// unit: the set of every method/constructor/static-initializer label, so a Call's
// ir.NameVal target resolves to something codegen can reason about (a
// number-of-args contract isn't enforced here — typecheck already fixed
// argument count/order by the time lowering produced the Call).
func collectLabels(prog *ir.Program) map[string]bool {
	labels := map[string]bool{}
	for _, c := range prog.Classes {
		labels[c.Init.Label] = true
		for _, m := range c.Methods {
			labels[m.Label] = true
		}
		for _, m := range c.Constructors {
			labels[m.Label] = true
		}
	}
	return labels
}
