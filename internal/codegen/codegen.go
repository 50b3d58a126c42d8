package codegen

import (
	"fmt"
	"sort"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/ir"
)

// Unit is one emitted NASM source file's contents, keyed by the name the
// driver should write it under.
type Unit struct {
	Name string
	Text string
}

// EmitProgram lowers an already-lowered ir.Program into one NASM text unit
// per source compilation unit, plus a shared entry-point unit that runs
// every class's static initializer before calling the designated start
// class's test() method, matching the runtime contract
// __malloc/__exception/__debexit/NATIVEjava.io.OutputStream.nativeWrite
// (spec.md §4.9/§4.10). alloc picks --opt-none's NewTrivialAllocator or
// --opt's NewLinearScanAllocator; either produces correct code against the
// same tiles.
func EmitProgram(prog *ir.Program, alloc Allocator) []Unit {
	units := make([]Unit, 0, len(prog.Classes)+1)
	byFile := map[string][]*ir.Class{}
	var order []string
	for _, c := range prog.Classes {
		if _, seen := byFile[c.FileName]; !seen {
			order = append(order, c.FileName)
		}
		byFile[c.FileName] = append(byFile[c.FileName], c)
	}
	sort.Strings(order)

	for _, file := range order {
		units = append(units, Unit{Name: asmFileName(file), Text: emitUnit(byFile[file], alloc)})
	}
	units = append(units, Unit{Name: "start.s", Text: emitStart(prog)})
	return units
}

func asmFileName(sourceFile string) string {
	base := sourceFile
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if len(base) > 5 && base[len(base)-5:] == ".java" {
		base = base[:len(base)-5]
	}
	return base + ".s"
}

func emitUnit(classes []*ir.Class, alloc Allocator) string {
	w := &asmWriter{}
	w.section(".text")
	for _, c := range classes {
		w.global(c.Init.Label)
		for _, m := range c.Methods {
			w.global(m.Label)
		}
		for _, m := range c.Constructors {
			w.global(m.Label)
		}
	}
	w.extern("__malloc")
	w.extern("__exception")
	w.extern("__joos_string_concat")

	for _, c := range classes {
		emitMethod(w, c.Init, alloc)
		for _, m := range c.Methods {
			emitMethod(w, m, alloc)
		}
		for _, m := range c.Constructors {
			emitMethod(w, m, alloc)
		}
	}

	w.section(".data")
	for _, c := range classes {
		emitClassData(w, c)
	}
	return w.String()
}

// emitClassData writes one class's vtable, subtype column, and static field
// storage. The vtable's own first word is a pointer to the subtype column
// (a zero-terminated array of internal/ir.StableHash values), so
// OpLoadSlot's tile offsets every method slot by one extra word
// (4*(slot+1)) — see select.go's OpLoadSlot/OpLoadVTable tiles.
func emitClassData(w *asmWriter, c *ir.Class) {
	subtypeLabel := c.Layout.Type.CanonicalName() + "$subtypes"
	names := make([]string, 0, len(c.Layout.SubtypeColumn))
	for name := range c.Layout.SubtypeColumn {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(&w.sb, "%s:\n", subtypeLabel)
	for _, name := range names {
		fmt.Fprintf(&w.sb, "\tdd %d\n", ir.StableHash(name))
	}
	w.insn("dd", "0")

	fmt.Fprintf(&w.sb, "%s:\n", c.VTableLabel)
	fmt.Fprintf(&w.sb, "\tdd %s\n", subtypeLabel)
	for _, slot := range c.Layout.VTable {
		fmt.Fprintf(&w.sb, "\tdd %s\n", methodSlotTarget(slot))
	}

	if cd, ok := c.Layout.Type.Decl.(*ast.ClassDecl); ok {
		for _, f := range cd.FieldDecls {
			if f.Mods.Has(ast.ModStatic) {
				w.dd(cd.CanonicalName()+"."+f.Name, 0)
			}
		}
	}
}

// emitStart produces the shared entry unit: it runs every class's static
// initializer, in program order (spec.md leaves cross-unit static
// initializer ordering unspecified; this repo resolves it as declaration
// order across compilation units, recorded in DESIGN.md), then calls the
// designated start class's test() method and hands its result to
// __debexit.
func emitStart(prog *ir.Program) string {
	w := &asmWriter{}
	w.section(".text")
	w.global("_start")
	w.extern("__debexit")
	w.extern("__malloc")
	w.extern("__exception")
	w.extern("NATIVEjava.io.OutputStream.nativeWrite")
	for _, c := range prog.Classes {
		w.extern(c.Init.Label)
	}
	w.extern(prog.EntryMethod)

	w.label("_start")
	for _, c := range prog.Classes {
		w.insn("call", c.Init.Label)
	}
	w.insn("call", prog.EntryMethod)
	w.insn("push", "eax")
	w.insn("call", "__debexit")
	return w.String()
}

// methodSlotTarget names the label the vtable's slot should point to. Go has
// no sugar for "format an int32 or a string into the same dd line", so this
// returns the label text directly rather than trying to unify with the
// subtype column's numeric rows above.
func methodSlotTarget(slot ir.MethodSlot) string {
	return slot.Owner.CanonicalName() + "." + slot.Signature
}
