// Package ir lowers a type-checked, analysed program into the canonical
// three-address IR of spec.md §4.7: object/vtable/subtype-column layout,
// followed by a per-method translation over an unbounded pool of
// temporaries. internal/codegen consumes this package's output; ir itself
// never touches machine registers or assembly text.
package ir

import (
	"sort"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/types"
)

// FieldSlot is one instance field's assigned byte offset within an object,
// offset 0 being reserved for the vtable pointer (spec.md §3 Layout).
type FieldSlot struct {
	Field  *ast.FieldDecl
	Owner  *hierarchy.TypeDecl
	Offset int32
}

// MethodSlot is one vtable entry: the signature it answers, the
// declaration currently filling it, and the slot index an overriding
// method in a subclass must reuse.
type MethodSlot struct {
	Signature string
	Method    *ast.MethodDecl
	Owner     *hierarchy.TypeDecl
	Slot      int
}

// ClassLayout is the per-class object shape and dispatch table computed by
// BuildLayouts.
type ClassLayout struct {
	Type *hierarchy.TypeDecl

	// Fields holds every instance field in layout order: inherited fields
	// first (in the order their declaring class computed them), own
	// fields appended afterward in declaration order.
	Fields []FieldSlot
	// InstanceSize is the total object size in bytes, including the
	// leading vtable pointer word.
	InstanceSize int32

	// VTable is the ordered array of code labels baked into every
	// instance of this class; an overriding method occupies the same
	// slot index its overridden counterpart used.
	VTable []MethodSlot
	// SlotOf maps a method signature to its vtable index, for instruction
	// selection to look up a virtual call's slot without a linear scan.
	SlotOf map[string]int

	// SubtypeColumn is the is-a bit-vector used to compile `instanceof`:
	// SubtypeColumn[T] is true iff every instance of this class is also
	// an instance of the type canonically named T.
	SubtypeColumn map[string]bool
}

// FieldOffset returns the byte offset of f within an instance of the class
// this layout describes, panicking if f is not one of its fields (an
// internal-error condition: typecheck already validated every field access
// against the hierarchy, so lowering should never ask about an unknown
// one).
func (l *ClassLayout) FieldOffset(f *ast.FieldDecl) int32 {
	for _, fs := range l.Fields {
		if fs.Field == f {
			return fs.Offset
		}
	}
	panic("ir: field " + f.Name + " has no layout slot in " + l.Type.CanonicalName())
}

// Layouts is the whole-program layout table, keyed by canonical class name.
// Interfaces have no entry: they carry no instance state and are never
// directly instantiated (spec.md §4.5, "new T(args): T is a non-abstract
// class").
type Layouts struct {
	byName   map[string]*ClassLayout
	allTypes []*hierarchy.TypeDecl
}

func (ls *Layouts) Lookup(canonicalName string) *ClassLayout { return ls.byName[canonicalName] }

// BuildLayouts computes every class's field/vtable/subtype-column layout,
// via the worklist/memoization discipline spec.md §9 calls for: each
// class's layout is derived from its already-memoized superclass's layout
// plus its own declarations, so a diamond of classes sharing an ancestor
// computes that ancestor's layout exactly once.
func BuildLayouts(graph *hierarchy.Graph, allTypes []*hierarchy.TypeDecl) *Layouts {
	ls := &Layouts{byName: map[string]*ClassLayout{}, allTypes: allTypes}
	for _, t := range allTypes {
		if !t.IsInterface() {
			ls.build(graph, t)
		}
	}
	for _, t := range allTypes {
		if layout := ls.byName[t.CanonicalName()]; layout != nil {
			layout.SubtypeColumn = subtypeColumn(t, allTypes)
		}
	}
	return ls
}

func (ls *Layouts) build(graph *hierarchy.Graph, node *hierarchy.TypeDecl) *ClassLayout {
	if existing, ok := ls.byName[node.CanonicalName()]; ok {
		return existing
	}

	var fields []FieldSlot
	var vtable []MethodSlot
	slotOf := map[string]int{}

	if node.Super != nil {
		super := ls.build(graph, node.Super)
		fields = append(fields, super.Fields...)
		vtable = append(vtable, super.VTable...)
		for sig, idx := range super.SlotOf {
			slotOf[sig] = idx
		}
	}

	if cd, ok := node.Decl.(*ast.ClassDecl); ok {
		for _, f := range cd.FieldDecls {
			if f.Mods.Has(ast.ModStatic) {
				continue
			}
			fields = append(fields, FieldSlot{
				Field:  f,
				Owner:  node,
				Offset: 4 + 4*int32(len(fields)),
			})
		}
	}

	for _, sig := range sortedSignatures(graph.ContainsSet(node)) {
		entry := graph.ContainsSet(node)[sig]
		if entry.Method.Mods.Has(ast.ModStatic) {
			continue
		}
		if idx, ok := slotOf[sig]; ok {
			vtable[idx] = MethodSlot{Signature: sig, Method: entry.Method, Owner: entry.DeclaringType, Slot: idx}
			continue
		}
		idx := len(vtable)
		vtable = append(vtable, MethodSlot{Signature: sig, Method: entry.Method, Owner: entry.DeclaringType, Slot: idx})
		slotOf[sig] = idx
	}

	layout := &ClassLayout{
		Type:         node,
		Fields:       fields,
		InstanceSize: 4 + 4*int32(len(fields)),
		VTable:       vtable,
		SlotOf:       slotOf,
	}
	ls.byName[node.CanonicalName()] = layout
	return layout
}

func sortedSignatures(cs map[string]*hierarchy.MethodEntry) []string {
	out := make([]string, 0, len(cs))
	for sig := range cs {
		out = append(out, sig)
	}
	sort.Strings(out)
	return out
}

// subtypeColumn computes the is-a set for node against every declared
// class/interface in the whole program (including the seeded
// java.lang.Object/String), the runtime representation `instanceof`
// compiles against (spec.md §4.7: "a bit-vector or pointer array keyed by
// TypeDecl id").
func subtypeColumn(node *hierarchy.TypeDecl, allTypes []*hierarchy.TypeDecl) map[string]bool {
	col := map[string]bool{}
	for _, t := range allTypes {
		if types.IsSubtypeOf(node, t) {
			col[t.CanonicalName()] = true
		}
	}
	return col
}
