package codegen

import "github.com/cs444-joos/joosc/internal/ir"

// Loc is where one temporary lives for the duration of a method: either a
// callee-saved register or a 4-byte stack slot at ebp-StackOffset.
type Loc struct {
	Reg         string // "" if spilled to the stack
	StackOffset int32  // valid when Reg == ""
}

func (l Loc) onStack() bool { return l.Reg == "" }

// Allocator assigns every temporary in a method to a Loc and reports the
// stack frame size the method's prologue must reserve.
type Allocator interface {
	Assign(m *ir.Method) map[int]Loc
	FrameSize(m *ir.Method) int32
}

// trivialAllocator is the default (--opt-none) allocator: every temporary
// gets its own stack slot, no register is ever live across an instruction.
// This is the allocator spec.md calls out as the one every other
// optimization pass must still produce correct code against.
type trivialAllocator struct{}

func NewTrivialAllocator() Allocator { return trivialAllocator{} }

func (trivialAllocator) Assign(m *ir.Method) map[int]Loc {
	locs := make(map[int]Loc, m.NumTemps)
	for id := 0; id < m.NumTemps; id++ {
		locs[id] = Loc{StackOffset: int32(4 * (id + 1))}
	}
	return locs
}

func (trivialAllocator) FrameSize(m *ir.Method) int32 { return int32(4 * m.NumTemps) }

// scratchRegisters are the callee-saved general-purpose registers available
// to the linear-scan allocator once ebx/esi/edi are freed of their cdecl
// callee-save obligation by the prologue/epilogue (see emitMethod in
// select.go).
var scratchRegisters = []string{"ebx", "esi", "edi"}

// interval is a temporary's live range: the index of the instruction that
// first defines it through the index of the instruction that last reads it,
// inclusive. Linear scan over intervals sorted by start, spilling whichever
// active interval ends furthest away when registers run out, is the textbook
// algorithm (Poletto & Sarkar) this allocator is a direct, small-scale
// rendition of.
type interval struct {
	temp       int
	start, end int
}

// linearScanAllocator is the --opt allocator: it computes each temporary's
// live range with one linear pass over the method body, then assigns
// registers greedily by the standard linear-scan rule, spilling the
// longest-remaining interval when every register is in use.
type linearScanAllocator struct{}

func NewLinearScanAllocator() Allocator { return linearScanAllocator{} }

func (linearScanAllocator) Assign(m *ir.Method) map[int]Loc {
	intervals := computeIntervals(m)
	locs := make(map[int]Loc, m.NumTemps)

	type active struct {
		interval
		reg string
	}
	var live []active
	free := append([]string(nil), scratchRegisters...)
	nextSpillSlot := int32(1)

	assignSpill := func(id int) {
		locs[id] = Loc{StackOffset: 4 * nextSpillSlot}
		nextSpillSlot++
	}

	for _, iv := range intervals {
		// Retire any active interval that ended before this one starts,
		// returning its register to the free pool.
		kept := live[:0]
		for _, a := range live {
			if a.end < iv.start {
				free = append(free, a.reg)
			} else {
				kept = append(kept, a)
			}
		}
		live = kept

		if len(free) > 0 {
			reg := free[len(free)-1]
			free = free[:len(free)-1]
			locs[iv.temp] = Loc{Reg: reg}
			live = append(live, active{interval: iv, reg: reg})
			continue
		}

		// No free register: spill whichever active interval ends furthest
		// in the future if it ends later than the new one, else spill the
		// new one.
		worst := -1
		for i, a := range live {
			if worst == -1 || a.end > live[worst].end {
				worst = i
			}
		}
		if worst != -1 && live[worst].end > iv.end {
			assignSpill(live[worst].temp)
			locs[iv.temp] = Loc{Reg: live[worst].reg}
			live[worst] = active{interval: iv, reg: live[worst].reg}
		} else {
			assignSpill(iv.temp)
		}
	}

	for id := 0; id < m.NumTemps; id++ {
		if _, ok := locs[id]; !ok {
			assignSpill(id)
		}
	}
	return locs
}

func (linearScanAllocator) FrameSize(m *ir.Method) int32 {
	// Overapproximate: one slot per temp is always enough headroom even
	// though most temps end up in a register: using more stack than
	// strictly needed costs nothing at Joos program sizes and keeps frame
	// layout independent of the allocator's spill choices.
	return int32(4 * m.NumTemps)
}

func computeIntervals(m *ir.Method) []interval {
	starts := map[int]int{}
	ends := map[int]int{}
	touch := func(id, idx int) {
		if _, ok := starts[id]; !ok {
			starts[id] = idx
		}
		ends[id] = idx
	}
	touchValue := func(v ir.Value, idx int) {
		if t, ok := v.(ir.TempVal); ok {
			touch(t.ID, idx)
		}
	}

	for idx, stmt := range m.Body {
		switch s := stmt.(type) {
		case ir.Move:
			touchValue(s.Src, idx)
			touchValue(s.Dst, idx)
		case ir.Compute:
			for _, a := range s.Args {
				touchValue(a, idx)
			}
			touchValue(s.Dst, idx)
		case ir.Call:
			for _, a := range s.Args {
				touchValue(a, idx)
			}
			touchValue(s.Target, idx)
			touchValue(s.Dst, idx)
		case ir.Return:
			touchValue(s.Value, idx)
		case ir.CJump:
			touchValue(s.Cond, idx)
		}
	}

	out := make([]interval, 0, len(starts))
	for id, start := range starts {
		out = append(out, interval{temp: id, start: start, end: ends[id]})
	}
	// Sort by start index for the linear-scan sweep.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].start < out[j-1].start; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
