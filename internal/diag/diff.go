package diag

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between two diagnostics runs' formatted
// output. joosc's --opt and --opt-none register allocators are expected to
// produce the exact same diagnostics set for a given program (allocation
// choice never changes which passes reported what, only the assembly
// downstream of a clean compile) — this is how a test demonstrates that, instead of asserting byte-equality and leaving a
// mismatching developer to eyeball two multi-paragraph dumps by hand.
//
// Grounded on edward-ap-class-collector/internal/diff's Unified helper,
// which produces the same classic unified patch over two class-member
// extraction results; this is that pattern applied to a pair of
// diagnostics dumps instead.
func Diff(fromLabel, toLabel string, from, to *List) string {
	a := from.Format(false)
	b := to.Format(false)
	if a == b {
		return ""
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return fmt.Sprintf("diag.Diff: %v", err)
	}
	return text
}
