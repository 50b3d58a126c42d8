package cmd

import (
	"fmt"
	"os"

	"github.com/cs444-joos/joosc/internal/driver"
	"github.com/spf13/cobra"
)

var irCmd = &cobra.Command{
	Use:   "ir <file> [<file> ...]",
	Short: "Run every pass through IR lowering and print the lowered program",
	Long: `ir runs spec.md §4.2-§4.7 (through IR lowering, stopping short of
instruction selection) and prints each class's layout and lowered method
labels — useful for inspecting vtable slot assignment and three-address
IR without committing to a register allocator.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, args []string) error {
		program, err := loadProgram(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			lastExitCode = diagInternalExit
			return &exitError{code: diagInternalExit}
		}

		ctx := &driver.Context{}
		passes := driver.DefaultPasses()
		driver.NewPassManager(passes[:len(passes)-1]...).RunAll(program, ctx, driver.Options{Opt: optFlag})

		code := ctx.Diags.ExitCode()
		lastExitCode = code
		if ctx.Diags.HasAny() {
			fmt.Fprintln(os.Stderr, ctx.Diags.Format(false))
		}
		if ctx.Diags.HasErrors() {
			return &exitError{code: code}
		}
		printIR(ctx)
		return &exitError{code: code}
	},
}

func init() {
	rootCmd.AddCommand(irCmd)
}

func printIR(ctx *driver.Context) {
	if ctx.IR == nil {
		return
	}
	fmt.Printf("entry: %s.%s\n", ctx.IR.EntryClass, ctx.IR.EntryMethod)
	for _, c := range ctx.IR.Classes {
		fmt.Printf("class %s (%d bytes, %d vtable slots)\n",
			c.Layout.Type.CanonicalName(), c.Layout.InstanceSize, len(c.Layout.VTable))
		for _, slot := range c.Layout.VTable {
			fmt.Printf("  [%d] %s (%s)\n", slot.Slot, slot.Signature, slot.Owner.CanonicalName())
		}
		fmt.Printf("  init: %s (%d temps)\n", c.Init.Label, c.Init.NumTemps)
		for _, m := range c.Methods {
			fmt.Printf("  method %s (%d temps, %d stmts)\n", m.Label, m.NumTemps, len(m.Body))
		}
		for _, ctor := range c.Constructors {
			fmt.Printf("  ctor %s (%d temps, %d stmts)\n", ctor.Label, ctor.NumTemps, len(ctor.Body))
		}
	}
}
