package cmd

import (
	"fmt"
	"os"

	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/weeder"
	"github.com/spf13/cobra"
)

var weedCmd = &cobra.Command{
	Use:   "weed <file> [<file> ...]",
	Short: "Run only the weeder over each file",
	Long: `weed runs spec.md §4.1's post-parse syntactic restrictions (modifier
conflicts, literal bounds, disallowed statement forms, ...) over each
compilation unit independently and reports diagnostics, without running
any later pass. Mirrors go-dws's per-stage "lex"/"parse" introspection
subcommands.`,
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
		var diags diag.List
		for _, cu := range program.Units {
			weeder.Weed(cu, &diags)
		}
		code := diags.ExitCode()
		lastExitCode = code
		if diags.HasAny() {
			fmt.Fprintln(os.Stderr, diags.Format(false))
		} else if !quiet {
			fmt.Println("joosc weed: no violations")
		}
		return &exitError{code: code}
	},
}

func init() {
	rootCmd.AddCommand(weedCmd)
}
