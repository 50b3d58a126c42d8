// Package cmd wires joosc's cobra command tree. It mirrors
// go-dws/cmd/dwscript/cmd's layout: root.go owns Execute() and global
// flags, every subcommand gets its own file and registers itself via
// init()'s rootCmd.AddCommand call.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is stamped by release build flags; left at dev default here
	// since joosc has no release pipeline in this repository.
	Version = "0.1.0-dev"

	quiet   bool
	optFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "joosc",
	Short: "Whole-program Joos 1W compiler",
	Long: `joosc compiles a set of Joos 1W source files to x86-32 assembly.

Joos 1W is a strict subset of Java 1.3 used in compiler coursework. joosc
runs the static semantic pipeline (weeding, hierarchy checking, name
resolution, type checking, static analysis) and a tile-based code
generator over the whole program at once; it has no notion of separate or
incremental compilation.

With no subcommand, joosc runs the full pipeline, the same as "joosc
build" — matching the grammar in spec.md §6:
  joosc [--opt-none | --opt] [-q] <file> [<file> ...]`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runBuild(args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-diagnostic output")
	rootCmd.PersistentFlags().BoolVar(&optFlag, "opt", false, "enable the linear-scan register allocator (default: trivial, one stack slot per temporary)")
	rootCmd.PersistentFlags().Bool("opt-none", true, "disable optimisation (default); kept for spec.md's CLI grammar, same effect as omitting --opt")
}

// Execute runs the root command and returns the process exit code the
// caller (main.go) should pass to os.Exit — joosc's contract is "exit code
// only" (spec.md §7), so every command below reports failure through this
// return value rather than through cobra's own error-printing exit(1).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if ce, ok := err.(*exitError); ok {
			return ce.code
		}
		fmt.Fprintln(os.Stderr, err)
		return diagInternalExit
	}
	return lastExitCode
}

// exitError carries a pre-determined joosc exit code out of a RunE without
// cobra rewriting it into a generic failure. The build, weed, hierarchy and
// ir commands return one on every path, success included; Execute returns
// lastExitCode only when a command's RunE returns nil.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("joosc: exit %d", e.code) }

const diagInternalExit = 13

var lastExitCode int
