package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/codegen"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/driver"
	"github.com/cs444-joos/joosc/internal/frontend"
	"github.com/spf13/cobra"
)

var outDir string

var buildCmd = &cobra.Command{
	Use:   "build <file> [<file> ...]",
	Short: "Run the full pipeline and emit assembly",
	Long: `build runs every pass in spec.md's order — weed, index, hierarchy,
resolve, typecheck, analysis, IR lowering, codegen — over the whole
program formed from every file given, and writes one NASM .s file per
compilation unit plus a shared start.s to --out-dir (default: current
directory).`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, args []string) error {
		return runBuild(args)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory to write emitted .s files into")
}

// loadProgram reads every named file, hands its bytes to frontend.ParseFile
// (joosc's external lexer/parser seam), and collapses each resulting parse
// tree into an ast.CompilationUnit. A read or parse failure here is
// reported the same way a weeder error is: it never reaches the pipeline
// proper, since there is no well-formed AST yet to run a pass over.
func loadProgram(files []string) (*ast.Program, error) {
	units := make([]*ast.CompilationUnit, 0, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		tree, err := frontend.ParseFile(f, src)
		if err != nil {
			return nil, err
		}
		cu, err := ast.Build(f, tree)
		if err != nil {
			return nil, fmt.Errorf("building AST for %s: %w", f, err)
		}
		units = append(units, cu)
	}
	return ast.NewProgram(units), nil
}

// runBuild is the shared body behind both the bare `joosc <files>` and
// `joosc build <files>` invocations (spec.md §6's grammar treats them as
// the same operation).
func runBuild(files []string) error {
	program, err := loadProgram(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		lastExitCode = diagInternalExit
		return &exitError{code: diagInternalExit}
	}

	ctx := driver.Compile(program, driver.Options{Opt: optFlag})
	code := driver.ExitCode(&ctx.Diags)
	lastExitCode = code

	if ctx.Diags.HasAny() {
		fmt.Fprintln(os.Stderr, ctx.Diags.Format(false))
	}
	if code != diag.ExitSuccess && code != diag.ExitWarning {
		return &exitError{code: code}
	}

	if err := writeUnits(outDir, ctx.Units); err != nil {
		lastExitCode = diagInternalExit
		return &exitError{code: diagInternalExit}
	}
	if !quiet && code == diag.ExitSuccess {
		fmt.Printf("joosc: wrote %d assembly unit(s) to %s\n", len(ctx.Units), outDir)
	}
	return &exitError{code: code}
}

func writeUnits(dir string, units []codegen.Unit) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, u := range units {
		path := filepath.Join(dir, u.Name)
		if err := os.WriteFile(path, []byte(u.Text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
