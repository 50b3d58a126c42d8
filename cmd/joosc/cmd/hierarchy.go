package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/weeder"
	"github.com/spf13/cobra"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <file> [<file> ...]",
	Short: "Run weed/index/hierarchy and print the class/interface graph",
	Long: `hierarchy runs the pipeline through spec.md §4.3's hierarchy checker
(cycles, final-extends, abstract-method coverage, contains-set merging)
and prints each type's supertype/superinterface edges, for debugging a
coursework hierarchy error without running type checking or later passes.`,
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
		if diags.HasErrors() {
			fmt.Fprintln(os.Stderr, diags.Format(false))
			lastExitCode = diag.ExitFrontEnd
			return &exitError{code: diag.ExitFrontEnd}
		}

		global := index.Build(program, &diags)
		if diags.HasErrors() {
			fmt.Fprintln(os.Stderr, diags.Format(false))
			lastExitCode = diag.ExitFrontEnd
			return &exitError{code: diag.ExitFrontEnd}
		}

		graph := hierarchy.Build(program, global, &diags)
		code := diags.ExitCode()
		lastExitCode = code
		if diags.HasAny() {
			fmt.Fprintln(os.Stderr, diags.Format(false))
		}
		if diags.HasErrors() {
			return &exitError{code: code}
		}

		printGraph(graph)
		return &exitError{code: code}
	},
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
}

func printGraph(graph *hierarchy.Graph) {
	nodes := graph.Nodes()
	names := make([]string, 0, len(nodes))
	byName := map[string]*hierarchy.TypeDecl{}
	for _, n := range nodes {
		names = append(names, n.CanonicalName())
		byName[n.CanonicalName()] = n
	}
	sort.Strings(names)
	for _, name := range names {
		n := byName[name]
		kind := "class"
		if n.IsInterface() {
			kind = "interface"
		}
		fmt.Printf("%s %s", kind, name)
		if sup := n.SuperclassRef(); sup != nil {
			fmt.Printf(" extends %s", sup.CanonicalName())
		}
		if ifaces := n.SuperinterfaceRefs(); len(ifaces) > 0 {
			fmt.Print(" implements")
			for _, i := range ifaces {
				fmt.Printf(" %s", i.CanonicalName())
			}
		}
		fmt.Println()
	}
}
