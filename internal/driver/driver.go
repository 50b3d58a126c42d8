// Package driver sequences joosc's passes over a whole program and maps the
// result to an exit code: weed, index, build the hierarchy, resolve names,
// typecheck, analyze (reachability/definite-assignment/constant folding),
// lower to IR, and finally emit assembly. It stops at the first pass that
// reports an error, per spec.md's fixed exit-code contract.
//
// Grounded on go-dws/internal/semantic's Pass/PassManager: a Pass is a named
// step over the whole program sharing one mutable context, run in sequence
// by a PassManager that stops early once the context holds a fatal error.
// joosc's passes don't share go-dws's single Run(program, ctx) signature
// (each of this repo's existing package entrypoints already has its own,
// more specific signature — index.Build, hierarchy.Build, and so on), so
// each Pass here is a small adapter closing over the package function it
// calls, rather than every pass re-implementing a common interface method
// body.
package driver

import (
	"github.com/cs444-joos/joosc/internal/analysis"
	"github.com/cs444-joos/joosc/internal/ast"
	"github.com/cs444-joos/joosc/internal/codegen"
	"github.com/cs444-joos/joosc/internal/diag"
	"github.com/cs444-joos/joosc/internal/hierarchy"
	"github.com/cs444-joos/joosc/internal/index"
	"github.com/cs444-joos/joosc/internal/ir"
	"github.com/cs444-joos/joosc/internal/resolve"
	"github.com/cs444-joos/joosc/internal/typecheck"
	"github.com/cs444-joos/joosc/internal/weeder"
)

// Options controls the passes that have more than one legal behavior.
type Options struct {
	// Opt selects the --opt register allocator (linear scan) over the
	// --opt-none default (one stack slot per temporary).
	Opt bool
}

// Context is the PassManager's shared state: the diagnostics list every
// pass appends to, plus each pass's output the next pass down the pipeline
// needs.
type Context struct {
	Diags   diag.List
	Global  *index.Global
	Graph   *hierarchy.Graph
	Layouts *ir.Layouts
	IR      *ir.Program
	Units   []codegen.Unit
}

// Pass is one named step of the pipeline.
type Pass interface {
	Name() string
	Run(program *ast.Program, ctx *Context, opts Options)
}

// PassManager runs its passes in order, stopping as soon as the context
// holds an error (mirroring go-dws's PassManager.RunAll "stop on critical
// error" rule — every joosc pass's errors are critical, since typecheck,
// analysis, and lowering all assume every earlier pass fully succeeded).
type PassManager struct {
	passes []Pass
}

func NewPassManager(passes ...Pass) *PassManager { return &PassManager{passes: passes} }

func (pm *PassManager) RunAll(program *ast.Program, ctx *Context, opts Options) {
	for _, p := range pm.passes {
		p.Run(program, ctx, opts)
		if ctx.Diags.HasErrors() {
			return
		}
	}
}

type weedPass struct{}

func (weedPass) Name() string { return "weed" }
func (weedPass) Run(program *ast.Program, ctx *Context, _ Options) {
	for _, cu := range program.Units {
		weeder.Weed(cu, &ctx.Diags)
	}
}

type indexPass struct{}

func (indexPass) Name() string { return "index" }
func (indexPass) Run(program *ast.Program, ctx *Context, _ Options) {
	ctx.Global = index.Build(program, &ctx.Diags)
}

type hierarchyPass struct{}

func (hierarchyPass) Name() string { return "hierarchy" }
func (hierarchyPass) Run(program *ast.Program, ctx *Context, _ Options) {
	ctx.Graph = hierarchy.Build(program, ctx.Global, &ctx.Diags)
}

type resolvePass struct{}

func (resolvePass) Name() string { return "resolve" }
func (resolvePass) Run(program *ast.Program, ctx *Context, _ Options) {
	resolve.Resolve(program, ctx.Global, ctx.Graph, &ctx.Diags)
}

type typecheckPass struct{}

func (typecheckPass) Name() string { return "typecheck" }
func (typecheckPass) Run(program *ast.Program, ctx *Context, _ Options) {
	typecheck.Check(program, ctx.Global, ctx.Graph, &ctx.Diags)
}

type analysisPass struct{}

func (analysisPass) Name() string { return "analysis" }
func (analysisPass) Run(program *ast.Program, ctx *Context, _ Options) {
	analysis.Analyze(program, &ctx.Diags)
}

type lowerPass struct{}

func (lowerPass) Name() string { return "ir" }
func (lowerPass) Run(program *ast.Program, ctx *Context, _ Options) {
	entryClass, entrySig, err := FindEntryPoint(program)
	if err != nil {
		ctx.Diags.Addf(diag.KindEnvironment, sourceOf(program), "%s", err.Error())
		return
	}
	ctx.Layouts = ir.BuildLayouts(ctx.Graph, ctx.Graph.Nodes())
	ctx.IR = ir.Lower(program, ctx.Graph, ctx.Layouts, entryClass, entrySig)
}

type codegenPass struct{}

func (codegenPass) Name() string { return "codegen" }
func (codegenPass) Run(_ *ast.Program, ctx *Context, opts Options) {
	var alloc codegen.Allocator
	if opts.Opt {
		alloc = codegen.NewLinearScanAllocator()
	} else {
		alloc = codegen.NewTrivialAllocator()
	}
	ctx.Units = codegen.EmitProgram(ctx.IR, alloc)
}

// DefaultPasses is the full build pipeline, in spec.md's pass order.
func DefaultPasses() []Pass {
	return []Pass{
		weedPass{}, indexPass{}, hierarchyPass{}, resolvePass{},
		typecheckPass{}, analysisPass{}, lowerPass{}, codegenPass{},
	}
}

// Compile runs the full pipeline and returns the populated Context; check
// ctx.Diags before trusting ctx.Units.
func Compile(program *ast.Program, opts Options) *Context {
	ctx := &Context{}
	NewPassManager(DefaultPasses()...).RunAll(program, ctx, opts)
	return ctx
}

// ExitCode maps a completed compilation's diagnostics to joosc's contract:
// 0 clean, 42 a front-end error, 43 warnings only, 13 an internal error
// (spec.md §7).
func ExitCode(diags *diag.List) int {
	if diags.HasErrors() {
		for _, e := range diags.Errors() {
			if e.Kind == diag.KindInternal {
				return diag.ExitInternalError
			}
		}
		return diag.ExitFrontEnd
	}
	if diags.HasWarnings() {
		return diag.ExitWarning
	}
	return diag.ExitSuccess
}
