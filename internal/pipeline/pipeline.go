// Package pipeline wires together every stage of spec §2's diagram —
// lexer, parser, resolver, type checker, dataflow engine, the three
// optimizers and the evaluator — behind a single Interpreter, the way
// funvibe-funxy's internal/pipeline.Pipeline composes Processors behind
// one Run call. Grounded on go-dws's cmd/dwscript/cmd/run.go for the
// stage ordering and on original_source's Interpreter.run()/reset() for
// the per-run reset contract (spec §5).
package pipeline

import (
	"io"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/cerrors"
	"github.com/enthyp/tc/internal/config"
	"github.com/enthyp/tc/internal/dataflow"
	"github.com/enthyp/tc/internal/interp"
	"github.com/enthyp/tc/internal/lexer"
	"github.com/enthyp/tc/internal/optimize"
	"github.com/enthyp/tc/internal/parser"
	"github.com/enthyp/tc/internal/semantic"
)

// Result is everything produced by one Interpreter.Run: the parsed (and
// possibly optimized) program plus every diagnostic collected across
// every stage, in the order stages ran.
type Result struct {
	Program     *ast.Program
	Diagnostics []*cerrors.Diagnostic
	// Ran reports whether the evaluator actually executed. It is false
	// when a resolution or type error stopped the pipeline before
	// evaluation (spec §7: resolution/type errors are fatal for the
	// current run). Syntax errors alone do not stop it: the statements
	// that parsed are still checked and run.
	Ran bool
}

// HasErrors reports whether the run produced any diagnostic.
func (r *Result) HasErrors() bool { return len(r.Diagnostics) > 0 }

// Interpreter runs the full pipeline over one source at a time. Every
// field is read-only configuration; all per-run state (environments,
// dataflow tables, caches) is allocated fresh inside Run, so a single
// Interpreter is safe to reuse — and required to produce identical
// results — across repeated runs (spec §5, §8 determinism property).
type Interpreter struct {
	out io.Writer
	cfg *config.Config
}

// New creates an Interpreter that writes print output to out under cfg.
// A nil cfg falls back to config.Default().
func New(out io.Writer, cfg *config.Config) *Interpreter {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Interpreter{out: out, cfg: cfg}
}

// Run lexes, parses, resolves, type-checks, optionally optimizes, and
// evaluates source. It never panics on a malformed program: every
// error kind in spec §7 surfaces as a Diagnostic in the returned
// Result rather than a Go error, except for a bug in the pipeline
// itself (spec §7 kind 5, "optimizer-internal"), which aborts cleanly
// with a non-nil error instead of returning possibly-altered code.
func (ip *Interpreter) Run(source, file string) (*Result, error) {
	l := lexer.New(source)
	p := parser.New(l, source, file)
	program := p.ParseProgram()

	result := &Result{Program: program}
	result.Diagnostics = append(result.Diagnostics, p.Errors()...)

	ctx := semantic.NewPassContext(source, file)
	pm := semantic.NewPassManager(semantic.NewResolver(), semantic.NewTypeChecker())
	if err := pm.RunAll(program, ctx); err != nil {
		return result, err
	}
	result.Diagnostics = append(result.Diagnostics, ctx.Diagnostics...)
	if ctx.HasCriticalErrors() {
		return result, nil
	}

	gk := dataflow.NewGenKillBuilder()
	gk.Run(program.Statements)
	io := dataflow.NewInOutBuilder(gk.Gen, gk.Kill)
	io.Run(program.Statements)

	if ip.cfg.OptimizeEnabled() {
		optimize.NewRedundancyOptimizer(gk.VarDefs(), io.In).Run(program)
		optimize.NewDAGOptimizer(gk.VarDefs(), io.In).Run(program)
		optimize.NewAlgebraicOptimizer().Run(program)
	}

	ev := interp.NewEvaluator(ip.out, source, file)
	result.Ran = true
	if err := ev.Run(program); err != nil {
		if diag, ok := err.(*cerrors.Diagnostic); ok {
			result.Diagnostics = append(result.Diagnostics, diag)
		} else {
			return result, err
		}
	}

	return result, nil
}
