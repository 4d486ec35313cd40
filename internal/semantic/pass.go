// Package semantic holds the Resolver and Type Checker passes, run in
// that order before the dataflow engine. The Pass/PassManager
// abstraction is adapted from go-dws's internal/semantic package,
// trimmed to the two passes this language needs.
package semantic

import (
	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/cerrors"
)

// Pass represents a single semantic analysis pass over a Program.
type Pass interface {
	// Name returns the pass's name for logging and diagnostics.
	Name() string

	// Run executes this pass, annotating the AST in place and
	// recording any diagnostics on ctx. It returns an error only for
	// fatal internal failures, never for ordinary semantic errors.
	Run(program *ast.Program, ctx *PassContext) error
}

// PassContext is shared state threaded through every pass in a run.
type PassContext struct {
	Source      string
	File        string
	Diagnostics []*cerrors.Diagnostic
}

// NewPassContext creates an empty context for one pipeline run.
func NewPassContext(source, file string) *PassContext {
	return &PassContext{Source: source, File: file}
}

// AddError records a diagnostic produced by a pass.
func (ctx *PassContext) AddError(d *cerrors.Diagnostic) {
	ctx.Diagnostics = append(ctx.Diagnostics, d)
}

// HasCriticalErrors reports whether any pass has recorded a diagnostic.
// Resolution and type errors are both fatal for the current run (§7),
// so any diagnostic here stops the pipeline before the evaluator runs.
func (ctx *PassContext) HasCriticalErrors() bool {
	return len(ctx.Diagnostics) > 0
}

// PassManager runs a fixed sequence of passes, short-circuiting once a
// pass records a critical error.
type PassManager struct {
	passes []Pass
}

// NewPassManager creates a manager that runs passes in the given order.
func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{passes: passes}
}

// RunAll executes every pass in order, stopping early if a pass
// reports a fatal internal error or the context accumulates a
// critical diagnostic.
func (pm *PassManager) RunAll(program *ast.Program, ctx *PassContext) error {
	for _, pass := range pm.passes {
		if err := pass.Run(program, ctx); err != nil {
			return err
		}
		if ctx.HasCriticalErrors() {
			break
		}
	}
	return nil
}

// AddPass appends a pass to the end of the manager's sequence.
func (pm *PassManager) AddPass(pass Pass) { pm.passes = append(pm.passes, pass) }

// Passes returns the registered passes in execution order.
func (pm *PassManager) Passes() []Pass { return pm.passes }
