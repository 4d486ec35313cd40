package semantic

import (
	"fmt"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/builtin"
	"github.com/enthyp/tc/internal/cerrors"
)

type resolverScope struct {
	variables map[string]bool
	functions map[string]bool
}

func newResolverScope() *resolverScope {
	return &resolverScope{variables: map[string]bool{}, functions: map[string]bool{}}
}

// Resolver computes, for every Variable/Call/Assignment use site, the
// number of enclosing scopes to skip to reach its declaring scope
// (ScopeDepth), per spec §4.1. Grounded on original_source's
// resolver.py, carried over almost unchanged: a stack of
// {variable, function} name sets, with scopes pushed by Block and
// FunctionDef and an extra scope wrapping a ForStmt's four parts.
type Resolver struct {
	scopes []*resolverScope
}

// NewResolver creates a Resolver with the global scope seeded with
// the always-in-scope builtin function names.
func NewResolver() *Resolver {
	r := &Resolver{}
	r.reset()
	return r
}

func (r *Resolver) reset() {
	global := newResolverScope()
	for _, name := range builtin.Names {
		global.functions[name] = true
	}
	r.scopes = []*resolverScope{global}
}

// Name implements Pass.
func (r *Resolver) Name() string { return "resolver" }

// Run implements Pass.
func (r *Resolver) Run(program *ast.Program, ctx *PassContext) error {
	r.reset()
	for _, stmt := range program.Statements {
		r.visit(stmt, ctx)
	}
	return nil
}

func (r *Resolver) pushScope() { r.scopes = append(r.scopes, newResolverScope()) }
func (r *Resolver) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) define(name, kind string) {
	top := r.scopes[len(r.scopes)-1]
	switch kind {
	case "variable":
		top.variables[name] = true
	case "function":
		top.functions[name] = true
	}
}

// resolve returns the number of enclosing scopes to skip (0 = current
// scope) to find name declared as kind, or ok=false if unresolved.
func (r *Resolver) resolve(name, kind string) (int, bool) {
	for i := 0; i < len(r.scopes); i++ {
		scope := r.scopes[len(r.scopes)-1-i]
		set := scope.variables
		if kind == "function" {
			set = scope.functions
		}
		if set[name] {
			return i, true
		}
	}
	return -1, false
}

func (r *Resolver) unresolved(name, kind string, pos ast.Node, ctx *PassContext) {
	msg := fmt.Sprintf("unresolved %s %q", kind, name)
	ctx.AddError(cerrors.New(cerrors.Resolution, pos.Pos(), msg, ctx.Source, ctx.File))
}

func (r *Resolver) visit(n ast.Node, ctx *PassContext) {
	switch node := n.(type) {
	case *ast.Block:
		r.pushScope()
		for _, s := range node.Statements {
			r.visit(s, ctx)
		}
		r.popScope()

	case *ast.FunctionDef:
		r.define(node.Name, "function")

		r.pushScope()
		for _, p := range node.Parameters {
			r.define(p.Name, "variable")
		}
		r.visit(node.Body, ctx)
		r.popScope()

	case *ast.VariableDeclaration:
		if node.Value != nil {
			r.visit(node.Value, ctx)
		}
		r.define(node.Name, "variable")

	case *ast.Assignment:
		if depth, ok := r.resolve(node.Name, "variable"); ok {
			node.ScopeDepth = depth
		} else {
			r.unresolved(node.Name, "variable", node, ctx)
		}
		r.visit(node.Value, ctx)

	case *ast.PrintStmt:
		r.visit(node.Expr, ctx)

	case *ast.AssertStmt:
		r.visit(node.Expr, ctx)

	case *ast.ReturnStmt:
		if node.Expr != nil {
			r.visit(node.Expr, ctx)
		}

	case *ast.IfStmt:
		r.visit(node.Condition, ctx)
		r.visit(node.Body, ctx)

	case *ast.WhileStmt:
		r.visit(node.Condition, ctx)
		r.visit(node.Body, ctx)

	case *ast.ForStmt:
		r.pushScope()
		r.visit(node.Initializer, ctx)
		r.visit(node.Condition, ctx)
		r.visit(node.Body, ctx)
		r.visit(node.Increment, ctx)
		r.popScope()

	case *ast.BinaryExpr:
		r.visit(node.Left, ctx)
		r.visit(node.Right, ctx)

	case *ast.UnaryExpr:
		r.visit(node.Expr, ctx)

	case *ast.Call:
		if depth, ok := r.resolve(node.Name, "function"); ok {
			node.ScopeDepth = depth
		} else {
			r.unresolved(node.Name, "function", node, ctx)
		}
		for _, a := range node.Args {
			r.visit(a, ctx)
		}

	case *ast.Variable:
		if depth, ok := r.resolve(node.Name, "variable"); ok {
			node.ScopeDepth = depth
		} else {
			r.unresolved(node.Name, "variable", node, ctx)
		}

	case *ast.Literal:
		// nothing to resolve

	default:
		// unreachable for a closed node set
	}
}
