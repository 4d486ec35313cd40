// Package optimize implements the three optimization passes that run
// after the dataflow engine (spec §4.5-4.7): redundancy elimination,
// expression-DAG construction, and algebraic simplification. The first
// two consume the var_defs table and IN sets computed by
// internal/dataflow; the algebraic pass needs no dataflow input. All
// three mutate the AST in place, mirroring original_source's optimizer
// package layout.
package optimize

import "github.com/enthyp/tc/internal/ast"

// indexProgram returns every node reachable from statements, keyed by
// its arena NodeID. The redundancy optimizer uses it to turn a
// dataflow.Set of live node identities back into the concrete nodes it
// needs to recurse into when following use-def chains.
func indexProgram(stmts []ast.Stmt) map[ast.NodeID]ast.Node {
	idx := make(map[ast.NodeID]ast.Node)

	var visitExpr func(e ast.Expr)
	var visitStmt func(s ast.Stmt)

	visitExpr = func(e ast.Expr) {
		if e == nil {
			return
		}
		idx[e.ID()] = e
		switch n := e.(type) {
		case *ast.BinaryExpr:
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.UnaryExpr:
			visitExpr(n.Expr)
		case *ast.Call:
			for _, a := range n.Args {
				visitExpr(a)
			}
		}
	}

	visitStmt = func(s ast.Stmt) {
		if s == nil {
			return
		}
		idx[s.ID()] = s
		switch n := s.(type) {
		case *ast.Block:
			for _, st := range n.Statements {
				visitStmt(st)
			}
		case *ast.FunctionDef:
			for _, p := range n.Parameters {
				idx[p.ID()] = p
			}
			visitStmt(n.Body)
		case *ast.VariableDeclaration:
			visitExpr(n.Value)
		case *ast.Assignment:
			visitExpr(n.Value)
		case *ast.PrintStmt:
			visitExpr(n.Expr)
		case *ast.AssertStmt:
			visitExpr(n.Expr)
		case *ast.ReturnStmt:
			visitExpr(n.Expr)
		case *ast.IfStmt:
			visitExpr(n.Condition)
			visitStmt(n.Body)
		case *ast.WhileStmt:
			visitExpr(n.Condition)
			visitStmt(n.Body)
		case *ast.ForStmt:
			visitStmt(n.Initializer)
			visitExpr(n.Condition)
			visitStmt(n.Increment)
			visitStmt(n.Body)
		case *ast.Call:
			for _, a := range n.Args {
				visitExpr(a)
			}
		}
	}

	for _, s := range stmts {
		visitStmt(s)
	}
	return idx
}

// buildCallTargets resolves every Call node in the program to the
// NodeID of the FunctionDef it invokes, replaying the identical
// lexical-scoping discipline as semantic.Resolver (nearest enclosing
// definition wins, a Block/FunctionDef/ForStmt opens a new scope).
// Calls to builtins have no entry in the result.
func buildCallTargets(stmts []ast.Stmt) map[ast.NodeID]ast.NodeID {
	targets := make(map[ast.NodeID]ast.NodeID)
	scopes := []map[string]ast.NodeID{{}}

	push := func() { scopes = append(scopes, map[string]ast.NodeID{}) }
	pop := func() { scopes = scopes[:len(scopes)-1] }
	define := func(name string, id ast.NodeID) { scopes[len(scopes)-1][name] = id }
	resolve := func(name string) (ast.NodeID, bool) {
		for i := len(scopes) - 1; i >= 0; i-- {
			if id, ok := scopes[i][name]; ok {
				return id, true
			}
		}
		return 0, false
	}

	var visitExpr func(e ast.Expr)
	var visitStmt func(s ast.Stmt)

	visitExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.BinaryExpr:
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.UnaryExpr:
			visitExpr(n.Expr)
		case *ast.Call:
			if id, ok := resolve(n.Name); ok {
				targets[n.ID()] = id
			}
			for _, a := range n.Args {
				visitExpr(a)
			}
		}
	}

	visitStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Block:
			push()
			for _, st := range n.Statements {
				visitStmt(st)
			}
			pop()
		case *ast.FunctionDef:
			define(n.Name, n.ID())
			visitStmt(n.Body) // Body is a *ast.Block; it opens its own scope.
		case *ast.VariableDeclaration:
			if n.Value != nil {
				visitExpr(n.Value)
			}
		case *ast.Assignment:
			visitExpr(n.Value)
		case *ast.PrintStmt:
			visitExpr(n.Expr)
		case *ast.AssertStmt:
			visitExpr(n.Expr)
		case *ast.ReturnStmt:
			if n.Expr != nil {
				visitExpr(n.Expr)
			}
		case *ast.IfStmt:
			visitExpr(n.Condition)
			visitStmt(n.Body)
		case *ast.WhileStmt:
			visitExpr(n.Condition)
			visitStmt(n.Body)
		case *ast.ForStmt:
			push()
			visitStmt(n.Initializer)
			visitExpr(n.Condition)
			visitStmt(n.Body)
			visitStmt(n.Increment)
			pop()
		case *ast.Call:
			if id, ok := resolve(n.Name); ok {
				targets[n.ID()] = id
			}
			for _, a := range n.Args {
				visitExpr(a)
			}
		}
	}

	for _, s := range stmts {
		visitStmt(s)
	}
	return targets
}
