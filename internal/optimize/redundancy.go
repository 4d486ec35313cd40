package optimize

import (
	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/dataflow"
)

// funcEffect records, per spec §4.5 step 1, whether a FunctionDef's
// body contains (directly or via callees) an observable effect, and
// the set of node identities inside it ("follow_nodes") that must be
// re-marked live whenever the function is reached through an effective
// call.
type funcEffect struct {
	effective bool
	follow    dataflow.Set
}

// RedundancyOptimizer implements the four cooperating sub-passes of
// spec §4.5: find top-level effective statements, follow their
// use-def chains (through calls and through IN-set reaching
// definitions), extend effectiveness to structural parents, and fold
// in loop/branch condition feedback — then prune every Block's
// statement list down to the surviving set. Grounded on
// original_source's redundancy pass, the canonical four-sub-pass
// version named in spec §9 "ambiguities to not guess" (a).
type RedundancyOptimizer struct {
	varDefs *dataflow.VarDefs
	in      map[ast.NodeID]dataflow.Set

	nodeByID map[ast.NodeID]ast.Node
	callTgt  map[ast.NodeID]ast.NodeID

	funcEffects map[ast.NodeID]funcEffect
	live        dataflow.Set
	visitedDefs dataflow.Set
	visitedFns  dataflow.Set
}

// NewRedundancyOptimizer creates an optimizer over a previously
// computed var_defs table and IN sets (spec §3 dataflow sets).
func NewRedundancyOptimizer(varDefs *dataflow.VarDefs, in map[ast.NodeID]dataflow.Set) *RedundancyOptimizer {
	return &RedundancyOptimizer{varDefs: varDefs, in: in}
}

// Run prunes program.Statements, and the statement list of every
// nested Block, down to the statements spec §4.5 deems effective.
func (o *RedundancyOptimizer) Run(program *ast.Program) {
	o.nodeByID = indexProgram(program.Statements)
	o.callTgt = buildCallTargets(program.Statements)
	o.funcEffects = map[ast.NodeID]funcEffect{}
	o.live = dataflow.Set{}
	o.visitedDefs = dataflow.Set{}
	o.visitedFns = dataflow.Set{}

	seeds := o.scanEffects(program.Statements)
	for id := range seeds {
		o.markLive(id)
	}

	// Step 3 (structural extension): a compound statement survives if
	// any of its descendants does, independent of whether the scan
	// above found a print/assert directly inside it — this is what
	// keeps a loop whose only live statement is a variable reassignment
	// consumed after the loop (spec §8 scenario 4).
	o.extend(program.Statements)

	// Step 4 (follow conditions): every reaching definition of every
	// variable in an effective If/While/For's condition becomes
	// effective too, even when nothing downstream reads that variable
	// again. Without this a loop guard's own feeding declaration could
	// be pruned as dead, changing how many times the loop runs.
	o.followConditions(program.Statements)
	o.extend(program.Statements)

	program.Statements = o.prune(program.Statements)
}

// scanEffects implements step 1: it finds every PrintStmt/AssertStmt,
// every Call whose target is an effective function, and computes
// FunctionDef effectiveness (and its follow_nodes), recursing into
// If/While/For bodies (but not into nested FunctionDef bodies, which
// get their own independent computation). ReturnStmt nodes are
// effective only once the enclosing body is found effective by some
// other means.
func (o *RedundancyOptimizer) scanEffects(stmts []ast.Stmt) dataflow.Set {
	leaves := dataflow.Set{}
	var returns []ast.NodeID

	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.PrintStmt:
			leaves.Add(s.ID())
		case *ast.AssertStmt:
			leaves.Add(s.ID())

		case *ast.ReturnStmt:
			returns = append(returns, s.ID())

		case *ast.Call:
			if target, ok := o.callTgt[s.ID()]; ok {
				if fe, ok2 := o.funcEffects[target]; ok2 && fe.effective {
					leaves.Add(s.ID())
				}
			}

		case *ast.IfStmt:
			leaves = leaves.Union(o.scanEffects(st.Body.Statements))

		case *ast.WhileStmt:
			leaves = leaves.Union(o.scanEffects(st.Body.Statements))

		case *ast.ForStmt:
			leaves = leaves.Union(o.scanEffects(st.Body.Statements))

		case *ast.FunctionDef:
			inner := o.scanEffects(st.Body.Statements)
			eff := inner.Len() > 0
			o.funcEffects[st.ID()] = funcEffect{effective: eff, follow: inner}
			if eff {
				leaves.Add(s.ID())
			}
		}
	}

	if leaves.Len() > 0 {
		for _, rid := range returns {
			leaves.Add(rid)
		}
	}
	return leaves
}

// markLive implements step 2 (use-def chain following) for a single
// node identity already deemed effective, recursively pulling in
// everything it depends on.
func (o *RedundancyOptimizer) markLive(id ast.NodeID) {
	n, ok := o.nodeByID[id]
	if !ok {
		return
	}

	switch node := n.(type) {
	case *ast.PrintStmt:
		o.live.Add(id)
		o.followExpr(node.Expr)

	case *ast.AssertStmt:
		o.live.Add(id)
		o.followExpr(node.Expr)

	case *ast.ReturnStmt:
		o.live.Add(id)
		if node.Expr != nil {
			o.followExpr(node.Expr)
		}

	case *ast.Call:
		o.live.Add(id)
		for _, a := range node.Args {
			o.followExpr(a)
		}
		o.followCall(node)

	case *ast.FunctionDef:
		o.live.Add(id)
		for fid := range o.funcEffects[id].follow {
			o.markLive(fid)
		}

	case *ast.VariableDeclaration:
		o.live.Add(id)
		if node.Value != nil {
			o.followExpr(node.Value)
		}

	case *ast.Assignment:
		o.live.Add(id)
		o.followExpr(node.Value)

	default:
		o.live.Add(id)
	}
}

// followExpr marks e itself live, then recurses: a Variable pulls in
// every reaching definition in[v] matching its name (the heart of
// spec §4.5 step 2 and, for condition expressions, step 4 — there is
// no separate code path for "conditions", they are just another
// expression followed from an effective If/While/For).
func (o *RedundancyOptimizer) followExpr(e ast.Expr) {
	if e == nil {
		return
	}
	o.live.Add(e.ID())

	switch node := e.(type) {
	case *ast.BinaryExpr:
		o.followExpr(node.Left)
		o.followExpr(node.Right)

	case *ast.UnaryExpr:
		o.followExpr(node.Expr)

	case *ast.Call:
		for _, a := range node.Args {
			o.followExpr(a)
		}
		o.followCall(node)

	case *ast.Variable:
		for did := range o.in[node.ID()] {
			if o.varDefs.NameOf(did) != node.Name {
				continue
			}
			if o.visitedDefs.Has(did) {
				continue
			}
			o.visitedDefs.Add(did)
			o.markLive(did)
		}
	}
}

// followCall re-enters an effective callee's body (step 2's "for
// every Call c visited, every node in its target's follow_nodes"),
// guarded by visitedFns so recursive functions terminate.
func (o *RedundancyOptimizer) followCall(call *ast.Call) {
	target, ok := o.callTgt[call.ID()]
	if !ok {
		return
	}
	fe, ok := o.funcEffects[target]
	if !ok || !fe.effective || o.visitedFns.Has(target) {
		return
	}
	o.visitedFns.Add(target)
	for fid := range fe.follow {
		o.markLive(fid)
	}
}

// extend implements step 3: any parent of a live node is itself live.
// It returns whether stmts, taken as a list, contains at least one
// live statement (directly or in a live descendant).
func (o *RedundancyOptimizer) extend(stmts []ast.Stmt) bool {
	any := false
	for _, s := range stmts {
		if o.containsLive(s) {
			any = true
		}
	}
	return any
}

func (o *RedundancyOptimizer) containsLive(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.IfStmt:
		if o.extend(st.Body.Statements) {
			o.live.Add(st.ID())
			return true
		}
		return o.live.Has(st.ID())

	case *ast.WhileStmt:
		if o.extend(st.Body.Statements) {
			o.live.Add(st.ID())
			return true
		}
		return o.live.Has(st.ID())

	case *ast.ForStmt:
		bodyLive := o.extend(st.Body.Statements)
		selfLive := o.live.Has(st.Initializer.ID()) || o.live.Has(st.Increment.ID()) || o.live.Has(st.ID())
		if bodyLive || selfLive {
			o.live.Add(st.ID())
			return true
		}
		return false

	case *ast.FunctionDef:
		if o.extend(st.Body.Statements) {
			o.live.Add(st.ID())
			return true
		}
		return o.live.Has(st.ID())

	default:
		return o.live.Has(s.ID())
	}
}

// followConditions implements step 4: for every effective If/While/For,
// every reaching definition of every variable appearing in its
// condition becomes effective. It recurses into every compound
// statement's body regardless of that statement's own liveness — a
// dead branch's conditions are harmless to follow and get pruned along
// with the branch itself.
func (o *RedundancyOptimizer) followConditions(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.IfStmt:
			if o.live.Has(st.ID()) {
				o.followExpr(st.Condition)
			}
			o.followConditions(st.Body.Statements)
		case *ast.WhileStmt:
			if o.live.Has(st.ID()) {
				o.followExpr(st.Condition)
			}
			o.followConditions(st.Body.Statements)
		case *ast.ForStmt:
			if o.live.Has(st.ID()) {
				o.followExpr(st.Condition)
			}
			o.followConditions(st.Body.Statements)
		case *ast.FunctionDef:
			o.followConditions(st.Body.Statements)
		}
	}
}

// prune rewrites stmts, and recursively the statement list of every
// surviving compound statement's body, keeping only live statements in
// their original order.
func (o *RedundancyOptimizer) prune(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if !o.live.Has(s.ID()) {
			continue
		}
		switch st := s.(type) {
		case *ast.IfStmt:
			st.Body.Statements = o.prune(st.Body.Statements)
		case *ast.WhileStmt:
			st.Body.Statements = o.prune(st.Body.Statements)
		case *ast.ForStmt:
			st.Body.Statements = o.prune(st.Body.Statements)
		case *ast.FunctionDef:
			st.Body.Statements = o.prune(st.Body.Statements)
		}
		out = append(out, s)
	}
	return out
}
