package dataflow

import (
	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/builtin"
)

// TOP is the synthetic node identity at which IN/OUT are seeded for a
// top-level statement list. NodeID 0 is never handed out by ast.Arena
// (which starts at 1), so it is safe to use as a sentinel here.
const TOP ast.NodeID = 0

type funcSets struct{ gen, kill Set }

// GenKillBuilder computes, for every node in a program, the set of
// variable definitions that reach its exit (gen) and the set of
// definitions anywhere in the program invalidated by a redefinition
// inside it (kill). Grounded on original_source's GenKillBuilder,
// implementing spec §4.4.1 exactly, including its documented
// over-approximations for Block (KILL = ∅) and If (straight-line).
type GenKillBuilder struct {
	varDefs *VarDefs
	scopes  []map[string]funcSets

	Gen  map[ast.NodeID]Set
	Kill map[ast.NodeID]Set
}

// NewGenKillBuilder creates a builder ready to run over statements.
func NewGenKillBuilder() *GenKillBuilder {
	b := &GenKillBuilder{}
	b.reset()
	return b
}

func (b *GenKillBuilder) reset() {
	b.scopes = []map[string]funcSets{{}}
	b.Gen = make(map[ast.NodeID]Set)
	b.Kill = make(map[ast.NodeID]Set)
	for _, name := range builtin.Names {
		b.scopes[0][name] = funcSets{gen: Set{}, kill: Set{}}
	}
}

func (b *GenKillBuilder) pushScope() { b.scopes = append(b.scopes, map[string]funcSets{}) }
func (b *GenKillBuilder) popScope()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *GenKillBuilder) resolveFunc(name string) funcSets {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if fs, ok := b.scopes[i][name]; ok {
			return fs
		}
	}
	// An unresolved call target is a resolution-time error caught
	// earlier in the pipeline; treat defensively as a no-op here.
	return funcSets{gen: Set{}, kill: Set{}}
}

// Run computes GEN/KILL for every node reachable from statements and
// returns the composed GEN/KILL of the whole program (the TOP node).
func (b *GenKillBuilder) Run(statements []ast.Stmt) (gen, kill Set) {
	b.varDefs = locateVarDefs(statements)
	gen, kill = b.visitStatements(stmtsAsNodes(statements))
	b.Gen[TOP], b.Kill[TOP] = gen, kill
	return gen, kill
}

// VarDefs returns the var_defs table built by the most recent Run,
// mapping every variable name to its definitions program-wide. Later
// passes (the redundancy optimizer's use-def follower, the
// expression-DAG optimizer's fingerprinting) need this same table to
// interpret IN/OUT set membership by name.
func (b *GenKillBuilder) VarDefs() *VarDefs { return b.varDefs }

// visitStatements composes GEN/KILL for a straight-line sequence. It
// takes ast.Node rather than ast.Stmt so the same composition logic
// also serves expression lists (Call args, BinaryExpr operands) and
// (condition, body) pairs, matching the source's reuse of
// visit_statements for all of these.
func (b *GenKillBuilder) visitStatements(nodes []ast.Node) (Set, Set) {
	gen, kill := Set{}, Set{}
	if len(nodes) == 0 {
		return gen, kill
	}

	b.visit(nodes[0])
	gen = gen.Union(b.Gen[nodes[0].ID()])
	kill = kill.Union(b.Kill[nodes[0].ID()])

	for _, n := range nodes[1:] {
		b.visit(n)
		gen = gen.Sub(b.Kill[n.ID()]).Union(b.Gen[n.ID()])
		kill = kill.Sub(b.Gen[n.ID()]).Union(b.Kill[n.ID()])
	}
	return gen, kill
}

func (b *GenKillBuilder) carry(id ast.NodeID, src ast.Node) {
	b.visit(src)
	b.Gen[id] = b.Gen[src.ID()]
	b.Kill[id] = b.Kill[src.ID()]
}

// visit dispatches on concrete node type, the Go analogue of the
// source's reflection-based visitor (exhaustive type switch, no
// reflection).
func (b *GenKillBuilder) visit(n ast.Node) {
	switch node := n.(type) {
	case *ast.Block:
		b.pushScope()
		gen, _ := b.visitStatements(stmtsAsNodes(node.Statements))
		b.popScope()
		b.Gen[node.ID()] = gen
		b.Kill[node.ID()] = Set{} // deliberate over-approximation, see spec §4.4.1

	case *ast.FunctionDef:
		b.visit(node.Body)
		b.Gen[node.ID()] = Set{}
		b.Kill[node.ID()] = Set{}

		params := make(map[string]bool, len(node.Parameters))
		for _, p := range node.Parameters {
			params[p.Name] = true
		}
		fGen := Set{}
		for id := range b.Gen[node.Body.ID()] {
			if !params[b.varDefs.NameOf(id)] {
				fGen.Add(id)
			}
		}
		fKill := Set{}
		for id := range b.Kill[node.Body.ID()] {
			if !params[b.varDefs.NameOf(id)] {
				fKill.Add(id)
			}
		}
		b.scopes[len(b.scopes)-1][node.Name] = funcSets{gen: fGen, kill: fKill}

	case *ast.VariableDeclaration:
		if node.Value != nil {
			b.visit(node.Value)
			b.Gen[node.ID()] = NewSet(node.ID()).Union(b.Gen[node.Value.ID()].Sub(b.varDefs.Of(node.Name)))
			b.Kill[node.ID()] = b.varDefs.Of(node.Name).Union(b.Kill[node.Value.ID()]).Sub(NewSet(node.ID()))
		} else {
			b.Gen[node.ID()] = NewSet(node.ID())
			b.Kill[node.ID()] = b.varDefs.Of(node.Name).Sub(NewSet(node.ID()))
		}

	case *ast.Assignment:
		b.visit(node.Value)
		b.Gen[node.ID()] = NewSet(node.ID()).Union(b.Gen[node.Value.ID()].Sub(b.varDefs.Of(node.Name)))
		b.Kill[node.ID()] = b.varDefs.Of(node.Name).Union(b.Kill[node.Value.ID()]).Sub(NewSet(node.ID()))

	case *ast.PrintStmt:
		b.carry(node.ID(), node.Expr)

	case *ast.AssertStmt:
		b.carry(node.ID(), node.Expr)

	case *ast.ReturnStmt:
		if node.Expr != nil {
			b.carry(node.ID(), node.Expr)
		} else {
			b.Gen[node.ID()] = Set{}
			b.Kill[node.ID()] = Set{}
		}

	case *ast.IfStmt:
		gen, kill := b.visitStatements([]ast.Node{node.Condition, node.Body})
		b.Gen[node.ID()] = gen
		b.Kill[node.ID()] = kill

	case *ast.WhileStmt:
		b.visit(node.Condition)
		b.visit(node.Body)
		b.Gen[node.ID()] = b.Gen[node.Condition.ID()].Union(b.Gen[node.Body.ID()])
		b.Kill[node.ID()] = b.Kill[node.Condition.ID()].Intersect(b.Kill[node.Body.ID()])

	case *ast.ForStmt:
		b.visit(node.Initializer)
		b.visit(node.Condition)
		b.visit(node.Increment)
		b.visit(node.Body)

		gen := b.Gen[node.Initializer.ID()].Sub(b.Kill[node.Condition.ID()])
		gen = gen.Union(b.Gen[node.Body.ID()]).Union(b.Gen[node.Increment.ID()])

		kill := b.Kill[node.Initializer.ID()].Sub(
			b.Gen[node.Condition.ID()].Union(b.Gen[node.Body.ID()]).Union(b.Gen[node.Increment.ID()]),
		)

		b.Gen[node.ID()] = gen
		b.Kill[node.ID()] = kill

	case *ast.BinaryExpr:
		gen, kill := b.visitStatements([]ast.Node{node.Left, node.Right})
		b.Gen[node.ID()] = gen
		b.Kill[node.ID()] = kill

	case *ast.UnaryExpr:
		b.carry(node.ID(), node.Expr)

	case *ast.Call:
		gen, kill := b.visitStatements(exprsAsNodes(node.Args))
		fs := b.resolveFunc(node.Name)
		b.Gen[node.ID()] = fs.gen.Union(gen.Sub(fs.kill))
		b.Kill[node.ID()] = fs.kill.Union(kill.Sub(fs.gen))

	case *ast.Variable:
		b.Gen[node.ID()] = Set{}
		b.Kill[node.ID()] = Set{}

	case *ast.Literal:
		b.Gen[node.ID()] = Set{}
		b.Kill[node.ID()] = Set{}

	default:
		// unreachable for a closed node set
	}
}

func stmtsAsNodes(stmts []ast.Stmt) []ast.Node {
	out := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out
}

func exprsAsNodes(exprs []ast.Expr) []ast.Node {
	out := make([]ast.Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
