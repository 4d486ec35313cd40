package dataflow

import "github.com/enthyp/tc/internal/ast"

// InOutBuilder computes, for every node, the set of definitions
// reaching its entry (IN) and exit (OUT), given precomputed GEN/KILL.
// IN is what later passes (redundancy elimination, DAG fingerprinting)
// actually consume: it is the set of use-def reaching definitions at a
// use site. Grounded on original_source's InOutBuilder, implementing
// spec §4.4.2 exactly, one bottom-up traversal with no fixpoint
// iteration over back edges — While/For fold the back edge into the
// condition's IN directly instead.
type InOutBuilder struct {
	gen, kill map[ast.NodeID]Set

	In  map[ast.NodeID]Set
	Out map[ast.NodeID]Set
}

// NewInOutBuilder creates a builder over a previously computed GEN/KILL.
func NewInOutBuilder(gen, kill map[ast.NodeID]Set) *InOutBuilder {
	return &InOutBuilder{
		gen: gen, kill: kill,
		In:  make(map[ast.NodeID]Set),
		Out: make(map[ast.NodeID]Set),
	}
}

// Run seeds IN at TOP with the empty set and propagates it through statements.
func (b *InOutBuilder) Run(statements []ast.Stmt) (in, out map[ast.NodeID]Set) {
	b.In[TOP] = Set{}
	b.Out[TOP] = b.visitStatements(stmtsAsNodes(statements), b.In[TOP])
	return b.In, b.Out
}

// visitStatements threads in_set through a straight-line sequence,
// returning the OUT of the last element (or in_set itself if empty).
func (b *InOutBuilder) visitStatements(nodes []ast.Node, inSet Set) Set {
	if len(nodes) == 0 {
		return inSet
	}

	b.In[nodes[0].ID()] = inSet
	for i := 0; i < len(nodes)-1; i++ {
		b.visit(nodes[i])
		b.In[nodes[i+1].ID()] = b.Out[nodes[i].ID()]
	}
	b.visit(nodes[len(nodes)-1])
	return b.Out[nodes[len(nodes)-1].ID()]
}

// transfer applies the classic reaching-definitions equation.
func (b *InOutBuilder) transfer(id ast.NodeID) {
	b.Out[id] = b.gen[id].Union(b.In[id].Sub(b.kill[id]))
}

func (b *InOutBuilder) visit(n ast.Node) {
	switch node := n.(type) {
	case *ast.Block:
		b.visitStatements(stmtsAsNodes(node.Statements), b.In[node.ID()])
		b.transfer(node.ID())

	case *ast.FunctionDef:
		b.In[node.Body.ID()] = b.In[node.ID()]
		b.visit(node.Body)
		b.transfer(node.ID())

	case *ast.VariableDeclaration:
		if node.Value != nil {
			b.In[node.Value.ID()] = b.In[node.ID()]
			b.visit(node.Value)
		}
		b.transfer(node.ID())

	case *ast.Assignment:
		b.In[node.Value.ID()] = b.In[node.ID()]
		b.visit(node.Value)
		b.transfer(node.ID())

	case *ast.PrintStmt:
		b.In[node.Expr.ID()] = b.In[node.ID()]
		b.visit(node.Expr)
		b.transfer(node.ID())

	case *ast.AssertStmt:
		b.In[node.Expr.ID()] = b.In[node.ID()]
		b.visit(node.Expr)
		b.transfer(node.ID())

	case *ast.ReturnStmt:
		if node.Expr != nil {
			b.In[node.Expr.ID()] = b.In[node.ID()]
			b.visit(node.Expr)
		}
		b.transfer(node.ID())

	case *ast.IfStmt:
		b.In[node.Condition.ID()] = b.In[node.ID()]
		b.visit(node.Condition)

		b.In[node.Body.ID()] = b.Out[node.Condition.ID()]
		b.visit(node.Body)
		b.Out[node.ID()] = b.Out[node.Condition.ID()].Union(b.Out[node.Body.ID()])

	case *ast.WhileStmt:
		// Back-edge modeled in one shot: the condition can also be
		// reached with whatever the body generates on a later iteration.
		b.In[node.Condition.ID()] = b.In[node.ID()].Union(b.gen[node.Body.ID()])
		b.visit(node.Condition)

		b.In[node.Body.ID()] = b.Out[node.Condition.ID()]
		b.visit(node.Body)
		b.Out[node.ID()] = b.Out[node.Condition.ID()].Union(b.Out[node.Body.ID()])

	case *ast.ForStmt:
		b.In[node.Initializer.ID()] = b.In[node.ID()]
		b.visit(node.Initializer)

		b.In[node.Condition.ID()] = b.Out[node.Initializer.ID()].Union(b.gen[node.Increment.ID()])
		b.visit(node.Condition)

		b.In[node.Body.ID()] = b.Out[node.Condition.ID()]
		b.visit(node.Body)

		b.In[node.Increment.ID()] = b.Out[node.Body.ID()]
		b.visit(node.Increment)

		b.Out[node.ID()] = b.Out[node.Condition.ID()].Union(b.Out[node.Body.ID()])

	case *ast.BinaryExpr:
		b.Out[node.ID()] = b.visitStatements([]ast.Node{node.Left, node.Right}, b.In[node.ID()])

	case *ast.UnaryExpr:
		b.In[node.Expr.ID()] = b.In[node.ID()]
		b.visit(node.Expr)
		b.transfer(node.ID())

	case *ast.Call:
		b.visitStatements(exprsAsNodes(node.Args), b.In[node.ID()])
		b.transfer(node.ID())

	case *ast.Variable:
		b.transfer(node.ID())

	case *ast.Literal:
		b.transfer(node.ID())

	default:
		// unreachable for a closed node set
	}
}
