package dataflow

import "github.com/enthyp/tc/internal/ast"

// VarDefs indexes every variable definition (VariableDeclaration or
// Assignment) in a program by the name it defines, plus the reverse
// mapping from a definition's NodeID back to its name. Grounded on
// original_source's VarDefLocator.
type VarDefs struct {
	byName map[string]Set
	names  map[ast.NodeID]string
}

func newVarDefs() *VarDefs {
	return &VarDefs{byName: make(map[string]Set), names: make(map[ast.NodeID]string)}
}

// Of returns the set of all definitions of name in the whole program.
func (v *VarDefs) Of(name string) Set {
	if s, ok := v.byName[name]; ok {
		return s
	}
	return Set{}
}

// NameOf returns the name a definition node binds.
func (v *VarDefs) NameOf(id ast.NodeID) string { return v.names[id] }

func (v *VarDefs) record(name string, id ast.NodeID) {
	if v.byName[name] == nil {
		v.byName[name] = Set{}
	}
	v.byName[name].Add(id)
	v.names[id] = name
}

// locateVarDefs walks statements, collecting every VariableDeclaration
// and Assignment node reachable from them (descending into blocks,
// function bodies, and control-flow bodies), mirroring VarDefLocator.
func locateVarDefs(statements []ast.Stmt) *VarDefs {
	v := newVarDefs()
	var visit func(s ast.Stmt)
	visit = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Block:
			for _, st := range n.Statements {
				visit(st)
			}
		case *ast.FunctionDef:
			visit(n.Body)
		case *ast.VariableDeclaration:
			v.record(n.Name, n.ID())
		case *ast.Assignment:
			v.record(n.Name, n.ID())
		case *ast.IfStmt:
			visit(n.Body)
		case *ast.WhileStmt:
			visit(n.Body)
		case *ast.ForStmt:
			if n.Initializer != nil {
				visit(n.Initializer)
			}
			if n.Increment != nil {
				visit(n.Increment)
			}
			visit(n.Body)
		}
	}
	for _, s := range statements {
		visit(s)
	}
	return v
}
