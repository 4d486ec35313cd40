package optimize

import "github.com/enthyp/tc/internal/ast"

// AlgebraicOptimizer implements spec §4.7: bottom-up neutral-element
// simplification, run once after expression-DAG sharing so folded
// subtrees are simplified too. Grounded on original_source's algebraic
// pass; the rule set is intentionally narrow (literal neutral elements
// only, no general constant folding).
type AlgebraicOptimizer struct{}

// NewAlgebraicOptimizer creates an optimizer; it carries no state
// between runs.
func NewAlgebraicOptimizer() *AlgebraicOptimizer { return &AlgebraicOptimizer{} }

// Run rewrites every expression-bearing field of program.Statements in
// place.
func (o *AlgebraicOptimizer) Run(program *ast.Program) {
	o.visitStmts(program.Statements)
}

func (o *AlgebraicOptimizer) visitStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		o.visitStmt(s)
	}
}

func (o *AlgebraicOptimizer) visitStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		o.visitStmts(st.Statements)
	case *ast.FunctionDef:
		o.visitStmts(st.Body.Statements)
	case *ast.VariableDeclaration:
		if st.Value != nil {
			st.Value = o.visit(st.Value)
		}
	case *ast.Assignment:
		st.Value = o.visit(st.Value)
	case *ast.PrintStmt:
		st.Expr = o.visit(st.Expr)
	case *ast.AssertStmt:
		st.Expr = o.visit(st.Expr)
	case *ast.ReturnStmt:
		if st.Expr != nil {
			st.Expr = o.visit(st.Expr)
		}
	case *ast.IfStmt:
		st.Condition = o.visit(st.Condition)
		o.visitStmt(st.Body)
	case *ast.WhileStmt:
		st.Condition = o.visit(st.Condition)
		o.visitStmt(st.Body)
	case *ast.ForStmt:
		o.visitStmt(st.Initializer)
		st.Condition = o.visit(st.Condition)
		o.visitStmt(st.Increment)
		o.visitStmt(st.Body)
	case *ast.Call:
		for i, a := range st.Args {
			st.Args[i] = o.visit(a)
		}
	}
}

func (o *AlgebraicOptimizer) visit(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		n.Left = o.visit(n.Left)
		n.Right = o.visit(n.Right)
		return o.foldBinary(n)

	case *ast.UnaryExpr:
		n.Expr = o.visit(n.Expr)
		return o.foldUnary(n)

	case *ast.Call:
		for i, a := range n.Args {
			n.Args[i] = o.visit(a)
		}
		return n

	default:
		return e
	}
}

func (o *AlgebraicOptimizer) foldBinary(n *ast.BinaryExpr) ast.Expr {
	switch n.Op {
	case ast.OpAdd:
		if isZero(n.Right) {
			return n.Left
		}
		if isZero(n.Left) {
			return n.Right
		}
	case ast.OpSub:
		if isZero(n.Right) {
			return n.Left
		}
	case ast.OpMul:
		if isOne(n.Right) {
			return n.Left
		}
		if isOne(n.Left) {
			return n.Right
		}
	case ast.OpDiv:
		if isOne(n.Right) {
			return n.Left
		}
	case ast.OpPow:
		if isOne(n.Right) {
			return n.Left
		}
	}
	return n
}

func (o *AlgebraicOptimizer) foldUnary(n *ast.UnaryExpr) ast.Expr {
	if n.Op == ast.OpNeg {
		if isZero(n.Expr) {
			return n.Expr
		}
	}
	return n
}

func isZero(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	if !ok {
		return false
	}
	switch v := l.Value.(type) {
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return false
}

func isOne(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	if !ok {
		return false
	}
	switch v := l.Value.(type) {
	case int64:
		return v == 1
	case float64:
		return v == 1
	}
	return false
}
