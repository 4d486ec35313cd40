package optimize_test

import (
	"testing"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/dataflow"
	"github.com/enthyp/tc/internal/lexer"
	"github.com/enthyp/tc/internal/optimize"
	"github.com/enthyp/tc/internal/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src), src, "test")
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return prog
}

func runDataflow(t *testing.T, prog *ast.Program) (*dataflow.VarDefs, map[ast.NodeID]dataflow.Set) {
	t.Helper()
	gk := dataflow.NewGenKillBuilder()
	gk.Run(prog.Statements)
	io := dataflow.NewInOutBuilder(gk.Gen, gk.Kill)
	io.Run(prog.Statements)
	return gk.VarDefs(), io.In
}

func TestRedundancyPrunesUnusedLocal(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
var y: int = 2;
print y;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewRedundancyOptimizer(varDefs, in).Run(prog)

	if len(prog.Statements) != 2 {
		t.Fatalf("expected unused x-declaration to be pruned, got %d statements", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.VariableDeclaration); !ok {
		t.Fatalf("expected surviving declaration for y, got %T", prog.Statements[0])
	}
}

func TestRedundancyKeepsLoopFeedingLiveAssignment(t *testing.T) {
	prog := parseProgram(t, `
var i: int = 0;
while (i < 10) {
    i = i + 1;
}
print i;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewRedundancyOptimizer(varDefs, in).Run(prog)

	if len(prog.Statements) != 3 {
		t.Fatalf("expected declaration, while loop and print to survive, got %d statements", len(prog.Statements))
	}
	while, ok := prog.Statements[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected while loop to survive, got %T", prog.Statements[1])
	}
	if len(while.Body.Statements) != 1 {
		t.Fatalf("expected loop body's reassignment to survive pruning")
	}
}

func TestRedundancyDropsDeadLoopLocal(t *testing.T) {
	prog := parseProgram(t, `
var i: int = 0;
while (i < 10) {
    var unused: int = i + 1;
    i = i + 1;
}
print i;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewRedundancyOptimizer(varDefs, in).Run(prog)

	while := prog.Statements[1].(*ast.WhileStmt)
	if len(while.Body.Statements) != 1 {
		t.Fatalf("expected unused local to be pruned from loop body, got %d statements", len(while.Body.Statements))
	}
	if _, ok := while.Body.Statements[0].(*ast.Assignment); !ok {
		t.Fatalf("expected surviving statement to be the reassignment, got %T", while.Body.Statements[0])
	}
}

func TestRedundancyDropsUncalledFunction(t *testing.T) {
	prog := parseProgram(t, `
def unused(): int {
    return 1;
}
print 42;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewRedundancyOptimizer(varDefs, in).Run(prog)

	for _, s := range prog.Statements {
		if _, ok := s.(*ast.FunctionDef); ok {
			t.Fatalf("expected uncalled function with no effective body to be pruned")
		}
	}
}

func TestDAGSharesIdenticalExpressionUnderUniqueReachingDef(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
print x + 1;
print x + 1;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewDAGOptimizer(varDefs, in).Run(prog)

	first := prog.Statements[1].(*ast.PrintStmt).Expr.(*ast.BinaryExpr)
	second := prog.Statements[2].(*ast.PrintStmt).Expr.(*ast.BinaryExpr)

	if second != first {
		t.Fatalf("expected second occurrence to be redirected to the first node")
	}
	if first.Cache == nil {
		t.Fatalf("expected shared node to be marked cacheable")
	}
}

func TestDAGDoesNotShareAcrossReassignment(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
print x + 1;
x = 2;
print x + 1;
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewDAGOptimizer(varDefs, in).Run(prog)

	first := prog.Statements[1].(*ast.PrintStmt).Expr.(*ast.BinaryExpr)
	second := prog.Statements[3].(*ast.PrintStmt).Expr.(*ast.BinaryExpr)

	if second == first {
		t.Fatalf("expected no sharing across a reassignment of x")
	}
}

func TestDAGTreatsCallResultAsOpaque(t *testing.T) {
	prog := parseProgram(t, `
print sin(1);
print sin(1);
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewDAGOptimizer(varDefs, in).Run(prog)

	first := prog.Statements[0].(*ast.PrintStmt).Expr.(*ast.Call)
	second := prog.Statements[1].(*ast.PrintStmt).Expr.(*ast.Call)

	if first == second {
		t.Fatalf("Call results must never be shared")
	}
}

func TestAlgebraicDropsAdditiveZero(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
print x + 0;
`)
	optimize.NewAlgebraicOptimizer().Run(prog)

	printStmt := prog.Statements[1].(*ast.PrintStmt)
	if _, ok := printStmt.Expr.(*ast.Variable); !ok {
		t.Fatalf("expected x + 0 to simplify to the bare variable, got %T", printStmt.Expr)
	}
}

func TestAlgebraicDropsMultiplicativeOne(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
print 1 * x;
`)
	optimize.NewAlgebraicOptimizer().Run(prog)

	printStmt := prog.Statements[1].(*ast.PrintStmt)
	if _, ok := printStmt.Expr.(*ast.Variable); !ok {
		t.Fatalf("expected 1 * x to simplify to the bare variable, got %T", printStmt.Expr)
	}
}

func TestAlgebraicLeavesNonNeutralExpressionAlone(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 1;
print x + 2;
`)
	optimize.NewAlgebraicOptimizer().Run(prog)

	printStmt := prog.Statements[1].(*ast.PrintStmt)
	if _, ok := printStmt.Expr.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected x + 2 to be left as a BinaryExpr, got %T", printStmt.Expr)
	}
}

// TestRedundancyFollowsLoopConditionFeedback exercises spec §4.5 step 4:
// x is read only by the while condition, never downstream of the loop,
// so pure use-def tracing from the print statement alone would prune
// both x's declaration and its increment, changing how many times the
// loop prints.
func TestRedundancyFollowsLoopConditionFeedback(t *testing.T) {
	prog := parseProgram(t, `
var x: int = 0;
while (x < 3) {
    print 1;
    x = x + 1;
}
`)
	varDefs, in := runDataflow(t, prog)
	optimize.NewRedundancyOptimizer(varDefs, in).Run(prog)

	if len(prog.Statements) != 2 {
		t.Fatalf("expected x-declaration and while loop to survive, got %d statements", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.VariableDeclaration); !ok {
		t.Fatalf("expected x's declaration to survive via condition feedback, got %T", prog.Statements[0])
	}
	while := prog.Statements[1].(*ast.WhileStmt)
	if len(while.Body.Statements) != 2 {
		t.Fatalf("expected print and x's increment to both survive, got %d statements", len(while.Body.Statements))
	}
	if _, ok := while.Body.Statements[1].(*ast.Assignment); !ok {
		t.Fatalf("expected x's increment to survive via condition feedback, got %T", while.Body.Statements[1])
	}
}
