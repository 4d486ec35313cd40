package parser

import (
	"testing"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src), src, "test")
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return prog
}

func TestParseVariableDeclarationAndPrint(t *testing.T) {
	prog := parse(t, `var x: int = 1 + 2; print x;`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}

	decl, ok := prog.Statements[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VariableDeclaration, got %T", prog.Statements[0])
	}
	if decl.Name != "x" || decl.Type != ast.TypeInt {
		t.Fatalf("unexpected declaration: %+v", decl)
	}
	bin, ok := decl.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected 1 + 2, got %s", decl.Value)
	}

	if _, ok := prog.Statements[1].(*ast.PrintStmt); !ok {
		t.Fatalf("expected *ast.PrintStmt, got %T", prog.Statements[1])
	}
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	prog := parse(t, `print 2 ^ 3 ^ 2;`)
	print := prog.Statements[0].(*ast.PrintStmt)
	outer := print.Expr.(*ast.BinaryExpr)
	if outer.Op != ast.OpPow {
		t.Fatalf("expected outer ^, got %s", outer.Op)
	}
	if _, ok := outer.Left.(*ast.Literal); !ok {
		t.Fatalf("expected left operand to be the literal 2, got %T", outer.Left)
	}
	inner, ok := outer.Right.(*ast.BinaryExpr)
	if !ok || inner.Op != ast.OpPow {
		t.Fatalf("expected right-associated inner ^, got %T", outer.Right)
	}
}

func TestParseFunctionDefAndCall(t *testing.T) {
	prog := parse(t, `
def add(a: int, b: int): int {
    return a + b;
}
print add(1, 2);
`)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
	fn, ok := prog.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected *ast.FunctionDef, got %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Parameters) != 2 || fn.ReturnType != ast.TypeInt {
		t.Fatalf("unexpected function signature: %+v", fn)
	}

	print := prog.Statements[1].(*ast.PrintStmt)
	call, ok := print.Expr.(*ast.Call)
	if !ok || call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("expected call add(1, 2), got %s", print.Expr)
	}
}

func TestParseForLoop(t *testing.T) {
	prog := parse(t, `
for (var i: int = 0; i < 10; i = i + 1) {
    print i;
}
`)
	forStmt, ok := prog.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", prog.Statements[0])
	}
	if _, ok := forStmt.Initializer.(*ast.VariableDeclaration); !ok {
		t.Fatalf("expected var declaration initializer, got %T", forStmt.Initializer)
	}
	if _, ok := forStmt.Increment.(*ast.Assignment); !ok {
		t.Fatalf("expected assignment increment, got %T", forStmt.Increment)
	}
}

func TestParseRecoversFromSyntaxError(t *testing.T) {
	src := `var x: int = ; print 1;`
	p := New(lexer.New(src), src, "test")
	prog := p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected at least one syntax error")
	}
	found := false
	for _, s := range prog.Statements {
		if ps, ok := s.(*ast.PrintStmt); ok {
			if lit, ok := ps.Expr.(*ast.Literal); ok && lit.Value == int64(1) {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected recovery to still parse the trailing print statement, got %v", prog.Statements)
	}
}
