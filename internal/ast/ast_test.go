package ast

import (
	"testing"

	"github.com/enthyp/tc/internal/lexer"
)

func TestArenaAllocatesDistinctIDs(t *testing.T) {
	a := NewArena()
	ids := map[NodeID]bool{}
	for i := 0; i < 5; i++ {
		id := a.Alloc()
		if ids[id] {
			t.Fatalf("duplicate NodeID %d", id)
		}
		ids[id] = true
	}
}

func TestLiteralAndBinaryString(t *testing.T) {
	a := NewArena()
	pos := lexer.Position{Line: 1, Column: 1}

	lit1 := NewLiteral(a.Alloc(), pos, int64(1), TypeInt)
	lit2 := NewLiteral(a.Alloc(), pos, int64(2), TypeInt)
	bin := NewBinaryExpr(a.Alloc(), pos, lit1, OpAdd, lit2)

	if got, want := bin.String(), "(1 + 2)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
