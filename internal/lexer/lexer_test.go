package lexer

import "testing"

func TestNextTokenOperatorsAndKeywords(t *testing.T) {
	input := `var x : int = 1 + 2 ** 3; # comment
if (x <= 4) { print x }`

	expected := []TokenType{
		VAR, IDENT, COLON, IDENT, ASSIGN, INT, PLUS, INT, CARET, INT, SEMI,
		IF, LPAREN, IDENT, LT_EQ, INT, RPAREN, LBRACE, PRINT, IDENT, RBRACE,
		EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: got %d, want %d (literal %q)", i, tok.Type, want, tok.Literal)
		}
	}
}

func TestNextTokenStringsAndFloats(t *testing.T) {
	input := `"hello" 'world' 3.14 .5 -1`
	l := New(input)

	tok := l.NextToken()
	if tok.Type != STRING || tok.Literal != "hello" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != STRING || tok.Literal != "world" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != FLOAT || tok.Literal != "3.14" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != FLOAT || tok.Literal != ".5" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != MINUS {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != INT || tok.Literal != "1" {
		t.Fatalf("got %+v", tok)
	}
}
