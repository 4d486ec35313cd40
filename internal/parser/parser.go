// Package parser builds an *ast.Program from a token stream. The
// grammar itself is explicitly out of scope of the core design (any
// LL/LR generator producing the same AST would serve); this is a
// small hand-written recursive-descent/Pratt parser in the style of
// go-dws's internal/parser, trimmed to this language's grammar.
package parser

import (
	"fmt"
	"strconv"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/cerrors"
	"github.com/enthyp/tc/internal/lexer"
)

// precedence levels, lowest to highest.
const (
	_ int = iota
	precLowest
	precEquality   // == !=
	precComparison // < <= > >=
	precSum        // + -
	precProduct    // * / %
	precPower      // ^ (right-assoc)
	precUnary      // -x
)

var precedences = map[lexer.TokenType]int{
	lexer.EQ:      precEquality,
	lexer.NOT_EQ:  precEquality,
	lexer.LT:      precComparison,
	lexer.LT_EQ:   precComparison,
	lexer.GT:      precComparison,
	lexer.GT_EQ:   precComparison,
	lexer.PLUS:    precSum,
	lexer.MINUS:   precSum,
	lexer.STAR:    precProduct,
	lexer.SLASH:   precProduct,
	lexer.PERCENT: precProduct,
	lexer.CARET:   precPower,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.PLUS:    ast.OpAdd,
	lexer.MINUS:   ast.OpSub,
	lexer.STAR:    ast.OpMul,
	lexer.SLASH:   ast.OpDiv,
	lexer.PERCENT: ast.OpMod,
	lexer.CARET:   ast.OpPow,
	lexer.EQ:      ast.OpEq,
	lexer.NOT_EQ:  ast.OpNotEq,
	lexer.LT:      ast.OpLess,
	lexer.LT_EQ:   ast.OpLessEq,
	lexer.GT:      ast.OpGreat,
	lexer.GT_EQ:   ast.OpGreatEq,
}

var typeNames = map[string]ast.Type{
	"bool":   ast.TypeBool,
	"int":    ast.TypeInt,
	"float":  ast.TypeFloat,
	"string": ast.TypeString,
	"unit":   ast.TypeUnit,
}

// Parser is a single-source-file recursive-descent parser.
type Parser struct {
	l     *lexer.Lexer
	arena *ast.Arena

	cur  lexer.Token
	peek lexer.Token

	source string
	file   string
	diags  []*cerrors.Diagnostic
}

// New creates a Parser reading tokens from l.
func New(l *lexer.Lexer, source, file string) *Parser {
	p := &Parser{l: l, arena: ast.NewArena(), source: source, file: file}
	p.next()
	p.next()
	return p
}

// Errors returns the syntax diagnostics collected during parsing.
func (p *Parser) Errors() []*cerrors.Diagnostic { return p.diags }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(pos lexer.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.diags = append(p.diags, cerrors.New(cerrors.Syntax, pos, msg, p.source, p.file))
}

func (p *Parser) expect(tt lexer.TokenType, what string) bool {
	if p.cur.Type == tt {
		return true
	}
	p.errorf(p.cur.Pos, "expected %s, got %q", what, p.cur.Literal)
	return false
}

// ParseProgram parses the whole token stream into a Program. Syntax
// errors are recorded in Errors() and recovered from at the next
// statement boundary rather than aborting the whole parse (§6, §7 kind 1).
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.SEMI {
			p.next()
			continue
		}
		before := len(p.diags)
		stmt := p.parseStatement()
		if len(p.diags) > before || stmt == nil {
			p.recover()
			continue
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog
}

// recover skips tokens until a statement boundary, so one syntax error
// does not prevent later statements from being reported and (when run
// interactively) executed.
func (p *Parser) recover() {
	for p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.SEMI {
			p.next()
			return
		}
		if p.cur.Type == lexer.RBRACE {
			return
		}
		p.next()
	}
}

func blockIntroducer(tt lexer.TokenType) bool {
	switch tt {
	case lexer.LBRACE, lexer.IF, lexer.WHILE, lexer.FOR, lexer.DEF:
		return true
	default:
		return false
	}
}

func (p *Parser) parseStatement() ast.Stmt {
	var stmt ast.Stmt
	introducer := blockIntroducer(p.cur.Type)
	before := len(p.diags)

	switch p.cur.Type {
	case lexer.LBRACE:
		stmt = p.parseBlock()
	case lexer.IF:
		stmt = p.parseIf()
	case lexer.WHILE:
		stmt = p.parseWhile()
	case lexer.FOR:
		stmt = p.parseFor()
	case lexer.DEF:
		stmt = p.parseFunctionDef()
	case lexer.VAR:
		stmt = p.parseVariableDeclaration()
	case lexer.PRINT:
		stmt = p.parsePrint()
	case lexer.ASSERT:
		stmt = p.parseAssert()
	case lexer.RETURN:
		stmt = p.parseReturn()
	case lexer.IDENT:
		stmt = p.parseIdentStatement()
	default:
		p.errorf(p.cur.Pos, "unexpected token %q at start of statement", p.cur.Literal)
		return nil
	}

	// A statement that reported an error leaves its ';' in place for
	// recover(), which then stops right before the next statement.
	if !introducer && stmt != nil && len(p.diags) == before && p.cur.Type == lexer.SEMI {
		p.next()
	}
	return stmt
}

func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	if !p.expect(lexer.LBRACE, "'{'") {
		return nil
	}
	p.next()

	var stmts []ast.Stmt
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.SEMI {
			p.next()
			continue
		}
		before := len(p.diags)
		s := p.parseStatement()
		if len(p.diags) > before || s == nil {
			p.recover()
			continue
		}
		stmts = append(stmts, s)
	}
	p.expect(lexer.RBRACE, "'}'")
	p.next()

	return ast.NewBlock(id, pos, stmts)
}

func (p *Parser) parseType() ast.Type {
	if p.cur.Type != lexer.IDENT {
		p.errorf(p.cur.Pos, "expected type name, got %q", p.cur.Literal)
		return ast.TypeInvalid
	}
	t, ok := typeNames[p.cur.Literal]
	if !ok {
		p.errorf(p.cur.Pos, "unknown type %q", p.cur.Literal)
		t = ast.TypeInvalid
	}
	p.next()
	return t
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'if'
	if !p.expect(lexer.LPAREN, "'('") {
		return nil
	}
	p.next()
	cond := p.parseExpr(precLowest)
	if !p.expect(lexer.RPAREN, "')'") {
		return nil
	}
	p.next()
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return ast.NewIfStmt(id, pos, cond, body)
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'while'
	if !p.expect(lexer.LPAREN, "'('") {
		return nil
	}
	p.next()
	cond := p.parseExpr(precLowest)
	if !p.expect(lexer.RPAREN, "')'") {
		return nil
	}
	p.next()
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return ast.NewWhileStmt(id, pos, cond, body)
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'for'
	if !p.expect(lexer.LPAREN, "'('") {
		return nil
	}
	p.next()

	var init ast.Stmt
	if p.cur.Type == lexer.VAR {
		init = p.parseVariableDeclaration()
	} else {
		init = p.parseIdentStatement()
	}
	if !p.expect(lexer.SEMI, "';'") {
		return nil
	}
	p.next()

	cond := p.parseExpr(precLowest)
	if !p.expect(lexer.SEMI, "';'") {
		return nil
	}
	p.next()

	incr := p.parseIdentStatement()
	if !p.expect(lexer.RPAREN, "')'") {
		return nil
	}
	p.next()

	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return ast.NewForStmt(id, pos, init, cond, incr, body)
}

func (p *Parser) parseFunctionDef() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'def'

	if !p.expect(lexer.IDENT, "function name") {
		return nil
	}
	name := p.cur.Literal
	p.next()

	if !p.expect(lexer.LPAREN, "'('") {
		return nil
	}
	p.next()

	var params []*ast.Parameter
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		if !p.expect(lexer.IDENT, "parameter name") {
			return nil
		}
		pPos := p.cur.Pos
		pID := p.arena.Alloc()
		pName := p.cur.Literal
		p.next()
		if !p.expect(lexer.COLON, "':'") {
			return nil
		}
		p.next()
		pType := p.parseType()
		params = append(params, ast.NewParameter(pID, pPos, pName, pType))

		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	p.next()

	retType := ast.TypeUnit
	if p.cur.Type == lexer.COLON {
		p.next()
		retType = p.parseType()
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return ast.NewFunctionDef(id, pos, name, params, retType, body)
}

func (p *Parser) parseVariableDeclaration() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'var'

	if !p.expect(lexer.IDENT, "variable name") {
		return nil
	}
	name := p.cur.Literal
	p.next()

	if !p.expect(lexer.COLON, "':'") {
		return nil
	}
	p.next()
	typ := p.parseType()

	var value ast.Expr
	if p.cur.Type == lexer.ASSIGN {
		p.next()
		value = p.parseExpr(precLowest)
	}

	return ast.NewVariableDeclaration(id, pos, name, typ, value)
}

func (p *Parser) parsePrint() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'print'
	expr := p.parseExpr(precLowest)
	return ast.NewPrintStmt(id, pos, expr)
}

func (p *Parser) parseAssert() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'assert'
	expr := p.parseExpr(precLowest)
	return ast.NewAssertStmt(id, pos, expr)
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.cur.Pos
	id := p.arena.Alloc()
	p.next() // 'return'
	expr := p.parseExpr(precLowest)
	return ast.NewReturnStmt(id, pos, expr)
}

// parseIdentStatement disambiguates `name = expr` (Assignment) from a
// bare `name(args)` call statement.
func (p *Parser) parseIdentStatement() ast.Stmt {
	if !p.expect(lexer.IDENT, "identifier") {
		return nil
	}
	pos := p.cur.Pos
	name := p.cur.Literal

	if p.peek.Type == lexer.ASSIGN {
		id := p.arena.Alloc()
		p.next() // ident
		p.next() // '='
		value := p.parseExpr(precLowest)
		return ast.NewAssignment(id, pos, name, value)
	}

	expr := p.parseExpr(precLowest)
	if call, ok := expr.(*ast.Call); ok {
		return call
	}
	p.errorf(pos, "expression statement must be an assignment or call")
	return nil
}

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		prec, ok := precedences[p.cur.Type]
		if !ok || prec < minPrec {
			break
		}
		op := binaryOps[p.cur.Type]
		opPos := p.cur.Pos
		id := p.arena.Alloc()
		p.next()

		// ^ is right-associative; everything else is left-associative.
		nextMin := prec + 1
		if op == ast.OpPow {
			nextMin = prec
		}
		right := p.parseExpr(nextMin)
		left = ast.NewBinaryExpr(id, opPos, left, op, right)
	}

	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Type == lexer.MINUS {
		pos := p.cur.Pos
		id := p.arena.Alloc()
		p.next()
		operand := p.parseExpr(precUnary)
		return ast.NewUnaryExpr(id, pos, ast.OpNeg, operand)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Type {
	case lexer.INT:
		return p.parseIntLiteral()
	case lexer.FLOAT:
		return p.parseFloatLiteral()
	case lexer.STRING:
		id := p.arena.Alloc()
		lit := ast.NewLiteral(id, p.cur.Pos, p.cur.Literal, ast.TypeString)
		p.next()
		return lit
	case lexer.TRUE, lexer.FALSE:
		id := p.arena.Alloc()
		lit := ast.NewLiteral(id, p.cur.Pos, p.cur.Type == lexer.TRUE, ast.TypeBool)
		p.next()
		return lit
	case lexer.LPAREN:
		p.next()
		expr := p.parseExpr(precLowest)
		p.expect(lexer.RPAREN, "')'")
		p.next()
		return expr
	case lexer.IDENT:
		return p.parseIdentOrCall()
	default:
		p.errorf(p.cur.Pos, "unexpected token %q in expression", p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	id := p.arena.Alloc()
	v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		p.errorf(p.cur.Pos, "invalid integer literal %q", p.cur.Literal)
	}
	lit := ast.NewLiteral(id, p.cur.Pos, v, ast.TypeInt)
	p.next()
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	id := p.arena.Alloc()
	v, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.errorf(p.cur.Pos, "invalid float literal %q", p.cur.Literal)
	}
	lit := ast.NewLiteral(id, p.cur.Pos, v, ast.TypeFloat)
	p.next()
	return lit
}

func (p *Parser) parseIdentOrCall() ast.Expr {
	pos := p.cur.Pos
	name := p.cur.Literal
	p.next()

	if p.cur.Type != lexer.LPAREN {
		id := p.arena.Alloc()
		return ast.NewVariable(id, pos, name)
	}

	id := p.arena.Alloc()
	p.next() // '('
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		args = append(args, p.parseExpr(precLowest))
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	p.next()

	return ast.NewCall(id, pos, name, args)
}
