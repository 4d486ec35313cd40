// Package ast defines the abstract syntax tree produced by the parser
// and threaded through every later pass (resolver, type checker,
// dataflow engine, optimizers, evaluator).
package ast

import (
	"fmt"
	"strings"

	"github.com/enthyp/tc/internal/lexer"
)

// Node is the common interface of every AST node. ID is the node's
// arena-assigned identity, used as the key for every dataflow set.
type Node interface {
	ID() NodeID
	Pos() lexer.Position
	String() string
}

// Stmt is a node that is executed for effect.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

type base struct {
	id  NodeID
	pos lexer.Position
}

func (b base) ID() NodeID         { return b.id }
func (b base) Pos() lexer.Position { return b.pos }

// Type is one of the five ground types of the language.
type Type int

const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeUnit
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeUnit:
		return "unit"
	default:
		return "<invalid>"
	}
}

// BinaryOp enumerates the binary operators.
type BinaryOp string

const (
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
	OpPow    BinaryOp = "^"
	OpEq     BinaryOp = "=="
	OpNotEq  BinaryOp = "!="
	OpLess   BinaryOp = "<"
	OpLessEq BinaryOp = "<="
	OpGreat  BinaryOp = ">"
	OpGreatEq BinaryOp = ">="
)

// UnaryOp enumerates the unary operators.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
)

// Program is the root of the tree: a top-level sequence of statements.
// It is not itself dataflow-keyed (the dataflow engine seeds IN at a
// synthetic TOP node, see internal/dataflow).
type Program struct {
	Statements []Stmt
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// CacheSlot holds the memoized value of a DAG-shared expression node.
// A nil *CacheSlot on an expression means the DAG optimizer did not
// mark it as a caching node.
type CacheSlot struct {
	Valid bool
	Value any
}

// Block is an ordered list of statements introducing a lexical scope.
type Block struct {
	base
	Statements []Stmt
}

func NewBlock(id NodeID, pos lexer.Position, stmts []Stmt) *Block {
	return &Block{base: base{id, pos}, Statements: stmts}
}
func (b *Block) stmtNode() {}
func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, s := range b.Statements {
		sb.WriteString(s.String())
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}

// Parameter is a single (name, type) entry of a FunctionDef's parameter list.
type Parameter struct {
	base
	Name string
	Type Type
}

func NewParameter(id NodeID, pos lexer.Position, name string, typ Type) *Parameter {
	return &Parameter{base: base{id, pos}, Name: name, Type: typ}
}
func (p *Parameter) String() string { return fmt.Sprintf("%s: %s", p.Name, p.Type) }

// FunctionDef declares a (possibly nested) named function.
type FunctionDef struct {
	base
	Name       string
	Parameters []*Parameter
	ReturnType Type
	Body       *Block
}

func NewFunctionDef(id NodeID, pos lexer.Position, name string, params []*Parameter, ret Type, body *Block) *FunctionDef {
	return &FunctionDef{base: base{id, pos}, Name: name, Parameters: params, ReturnType: ret, Body: body}
}
func (f *FunctionDef) stmtNode() {}
func (f *FunctionDef) String() string {
	parts := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		parts[i] = p.String()
	}
	return fmt.Sprintf("def %s(%s): %s %s", f.Name, strings.Join(parts, ", "), f.ReturnType, f.Body)
}

// VariableDeclaration introduces a new name in the current scope,
// optionally with an initializer.
type VariableDeclaration struct {
	base
	Name  string
	Type  Type
	Value Expr // nil if uninitialized
}

func NewVariableDeclaration(id NodeID, pos lexer.Position, name string, typ Type, value Expr) *VariableDeclaration {
	return &VariableDeclaration{base: base{id, pos}, Name: name, Type: typ, Value: value}
}
func (v *VariableDeclaration) stmtNode() {}
func (v *VariableDeclaration) String() string {
	if v.Value == nil {
		return fmt.Sprintf("var %s: %s", v.Name, v.Type)
	}
	return fmt.Sprintf("var %s: %s = %s", v.Name, v.Type, v.Value)
}

// Assignment writes a new value to an already-declared name.
type Assignment struct {
	base
	Name       string
	Value      Expr
	ScopeDepth int // resolved by the Resolver; -1 until then
}

func NewAssignment(id NodeID, pos lexer.Position, name string, value Expr) *Assignment {
	return &Assignment{base: base{id, pos}, Name: name, Value: value, ScopeDepth: -1}
}
func (a *Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %s", a.Name, a.Value)
}

// PrintStmt prints the value of an expression.
type PrintStmt struct {
	base
	Expr Expr
}

func NewPrintStmt(id NodeID, pos lexer.Position, expr Expr) *PrintStmt {
	return &PrintStmt{base: base{id, pos}, Expr: expr}
}
func (p *PrintStmt) stmtNode() {}
func (p *PrintStmt) String() string { return fmt.Sprintf("print %s", p.Expr) }

// AssertStmt raises a runtime error if its expression evaluates to false.
type AssertStmt struct {
	base
	Expr Expr
}

func NewAssertStmt(id NodeID, pos lexer.Position, expr Expr) *AssertStmt {
	return &AssertStmt{base: base{id, pos}, Expr: expr}
}
func (a *AssertStmt) stmtNode() {}
func (a *AssertStmt) String() string { return fmt.Sprintf("assert %s", a.Expr) }

// ReturnStmt raises the upward return-value signal caught by the
// enclosing function Call.
type ReturnStmt struct {
	base
	Expr Expr
}

func NewReturnStmt(id NodeID, pos lexer.Position, expr Expr) *ReturnStmt {
	return &ReturnStmt{base: base{id, pos}, Expr: expr}
}
func (r *ReturnStmt) stmtNode() {}
func (r *ReturnStmt) String() string { return fmt.Sprintf("return %s", r.Expr) }

// IfStmt executes Body when Condition is true. There is no else branch.
type IfStmt struct {
	base
	Condition Expr
	Body      *Block
}

func NewIfStmt(id NodeID, pos lexer.Position, cond Expr, body *Block) *IfStmt {
	return &IfStmt{base: base{id, pos}, Condition: cond, Body: body}
}
func (i *IfStmt) stmtNode() {}
func (i *IfStmt) String() string { return fmt.Sprintf("if (%s) %s", i.Condition, i.Body) }

// WhileStmt loops Body while Condition is true.
type WhileStmt struct {
	base
	Condition Expr
	Body      *Block
}

func NewWhileStmt(id NodeID, pos lexer.Position, cond Expr, body *Block) *WhileStmt {
	return &WhileStmt{base: base{id, pos}, Condition: cond, Body: body}
}
func (w *WhileStmt) stmtNode() {}
func (w *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s", w.Condition, w.Body) }

// ForStmt is a C-style counted loop. Initializer, Condition and
// Increment share a scope opened around the whole statement.
type ForStmt struct {
	base
	Initializer Stmt
	Condition   Expr
	Increment   Stmt
	Body        *Block
}

func NewForStmt(id NodeID, pos lexer.Position, init Stmt, cond Expr, incr Stmt, body *Block) *ForStmt {
	return &ForStmt{base: base{id, pos}, Initializer: init, Condition: cond, Increment: incr, Body: body}
}
func (f *ForStmt) stmtNode() {}
func (f *ForStmt) String() string {
	return fmt.Sprintf("for (%s; %s; %s) %s", f.Initializer, f.Condition, f.Increment, f.Body)
}

// BinaryExpr is a two-operand arithmetic, comparison, or power expression.
type BinaryExpr struct {
	base
	Left, Right Expr
	Op          BinaryOp

	// Cache is non-nil when the expression-DAG optimizer marked this
	// node as a caching node (the first occurrence of a shared
	// subexpression). ReplacedBy is set on later occurrences that were
	// redirected to an earlier equivalent node; it is purely
	// informational (parents were already repointed at parse-time
	// identity, not through this field).
	Cache      *CacheSlot
	ReplacedBy Expr
}

func NewBinaryExpr(id NodeID, pos lexer.Position, left Expr, op BinaryOp, right Expr) *BinaryExpr {
	return &BinaryExpr{base: base{id, pos}, Left: left, Op: op, Right: right}
}
func (b *BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr is a single-operand expression (only unary minus exists).
type UnaryExpr struct {
	base
	Expr Expr
	Op   UnaryOp

	Cache      *CacheSlot
	ReplacedBy Expr
}

func NewUnaryExpr(id NodeID, pos lexer.Position, op UnaryOp, expr Expr) *UnaryExpr {
	return &UnaryExpr{base: base{id, pos}, Expr: expr, Op: op}
}
func (u *UnaryExpr) exprNode() {}
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Expr) }

// Call invokes a user-defined function or a builtin by name.
type Call struct {
	base
	Name       string
	Args       []Expr
	ScopeDepth int
}

func NewCall(id NodeID, pos lexer.Position, name string, args []Expr) *Call {
	return &Call{base: base{id, pos}, Name: name, Args: args, ScopeDepth: -1}
}
func (c *Call) exprNode() {}
func (c *Call) stmtNode() {} // a bare call may appear as a top-level statement
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// Variable reads the value bound to Name at ScopeDepth enclosing scopes up.
type Variable struct {
	base
	Name       string
	ScopeDepth int
}

func NewVariable(id NodeID, pos lexer.Position, name string) *Variable {
	return &Variable{base: base{id, pos}, Name: name, ScopeDepth: -1}
}
func (v *Variable) exprNode() {}
func (v *Variable) String() string { return v.Name }

// Literal is a constant bool/int/float/string value.
type Literal struct {
	base
	Value any
	Type  Type
}

func NewLiteral(id NodeID, pos lexer.Position, value any, typ Type) *Literal {
	return &Literal{base: base{id, pos}, Value: value, Type: typ}
}
func (l *Literal) exprNode() {}
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }
