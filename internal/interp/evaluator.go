// Package interp implements the tree-walking evaluator (spec §4.3): a
// straightforward recursive interpreter with two subtleties borrowed
// from the passes upstream of it — cache-slot-aware expression
// evaluation (the expression-DAG pass's shared nodes) and closures
// that capture their defining environment by reference rather than
// the caller's environment.
package interp

import (
	"fmt"
	"io"
	"math"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/builtin"
	"github.com/enthyp/tc/internal/cerrors"
)

// signal is the evaluator's upward control-flow variant (spec §9
// "upward control signals"): Normal carries no payload, Returned
// carries the value a ReturnStmt produced. It is returned alongside an
// error rather than raised as an exception, and is interpreted only at
// the nearest enclosing Call site.
type signal struct {
	returned bool
	value    Value
}

var normalSignal = signal{}

// Evaluator walks a resolved, type-checked (and usually optimized)
// program, producing print output on out. Grounded on
// CWBudde-go-dws's internal/interp/interpreter.go's top-level Eval
// entry point, scaled down to this language's statement set.
type Evaluator struct {
	global       *Environment
	out          io.Writer
	source, file string
}

// NewEvaluator creates an evaluator with an empty global frame.
// Builtins are dispatched by name (see evalBuiltinCall) rather than
// pre-registered, since they have no ast.FunctionDef to close over.
func NewEvaluator(out io.Writer, source, file string) *Evaluator {
	return &Evaluator{global: NewEnvironment(), out: out, source: source, file: file}
}

// Run evaluates every top-level statement in program, in order,
// stopping at the first runtime error.
func (ev *Evaluator) Run(program *ast.Program) error {
	sig, err := ev.execStmts(ev.global, program.Statements)
	if err != nil {
		return err
	}
	if sig.returned {
		return ev.runtimeErr(program.Statements[0], "return outside function")
	}
	return nil
}

func (ev *Evaluator) runtimeErr(n ast.Node, format string, args ...any) error {
	return cerrors.New(cerrors.Runtime, n.Pos(), fmt.Sprintf(format, args...), ev.source, ev.file)
}

func (ev *Evaluator) execStmts(env *Environment, stmts []ast.Stmt) (signal, error) {
	for _, s := range stmts {
		sig, err := ev.execStmt(env, s)
		if err != nil {
			return signal{}, err
		}
		if sig.returned {
			return sig, nil
		}
	}
	return normalSignal, nil
}

func (ev *Evaluator) execStmt(env *Environment, s ast.Stmt) (signal, error) {
	switch st := s.(type) {
	case *ast.Block:
		inner := NewEnclosedEnvironment(env)
		return ev.execStmts(inner, st.Statements)

	case *ast.FunctionDef:
		if env.HasLocalFunction(st.Name) {
			return signal{}, ev.runtimeErr(st, "function %q already declared in this scope", st.Name)
		}
		env.DefineFunction(st.Name, &FunctionValue{Decl: st, Closure: env})
		return normalSignal, nil

	case *ast.VariableDeclaration:
		if env.HasLocalVariable(st.Name) {
			return signal{}, ev.runtimeErr(st, "variable %q already declared in this scope", st.Name)
		}
		var v Value
		if st.Value != nil {
			var err error
			v, err = ev.eval(env, st.Value)
			if err != nil {
				return signal{}, err
			}
		} else {
			v = zeroValue(st.Type)
		}
		env.DefineVariable(st.Name, v)
		return normalSignal, nil

	case *ast.Assignment:
		v, err := ev.eval(env, st.Value)
		if err != nil {
			return signal{}, err
		}
		env.SetVariable(st.Name, st.ScopeDepth, v)
		return normalSignal, nil

	case *ast.PrintStmt:
		v, err := ev.eval(env, st.Expr)
		if err != nil {
			return signal{}, err
		}
		fmt.Fprintln(ev.out, v.String())
		return normalSignal, nil

	case *ast.AssertStmt:
		v, err := ev.eval(env, st.Expr)
		if err != nil {
			return signal{}, err
		}
		b, ok := v.(*BoolValue)
		if !ok || !b.Value {
			return signal{}, ev.runtimeErr(st, "assertion failed")
		}
		return normalSignal, nil

	case *ast.ReturnStmt:
		if st.Expr == nil {
			return signal{returned: true, value: &UnitValue{}}, nil
		}
		v, err := ev.eval(env, st.Expr)
		if err != nil {
			return signal{}, err
		}
		return signal{returned: true, value: v}, nil

	case *ast.IfStmt:
		cond, err := ev.eval(env, st.Condition)
		if err != nil {
			return signal{}, err
		}
		if cond.(*BoolValue).Value {
			return ev.execStmt(env, st.Body)
		}
		return normalSignal, nil

	case *ast.WhileStmt:
		for {
			cond, err := ev.eval(env, st.Condition)
			if err != nil {
				return signal{}, err
			}
			if !cond.(*BoolValue).Value {
				return normalSignal, nil
			}
			sig, err := ev.execStmt(env, st.Body)
			if err != nil {
				return signal{}, err
			}
			if sig.returned {
				return sig, nil
			}
		}

	case *ast.ForStmt:
		loopEnv := NewEnclosedEnvironment(env)
		if _, err := ev.execStmt(loopEnv, st.Initializer); err != nil {
			return signal{}, err
		}
		for {
			cond, err := ev.eval(loopEnv, st.Condition)
			if err != nil {
				return signal{}, err
			}
			if !cond.(*BoolValue).Value {
				return normalSignal, nil
			}
			sig, err := ev.execStmt(loopEnv, st.Body)
			if err != nil {
				return signal{}, err
			}
			if sig.returned {
				return sig, nil
			}
			if _, err := ev.execStmt(loopEnv, st.Increment); err != nil {
				return signal{}, err
			}
		}

	case *ast.Call:
		_, err := ev.evalCall(env, st)
		return normalSignal, err

	default:
		return signal{}, fmt.Errorf("interp: unreachable statement type %T", s)
	}
}

func zeroValue(t ast.Type) Value {
	switch t {
	case ast.TypeInt:
		return &IntValue{}
	case ast.TypeFloat:
		return &FloatValue{}
	case ast.TypeBool:
		return &BoolValue{}
	case ast.TypeString:
		return &StringValue{}
	default:
		return &UnitValue{}
	}
}

func (ev *Evaluator) eval(env *Environment, e ast.Expr) (Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return literalValue(n), nil

	case *ast.Variable:
		v, ok := env.GetVariable(n.Name, n.ScopeDepth)
		if !ok {
			return nil, ev.runtimeErr(n, "undefined variable %q", n.Name)
		}
		return v, nil

	case *ast.BinaryExpr:
		return ev.evalBinary(env, n)

	case *ast.UnaryExpr:
		return ev.evalUnary(env, n)

	case *ast.Call:
		return ev.evalCall(env, n)

	default:
		return nil, fmt.Errorf("interp: unreachable expression type %T", e)
	}
}

func literalValue(l *ast.Literal) Value {
	switch l.Type {
	case ast.TypeInt:
		return &IntValue{Value: l.Value.(int64)}
	case ast.TypeFloat:
		return &FloatValue{Value: l.Value.(float64)}
	case ast.TypeBool:
		return &BoolValue{Value: l.Value.(bool)}
	case ast.TypeString:
		return &StringValue{Value: l.Value.(string)}
	default:
		return &UnitValue{}
	}
}

// evalBinary checks the cache slot before recomputing, per spec §4.3:
// "every BinaryExpr/UnaryExpr that the expression-DAG pass marked as
// cached carries a cache slot".
func (ev *Evaluator) evalBinary(env *Environment, n *ast.BinaryExpr) (Value, error) {
	if n.Cache != nil && n.Cache.Valid {
		return n.Cache.Value.(Value), nil
	}

	left, err := ev.eval(env, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(env, n.Right)
	if err != nil {
		return nil, err
	}

	result, err := ev.applyBinary(n, left, right)
	if err != nil {
		return nil, err
	}

	if n.Cache != nil {
		n.Cache.Valid = true
		n.Cache.Value = result
	}
	return result, nil
}

func (ev *Evaluator) evalUnary(env *Environment, n *ast.UnaryExpr) (Value, error) {
	if n.Cache != nil && n.Cache.Valid {
		return n.Cache.Value.(Value), nil
	}

	v, err := ev.eval(env, n.Expr)
	if err != nil {
		return nil, err
	}

	var result Value
	switch inner := v.(type) {
	case *IntValue:
		result = &IntValue{Value: -inner.Value}
	case *FloatValue:
		result = &FloatValue{Value: -inner.Value}
	default:
		return nil, ev.runtimeErr(n, "unary %s not applicable to %s", n.Op, v.Type())
	}

	if n.Cache != nil {
		n.Cache.Valid = true
		n.Cache.Value = result
	}
	return result, nil
}

func (ev *Evaluator) applyBinary(n *ast.BinaryExpr, left, right Value) (Value, error) {
	switch l := left.(type) {
	case *IntValue:
		r := right.(*IntValue)
		return ev.applyIntOp(n, l.Value, r.Value)
	case *FloatValue:
		r := right.(*FloatValue)
		return ev.applyFloatOp(n, l.Value, r.Value)
	case *BoolValue:
		r := right.(*BoolValue)
		return ev.applyBoolOp(n, l.Value, r.Value)
	case *StringValue:
		r := right.(*StringValue)
		return ev.applyStringOp(n, l.Value, r.Value)
	default:
		return nil, ev.runtimeErr(n, "operator %s not applicable to %s", n.Op, left.Type())
	}
}

func (ev *Evaluator) applyIntOp(n *ast.BinaryExpr, l, r int64) (Value, error) {
	switch n.Op {
	case ast.OpAdd:
		return &IntValue{Value: l + r}, nil
	case ast.OpSub:
		return &IntValue{Value: l - r}, nil
	case ast.OpMul:
		return &IntValue{Value: l * r}, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, ev.runtimeErr(n, "division by zero")
		}
		return &IntValue{Value: l / r}, nil
	case ast.OpMod:
		if r == 0 {
			return nil, ev.runtimeErr(n, "division by zero")
		}
		return &IntValue{Value: l % r}, nil
	case ast.OpPow:
		return &IntValue{Value: intPow(l, r)}, nil
	case ast.OpEq:
		return &BoolValue{Value: l == r}, nil
	case ast.OpNotEq:
		return &BoolValue{Value: l != r}, nil
	case ast.OpLess:
		return &BoolValue{Value: l < r}, nil
	case ast.OpLessEq:
		return &BoolValue{Value: l <= r}, nil
	case ast.OpGreat:
		return &BoolValue{Value: l > r}, nil
	case ast.OpGreatEq:
		return &BoolValue{Value: l >= r}, nil
	default:
		return nil, ev.runtimeErr(n, "operator %s not applicable to int", n.Op)
	}
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func (ev *Evaluator) applyFloatOp(n *ast.BinaryExpr, l, r float64) (Value, error) {
	switch n.Op {
	case ast.OpAdd:
		return &FloatValue{Value: l + r}, nil
	case ast.OpSub:
		return &FloatValue{Value: l - r}, nil
	case ast.OpMul:
		return &FloatValue{Value: l * r}, nil
	case ast.OpDiv:
		if r == 0 {
			return nil, ev.runtimeErr(n, "division by zero")
		}
		return &FloatValue{Value: l / r}, nil
	case ast.OpPow:
		return &FloatValue{Value: math.Pow(l, r)}, nil
	case ast.OpEq:
		return &BoolValue{Value: l == r}, nil
	case ast.OpNotEq:
		return &BoolValue{Value: l != r}, nil
	case ast.OpLess:
		return &BoolValue{Value: l < r}, nil
	case ast.OpLessEq:
		return &BoolValue{Value: l <= r}, nil
	case ast.OpGreat:
		return &BoolValue{Value: l > r}, nil
	case ast.OpGreatEq:
		return &BoolValue{Value: l >= r}, nil
	default:
		return nil, ev.runtimeErr(n, "operator %s not applicable to float", n.Op)
	}
}

func (ev *Evaluator) applyBoolOp(n *ast.BinaryExpr, l, r bool) (Value, error) {
	switch n.Op {
	case ast.OpEq:
		return &BoolValue{Value: l == r}, nil
	case ast.OpNotEq:
		return &BoolValue{Value: l != r}, nil
	default:
		return nil, ev.runtimeErr(n, "operator %s not applicable to bool", n.Op)
	}
}

func (ev *Evaluator) applyStringOp(n *ast.BinaryExpr, l, r string) (Value, error) {
	switch n.Op {
	case ast.OpAdd:
		return &StringValue{Value: l + r}, nil
	case ast.OpEq:
		return &BoolValue{Value: l == r}, nil
	case ast.OpNotEq:
		return &BoolValue{Value: l != r}, nil
	default:
		return nil, ev.runtimeErr(n, "operator %s not applicable to string", n.Op)
	}
}

// evalCall evaluates arguments in the caller's environment, then
// opens a fresh frame enclosed by the callee's captured closure (not
// the caller's environment) and declares the arguments there (spec
// §4.3).
func (ev *Evaluator) evalCall(env *Environment, call *ast.Call) (Value, error) {
	if builtin.IsBuiltin(call.Name) {
		return ev.evalBuiltinCall(env, call)
	}

	fn, ok := env.GetFunction(call.Name, call.ScopeDepth)
	if !ok {
		return nil, ev.runtimeErr(call, "undefined function %q", call.Name)
	}

	args := make([]Value, len(call.Args))
	for i, a := range call.Args {
		v, err := ev.eval(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	callEnv := NewEnclosedEnvironment(fn.Closure)
	for i, p := range fn.Decl.Parameters {
		callEnv.DefineVariable(p.Name, args[i])
	}

	// fn.Decl.Body is itself a Block, so this opens the second nested
	// frame the resolver already assumes exists (param scope, then the
	// body's own scope) — see resolver.go's FunctionDef handling.
	sig, err := ev.execStmt(callEnv, fn.Decl.Body)
	if err != nil {
		return nil, err
	}
	if sig.returned {
		return sig.value, nil
	}
	return &UnitValue{}, nil
}

func (ev *Evaluator) evalBuiltinCall(env *Environment, call *ast.Call) (Value, error) {
	args := make([]Value, len(call.Args))
	for i, a := range call.Args {
		v, err := ev.eval(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch call.Name {
	case "toint":
		switch a := args[0].(type) {
		case *IntValue:
			return a, nil
		case *FloatValue:
			return &IntValue{Value: int64(a.Value)}, nil
		case *StringValue:
			var i int64
			if _, err := fmt.Sscanf(a.Value, "%d", &i); err != nil {
				return nil, ev.runtimeErr(call, "cannot convert %q to int", a.Value)
			}
			return &IntValue{Value: i}, nil
		}

	case "tofloat":
		switch a := args[0].(type) {
		case *IntValue:
			return &FloatValue{Value: float64(a.Value)}, nil
		case *FloatValue:
			return a, nil
		case *StringValue:
			var f float64
			if _, err := fmt.Sscanf(a.Value, "%g", &f); err != nil {
				return nil, ev.runtimeErr(call, "cannot convert %q to float", a.Value)
			}
			return &FloatValue{Value: f}, nil
		}

	case "tostring":
		return &StringValue{Value: args[0].String()}, nil

	case "sin":
		return &FloatValue{Value: math.Sin(floatArg(args[0]))}, nil

	case "cos":
		return &FloatValue{Value: math.Cos(floatArg(args[0]))}, nil
	}

	return nil, ev.runtimeErr(call, "unreachable builtin %q", call.Name)
}

func floatArg(v Value) float64 {
	switch a := v.(type) {
	case *IntValue:
		return float64(a.Value)
	case *FloatValue:
		return a.Value
	default:
		return 0
	}
}
