package interp

import (
	"strconv"

	"github.com/enthyp/tc/internal/ast"
)

// Value is a runtime value produced by the evaluator. Grounded on
// CWBudde-go-dws's internal/interp/value.go, scaled down to this
// language's four scalar types plus Unit and function values.
type Value interface {
	Type() ast.Type
	String() string
}

// IntValue holds a 64-bit integer.
type IntValue struct{ Value int64 }

func (v *IntValue) Type() ast.Type  { return ast.TypeInt }
func (v *IntValue) String() string  { return strconv.FormatInt(v.Value, 10) }

// FloatValue holds a 64-bit float.
type FloatValue struct{ Value float64 }

func (v *FloatValue) Type() ast.Type { return ast.TypeFloat }
func (v *FloatValue) String() string { return strconv.FormatFloat(v.Value, 'g', -1, 64) }

// BoolValue holds a boolean.
type BoolValue struct{ Value bool }

func (v *BoolValue) Type() ast.Type { return ast.TypeBool }
func (v *BoolValue) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}

// StringValue holds a string.
type StringValue struct{ Value string }

func (v *StringValue) Type() ast.Type { return ast.TypeString }
func (v *StringValue) String() string { return v.Value }

// UnitValue is the sole value of TypeUnit, returned by a function that
// falls off the end of its body without an explicit return.
type UnitValue struct{}

func (v *UnitValue) Type() ast.Type { return ast.TypeUnit }
func (v *UnitValue) String() string { return "unit" }

// FunctionValue is a callable: its declaration plus the environment in
// effect at the point it was defined (closure by reference, spec
// §4.3/§9 "Closures").
type FunctionValue struct {
	Decl    *ast.FunctionDef
	Closure *Environment
}

func (v *FunctionValue) Type() ast.Type { return ast.TypeUnit }
func (v *FunctionValue) String() string { return "<function " + v.Decl.Name + ">" }
