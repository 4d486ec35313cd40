// Package builtin is the single source of truth for the names that
// are always in scope at depth 0, shared by the resolver, the
// dataflow engine, and the evaluator. The type checker's builtin
// signature table lists the same names on its own. Grounded on
// original_source's tc/globals.py global_env().
package builtin

// Names lists every builtin callable, always resolvable at scope
// depth 0 regardless of what the program itself declares.
var Names = []string{"toint", "tofloat", "tostring", "sin", "cos"}

// IsBuiltin reports whether name is one of the always-in-scope builtins.
func IsBuiltin(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
