// Package dataflow computes reaching-definition GEN/KILL/IN/OUT sets
// by treating the AST directly as a control-flow structure: a single
// bottom-up traversal rather than an iterative fixpoint over a real
// CFG. This is a deliberate, documented over-approximation (see the
// per-node-type comments in genkill.go and inout.go).
package dataflow

import "github.com/enthyp/tc/internal/ast"

// Set is a sparse set of definition-node identities. Definitions are
// always VariableDeclaration or Assignment nodes, addressed by their
// arena NodeID rather than by pointer, per the node-identity design.
type Set map[ast.NodeID]struct{}

// NewSet builds a Set from the given ids.
func NewSet(ids ...ast.NodeID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into s in place.
func (s Set) Add(id ast.NodeID) { s[id] = struct{}{} }

// Has reports whether id is a member of s.
func (s Set) Has(id ast.NodeID) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new set containing every element of s or other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Sub returns a new set containing elements of s not present in other.
func (s Set) Sub(other Set) Set {
	out := make(Set, len(s))
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersect returns a new set containing elements present in both s and other.
func (s Set) Intersect(other Set) Set {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Set, len(small))
	for id := range small {
		if _, ok := big[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Len returns the number of elements in s.
func (s Set) Len() int { return len(s) }

// Slice returns the elements of s in no particular order.
func (s Set) Slice() []ast.NodeID {
	out := make([]ast.NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
