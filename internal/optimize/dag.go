package optimize

import (
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/enthyp/tc/internal/ast"
	"github.com/enthyp/tc/internal/dataflow"
)

// hashKey is the fixed highwayhash key used to fingerprint expression
// subtrees. Grounded on viant-linager's inspector/graph/hash.go, which
// hashes arbitrary byte payloads with the same fixed key rather than a
// per-run random one (fingerprints must be stable across runs for
// reproducible sharing decisions).
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

func fpHash(parts ...[]byte) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		panic(err) // hashKey is a fixed 32-byte constant, New64 cannot fail
	}
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum64()
}

// fingerprint identifies an expression subtree for structural sharing.
// opaque fingerprints are never considered equal to anything, even to
// another opaque fingerprint with the same digest: they exist only to
// let the sharing check short-circuit on "this subtree is never a
// candidate" without a separate boolean at every call site.
type fingerprint struct {
	opaque bool
	digest uint64
}

func opaqueFP(id ast.NodeID) fingerprint {
	return fingerprint{opaque: true, digest: fpHash([]byte(fmt.Sprintf("OPAQUE:%d", id)))}
}

func literalFP(l *ast.Literal) fingerprint {
	return fingerprint{digest: fpHash([]byte(fmt.Sprintf("L:%d:%v", l.Type, l.Value)))}
}

func combineBinaryFP(l, r fingerprint, op ast.BinaryOp) fingerprint {
	return fingerprint{digest: fpHash([]byte(fmt.Sprintf("B:%d:%d:%s", l.digest, r.digest, op)))}
}

func combineUnaryFP(e fingerprint, op ast.UnaryOp) fingerprint {
	return fingerprint{digest: fpHash([]byte(fmt.Sprintf("U:%d:%s", e.digest, op)))}
}

// DAGOptimizer implements spec §4.6: expressions that provably
// evaluate to the same value at the same program point are folded
// into a single shared subtree by marking the earlier occurrence
// cacheable and redirecting later occurrences' parents to it. A
// Variable's fingerprint is opaque unless its IN set contains exactly
// one reaching definition with its name; a Call's fingerprint is
// always opaque (unknown side effects, spec §4.6).
type DAGOptimizer struct {
	varDefs *dataflow.VarDefs
	in      map[ast.NodeID]dataflow.Set

	table map[uint64]ast.Expr
}

// NewDAGOptimizer creates an optimizer over a previously computed
// var_defs table and IN sets.
func NewDAGOptimizer(varDefs *dataflow.VarDefs, in map[ast.NodeID]dataflow.Set) *DAGOptimizer {
	return &DAGOptimizer{varDefs: varDefs, in: in}
}

// Run walks program.Statements, rewriting every expression-bearing
// field in place.
func (o *DAGOptimizer) Run(program *ast.Program) {
	o.table = map[uint64]ast.Expr{}
	o.visitStmts(program.Statements)
}

func (o *DAGOptimizer) visitStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		o.visitStmt(s)
	}
}

func (o *DAGOptimizer) visitStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		o.visitStmts(st.Statements)
	case *ast.FunctionDef:
		o.visitStmts(st.Body.Statements)
	case *ast.VariableDeclaration:
		if st.Value != nil {
			st.Value, _ = o.visit(st.Value)
		}
	case *ast.Assignment:
		st.Value, _ = o.visit(st.Value)
	case *ast.PrintStmt:
		st.Expr, _ = o.visit(st.Expr)
	case *ast.AssertStmt:
		st.Expr, _ = o.visit(st.Expr)
	case *ast.ReturnStmt:
		if st.Expr != nil {
			st.Expr, _ = o.visit(st.Expr)
		}
	case *ast.IfStmt:
		st.Condition, _ = o.visit(st.Condition)
		o.visitStmt(st.Body)
	case *ast.WhileStmt:
		st.Condition, _ = o.visit(st.Condition)
		o.visitStmt(st.Body)
	case *ast.ForStmt:
		o.visitStmt(st.Initializer)
		st.Condition, _ = o.visit(st.Condition)
		o.visitStmt(st.Increment)
		o.visitStmt(st.Body)
	case *ast.Call:
		for i, a := range st.Args {
			st.Args[i], _ = o.visit(a)
		}
	}
}

// visit returns the (possibly substituted) expression to install in
// the caller's slot, along with its fingerprint.
func (o *DAGOptimizer) visit(e ast.Expr) (ast.Expr, fingerprint) {
	switch n := e.(type) {
	case *ast.Literal:
		return n, literalFP(n)

	case *ast.Variable:
		return n, o.variableFP(n)

	case *ast.Call:
		for i, a := range n.Args {
			n.Args[i], _ = o.visit(a)
		}
		return n, opaqueFP(n.ID())

	case *ast.BinaryExpr:
		left, lfp := o.visit(n.Left)
		right, rfp := o.visit(n.Right)
		n.Left, n.Right = left, right

		if lfp.opaque || rfp.opaque {
			return n, opaqueFP(n.ID())
		}
		fp := combineBinaryFP(lfp, rfp, n.Op)
		return o.share(n, fp)

	case *ast.UnaryExpr:
		inner, ifp := o.visit(n.Expr)
		n.Expr = inner

		if ifp.opaque {
			return n, opaqueFP(n.ID())
		}
		fp := combineUnaryFP(ifp, n.Op)
		return o.share(n, fp)

	default:
		return e, opaqueFP(e.ID())
	}
}

// variableFP fingerprints a Variable use by the identity of its
// unique reaching definition, if it has one; otherwise it is opaque,
// since two uses of the same name may observe different values.
func (o *DAGOptimizer) variableFP(v *ast.Variable) fingerprint {
	var unique ast.NodeID
	count := 0
	for did := range o.in[v.ID()] {
		if o.varDefs.NameOf(did) != v.Name {
			continue
		}
		count++
		unique = did
		if count > 1 {
			break
		}
	}
	if count != 1 {
		return opaqueFP(v.ID())
	}
	return fingerprint{digest: fpHash([]byte(fmt.Sprintf("D:%d", unique)))}
}

// share registers n under fp's digest if no prior node occupies it;
// otherwise it marks the prior node cacheable and this one superseded,
// returning the prior node so the caller's slot points at the shared
// subtree.
func (o *DAGOptimizer) share(n ast.Expr, fp fingerprint) (ast.Expr, fingerprint) {
	existing, ok := o.table[fp.digest]
	if !ok {
		o.table[fp.digest] = n
		return n, fp
	}
	markCaching(existing)
	setReplacedBy(n, existing)
	return existing, fp
}

func markCaching(e ast.Expr) {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		if n.Cache == nil {
			n.Cache = &ast.CacheSlot{}
		}
	case *ast.UnaryExpr:
		if n.Cache == nil {
			n.Cache = &ast.CacheSlot{}
		}
	}
}

func setReplacedBy(n, existing ast.Expr) {
	switch t := n.(type) {
	case *ast.BinaryExpr:
		t.ReplacedBy = existing
	case *ast.UnaryExpr:
		t.ReplacedBy = existing
	}
}
