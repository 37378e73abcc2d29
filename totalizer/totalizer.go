// Package totalizer implements the incremental Totalizer cardinality
// encoder (§4.1): a balanced binary tree over input literals whose
// internal nodes expose output vectors o_1,...,o_k with the semantics
// "o_j holds iff at least j of the node's inputs are true". Only the
// upward merge direction is built; downward propagation is optional
// per spec and unused by either engine.
package totalizer

import (
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
)

// node is a tree node kept in a flat arena indexed by integer id, to
// avoid the self-referential ownership cycle a pointer tree would need
// between parent and child (Design Notes: "keep totalizer tree nodes
// in a flat arena indexed by integers").
type node struct {
	left, right int // arena indices, -1 for leaves
	leaf        lit.Lit

	// inputs is the count of leaves under this node.
	inputs int

	// outputs[j-1] is o_j for this node, allocated lazily as
	// explainedUpTo grows. len(outputs) may exceed explainedUpTo when
	// a variable was allocated ahead of its defining clauses (never
	// happens in this implementation, kept equal at all times).
	outputs []lit.Var

	// explainedUpTo is the invariant of §4.1: the merge clauses
	// materialized for this node are exactly those whose output index
	// is <= explainedUpTo.
	explainedUpTo int
}

// Totalizer is one incremental counter network, owned by an engine or
// partition. It references only variable ids, not oracle state, so it
// outlives any single SAT-oracle generation (§3 "Lifecycle").
type Totalizer struct {
	alloc  oracle.VarAllocator
	add    oracle.ClauseAdder
	arena  []node
	root   int // arena index of the root, -1 if Built has never been called
	bound  int // current materialized bound k
	inputN int // total number of leaf inputs across all joins so far
}

// New returns an empty totalizer bound to the given variable allocator
// and clause database (normally the same oracle.Oracle for both).
func New(alloc oracle.VarAllocator, add oracle.ClauseAdder) *Totalizer {
	return &Totalizer{alloc: alloc, add: add, root: -1}
}

// Built reports whether Build has ever been called.
func (t *Totalizer) Built() bool { return t.root >= 0 }

// NInputs is the number of leaf input literals currently in the tree.
func (t *Totalizer) NInputs() int { return t.inputN }

// Bound is the current materialized bound k.
func (t *Totalizer) Bound() int { return t.bound }

func (t *Totalizer) newNode(n node) int {
	t.arena = append(t.arena, n)
	return len(t.arena) - 1
}

func (t *Totalizer) leaf(l lit.Lit) int {
	return t.newNode(node{left: -1, right: -1, leaf: l, inputs: 1})
}

// balancedTree builds a balanced binary tree of merge nodes over the
// given leaves and returns its root index. No outputs are materialized
// yet; that is inc_update's job.
func (t *Totalizer) balancedTree(leaves []int) int {
	if len(leaves) == 1 {
		return leaves[0]
	}
	mid := len(leaves) / 2
	l := t.balancedTree(leaves[:mid])
	r := t.balancedTree(leaves[mid:])
	n := t.arena[l]
	inputs := n.inputs + t.arena[r].inputs
	return t.newNode(node{left: l, right: r, inputs: inputs})
}

// ensureOutputs allocates output variables for node idx up to want
// (capped at the node's input count), but does not add any clauses —
// callers materialize clauses separately once both children are ready.
func (t *Totalizer) ensureOutputs(idx, want int) {
	n := &t.arena[idx]
	if want > n.inputs {
		want = n.inputs
	}
	for len(n.outputs) < want {
		n.outputs = append(n.outputs, t.alloc.NewVar())
	}
}

// outputLit returns o_j (1-indexed) for node idx as a positive literal.
// j must not exceed the node's current allocated output count.
func (t *Totalizer) outputLit(idx, j int) lit.Lit {
	return t.arena[idx].outputs[j-1].Pos()
}

// unitLit returns the literal a leaf or an internal node's "j-th unit
// output" stands for. For a true leaf node (inputs == 1) that is
// simply its literal; internal nodes always go through outputLit.
func (t *Totalizer) unitLit(idx, j int) lit.Lit {
	n := &t.arena[idx]
	if n.left < 0 {
		return n.leaf
	}
	return t.outputLit(idx, j)
}

// mustAdd adds a merge clause. It never carries more than a handful of
// literals and is never empty, so a failure here means a logic error
// in the tree construction, not a runtime condition callers can
// recover from.
func (t *Totalizer) mustAdd(lits ...lit.Lit) {
	if err := t.add.AddClause(lits...); err != nil {
		panic(err)
	}
}

// materialize adds, for node idx, every merge clause whose output
// index is in (prevBound, newBound], and raises explainedUpTo. Leaves
// have nothing to materialize.
func (t *Totalizer) materialize(idx, newBound int) {
	n := &t.arena[idx]
	if n.left < 0 {
		return
	}
	if newBound > n.inputs {
		newBound = n.inputs
	}
	if newBound <= n.explainedUpTo {
		return
	}
	t.ensureOutputs(idx, newBound)
	lchild, rchild := n.left, n.right
	lp, rq := t.arena[lchild].inputs, t.arena[rchild].inputs
	if lp > newBound {
		lp = newBound
	}
	if rq > newBound {
		rq = newBound
	}
	t.materialize(lchild, lp)
	t.materialize(rchild, rq)

	prev := n.explainedUpTo
	// Clause (i): for every pair (a,b) with a+b in (prev, newBound],
	// a in [0,p], b in [0,q] (a==0 or b==0 meaning "no contribution
	// from that side", i.e. the trivial always-true literal, so those
	// pairs degenerate to unconditional implications l_a => o_a or
	// r_b => o_b and are folded in below).
	for sum := prev + 1; sum <= newBound; sum++ {
		for a := 0; a <= lp && a <= sum; a++ {
			b := sum - a
			if b < 0 || b > rq {
				continue
			}
			switch {
			case a == 0:
				// r_b => o_sum (sum == b here)
				t.mustAdd(t.unitLit(rchild, b).Negation(), t.outputLit(idx, sum))
			case b == 0:
				t.mustAdd(t.unitLit(lchild, a).Negation(), t.outputLit(idx, sum))
			default:
				t.mustAdd(
					t.unitLit(lchild, a).Negation(),
					t.unitLit(rchild, b).Negation(),
					t.outputLit(idx, sum),
				)
			}
		}
	}
	n.explainedUpTo = newBound
}

// Build constructs the tree over inputs and materializes o_1,...,o_k
// (§4.1 build). It is an error to call Build twice; use Join to add
// further inputs to an already-built totalizer.
func (t *Totalizer) Build(inputs []lit.Lit, k int) {
	leaves := make([]int, len(inputs))
	for i, l := range inputs {
		leaves[i] = t.leaf(l)
	}
	t.root = t.balancedTree(leaves)
	t.inputN = len(inputs)
	t.bound = 0
	t.IncUpdate(k)
}

// IncUpdate grows the materialized prefix to o_1,...,o_k' (§4.1
// inc_update), adding only the new merge clauses required, and returns
// the assumption literal asserting "at most k' inputs are true" (i.e.
// not(o_{k'+1})). If k' >= the total input count the constraint is
// vacuous and IncUpdate returns lit.Lit(0) (no literal needed).
func (t *Totalizer) IncUpdate(k int) lit.Lit {
	if k > t.bound {
		t.bound = k
	}
	if t.bound >= t.inputN {
		t.materialize(t.root, t.inputN)
		return 0
	}
	// o_{bound+1} must itself be defined by merge clauses, or
	// asserting its negation would not actually force sum <= bound.
	t.materialize(t.root, t.bound+1)
	return t.outputAssumption()
}

// outputAssumption returns the assumption literal for the totalizer's
// current bound, assuming the relevant node is already materialized.
func (t *Totalizer) outputAssumption() lit.Lit {
	if t.bound >= t.inputN {
		return 0
	}
	return t.outputLit(t.root, t.bound+1).Negation()
}

// Join extends the encoding with additional input literals (§4.1
// join): a right-child node is built over extra and merged with the
// existing root, preserving the already-built structure. The bound is
// then raised to k (it is never lowered) through IncUpdate, and the
// returned literal is the "at most k" assumption over all inputs, or
// 0 when k covers every input.
func (t *Totalizer) Join(extra []lit.Lit, k int) lit.Lit {
	if !t.Built() {
		t.Build(extra, k)
		return t.outputAssumption()
	}
	leaves := make([]int, len(extra))
	for i, l := range extra {
		leaves[i] = t.leaf(l)
	}
	right := t.balancedTree(leaves)
	oldRoot := t.root
	inputs := t.arena[oldRoot].inputs + t.arena[right].inputs
	t.root = t.newNode(node{left: oldRoot, right: right, inputs: inputs})
	t.inputN += len(extra)
	return t.IncUpdate(k)
}

// Outputs returns the currently materialized prefix of root output
// literals, o_1,...,o_bound (capped at the input count).
func (t *Totalizer) Outputs() []lit.Lit {
	if !t.Built() {
		return nil
	}
	n := t.arena[t.root]
	cnt := t.bound
	if cnt > len(n.outputs) {
		cnt = len(n.outputs)
	}
	out := make([]lit.Lit, cnt)
	for j := 1; j <= cnt; j++ {
		out[j-1] = t.outputLit(t.root, j)
	}
	return out
}
