package engine_test

import (
	"testing"

	"github.com/coregap/pmaxsat/engine"
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle/oracletest"
	"github.com/stretchr/testify/require"
)

func loadHard(o *oracletest.Oracle, f *formula.Formula) {
	for _, h := range f.Hard {
		if err := o.AddClause(h.Lits...); err != nil {
			panic(err)
		}
	}
}

// buildVars allocates n fresh oracle variables and returns their
// positive literals, wiring the formula's NVars for completeness.
func buildVars(o *oracletest.Oracle, f *formula.Formula, n int) []lit.Lit {
	out := make([]lit.Lit, n)
	for i := range out {
		out[i] = o.NewVar().Pos()
	}
	f.NVars = n
	return out
}

func allSoftIdx(f *formula.Formula) []int {
	idx := make([]int, len(f.Soft))
	for i := range f.Soft {
		idx[i] = i
	}
	return idx
}

func TestMSU3TwoConflictingUnitSofts(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 1)
	x := vars[0]

	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 1})

	res := engine.RunMSU3(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 1, res.UB)
	require.Equal(t, 1, res.LB)
}

func TestMSU3ThreeUnitWeightSoftsTwoAgainstOne(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 1)
	x := vars[0]

	// Two softs agree x is true, one disagrees: with uniform weight
	// treatment (MSU3 degenerate case) the optimal cost is 1.
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 1})

	res := engine.RunMSU3(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 1, res.UB)
}

func TestMSU3HardContradictionIsUnsatisfiable(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 1)
	x := vars[0]
	f.AddHard(formula.HardClause{Lits: []lit.Lit{x}})
	f.AddHard(formula.HardClause{Lits: []lit.Lit{x.Negation()}})
	loadHard(o, f)

	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 1})

	res := engine.RunMSU3(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Unsatisfiable, res.Status)
}

func TestOLLWeightedSplitsHeavierCore(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 1)
	x := vars[0]

	// A weight-5 soft wants x true, a weight-3 soft wants x false:
	// optimal cost is min(5,3) = 3 (falsify the lighter one).
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 5})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 3})

	res := engine.RunOLL(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 3, res.UB)
}

func TestOLLReusedCoreAtLighterWeightDuplicatesCardinalityView(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 2)
	x, y := vars[0], vars[1]

	// oracletest's brute-force Solve returns the *entire* assumption
	// set as the conflict (§6.1 "sufficient, not necessarily minimal"),
	// so both the x-conflict (weights 5, 3) and the independent
	// y-conflict (weights 2, 2) land in the very first core together:
	// w*=2, splitting the heavier x-softs down and recording a
	// bound_map entry at weight 2 for the four freshly-activated
	// weight-2 pieces. The leftover x-softs (now weight 3 and 1) still
	// conflict on the second round, whose core again sweeps in that
	// same bound_map entry — this time at w*=1, strictly lighter than
	// its recorded weight 2, forcing ActivateCore's
	// duplicate-cardinality-view path instead of a plain IncUpdate.
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 5})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 3})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y}, Weight: 2})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y.Negation()}, Weight: 2})

	res := engine.RunOLL(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Optimum, res.Status)
	// Cheapest way to satisfy both independent conflicts: falsify the
	// weight-3 soft (not the weight-5 one) and either weight-2 soft.
	require.Equal(t, 5, res.UB)
	require.Equal(t, 5, res.LB)
}

func TestLinearSearchMatchesMSU3OnUnweighted(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	vars := buildVars(o, f, 1)
	x := vars[0]
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 1})

	res := engine.LinearSearch(o, f, allSoftIdx(f), nil)
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 1, res.UB)
}
