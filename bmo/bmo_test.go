package bmo_test

import (
	"testing"

	"github.com/coregap/pmaxsat/bmo"
	"github.com/coregap/pmaxsat/engine"
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle/oracletest"
	"github.com/stretchr/testify/require"
)

func allSoftIdx(f *formula.Formula) []int {
	idx := make([]int, len(f.Soft))
	for i := range f.Soft {
		idx[i] = i
	}
	return idx
}

func TestConditionHoldsForDominatingWeights(t *testing.T) {
	levels := []bmo.Level{
		{Weight: 10, SoftIdx: []int{0}},
		{Weight: 3, SoftIdx: []int{1, 2}}, // 2*3=6 < 10, condition holds
	}
	require.True(t, bmo.ConditionHolds(levels))
}

func TestConditionFailsWhenLighterLevelCanOutweigh(t *testing.T) {
	levels := []bmo.Level{
		{Weight: 5, SoftIdx: []int{0}},
		{Weight: 3, SoftIdx: []int{1, 2}}, // 2*3=6 >= 5, condition fails
	}
	require.False(t, bmo.ConditionHolds(levels))
}

func TestLevelsGroupsByWeightDescending(t *testing.T) {
	f := formula.New(0)
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{1}, Weight: 3})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{2}, Weight: 10})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{3}, Weight: 3})

	levels := bmo.Levels(f, allSoftIdx(f))
	require.Len(t, levels, 2)
	require.Equal(t, 10, levels[0].Weight)
	require.Equal(t, 3, levels[1].Weight)
	require.ElementsMatch(t, []int{0, 2}, levels[1].SoftIdx)
}

func TestDriverResolvesTwoLevelsLexicographically(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	x := o.NewVar().Pos()
	y := o.NewVar().Pos()
	f.NVars = 2

	// Heavy level (weight 10): conflicting unit softs over x, cost 10
	// whichever way it resolves.
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 10})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 10})
	// Light level (weight 1): conflicting unit softs over y, cost 1.
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y.Negation()}, Weight: 1})

	levels := bmo.Levels(f, allSoftIdx(f))
	require.True(t, bmo.ConditionHolds(levels))

	d := bmo.New(o, f, nil)
	res := d.Run(allSoftIdx(f))
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 11, res.UB)
}

func TestDriverWithPartitionScopesEachLevelToItsOwnSoftIndices(t *testing.T) {
	o := oracletest.New()
	f := formula.New(0)
	x := o.NewVar().Pos()
	y := o.NewVar().Pos()
	f.NVars = 2

	// Same two-level instance as above, but driven with the partition
	// controller enabled: each level's run must be scoped to that
	// level's own soft indices, not the whole formula, or the cost
	// would be wrong (either double-counted or mixing weights).
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x}, Weight: 10})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{x.Negation()}, Weight: 10})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y}, Weight: 1})
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{y.Negation()}, Weight: 1})

	d := bmo.New(o, f, nil)
	d.UsePartition = true
	res := d.Run(allSoftIdx(f))
	require.Equal(t, engine.Optimum, res.Status)
	require.Equal(t, 11, res.UB)
}
