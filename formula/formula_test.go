package formula_test

import (
	"testing"

	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/stretchr/testify/require"
)

func unit(v int32) []lit.Lit { return []lit.Lit{lit.IntToLit(v)} }

func TestProblemTypeDerivation(t *testing.T) {
	f := formula.New(0)
	f.AddSoft(formula.SoftClause{Lits: unit(1), Weight: 1})
	require.Equal(t, formula.Unweighted, f.ProblemType())
	f.AddSoft(formula.SoftClause{Lits: unit(-1), Weight: 2})
	require.Equal(t, formula.Weighted, f.ProblemType())
}

func TestEffectivePartitionBucketing(t *testing.T) {
	f := formula.New(2) // user partitions 1, 2
	require.Equal(t, 2, f.ZeroPartitionID())
	require.Equal(t, 3, f.NegPartitionID())
	require.Equal(t, 4, f.NPartitions())

	require.Equal(t, 1, f.EffectivePartition(1, true))
	require.Equal(t, f.ZeroPartitionID(), f.EffectivePartition(0, true))
	require.Equal(t, f.ZeroPartitionID(), f.EffectivePartition(0, false))
	require.Equal(t, f.NegPartitionID(), f.EffectivePartition(-1, true))
	require.Equal(t, f.NegPartitionID(), f.EffectivePartition(-7, true))
}

func TestGroupsDisjointAndComplete(t *testing.T) {
	f := formula.New(2)
	f.AddSoft(formula.SoftClause{Lits: unit(1), Weight: 1, PartitionID: 1, HasPart: true})
	f.AddSoft(formula.SoftClause{Lits: unit(2), Weight: 1, PartitionID: 2, HasPart: true})
	f.AddSoft(formula.SoftClause{Lits: unit(3), Weight: 1}) // no partition -> zero bucket
	f.AddSoft(formula.SoftClause{Lits: unit(4), Weight: 1, PartitionID: -5, HasPart: true})

	groups := f.Groups()
	require.Len(t, groups, f.NPartitions())

	seen := map[int]bool{}
	total := 0
	for _, g := range groups {
		for _, idx := range g.SoftIdx {
			require.False(t, seen[idx], "soft clause %d assigned to more than one partition", idx)
			seen[idx] = true
			total++
		}
	}
	require.Equal(t, len(f.Soft), total)
	require.Equal(t, []int{2}, groups[0].SoftIdx)
	require.Equal(t, []int{0}, groups[1].SoftIdx)
	require.Equal(t, []int{1}, groups[2].SoftIdx)
	require.Equal(t, []int{3}, groups[3].SoftIdx)
}

func TestValidateRejectsNonPositiveWeight(t *testing.T) {
	f := formula.New(0)
	f.AddSoft(formula.SoftClause{Lits: unit(1), Weight: 0})
	require.Error(t, f.Validate())
}

func TestValidateRejectsHardWeightNotDominating(t *testing.T) {
	f := formula.New(0)
	f.AddSoft(formula.SoftClause{Lits: unit(1), Weight: 5})
	f.HardWeight = 5
	require.Error(t, f.Validate())
	f.HardWeight = 6
	require.NoError(t, f.Validate())
}

func TestRelaxedAppendsRelaxationLiteral(t *testing.T) {
	s := formula.SoftClause{Lits: unit(1)}
	require.Panics(t, func() { s.Relaxed() })
	s.RelaxSet = true
	s.RelaxVar = lit.Var(41)
	got := s.Relaxed()
	require.Equal(t, []lit.Lit{lit.IntToLit(1), lit.Var(41).Pos()}, got)
}
