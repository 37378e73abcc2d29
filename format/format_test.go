package format_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coregap/pmaxsat/format"
	"github.com/stretchr/testify/require"
)

func TestReadWCNFHardContradiction(t *testing.T) {
	in := "p wcnf 1 2 10\n10 1 0\n10 -1 0\n"
	f, err := format.ReadWCNF(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 1, f.NVars)
	require.Len(t, f.Hard, 2)
	require.Empty(t, f.Soft)
}

func TestReadWCNFTwoConflictingUnitSofts(t *testing.T) {
	in := "p wcnf 1 2 10\n1 1 0\n1 -1 0\n"
	f, err := format.ReadWCNF(strings.NewReader(in))
	require.NoError(t, err)
	require.Empty(t, f.Hard)
	require.Len(t, f.Soft, 2)
	require.Equal(t, 1, f.Soft[0].Weight)
	require.Equal(t, 1, f.Soft[1].Weight)
}

func TestReadWCNFSkipsCommentsAndBlankLines(t *testing.T) {
	in := "c this is a comment\n\np wcnf 1 1 10\nc another comment\n1 1 0\n"
	f, err := format.ReadWCNF(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Soft, 1)
}

func TestReadWCNFRejectsMissingTrailingZero(t *testing.T) {
	in := "p wcnf 1 1 10\n1 1\n"
	_, err := format.ReadWCNF(strings.NewReader(in))
	require.Error(t, err)
}

func TestReadPWCNFBucketsZeroAndNegativePartitionsSeparately(t *testing.T) {
	in := "p wcnf 3 3 100 1\n1 1 1 0\n0 1 2 0\n-1 1 3 0\n"
	f, err := format.ReadPWCNF(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Soft, 3)
	require.Equal(t, 1, f.NPartitionsUser())
	require.Equal(t, f.EffectivePartition(f.Soft[0].PartitionID, f.Soft[0].HasPart), 1)
	require.Equal(t, f.ZeroPartitionID(), f.EffectivePartition(f.Soft[1].PartitionID, f.Soft[1].HasPart))
	require.Equal(t, f.NegPartitionID(), f.EffectivePartition(f.Soft[2].PartitionID, f.Soft[2].HasPart))
	require.NotEqual(t, f.ZeroPartitionID(), f.NegPartitionID())
}

func TestPWCNFRoundTrip(t *testing.T) {
	in := "p wcnf 3 4 100 2\n100 3 1 2 3 0\n1 1 1 0\n2 1 -2 0\n0 1 3 0\n"
	f, err := format.ReadPWCNF(strings.NewReader(in))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, format.WritePWCNF(&buf, f))

	f2, err := format.ReadPWCNF(&buf)
	require.NoError(t, err)

	require.Equal(t, f.NVars, f2.NVars)
	require.Len(t, f2.Hard, len(f.Hard))
	require.Len(t, f2.Soft, len(f.Soft))
	for i := range f.Soft {
		require.Equal(t, f.Soft[i].Weight, f2.Soft[i].Weight)
		require.Equal(t, f.Soft[i].Lits, f2.Soft[i].Lits)
		// Partition assignment is preserved modulo overflow-bucket
		// renumbering (§8 round-trip property): compare the *bucket*
		// membership, not the raw ids.
		want := f.EffectivePartition(f.Soft[i].PartitionID, f.Soft[i].HasPart)
		got := f2.EffectivePartition(f2.Soft[i].PartitionID, f2.Soft[i].HasPart)
		require.Equal(t, want == f.ZeroPartitionID(), got == f2.ZeroPartitionID())
		require.Equal(t, want == f.NegPartitionID(), got == f2.NegPartitionID())
	}
}

func TestReadOPBObjectiveBecomesSoftUnitClauses(t *testing.T) {
	in := "* a trivial PB instance\nmin: 2 x1 3 x2;\n1 x1 1 x2 >= 1;\n"
	f, err := format.ReadOPB(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Soft, 2)
	require.Equal(t, 2, f.Soft[0].Weight)
	require.Equal(t, 3, f.Soft[1].Weight)
	require.Len(t, f.Side, 1)
	require.Equal(t, 1, f.Side[0].AtLeast)
}

func TestReadOPBNegatedLiteralObjectiveTerm(t *testing.T) {
	in := "min: 5 ~x1;\n"
	f, err := format.ReadOPB(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Soft, 1)
	require.Equal(t, 5, f.Soft[0].Weight)
	// minimizing 5*(1-x1) costs when x1 is false, so the soft clause
	// (violated when false) must be the positive literal on x1.
	require.Len(t, f.Soft[0].Lits, 1)
	require.True(t, f.Soft[0].Lits[0].IsPositive())
}

func TestReadOPBLessEqualConstraintNormalizedToGreaterEqual(t *testing.T) {
	in := "1 x1 1 x2 1 x3 <= 2;\n"
	f, err := format.ReadOPB(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Side, 1)
	// sum <= 2 over 3 unit-coeff literals <=> sum(negations) >= 1.
	require.Equal(t, 1, f.Side[0].AtLeast)
}

func TestReadOPBNegativeCoefficientIsNormalized(t *testing.T) {
	in := "-2 x1 3 x2 >= 1;\n"
	f, err := format.ReadOPB(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, f.Side, 1)
	// -2*x1 == 2*(~x1) - 2, so the bound shifts from 1 to 1-(-2)=3.
	require.Equal(t, 3, f.Side[0].AtLeast)
	require.ElementsMatch(t, f.Side[0].Coeffs, []int{2, 3})
}
