package stats_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/stats"
	"github.com/stretchr/testify/require"
)

func TestRecordLBRejectsRegression(t *testing.T) {
	c := stats.NewCounters()
	now := time.Unix(0, 0)
	require.NoError(t, c.RecordLB(now, 1))
	require.NoError(t, c.RecordLB(now, 3))
	require.Error(t, c.RecordLB(now, 2))
}

func TestRecordUBRejectsRegression(t *testing.T) {
	c := stats.NewCounters()
	now := time.Unix(0, 0)
	require.NoError(t, c.RecordUB(now, 10))
	require.NoError(t, c.RecordUB(now, 4))
	require.Error(t, c.RecordUB(now, 7))
}

func TestHistoriesPreserveInsertionOrder(t *testing.T) {
	c := stats.NewCounters()
	now := time.Unix(0, 0)
	require.NoError(t, c.RecordLB(now, 0))
	require.NoError(t, c.RecordLB(now, 2))
	require.NoError(t, c.RecordUB(now, 9))
	require.NoError(t, c.RecordUB(now, 5))
	require.Equal(t, []int{0, 2}, c.LBHistory())
	require.Equal(t, []int{9, 5}, c.UBHistory())
}

func TestBuildSnapshotAndWriteJSON(t *testing.T) {
	f := formula.New(0)
	f.AddSoft(formula.SoftClause{Lits: []lit.Lit{1}, Weight: 1})

	c := stats.NewCounters()
	now := time.Unix(0, 0)
	require.NoError(t, c.RecordLB(now, 1))
	require.NoError(t, c.RecordUB(now, 1))

	snap := stats.BuildSnapshot(f, c, "OPTIMUM FOUND")
	require.Equal(t, 1, snap.LB)
	require.Equal(t, 1, snap.UB)
	require.Equal(t, 1, snap.NSoft)

	var buf bytes.Buffer
	require.NoError(t, stats.WriteJSON(&buf, snap))
	require.Contains(t, buf.String(), "\"status\": \"OPTIMUM FOUND\"")
}

func TestPrometheusSinkObserveIncrementsOnImprovement(t *testing.T) {
	s := stats.NewPrometheusSink()
	c := stats.NewCounters()
	now := time.Unix(0, 0)
	require.NoError(t, c.RecordUB(now, 10))
	s.Observe(c)
	require.NoError(t, c.RecordUB(now, 4))
	s.Observe(c)
	require.NotNil(t, s.Handler())
}
