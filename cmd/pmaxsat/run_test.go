package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coregap/pmaxsat/config"
	"github.com/coregap/pmaxsat/engine"
	"github.com/stretchr/testify/require"
)

func runWCNF(t *testing.T, wcnf string, mutate func(*config.Options)) (int, string, string) {
	t.Helper()
	opts := config.Defaults()
	opts.Input = "-"
	opts.InputFormat = config.FormatWCNF
	if mutate != nil {
		mutate(&opts)
	}
	var stdout, stderr bytes.Buffer
	code := run(&opts, strings.NewReader(wcnf), &stdout, &stderr, nil)
	return code, stdout.String(), stderr.String()
}

func TestEndToEndHardContradiction(t *testing.T) {
	const wcnf = "p wcnf 1 2 10\n10 1 0\n10 -1 0\n"
	code, out, errOut := runWCNF(t, wcnf, nil)
	require.Equal(t, exitUNSAT, code, "stderr: %s", errOut)
	require.Contains(t, out, "s UNSATISFIABLE")
}

func TestEndToEndTwoConflictingUnitSofts(t *testing.T) {
	const wcnf = "p wcnf 1 2 10\n1 1 0\n1 -1 0\n"
	code, out, errOut := runWCNF(t, wcnf, nil)
	require.Equal(t, exitOPTIMUM, code, "stderr: %s", errOut)
	require.Contains(t, out, "s OPTIMUM FOUND")
	require.Contains(t, out, "o 1")
}

func TestEndToEndThreeConflictingUnitSoftsUnequalWeights(t *testing.T) {
	const wcnf = "p wcnf 1 3 100\n1 1 0\n2 -1 0\n3 1 0\n"
	code, out, errOut := runWCNF(t, wcnf, nil)
	require.Equal(t, exitOPTIMUM, code, "stderr: %s", errOut)
	require.Contains(t, out, "o 2")
}

func TestEndToEndLinearAlgorithmAgreesWithDefault(t *testing.T) {
	const wcnf = "p wcnf 1 3 100\n1 1 0\n2 -1 0\n3 1 0\n"
	_, outDefault, _ := runWCNF(t, wcnf, nil)
	_, outLinear, errOut := runWCNF(t, wcnf, func(o *config.Options) {
		o.BMO = false
		o.Algorithm = config.AlgLinear
	})
	require.Contains(t, outDefault, "o 2")
	require.Contains(t, outLinear, "o 2", "stderr: %s", errOut)
}

func TestEndToEndBMOInstance(t *testing.T) {
	// Three levels {100, 10, 1}; one soft per level, each conflicting
	// with the single hard-asserted unit clause, so every level must
	// pay its full weight.
	const wcnf = "p wcnf 1 4 1000\n1000 1 0\n100 -1 0\n10 -1 0\n1 -1 0\n"
	code, out, errOut := runWCNF(t, wcnf, func(o *config.Options) {
		o.BMO = true
	})
	require.Equal(t, exitOPTIMUM, code, "stderr: %s", errOut)
	require.Contains(t, out, "o 111")
}

func TestEndToEndNoSoftClausesIsTriviallyOptimal(t *testing.T) {
	const wcnf = "p wcnf 1 1 10\n10 1 0\n"
	code, out, errOut := runWCNF(t, wcnf, nil)
	require.Equal(t, exitOPTIMUM, code, "stderr: %s", errOut)
	require.Contains(t, out, "o 0")
}

func TestEndToEndAllOptSolsEnumeratesEveryTiedOptimum(t *testing.T) {
	// Two unit softs of equal weight on opposite literals of x1, so
	// exactly one of them must be falsified but either choice costs
	// the same: two distinct optimal models exist.
	const wcnf = "p wcnf 2 2 10\n1 1 0\n1 -1 0\n"
	code, out, errOut := runWCNF(t, wcnf, func(o *config.Options) {
		o.AllOptSols = true
	})
	require.Equal(t, exitOPTIMUM, code, "stderr: %s", errOut)
	require.Contains(t, out, "s OPTIMUM FOUND")
	require.Equal(t, 2, strings.Count(out, "\nv "), "expected two v lines, got:\n%s", out)
	require.Contains(t, out, "c found 2 optimal solution(s)")
}

func TestEndToEndWithoutAllOptSolsOmitsEnumerationOutput(t *testing.T) {
	const wcnf = "p wcnf 2 2 10\n1 1 0\n1 -1 0\n"
	_, out, errOut := runWCNF(t, wcnf, nil)
	require.NotContains(t, out, "c found", "stderr: %s", errOut)
}

func TestEndToEndCancelledBeforeFirstModelReportsUnknown(t *testing.T) {
	opts := config.Defaults()
	opts.Input = "-"
	opts.InputFormat = config.FormatWCNF
	const wcnf = "p wcnf 1 2 10\n1 1 0\n1 -1 0\n"

	tok := engine.NewCancelToken()
	tok.Cancel()
	var stdout, stderr bytes.Buffer
	code := run(&opts, strings.NewReader(wcnf), &stdout, &stderr, tok)
	require.Equal(t, exitUNKNOWN, code, "stderr: %s", stderr.String())
	require.Contains(t, stdout.String(), "s UNKNOWN")
}
