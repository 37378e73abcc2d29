package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coregap/pmaxsat/config"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesBuiltinDefaults(t *testing.T) {
	opts, err := config.Load(nil)
	require.NoError(t, err)
	require.Equal(t, config.FormatWCNF, opts.InputFormat)
	require.Equal(t, config.AlgOLL, opts.Algorithm)
	require.True(t, opts.BMO)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	opts, err := config.Load([]string{"--algorithm", "msu3", "--partition", "--merge-heuristic", "cores"})
	require.NoError(t, err)
	require.Equal(t, config.AlgMSU3, opts.Algorithm)
	require.True(t, opts.Partition)
	require.Equal(t, config.MergeByCores, opts.MergeHeuristic)
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	_, err := config.Load([]string{"--algorithm", "bogus"})
	require.Error(t, err)
}

func TestLoadYAMLFileProvidesDefaultsUnderFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pmaxsat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pmaxsat:\n  algorithm: msu3\n  conflict_budget: 500\n"), 0o644))

	opts, err := config.Load([]string{"--config", path})
	require.NoError(t, err)
	require.Equal(t, config.AlgMSU3, opts.Algorithm)
	require.Equal(t, 500, opts.ConflictBudget)

	// Flags still win over the YAML file.
	opts2, err := config.Load([]string{"--config", path, "--algorithm", "oll"})
	require.NoError(t, err)
	require.Equal(t, config.AlgOLL, opts2.Algorithm)
	require.Equal(t, 500, opts2.ConflictBudget)
}

func TestVerboseFlagIsRepeatable(t *testing.T) {
	opts, err := config.Load([]string{"-v", "-v", "-v"})
	require.NoError(t, err)
	require.Equal(t, 3, opts.Verbosity)
}
