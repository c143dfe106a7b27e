package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/qute/pkg/qbf"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigOverridesOnlyPresentFields(t *testing.T) {
	path := writeConfig(t, "heuristic: vsids\nrestart-inner: 250\n")

	opts, err := loadConfig(path, qbf.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, qbf.HeuristicVSIDS, opts.Heuristic)
	assert.Equal(t, 250, opts.RestartInner)
	// Everything else should still be the default.
	assert.Equal(t, qbf.DefaultOptions().RestartOuterMult, opts.RestartOuterMult)
}

func TestLoadConfigDBInitClausesAndTermsAreIndependent(t *testing.T) {
	path := writeConfig(t, "db-init-clauses: 500\ndb-init-terms: 1500\n")

	opts, err := loadConfig(path, qbf.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 500, opts.InitialLearntBudget)
	assert.Equal(t, 1500, opts.InitialLearntTermBudget)
}

func TestLoadConfigMissingFileIsAnError(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), qbf.DefaultOptions())
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "heuristic: [this, is, not, a, scalar\n")
	_, err := loadConfig(path, qbf.DefaultOptions())
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnrecognizedHeuristic(t *testing.T) {
	path := writeConfig(t, "heuristic: vmtf-block\n")
	_, err := loadConfig(path, qbf.DefaultOptions())
	assert.Error(t, err)
}

func TestLoadConfigEnumFieldsRoundTrip(t *testing.T) {
	path := writeConfig(t, "dependency-learning: outermost\nrrs: full\nooo-decisions: both\nwatched-literals: 3\n")

	opts, err := loadConfig(path, qbf.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, qbf.DepOutermost, opts.DependencyLearning)
	assert.Equal(t, qbf.RRSFull, opts.RRS)
	assert.Equal(t, qbf.OOOBoth, opts.OOODecisions)
	assert.Equal(t, 3, opts.WatchedLiterals)
}
