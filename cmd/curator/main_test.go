package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectRequiresLedger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	err := run([]string{"curator", "--data-dir", dir, "inspect", "registry"})
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestInitWritesMetrics(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "ledger")
	metricsFile := filepath.Join(tmp, "curator.prom")
	authority := strings.Repeat("ab", 32)

	require.NoError(t, run([]string{"curator", "--data-dir", dir, "--metrics-file", metricsFile, "init", "--authority", authority}))

	b, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `curator_operations_total{op="initialize",result="ok"} 1`)

	// a second run in the same process gets its own collectors
	err = run([]string{"curator", "--data-dir", dir, "--metrics-file", metricsFile, "init", "--authority", authority})
	require.Error(t, err)
	b, err = os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `curator_operations_total{op="initialize",result="error"} 1`)
	assert.NotContains(t, string(b), `result="ok"`)

	require.NoError(t, run([]string{"curator", "--data-dir", dir, "inspect", "supply"}))
}
