package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_AllPass(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--golden", "testdata/golden")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ missed")
	assert.Contains(t, out, "✓ pair")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", "testdata/scenarios", "--golden", "testdata/golden")
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 2, result.Total)
}

func TestTest_Filter(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--golden", "testdata/golden", "--filter", "pa*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_InvalidFilter(t *testing.T) {
	_, err := execute(t, "test", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_UpdateWritesGolden(t *testing.T) {
	golden := t.TempDir()
	_, err := execute(t, "test", "testdata/scenarios", "--golden", golden, "--update")
	require.NoError(t, err)

	for _, name := range []string{"pair", "missed"} {
		got, err := os.ReadFile(filepath.Join(golden, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join("testdata", "golden", name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestTest_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "pair.golden"), []byte(`{"stale":true}`), 0644))

	out, err := execute(t, "test", "testdata/scenarios", "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ pair")
	assert.Contains(t, out, "snapshot does not match golden file")
	assert.Contains(t, out, "✓ missed")
}

func TestTest_FailingExpectation(t *testing.T) {
	dir := t.TempDir()
	models, err := filepath.Abs("testdata/models/pair.cue")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
description: "Expects a witness that never comes"
model: `+models+`
model_name: missed
expect:
  - property: success
    disposition: witnessed
`), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "Actual: unwitnessed")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
