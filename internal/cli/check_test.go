package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/store"
)

func TestCheck_TextPass(t *testing.T) {
	out, err := execute(t, "check", pairModel, "--model", "pair")
	require.NoError(t, err)

	assert.Contains(t, out, "property_decided")
	assert.Contains(t, out, `example for "success" (sometimes) after 3 steps`)
	assert.Contains(t, out, "3. Deliver{src: 1, dst: 0, msg: ReplyCount(3)}")
	assert.Contains(t, out, "✓ All properties passed")
}

func TestCheck_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "check", pairModel, "--model", "pair")
	require.NoError(t, err)

	var result CheckResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pair", result.Model)
	assert.Equal(t, "property_decided", result.Outcome)
	require.Len(t, result.Properties, 1)
	assert.Equal(t, PropertyView{Name: "success", Expectation: "sometimes", Disposition: "witnessed"}, result.Properties[0])
	require.Len(t, result.Discoveries, 1)
	assert.Equal(t, []string{
		"Deliver{src: 0, dst: 1, msg: IncrementRequest(3)}",
		"Deliver{src: 0, dst: 1, msg: ReportRequest}",
		"Deliver{src: 1, dst: 0, msg: ReplyCount(3)}",
	}, result.Discoveries[0].Path)
	assert.Len(t, result.Discoveries[0].StateHashes, 4)
}

func TestCheck_PropertyFails(t *testing.T) {
	out, err := execute(t, "check", pairModel, "--model", "missed")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 properties failed")
	assert.Contains(t, out, "exhausted, 7 states")
	assert.Contains(t, out, `✗ property "success" is unwitnessed`)
}

func TestCheck_PropertyFailsJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "check", pairModel, "--model", "missed")
	require.Error(t, err)

	var result CheckResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProperty, resp.Error.Code)
	assert.Equal(t, 7, result.UniqueStates)
	assert.Empty(t, result.Discoveries)
}

func TestCheck_ParallelWorkers(t *testing.T) {
	out, err := execute(t, "--format", "json", "check", pairModel, "--model", "missed", "--workers", "4")
	require.Error(t, err)

	var result CheckResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 7, result.UniqueStates)
	assert.Equal(t, "exhausted", result.Outcome)
}

func TestCheck_MaxDepth(t *testing.T) {
	out, err := execute(t, "check", pairModel, "--model", "pair", "--max-depth", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "depth_bounded")
	assert.Contains(t, out, "inconclusive")
}

func TestCheck_InvalidModel(t *testing.T) {
	out, err := execute(t, "check", "testdata/models/invalid.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeInvalidModel)
	assert.Contains(t, out, "[E204] actors[0].counter")
}

func TestCheck_AmbiguousModel(t *testing.T) {
	out, err := execute(t, "check", pairModel)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "choose one of missed, pair")
}

func TestCheck_MissingFile(t *testing.T) {
	out, err := execute(t, "check", "testdata/models/nope.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestCheck_SaveStatesRequiresDB(t *testing.T) {
	_, err := execute(t, "check", pairModel, "--model", "pair", "--save-states")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_StoresRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "--format", "json", "check", pairModel, "--model", "missed", "--db", db, "--save-states")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result CheckResult
	decodeResponse(t, out, &result)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "missed", run.ModelName)
	assert.Equal(t, "exhausted", run.Outcome)
	assert.Equal(t, 1, run.Workers)

	n, err := st.CountStates(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestCheck_Determinism(t *testing.T) {
	_, err := execute(t, "check", pairModel, "--model", "pair", "--determinism")
	assert.NoError(t, err)
}
