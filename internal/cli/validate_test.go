package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/compiler"
)

func TestValidate_ValidFile(t *testing.T) {
	out, err := execute(t, "validate", pairModel)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ missed\n✓ pair\n")
	assert.Contains(t, out, "✓ All models valid")
}

func TestValidate_ValidFileJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", pairModel)
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Len(t, result.Models, 2)
}

func TestValidate_InvalidModel(t *testing.T) {
	out, err := execute(t, "validate", "testdata/models/invalid.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "E204: actors[0].counter")
	assert.Contains(t, out, "E205: properties[0].expectation")
}

func TestValidate_InvalidModelJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/models/invalid.cue")
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, compiler.ErrAddressOutOfRange, resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Models, 1)
	assert.Len(t, result.Models[0].Errors, 2)
}

func TestValidate_Directory(t *testing.T) {
	_, err := execute(t, "validate", "testdata/models")
	require.Error(t, err, "the directory unifies pair.cue with invalid.cue")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_NonExistentPath(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/models")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidatePath(t *testing.T) {
	result, err := ValidatePath(pairModel)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = ValidatePath("/nonexistent")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}
