package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeModel writes a placeholder model file next to the scenario.
func writeModel(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte("// placeholder model"), 0644))
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir)
	path := writeScenario(t, dir, `
name: pair
description: "Counter and supervisor"
model: model.cue
model_name: pair
checker:
  workers: 1
  max_depth: 10
expect:
  - property: success
    disposition: witnessed
    path:
      - "Deliver{src: 0, dst: 1, msg: IncrementRequest(3)}"
unique_states: 8
outcome: property_decided
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "pair", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "model.cue"), scenario.Model)
	assert.Equal(t, "pair", scenario.ModelName)
	assert.Equal(t, CheckerOptions{Workers: 1, MaxDepth: 10}, scenario.Checker)
	require.Len(t, scenario.Expect, 1)
	assert.Equal(t, "witnessed", scenario.Expect[0].Disposition)
	assert.Len(t, scenario.Expect[0].Path, 1)
	require.NotNil(t, scenario.UniqueStates)
	assert.Equal(t, 8, *scenario.UniqueStates)
	assert.Equal(t, "property_decided", scenario.Outcome)
}

func TestLoadScenario_EmptyPathMeansInitialState(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir)
	path := writeScenario(t, dir, `
name: initial
description: "Witnessed before any step"
model: model.cue
expect:
  - property: always_true
    disposition: witnessed
    path: []
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.NotNil(t, scenario.Expect[0].Path)
	assert.Empty(t, scenario.Expect[0].Path)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir)
	path := writeScenario(t, dir, `
name: typo
description: "Misspelled key"
model: model.cue
expects:
  - property: success
    disposition: witnessed
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "missing name",
			content: `
description: "d"
model: model.cue
expect: [{property: p, disposition: holds}]
`,
			want: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
model: model.cue
expect: [{property: p, disposition: holds}]
`,
			want: "description is required",
		},
		{
			name: "missing model",
			content: `
name: n
description: "d"
expect: [{property: p, disposition: holds}]
`,
			want: "model is required",
		},
		{
			name: "model not found",
			content: `
name: n
description: "d"
model: other.cue
expect: [{property: p, disposition: holds}]
`,
			want: "model file not found",
		},
		{
			name: "no expectations",
			content: `
name: n
description: "d"
model: model.cue
`,
			want: "expect list is required",
		},
		{
			name: "unknown disposition",
			content: `
name: n
description: "d"
model: model.cue
expect: [{property: p, disposition: maybe}]
`,
			want: `unknown disposition "maybe"`,
		},
		{
			name: "duplicate property",
			content: `
name: n
description: "d"
model: model.cue
expect: [{property: p, disposition: holds}, {property: p, disposition: violated}]
`,
			want: `duplicate property "p"`,
		},
		{
			name: "path with parallel workers",
			content: `
name: n
description: "d"
model: model.cue
checker: {workers: 4}
expect: [{property: p, disposition: witnessed, path: []}]
`,
			want: "path expectations need a single worker",
		},
		{
			name: "negative depth",
			content: `
name: n
description: "d"
model: model.cue
checker: {max_depth: -1}
expect: [{property: p, disposition: holds}]
`,
			want: "checker.max_depth must be non-negative",
		},
		{
			name: "unknown outcome",
			content: `
name: n
description: "d"
model: model.cue
expect: [{property: p, disposition: holds}]
outcome: finished
`,
			want: `unknown outcome "finished"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeModel(t, dir)
			_, err := LoadScenario(writeScenario(t, dir, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	files, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)
}
