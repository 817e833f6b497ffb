package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvInt(t *testing.T) {
	tests := []struct {
		value string
		set   bool
		want  int
	}{
		{set: false, want: 5},
		{value: "", set: true, want: 5},
		{value: "3", set: true, want: 3},
		{value: "0", set: true, want: 0},
		{value: "-1", set: true, want: 5},
		{value: "many", set: true, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if tt.set {
				t.Setenv("MEALY_TEST_INT", tt.value)
			}
			assert.Equal(t, tt.want, envInt("MEALY_TEST_INT", 5))
		})
	}
}

func TestCheckFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvMaxDepth, "12")

	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	assert.Equal(t, "4", cmd.Flags().Lookup("workers").DefValue)
	assert.Equal(t, "12", cmd.Flags().Lookup("max-depth").DefValue)
}
