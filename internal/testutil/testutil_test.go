package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/compiler"
)

func TestSequentialRunIDs(t *testing.T) {
	g := NewSequentialRunIDs("test")
	assert.Equal(t, "test-1", g.Generate())
	assert.Equal(t, "test-2", g.Generate())
	assert.Equal(t, int64(2), g.Issued())

	g.Reset()
	assert.Equal(t, int64(0), g.Issued())
	assert.Equal(t, "test-1", g.Generate())

	assert.Equal(t, "run-1", NewSequentialRunIDs("").Generate())
}

func TestSequentialRunIDs_Concurrent(t *testing.T) {
	g := NewSequentialRunIDs("c")
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(g.Generate(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), g.Issued())
}

func TestSpecs_AreValid(t *testing.T) {
	assert.Empty(t, compiler.Validate(PairSpec(3)))
	assert.Empty(t, compiler.Validate(PollingSpec()))
}

func TestPairSpec_Checks(t *testing.T) {
	ids := NewSequentialRunIDs("pair")
	for n, want := range map[int64]checker.Disposition{3: checker.Witnessed, 2: checker.Unwitnessed} {
		m, err := actors.Build(PairSpec(n))
		require.NoError(t, err)

		res, err := checker.New(m, checker.WithRunIDGenerator(ids)).Run(context.Background())
		require.NoError(t, err)
		p, ok := res.Property("success")
		require.True(t, ok)
		assert.Equal(t, want, p.Disposition, "n=%d", n)
	}
	assert.Equal(t, int64(2), ids.Issued())
}

func TestPollingSpec_Checks(t *testing.T) {
	m, err := actors.Build(PollingSpec())
	require.NoError(t, err)

	res, err := checker.New(m).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.AssertProperties())
	assert.Len(t, res.Discoveries()[0].Path, 5)
}
