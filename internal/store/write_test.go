package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
	"github.com/roach88/mealy/internal/testutil"
)

func pairSpec() *ir.ModelSpec {
	spec := testutil.PairSpec(3)
	spec.Properties = append(spec.Properties, testutil.CounterBelow("bounded", 10))
	return spec
}

// checkPair runs the pair model and returns everything needed to store it.
func checkPair(t *testing.T, id string) (*ir.ModelSpec, *model.Model, *checker.Checker, *checker.Result) {
	t.Helper()
	spec := pairSpec()
	m, err := actors.Build(spec)
	require.NoError(t, err)

	c := checker.New(m, checker.WithRunIDGenerator(checker.NewFixedGenerator(id)))
	res, err := c.Run(context.Background())
	require.NoError(t, err)
	return spec, m, c, res
}

func TestWriteRun_ReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	spec, _, _, res := checkPair(t, "run-a")

	run, err := NewRun(spec, res, 1, 0)
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, "pair", got.ModelName)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	assert.Equal(t, "exhausted", got.Outcome)
	assert.Equal(t, 8, got.UniqueStates)
	assert.Equal(t, ir.EngineVersion, got.EngineVersion)
	assert.Equal(t, []PropertyRecord{
		{Name: "success", Expectation: "sometimes", Disposition: "witnessed"},
		{Name: "bounded", Expectation: "always", Disposition: "holds"},
	}, got.Properties)

	// Rewriting the same run is a no-op.
	require.NoError(t, s.WriteRun(ctx, run))
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListRuns_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, id := range []string{"zeta", "alpha", "mid"} {
		spec, _, _, res := checkPair(t, id)
		run, err := NewRun(spec, res, 2, 10)
		require.NoError(t, err)
		require.NoError(t, s.WriteRun(ctx, run))
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "zeta", runs[0].ID)
	assert.Equal(t, "alpha", runs[1].ID)
	assert.Equal(t, "mid", runs[2].ID)
	assert.Equal(t, int64(3), runs[2].Seq)
	assert.Equal(t, 2, runs[0].Workers)
	assert.Equal(t, 10, runs[0].DepthLimit)
}

func TestWriteStates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	spec, _, c, res := checkPair(t, "run-a")

	run, err := NewRun(spec, res, 1, 0)
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, run))

	g, err := c.Graph()
	require.NoError(t, err)
	records := StatesFromGraph(g)
	require.NoError(t, s.WriteStates(ctx, "run-a", records))
	require.NoError(t, s.WriteStates(ctx, "run-a", records), "duplicates ignored")

	n, err := s.CountStates(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, res.UniqueStates, n)

	st, err := s.ReadState(ctx, "run-a", records[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Depth)
	assert.JSONEq(t, string(records[0].State), string(st.State))

	_, err = s.ReadState(ctx, "run-a", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWriteStates_RequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteStates(context.Background(), "ghost", []StateRecord{{Hash: "h", State: []byte("{}")}})
	assert.Error(t, err, "foreign key enforced")
}

func TestWriteDiscovery_ReadDiscoveries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	spec, m, _, res := checkPair(t, "run-a")

	run, err := NewRun(spec, res, 1, 0)
	require.NoError(t, err)
	require.NoError(t, s.WriteResult(ctx, run, m, res))

	ds, err := s.ReadDiscoveries(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, ds, 1)

	d := ds[0]
	assert.Equal(t, "success", d.Property)
	assert.Equal(t, "sometimes", d.Expectation)
	assert.Equal(t, "example", d.Classification)
	require.Len(t, d.Path, 3)
	assert.Len(t, d.StateHashes, 4)
	assert.Equal(t, ir.IRString("deliver"), d.Path[0]["kind"])

	// Only the path states were stored.
	n, err := s.CountStates(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	none, err := s.ReadDiscoveries(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
