package store

import (
	"context"
	"fmt"

	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/model"
)

// WriteRun inserts a run summary and assigns its seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a run is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	props, err := marshalProperties(run.Properties)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, model_name, model_fingerprint, outcome, unique_states, transitions,
		 max_depth, workers, depth_limit, properties, engine_version, ir_version)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM runs
		WHERE true
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ModelName,
		run.Fingerprint,
		run.Outcome,
		run.UniqueStates,
		run.Transitions,
		run.MaxDepth,
		run.Workers,
		run.DepthLimit,
		props,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteStates inserts states for a run in a single transaction.
// Duplicate hashes are silently ignored.
//
// Note: The run must exist (foreign key constraint).
func (s *Store) WriteStates(ctx context.Context, runID string, states []StateRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write states: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO states (run_id, hash, depth, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write states: prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range states {
		if _, err := stmt.ExecContext(ctx, runID, st.Hash, st.Depth, string(st.State)); err != nil {
			return fmt.Errorf("write states: %s: %w", st.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write states: commit: %w", err)
	}
	return nil
}

// WriteDiscovery stores a discovery and every state on its path, so the
// path can be replayed even when the full state space was not persisted.
// Uses ON CONFLICT DO NOTHING: the first discovery for a property wins.
func (s *Store) WriteDiscovery(ctx context.Context, runID string, m *model.Model, d *checker.Discovery) error {
	path, err := marshalPath(d.Path)
	if err != nil {
		return fmt.Errorf("write discovery: %w", err)
	}

	states := make([]StateRecord, len(d.States))
	hashes := make([]string, len(d.States))
	for i, st := range d.States {
		data, err := m.Encode(st)
		if err != nil {
			return fmt.Errorf("write discovery: state %d: %w", i, err)
		}
		states[i] = StateRecord{Hash: st.Hash(), Depth: i, State: data}
		hashes[i] = st.Hash()
	}
	hashJSON, err := marshalStrings(hashes)
	if err != nil {
		return fmt.Errorf("write discovery: %w", err)
	}

	if err := s.WriteStates(ctx, runID, states); err != nil {
		return fmt.Errorf("write discovery: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discoveries
		(run_id, property, expectation, classification, path, state_hashes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, property) DO NOTHING
	`,
		runID,
		d.Property,
		d.Expectation.String(),
		string(d.Classification),
		path,
		hashJSON,
	)
	if err != nil {
		return fmt.Errorf("write discovery: %w", err)
	}
	return nil
}

// WriteResult stores a run summary and all of its discoveries.
func (s *Store) WriteResult(ctx context.Context, run Run, m *model.Model, res *checker.Result) error {
	if err := s.WriteRun(ctx, run); err != nil {
		return err
	}
	for _, d := range res.Discoveries() {
		if err := s.WriteDiscovery(ctx, run.ID, m, d); err != nil {
			return err
		}
	}
	return nil
}
