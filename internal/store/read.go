package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `id, seq, model_name, model_fingerprint, outcome, unique_states, transitions,
	max_depth, workers, depth_limit, properties, engine_version, ir_version`

// ReadRun retrieves a run summary by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every run in insertion order (seq ASC, id ASC).
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadDiscoveries returns the discoveries of a run ordered by property name.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadDiscoveries(ctx context.Context, runID string) ([]DiscoveryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, property, expectation, classification, path, state_hashes
		FROM discoveries
		WHERE run_id = ?
		ORDER BY property COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query discoveries: %w", err)
	}
	defer rows.Close()

	out := []DiscoveryRecord{}
	for rows.Next() {
		d, err := scanDiscovery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discoveries: %w", err)
	}
	return out, nil
}

// ReadDiscovery retrieves the discovery for one property of a run.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDiscovery(ctx context.Context, runID, property string) (DiscoveryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, property, expectation, classification, path, state_hashes
		FROM discoveries
		WHERE run_id = ? AND property = ?
	`, runID, property)
	return scanDiscovery(row)
}

// ReadState retrieves one stored state.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadState(ctx context.Context, runID, hash string) (StateRecord, error) {
	var st StateRecord
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, depth, state
		FROM states
		WHERE run_id = ? AND hash = ?
	`, runID, hash).Scan(&st.Hash, &st.Depth, &data)
	if err != nil {
		return StateRecord{}, err
	}
	st.State = []byte(data)
	return st, nil
}

// CountStates returns the number of stored states for a run.
func (s *Store) CountStates(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM states WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count states: %w", err)
	}
	return n, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var props string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.ModelName,
		&run.Fingerprint,
		&run.Outcome,
		&run.UniqueStates,
		&run.Transitions,
		&run.MaxDepth,
		&run.Workers,
		&run.DepthLimit,
		&props,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Properties, err = unmarshalProperties(props)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}

func scanDiscovery(row scanner) (DiscoveryRecord, error) {
	var d DiscoveryRecord
	var path, hashes string
	err := row.Scan(&d.RunID, &d.Property, &d.Expectation, &d.Classification, &path, &hashes)
	if err == sql.ErrNoRows {
		return DiscoveryRecord{}, err
	}
	if err != nil {
		return DiscoveryRecord{}, fmt.Errorf("scan discovery: %w", err)
	}
	if d.Path, err = unmarshalPath(path); err != nil {
		return DiscoveryRecord{}, err
	}
	if d.StateHashes, err = unmarshalStrings(hashes); err != nil {
		return DiscoveryRecord{}, err
	}
	return d, nil
}
