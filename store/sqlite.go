// Package store persists normalized cycles and aggregate statistics in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		trials INTEGER,
		failed_trials INTEGER,
		cycles INTEGER
	);

	CREATE TABLE IF NOT EXISTS cycles (
		run_id TEXT NOT NULL,
		tags TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		phase_index INTEGER NOT NULL,
		phase REAL NOT NULL,
		channel TEXT NOT NULL,
		value REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE TABLE IF NOT EXISTS stats (
		run_id TEXT NOT NULL,
		group_key TEXT NOT NULL,
		channel TEXT NOT NULL,
		phase_index INTEGER NOT NULL,
		phase REAL NOT NULL,
		mean REAL NOT NULL,
		sd REAL NOT NULL,
		n_cycles INTEGER NOT NULL,
		PRIMARY KEY (run_id, group_key, channel, phase_index),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_run_channel ON cycles(run_id, channel);
`

// Store is a SQLite database of batch results.
type Store struct {
	db *sql.DB
}

// Run summarizes one batch for the runs table.
type Run struct {
	ID           string
	CreatedAt    time.Time
	Trials       int
	FailedTrials int
}

// StatRow is one stored aggregate cell.
type StatRow struct {
	GroupKey   string
	Channel    string
	PhaseIndex int
	Phase      float64
	Mean       float64
	SD         float64
	Count      int
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteRun stores the run record, every non-NaN cycle sample and every
// aggregate cell in one transaction.
func (s *Store) WriteRun(ctx context.Context, run Run, cycles []gaitcycle.NormalizedCycle, stats []gaitcycle.AggregateStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, trials, failed_trials, cycles)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339), run.Trials, run.FailedTrials, len(cycles),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	cycleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cycles (run_id, tags, cycle, phase_index, phase, channel, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cycles: %w", err)
	}
	defer cycleStmt.Close()
	for _, c := range cycles {
		tags := c.Tags.String()
		for _, ch := range c.Channels {
			values, ok := c.Value(ch)
			if !ok {
				continue
			}
			for i, v := range values {
				if math.IsNaN(v) {
					continue
				}
				if _, err := cycleStmt.ExecContext(ctx, run.ID, tags, c.Number, i, c.Phase[i], ch, v); err != nil {
					return fmt.Errorf("insert cycle %s #%d: %w", tags, c.Number, err)
				}
			}
		}
	}

	statStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stats (run_id, group_key, channel, phase_index, phase, mean, sd, n_cycles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare stats: %w", err)
	}
	defer statStmt.Close()
	for _, st := range stats {
		if _, err := statStmt.ExecContext(ctx, run.ID, st.Group.String(), st.Channel, st.PhaseIndex, st.Phase, st.Mean, st.SD, st.Count); err != nil {
			return fmt.Errorf("insert stat %s %s: %w", st.Group, st.Channel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stats returns the stored cells of one run and channel ordered by group and phase.
func (s *Store) Stats(ctx context.Context, runID, channel string) ([]StatRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_key, channel, phase_index, phase, mean, sd, n_cycles
		FROM stats WHERE run_id = ? AND channel = ?
		ORDER BY group_key, phase_index`, runID, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var r StatRow
		if err := rows.Scan(&r.GroupKey, &r.Channel, &r.PhaseIndex, &r.Phase, &r.Mean, &r.SD, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountCycleSamples returns the number of stored cycle samples for a run.
func (s *Store) CountCycleSamples(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
