package repository

import (
	"context"
	"database/sql"
	"fmt"

	vs "voltage_sweeper"
)

type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite { return &SampleSQLite{db: db} }

var _ SampleRepo = (*SampleSQLite)(nil)

const (
	insertSampleSQL = `
		INSERT INTO sweep_samples (run_id, seq, ts, voltage)
		VALUES (?, ?, ?, ?)
	`

	selectSamplesSQL = `
		SELECT ts, voltage FROM sweep_samples WHERE run_id=? ORDER BY seq ASC
	`
)

// AppendBatch writes the run's sample log in one transaction, preserving
// emission order via the seq column.
func (r *SampleSQLite) AppendBatch(ctx context.Context, runID string, samples []vs.SamplePoint) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sample batch for run %q: %w", runID, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range samples {
		if _, err := stmt.ExecContext(ctx, runID, i, s.Timestamp, s.Voltage); err != nil {
			return fmt.Errorf("insert sample %d for run %q: %w", i, runID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sample batch for run %q: %w", runID, err)
	}
	return nil
}

// ListByRun returns the run's samples in emission order.
func (r *SampleSQLite) ListByRun(ctx context.Context, runID string) ([]vs.SamplePoint, error) {
	rows, err := r.db.QueryContext(ctx, selectSamplesSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("list samples for run %q: %w", runID, err)
	}
	defer rows.Close()

	out := make([]vs.SamplePoint, 0, 64)
	for rows.Next() {
		var s vs.SamplePoint
		if err := rows.Scan(&s.Timestamp, &s.Voltage); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
