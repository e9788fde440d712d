package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	vs "voltage_sweeper"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

var _ RunRepo = (*RunSQLite)(nil)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("sweep run not found")

const (
	insertRunSQL = `
		INSERT INTO sweep_runs (id, started_at, settings, sample_count)
		VALUES (?, ?, ?, 0)
	`

	finishRunSQL = `
		UPDATE sweep_runs
		SET finished_at=?, outcome=?, sample_count=?, csv_path=?, error_message=?
		WHERE id=?
	`

	selectRunSQL = `
		SELECT id, started_at, finished_at, settings, outcome, sample_count, csv_path, error_message
		FROM sweep_runs WHERE id=?
	`

	listRunsSQL = `
		SELECT id, started_at, finished_at, settings, outcome, sample_count, csv_path, error_message
		FROM sweep_runs ORDER BY started_at DESC LIMIT ?
	`
)

// Create inserts the run row at sweep start. Settings are stored as JSON.
func (r *RunSQLite) Create(ctx context.Context, run vs.SweepRun) error {
	settings, err := json.Marshal(run.Settings)
	if err != nil {
		return fmt.Errorf("marshal run settings: %w", err)
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, insertRunSQL, run.RunID, startedAt.UTC(), string(settings))
	if err != nil {
		return fmt.Errorf("insert run %q: %w", run.RunID, err)
	}
	return nil
}

// Finish closes the run row once the worker is done and the log is exported.
func (r *RunSQLite) Finish(ctx context.Context, runID string, finishedAt time.Time, outcome string, sampleCount int, csvPath, errMsg string) error {
	res, err := r.db.ExecContext(ctx, finishRunSQL,
		finishedAt.UTC(), outcome, sampleCount, nullable(csvPath), nullable(errMsg), runID)
	if err != nil {
		return fmt.Errorf("finish run %q: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %q: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (r *RunSQLite) Get(ctx context.Context, runID string) (vs.SweepRun, error) {
	row := r.db.QueryRowContext(ctx, selectRunSQL, runID)
	run, err := scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vs.SweepRun{}, ErrRunNotFound
		}
		return vs.SweepRun{}, fmt.Errorf("select run %q: %w", runID, err)
	}
	return run, nil
}

func (r *RunSQLite) List(ctx context.Context, limit int) ([]vs.SweepRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]vs.SweepRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanRun maps one sweep_runs row, tolerating the NULLs of an open run.
func scanRun(scan func(dest ...any) error) (vs.SweepRun, error) {
	var (
		run         vs.SweepRun
		finishedAt  sql.NullTime
		settingsStr string
		outcome     sql.NullString
		csvPath     sql.NullString
		errMsg      sql.NullString
	)
	if err := scan(&run.RunID, &run.StartedAt, &finishedAt, &settingsStr,
		&outcome, &run.SampleCount, &csvPath, &errMsg); err != nil {
		return vs.SweepRun{}, err
	}
	run.StartedAt = run.StartedAt.UTC()
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time.UTC()
	}
	run.Outcome = outcome.String
	run.CSVPath = csvPath.String
	run.ErrorMessage = errMsg.String
	if err := json.Unmarshal([]byte(settingsStr), &run.Settings); err != nil {
		return vs.SweepRun{}, fmt.Errorf("unmarshal settings for run %q: %w", run.RunID, err)
	}
	return run, nil
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
