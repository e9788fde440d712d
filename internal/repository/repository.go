package repository

import (
	"context"
	"database/sql"
	"time"

	vs "voltage_sweeper"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*vs.User, error)
}

// RunRepo persists sweep run records.
type RunRepo interface {
	Create(ctx context.Context, run vs.SweepRun) error
	Finish(ctx context.Context, runID string, finishedAt time.Time, outcome string, sampleCount int, csvPath, errMsg string) error
	Get(ctx context.Context, runID string) (vs.SweepRun, error)
	List(ctx context.Context, limit int) ([]vs.SweepRun, error)
}

// SampleRepo persists the per-run data log.
type SampleRepo interface {
	AppendBatch(ctx context.Context, runID string, samples []vs.SamplePoint) error
	ListByRun(ctx context.Context, runID string) ([]vs.SamplePoint, error)
}

// EventRepo is the append-only sweep event log with filtered access.
type EventRepo interface {
	Append(ctx context.Context, e vs.SweepEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]vs.SweepEvent, error)
}

// ProfileRepo stores named sweep configurations.
type ProfileRepo interface {
	Save(ctx context.Context, p vs.Profile) error
	Get(ctx context.Context, id string) (vs.Profile, error)
	List(ctx context.Context) ([]vs.Profile, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	Runs     RunRepo
	Samples  SampleRepo
	Events   EventRepo
	Profiles ProfileRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Runs:     NewRunSQLite(db),
		Samples:  NewSampleSQLite(db),
		Events:   NewEventSQLite(db),
		Profiles: NewProfileSQLite(db),
		Auth:     NewUserRepository(db),
	}
}
