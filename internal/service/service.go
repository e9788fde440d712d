package service

import (
	"context"
	"time"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/repository"
	"voltage_sweeper/internal/sweep"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Sweep owns the worker goroutine that executes one sweep at a time.
type Sweep interface {
	Start(ctx context.Context, settings vs.SweepSettings) (string, error)
	Stop(ctx context.Context) error
}

// Monitoring exposes the live status plus the persisted run history.
type Monitoring interface {
	Status(ctx context.Context) (vs.SweepStatus, error)
	Runs(ctx context.Context, limit int) ([]vs.SweepRun, error)
	RunSamples(ctx context.Context, runID string) ([]vs.SamplePoint, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]vs.SweepEvent, error)
}

// Profiles stores named sweep configurations for reuse across sessions.
type Profiles interface {
	Save(ctx context.Context, name string, settings vs.SweepSettings) (vs.Profile, error)
	Get(ctx context.Context, id string) (vs.Profile, error)
	List(ctx context.Context) ([]vs.Profile, error)
	Delete(ctx context.Context, id string) error
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "ERROR", "DONE", "INFO"
}

// Service aggregates all sub-services.
type Service struct {
	Sweep
	Monitoring
	EventLog
	Profiles
	Authorization
}

// Deps carries everything NewService needs besides the repositories.
type Deps struct {
	PSU       sweep.CommandPort
	UART      sweep.SignalPort // nil when no serial link is configured
	ExportDir string
	Log       *logger.Logger
}

// NewService wires the repository layer and the instrument ports into the
// concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	sweepSvc := NewSweepService(repos.Runs, repos.Samples, repos.Events, deps)
	return &Service{
		Sweep:         sweepSvc,
		Monitoring:    NewMonitoringService(sweepSvc, repos.Runs, repos.Samples),
		EventLog:      NewEventLogService(repos.Events),
		Profiles:      NewProfileService(repos.Profiles),
		Authorization: NewAuthService(repos.Auth),
	}
}
