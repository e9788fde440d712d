package service

import (
	"context"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/repository"
)

// StatusSource is the live-snapshot side of the sweep worker.
type StatusSource interface {
	Status() vs.SweepStatus
}

type MonitoringService struct {
	source  StatusSource
	runRepo repository.RunRepo
	samples repository.SampleRepo
}

func NewMonitoringService(source StatusSource, runs repository.RunRepo, samples repository.SampleRepo) *MonitoringService {
	return &MonitoringService{source: source, runRepo: runs, samples: samples}
}

// Status returns the live sweep snapshot. It never blocks on the worker.
func (s *MonitoringService) Status(ctx context.Context) (vs.SweepStatus, error) {
	return s.source.Status(), nil
}

// Runs lists the most recent persisted runs.
func (s *MonitoringService) Runs(ctx context.Context, limit int) ([]vs.SweepRun, error) {
	return s.runRepo.List(ctx, limit)
}

// RunSamples returns the persisted data log of a finished run, in emission
// order.
func (s *MonitoringService) RunSamples(ctx context.Context, runID string) ([]vs.SamplePoint, error) {
	if _, err := s.runRepo.Get(ctx, runID); err != nil {
		return nil, err
	}
	return s.samples.ListByRun(ctx, runID)
}
