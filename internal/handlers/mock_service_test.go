package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "valid-token"

// Function-backed service mocks; nil functions fall back to zero-value answers.

type mockAuth struct{}

func (mockAuth) SignUp(username, password string) (int, error) { return 1, nil }
func (mockAuth) GenerateToken(username, password string) (string, error) {
	return testToken, nil
}
func (mockAuth) ParseToken(accessToken string) (int, error) {
	if accessToken == testToken {
		return 1, nil
	}
	return 0, service.ErrInvalidToken
}

type mockSweep struct {
	startFn func(ctx context.Context, settings vs.SweepSettings) (string, error)
	stopFn  func(ctx context.Context) error
}

func (m mockSweep) Start(ctx context.Context, settings vs.SweepSettings) (string, error) {
	if m.startFn == nil {
		return "run-1", nil
	}
	return m.startFn(ctx, settings)
}

func (m mockSweep) Stop(ctx context.Context) error {
	if m.stopFn == nil {
		return nil
	}
	return m.stopFn(ctx)
}

type mockMonitoring struct {
	statusFn  func(ctx context.Context) (vs.SweepStatus, error)
	runsFn    func(ctx context.Context, limit int) ([]vs.SweepRun, error)
	samplesFn func(ctx context.Context, runID string) ([]vs.SamplePoint, error)
}

func (m mockMonitoring) Status(ctx context.Context) (vs.SweepStatus, error) {
	if m.statusFn == nil {
		return vs.SweepStatus{UpdatedAt: time.Now()}, nil
	}
	return m.statusFn(ctx)
}

func (m mockMonitoring) Runs(ctx context.Context, limit int) ([]vs.SweepRun, error) {
	if m.runsFn == nil {
		return nil, nil
	}
	return m.runsFn(ctx, limit)
}

func (m mockMonitoring) RunSamples(ctx context.Context, runID string) ([]vs.SamplePoint, error) {
	if m.samplesFn == nil {
		return nil, nil
	}
	return m.samplesFn(ctx, runID)
}

type mockEventLog struct {
	listFn func(ctx context.Context, f service.LogFilter) ([]vs.SweepEvent, error)
}

func (m mockEventLog) List(ctx context.Context, f service.LogFilter) ([]vs.SweepEvent, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, f)
}

type mockProfiles struct {
	saveFn   func(ctx context.Context, name string, settings vs.SweepSettings) (vs.Profile, error)
	getFn    func(ctx context.Context, id string) (vs.Profile, error)
	listFn   func(ctx context.Context) ([]vs.Profile, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m mockProfiles) Save(ctx context.Context, name string, settings vs.SweepSettings) (vs.Profile, error) {
	if m.saveFn == nil {
		return vs.Profile{ID: "p1", Name: name, Settings: settings}, nil
	}
	return m.saveFn(ctx, name, settings)
}

func (m mockProfiles) Get(ctx context.Context, id string) (vs.Profile, error) {
	if m.getFn == nil {
		return vs.Profile{ID: id}, nil
	}
	return m.getFn(ctx, id)
}

func (m mockProfiles) List(ctx context.Context) ([]vs.Profile, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m mockProfiles) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

// testServices assembles a Service aggregate from the mocks; callers override
// the fields they exercise.
func testServices(mods ...func(*service.Service)) *service.Service {
	svc := &service.Service{
		Sweep:         mockSweep{},
		Monitoring:    mockMonitoring{},
		EventLog:      mockEventLog{},
		Profiles:      mockProfiles{},
		Authorization: mockAuth{},
	}
	for _, mod := range mods {
		mod(svc)
	}
	return svc
}

func testHandler(mods ...func(*service.Service)) *Handler {
	return NewHandler(testServices(mods...), logger.Get(logger.ErrorLevel))
}
