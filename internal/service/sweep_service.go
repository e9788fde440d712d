package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/repository"
	"voltage_sweeper/internal/sweep"
)

var (
	// ErrSweepRunning rejects a second Start while a worker is active.
	ErrSweepRunning = errors.New("a sweep is already running")
	// ErrNoActiveSweep rejects Stop when nothing is running.
	ErrNoActiveSweep = errors.New("no sweep is running")
)

const (
	eventQueueSize = 256
	persistTimeout = 5 * time.Second
)

// SweepService hosts the sweep engine on a dedicated worker goroutine. The
// invoking context communicates with the worker only through the cancellation
// token and the engine's event queue, which this service drains into the live
// status snapshot and the persistent event log.
type SweepService struct {
	psu       sweep.CommandPort
	uart      sweep.SignalPort
	runRepo   repository.RunRepo
	samples   repository.SampleRepo
	events    repository.EventRepo
	exportDir string
	lg        *logger.Logger

	mu      sync.Mutex
	running bool
	stop    *sweep.Token
	status  vs.SweepStatus
}

func NewSweepService(runs repository.RunRepo, samples repository.SampleRepo, events repository.EventRepo, deps Deps) *SweepService {
	return &SweepService{
		psu:       deps.PSU,
		uart:      deps.UART,
		runRepo:   runs,
		samples:   samples,
		events:    events,
		exportDir: deps.ExportDir,
		lg:        deps.Log,
	}
}

// Start validates the settings, records the run, and launches the worker.
// Returns the new run id. Only one sweep may run at a time.
func (s *SweepService) Start(ctx context.Context, settings vs.SweepSettings) (string, error) {
	cfg := toSweepConfig(settings)
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.Mode.UsesUART() && s.uart == nil {
		return "", fmt.Errorf("%w: uart control requested but no serial link is configured", sweep.ErrConfig)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrSweepRunning
	}

	runID := uuid.NewString()
	now := time.Now().UTC()
	// Fresh token per run: the previous run's stop request never leaks in.
	token := sweep.NewToken()
	queue := sweep.NewQueue(eventQueueSize)
	engine := sweep.NewEngine(s.psu, s.uart, queue, token, s.lg)

	s.running = true
	s.stop = token
	s.status = vs.SweepStatus{Running: true, RunID: runID, UpdatedAt: now}
	s.mu.Unlock()

	run := vs.SweepRun{RunID: runID, StartedAt: now, Settings: settings}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.markStopped()
		return "", err
	}
	s.appendEvent(runID, vs.EventStart, "sweep started", map[string]any{
		"channel": settings.Channel,
		"start_v": settings.StartVoltage,
		"end_v":   settings.EndVoltage,
		"step_v":  settings.StepSize,
		"mode":    cfg.Mode.String(),
	})

	queue.TrySend(sweep.Event{Kind: sweep.EventButtonState, ButtonEnabled: false})

	drained := make(chan struct{})
	go s.drainEvents(runID, queue, drained)
	go s.runWorker(runID, engine, cfg, queue, drained)

	return runID, nil
}

// Stop asserts the cancellation token. The worker observes it within the
// engine's polling interval and exits through the normal cleanup path.
func (s *SweepService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running || s.stop == nil {
		s.mu.Unlock()
		return ErrNoActiveSweep
	}
	runID := s.status.RunID
	s.stop.Set()
	s.mu.Unlock()

	s.appendEvent(runID, vs.EventStop, "stop requested", nil)
	return nil
}

// Status returns a copy of the live snapshot.
func (s *SweepService) Status() vs.SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// runWorker executes the sweep, then exports and persists the frozen log.
func (s *SweepService) runWorker(runID string, engine *sweep.Engine, cfg sweep.Config, queue *sweep.Queue, drained <-chan struct{}) {
	engine.PerformSweep(cfg)

	queue.TrySend(sweep.Event{Kind: sweep.EventButtonState, ButtonEnabled: true})
	queue.Close()
	<-drained

	log := engine.DataLog()
	csvPath := filepath.Join(s.exportDir, runID+".csv")
	if err := log.SaveCSV(csvPath); err != nil {
		s.lg.Errorw("failed to save data log", "run_id", runID, "path", csvPath, "err", err)
		csvPath = ""
	} else {
		s.lg.Infow("data log saved", "run_id", runID, "path", csvPath, "samples", log.Len())
	}

	samples := toSamplePoints(log.Snapshot())
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.samples.AppendBatch(ctx, runID, samples); err != nil {
		s.lg.Errorw("failed to persist samples", "run_id", runID, "err", err)
	}

	stopped, errMsg := s.markStopped()
	outcome := vs.OutcomeCompleted
	switch {
	case errMsg != "":
		outcome = vs.OutcomeError
	case stopped:
		outcome = vs.OutcomeStopped
	}
	if err := s.runRepo.Finish(ctx, runID, time.Now().UTC(), outcome, len(samples), csvPath, errMsg); err != nil {
		s.lg.Errorw("failed to finish run", "run_id", runID, "err", err)
	}
}

// drainEvents consumes the engine's event stream until the queue closes,
// keeping the live snapshot current and persisting the durable event kinds.
func (s *SweepService) drainEvents(runID string, queue *sweep.Queue, drained chan<- struct{}) {
	defer close(drained)
	for ev := range queue.Events() {
		switch ev.Kind {
		case sweep.EventProgress:
			s.mu.Lock()
			s.status.Progress = ev.Progress
			s.status.UpdatedAt = time.Now().UTC()
			s.mu.Unlock()
		case sweep.EventDataPoint:
			p := vs.SamplePoint{Timestamp: ev.Sample.Timestamp, Voltage: ev.Sample.Voltage}
			s.mu.Lock()
			s.status.LastSample = &p
			s.status.UpdatedAt = time.Now().UTC()
			s.mu.Unlock()
		case sweep.EventError:
			s.mu.Lock()
			s.status.Error = ev.Message
			s.status.UpdatedAt = time.Now().UTC()
			s.mu.Unlock()
			s.appendEvent(runID, vs.EventError, ev.Message, nil)
		case sweep.EventInfo:
			s.appendEvent(runID, vs.EventInfo, ev.Message, nil)
		case sweep.EventDone:
			s.appendEvent(runID, vs.EventDone, "sweep finished", nil)
		case sweep.EventButtonState:
			// consumed by the websocket layer through Status().Running
		}
	}
}

// markStopped clears the running flag and returns whether the run was
// cancelled plus any recorded error message.
func (s *SweepService) markStopped() (stopped bool, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopped = s.stop != nil && s.stop.IsSet()
	errMsg = s.status.Error
	s.running = false
	s.status.Running = false
	s.status.UpdatedAt = time.Now().UTC()
	return stopped, errMsg
}

func (s *SweepService) appendEvent(runID, typ, msg string, meta map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := s.events.Append(ctx, vs.SweepEvent{
		EventID:     uuid.NewString(),
		RunID:       runID,
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	})
	if err != nil {
		s.lg.Errorw("failed to append event", "run_id", runID, "type", typ, "err", err)
	}
}

// toSweepConfig maps the operator-facing settings onto the engine's config.
func toSweepConfig(st vs.SweepSettings) sweep.Config {
	return sweep.Config{
		ChannelVoltages: [3]float64{st.Ch1Voltage, st.Ch2Voltage, st.Ch3Voltage},
		SweptChannel:    st.Channel,
		StartVoltage:    st.StartVoltage,
		EndVoltage:      st.EndVoltage,
		StepSize:        st.StepSize,
		Mode:            sweep.ModeFromFlags(st.PowerCycle, st.UARTControl),
		DwellSeconds:    st.DwellSeconds,
		OffSeconds:      st.OffSeconds,
		OnSeconds:       st.OnSeconds,
	}
}

func toSamplePoints(samples []sweep.Sample) []vs.SamplePoint {
	out := make([]vs.SamplePoint, len(samples))
	for i, s := range samples {
		out[i] = vs.SamplePoint{Timestamp: s.Timestamp, Voltage: s.Voltage}
	}
	return out
}
