package service

import (
	"context"
	"sync"
	"time"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/repository"
)

// In-memory repository fakes shared by the service tests.

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[string]vs.SweepRun

	createErr error
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]vs.SweepRun)}
}

var _ repository.RunRepo = (*fakeRunRepo)(nil)

func (f *fakeRunRepo) Create(ctx context.Context, run vs.SweepRun) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.RunID] = run
	return nil
}

func (f *fakeRunRepo) Finish(ctx context.Context, runID string, finishedAt time.Time, outcome string, sampleCount int, csvPath, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return repository.ErrRunNotFound
	}
	run.FinishedAt = finishedAt
	run.Outcome = outcome
	run.SampleCount = sampleCount
	run.CSVPath = csvPath
	run.ErrorMessage = errMsg
	f.runs[runID] = run
	return nil
}

func (f *fakeRunRepo) Get(ctx context.Context, runID string) (vs.SweepRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return vs.SweepRun{}, repository.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeRunRepo) List(ctx context.Context, limit int) ([]vs.SweepRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]vs.SweepRun, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRunRepo) get(runID string) (vs.SweepRun, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	return r, ok
}

type fakeSampleRepo struct {
	mu      sync.Mutex
	batches map[string][]vs.SamplePoint
}

func newFakeSampleRepo() *fakeSampleRepo {
	return &fakeSampleRepo{batches: make(map[string][]vs.SamplePoint)}
}

var _ repository.SampleRepo = (*fakeSampleRepo)(nil)

func (f *fakeSampleRepo) AppendBatch(ctx context.Context, runID string, samples []vs.SamplePoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches[runID] = append(f.batches[runID], samples...)
	return nil
}

func (f *fakeSampleRepo) ListByRun(ctx context.Context, runID string) ([]vs.SamplePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vs.SamplePoint(nil), f.batches[runID]...), nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []vs.SweepEvent

	listFrom time.Time
	listTo   time.Time
	listType string
}

var _ repository.EventRepo = (*fakeEventRepo)(nil)

func (f *fakeEventRepo) Append(ctx context.Context, e vs.SweepEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]vs.SweepEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFrom, f.listTo, f.listType = from, to, typ
	return append([]vs.SweepEvent(nil), f.events...), nil
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]vs.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]vs.Profile)}
}

var _ repository.ProfileRepo = (*fakeProfileRepo)(nil)

func (f *fakeProfileRepo) Save(ctx context.Context, p vs.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) Get(ctx context.Context, id string) (vs.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return vs.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) List(ctx context.Context) ([]vs.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]vs.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return repository.ErrProfileNotFound
	}
	delete(f.profiles, id)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]vs.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]vs.User)}
}

var _ repository.Authorization = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(username, passwordHash string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.users[username] = vs.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*vs.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
