package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/pkg/auth"
)

type fakeAlarms struct {
	mu        sync.Mutex
	armed     map[int64]time.Time
	cancels   int
	cancelErr error
}

func newFakeAlarms() *fakeAlarms {
	return &fakeAlarms{armed: make(map[int64]time.Time)}
}

func (f *fakeAlarms) ScheduleExactAlarm(ctx context.Context, key int64, when time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.armed[key] = when
	return nil
}

func (f *fakeAlarms) Cancel(ctx context.Context, key int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancels++
	if f.cancelErr != nil {
		return f.cancelErr
	}

	delete(f.armed, key)
	return nil
}

func (f *fakeAlarms) Armed() map[int64]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	armed := make(map[int64]time.Time, len(f.armed))
	for k, v := range f.armed {
		armed[k] = v
	}

	return armed
}

type fakeGeofences struct {
	mu        sync.Mutex
	fences    map[int64]domain.Location
	addErr    error
	removeErr error
}

func newFakeGeofences() *fakeGeofences {
	return &fakeGeofences{fences: make(map[int64]domain.Location)}
}

func (f *fakeGeofences) AddGeofence(ctx context.Context, key int64, location domain.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fences[key] = location
	return f.addErr
}

func (f *fakeGeofences) RemoveGeofence(ctx context.Context, key int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}

	delete(f.fences, key)
	return nil
}

func (f *fakeGeofences) Fences() map[int64]domain.Location {
	f.mu.Lock()
	defer f.mu.Unlock()

	fences := make(map[int64]domain.Location, len(f.fences))
	for k, v := range f.fences {
		fences[k] = v
	}

	return fences
}

type fakePermissions struct {
	mu      sync.Mutex
	granted map[domain.Permission]bool
}

func newFakePermissions(granted ...domain.Permission) *fakePermissions {
	p := &fakePermissions{granted: make(map[domain.Permission]bool)}
	for _, permission := range granted {
		p.granted[permission] = true
	}

	return p
}

func (f *fakePermissions) IsGranted(ctx context.Context, permission domain.Permission) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.granted[permission]
}

func (f *fakePermissions) Grant(permission domain.Permission) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.granted[permission] = true
}

type enqueued struct {
	Spec   domain.JobSpec
	Scope  string
	Policy domain.UniquePolicy
	Chain  int
}

type fakeJobs struct {
	mu     sync.Mutex
	jobs   []enqueued
	chains int
}

func (f *fakeJobs) Enqueue(ctx context.Context, spec domain.JobSpec) (uuid.UUID, error) {
	f.record(enqueued{Spec: spec})
	return uuid.New(), nil
}

func (f *fakeJobs) EnqueueUnique(ctx context.Context, scope string, policy domain.UniquePolicy, spec domain.JobSpec) (uuid.UUID, error) {
	f.record(enqueued{Spec: spec, Scope: scope, Policy: policy})
	return uuid.New(), nil
}

func (f *fakeJobs) EnqueueChain(ctx context.Context, specs ...domain.JobSpec) ([]uuid.UUID, error) {
	f.mu.Lock()
	f.chains++
	chain := f.chains
	f.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(specs))
	for _, spec := range specs {
		f.record(enqueued{Spec: spec, Chain: chain})
		ids = append(ids, uuid.New())
	}

	return ids, nil
}

func (f *fakeJobs) record(job enqueued) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs = append(f.jobs, job)
}

func (f *fakeJobs) Jobs() []enqueued {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]enqueued(nil), f.jobs...)
}

func (f *fakeJobs) Specs() []domain.JobSpec {
	jobs := f.Jobs()

	specs := make([]domain.JobSpec, 0, len(jobs))
	for _, job := range jobs {
		specs = append(specs, job.Spec)
	}

	return specs
}

// countingPresenter records every cancel made against the wrapped center.
type countingPresenter struct {
	*platform.NotificationCenter

	mu      sync.Mutex
	cancels map[int]int
}

func newCountingPresenter() *countingPresenter {
	return &countingPresenter{
		NotificationCenter: platform.NewNotificationCenter(auth.NewJWT("test-secret", time.Hour), nil, zap.NewNop()),
		cancels:            make(map[int]int),
	}
}

func (p *countingPresenter) Cancel(ctx context.Context, id int) error {
	p.mu.Lock()
	p.cancels[id]++
	p.mu.Unlock()

	return p.NotificationCenter.Cancel(ctx, id)
}

func (p *countingPresenter) Cancels(id int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cancels[id]
}
