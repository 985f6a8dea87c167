package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"reposched/internal/scheduler"
	"reposched/internal/store"

	"github.com/google/uuid"
)

// mockEngine implements Engine with overridable hooks.
type mockEngine struct {
	jobs map[uuid.UUID]store.Job

	addJobFunc    func(ctx context.Context, spec scheduler.JobSpec) (store.Job, error)
	updateJobFunc func(ctx context.Context, id uuid.UUID, upd scheduler.JobUpdate) (store.Job, error)
	cancelJobErr  error
	triggerNowErr error
	statsResp     scheduler.Stats

	// Spies
	capturedSpec   scheduler.JobSpec
	capturedUpdate scheduler.JobUpdate
	capturedOwner  string
	cancelledID    uuid.UUID
	triggeredID    uuid.UUID
}

func newMockEngine(jobs ...store.Job) *mockEngine {
	m := &mockEngine{jobs: make(map[uuid.UUID]store.Job)}
	for _, job := range jobs {
		m.jobs[job.ID] = job
	}
	return m
}

func (m *mockEngine) AddJob(ctx context.Context, spec scheduler.JobSpec) (store.Job, error) {
	m.capturedSpec = spec
	if m.addJobFunc != nil {
		return m.addJobFunc(ctx, spec)
	}
	return store.Job{
		ID:          uuid.New(),
		OwnerRef:    spec.OwnerRef,
		Name:        spec.Name,
		ScheduledAt: spec.ScheduledAt,
		Status:      store.JobStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *mockEngine) UpdateJob(ctx context.Context, id uuid.UUID, upd scheduler.JobUpdate) (store.Job, error) {
	m.capturedUpdate = upd
	if m.updateJobFunc != nil {
		return m.updateJobFunc(ctx, id, upd)
	}
	job := m.jobs[id]
	if upd.Name != nil {
		job.Name = *upd.Name
	}
	return job, nil
}

func (m *mockEngine) CancelJob(ctx context.Context, id uuid.UUID) error {
	m.cancelledID = id
	return m.cancelJobErr
}

func (m *mockEngine) TriggerNow(ctx context.Context, id uuid.UUID) error {
	m.triggeredID = id
	return m.triggerNowErr
}

func (m *mockEngine) GetJob(id uuid.UUID) (store.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return store.Job{}, scheduler.ErrNotFound
	}
	return job, nil
}

func (m *mockEngine) ListJobs(ownerRef string) []store.Job {
	m.capturedOwner = ownerRef
	var jobs []store.Job
	for _, job := range m.jobs {
		if ownerRef == "" || job.OwnerRef == ownerRef {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func (m *mockEngine) Stats(ownerRef string) scheduler.Stats {
	m.capturedOwner = ownerRef
	return m.statsResp
}

// mockBackend implements Backend.
type mockBackend struct {
	pingErr       error
	putErr        error
	capturedCreds []store.Credential
}

func (m *mockBackend) GetCredential(ctx context.Context, ownerRef string) (*store.Credential, error) {
	for _, c := range m.capturedCreds {
		if c.OwnerRef == ownerRef {
			return &c, nil
		}
	}
	return nil, store.ErrCredentialNotFound
}

func (m *mockBackend) PutCredential(ctx context.Context, c store.Credential) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.capturedCreds = append(m.capturedCreds, c)
	return nil
}

func (m *mockBackend) Ping(ctx context.Context) error { return m.pingErr }

func newTestHandlers(e *mockEngine, b *mockBackend) *Handlers {
	if b == nil {
		b = &mockBackend{}
	}
	return New(e, b, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
