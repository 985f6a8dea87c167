// Package scheduler contains the scheduled-job lifecycle engine.
//
// A job moves pending -> creating -> created|failed. The engine owns the
// in-memory job collection, a due-time queue with at most one entry per
// pending job, and a periodic sweep that catches anything the queue missed.
// Every mutation is serialized on one mutex and persisted as a full snapshot
// before the next step proceeds.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"reposched/internal/logger"
	"reposched/internal/repocreator"
	"reposched/internal/store"

	"github.com/WatchBeam/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSweepInterval    = 10 * time.Second
	DefaultExecutionTimeout = 30 * time.Second

	persistTimeout = 10 * time.Second

	interruptedMessage = "interrupted before completion"
)

// Clock supplies "now" and the wake-up primitives of the run loop.
// clock.Clock satisfies it.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clock.Timer
	NewTicker(d time.Duration) clock.Ticker
}

// Creator performs the external repository-creation call.
type Creator interface {
	Execute(ctx context.Context, job store.Job, token string) (repocreator.Result, error)
}

// Config holds configuration for the engine.
type Config struct {
	SweepInterval    time.Duration // default 10s
	ExecutionTimeout time.Duration // default 30s

	// DefaultToken is used when no credential is stored for a job's CredentialRef.
	DefaultToken string

	Clock  Clock
	Logger *slog.Logger
}

// JobSpec is the input of AddJob.
type JobSpec struct {
	OwnerRef          string
	Name              string
	Description       string
	ScheduledAt       time.Time
	Private           bool
	AutoInit          bool
	GitignoreTemplate string
}

// JobUpdate is a partial update; nil fields are left unchanged.
type JobUpdate struct {
	Name              *string
	Description       *string
	ScheduledAt       *time.Time
	Private           *bool
	AutoInit          *bool
	GitignoreTemplate *string
}

// Engine is the scheduled-job lifecycle engine.
type Engine struct {
	store   store.JobStore
	creds   store.CredentialStore
	creator Creator
	config  Config
	clock   Clock
	log     *slog.Logger

	mu      sync.Mutex
	jobs    []store.Job
	queue   *dueQueue
	running bool
	started bool

	wake     chan struct{}
	stopLoop context.CancelFunc
	loopDone chan struct{}
	inflight sync.WaitGroup

	tracer          trace.Tracer
	executions      metric.Int64Counter
	persistFailures metric.Int64Counter
}

// New creates a new engine. It does nothing until Start is called.
// creds may be nil, in which case every job uses config.DefaultToken.
func New(s store.JobStore, creds store.CredentialStore, creator Creator, config Config) *Engine {
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}

	if config.ExecutionTimeout <= 0 {
		config.ExecutionTimeout = DefaultExecutionTimeout
	}

	if config.Clock == nil {
		config.Clock = clock.C
	}

	if config.Logger == nil {
		config.Logger = logger.New()
	}

	e := &Engine{
		store:    s,
		creds:    creds,
		creator:  creator,
		config:   config,
		clock:    config.Clock,
		log:      config.Logger,
		queue:    newDueQueue(),
		wake:     make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		tracer:   otel.Tracer("reposched-scheduler"),
	}

	meter := otel.Meter("reposched-scheduler")
	var err error
	e.executions, err = meter.Int64Counter("reposched.executions",
		metric.WithDescription("Finished repository creation attempts by outcome"))
	if err != nil {
		e.log.Warn("failed to register executions counter", "error", err)
	}
	e.persistFailures, err = meter.Int64Counter("reposched.persistence.errors",
		metric.WithDescription("Snapshot writes that failed"))
	if err != nil {
		e.log.Warn("failed to register persistence counter", "error", err)
	}
	_, err = meter.Int64ObservableGauge("reposched.jobs.armed",
		metric.WithDescription("Pending jobs currently armed in the due queue"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			obs.Observe(int64(e.queue.len()))
			return nil
		}),
	)
	if err != nil {
		e.log.Warn("failed to register armed gauge", "error", err)
	}

	return e
}

// Start loads the persisted snapshot, re-arms every pending job and starts
// the wake-up loop. Jobs that came due while the process was down fire on
// the startup sweep. A job found in creating was interrupted mid-call; it is
// marked failed since the remote side may or may not have acted on it.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return errors.New("scheduler already started")
	}

	jobs, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	now := e.clock.Now().UTC()
	interrupted := 0
	for i := range jobs {
		switch jobs[i].Status {
		case store.JobStatusPending:
			e.queue.arm(jobs[i].ID, jobs[i].ScheduledAt)
		case store.JobStatusCreating:
			markFailed(&jobs[i], interruptedMessage, now)
			interrupted++
		}
	}
	e.jobs = jobs

	if interrupted > 0 {
		e.log.Warn("marked interrupted executions as failed", "count", interrupted)
		e.persistLocked(ctx)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.stopLoop = cancel
	e.started = true
	e.running = true

	e.log.Info("scheduler started",
		"jobs", len(e.jobs),
		"armed", e.queue.len(),
		"sweep_interval", e.config.SweepInterval.String(),
	)

	go e.run(loopCtx)
	return nil
}

// Shutdown disarms every job, stops the loop and waits for in-flight
// executions to finish or for ctx to expire. In-flight executions are never
// cancelled.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.queue.clear()
	e.stopLoop()
	e.mu.Unlock()

	<-e.loopDone

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight executions: %w", ctx.Err())
	}
}

// run waits for the earliest due entry or the sweep ticker, whichever is first.
func (e *Engine) run(ctx context.Context) {
	defer close(e.loopDone)

	ticker := e.clock.NewTicker(e.config.SweepInterval)
	defer ticker.Stop()

	// Startup tick
	e.Sweep(ctx)

	for {
		timer, due := e.nextTimer()
		if due {
			e.fireDue(ctx)
			continue
		}

		var fire <-chan time.Time
		if timer != nil {
			fire = timer.Chan()
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case <-ticker.Chan():
			e.Sweep(ctx)
		case <-fire:
			e.fireDue(ctx)
		case <-e.wake:
			// queue changed, recompute the next wake-up
		}
		stopTimer(timer)
	}
}

// nextTimer arms a timer for the earliest queue entry. due is true when that
// entry has already passed, including when the clock moved while the timer
// was being created. A nil timer means nothing is armed.
func (e *Engine) nextTimer() (timer clock.Timer, due bool) {
	e.mu.Lock()
	next, ok := e.queue.next()
	e.mu.Unlock()

	if !ok {
		return nil, false
	}

	d := next.Sub(e.clock.Now())
	if d <= 0 {
		return nil, true
	}

	timer = e.clock.NewTimer(d)
	if !e.clock.Now().Before(next) {
		timer.Stop()
		return nil, true
	}
	return timer, false
}

func stopTimer(timer clock.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
		// Already a wake-up pending
	}
}

func (e *Engine) fireDue(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.queue.popDue(e.clock.Now()) {
		e.beginLocked(ctx, id)
	}
}

// Sweep begins execution of every pending job whose scheduled time has
// passed and returns how many it started. Jobs already creating or terminal
// are skipped, so calling it repeatedly never executes a job twice.
func (e *Engine) Sweep(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return 0
	}

	now := e.clock.Now()
	var due []uuid.UUID
	for _, job := range e.jobs {
		if job.Status == store.JobStatusPending && !job.ScheduledAt.After(now) {
			due = append(due, job.ID)
		}
	}

	started := 0
	for _, id := range due {
		if e.beginLocked(ctx, id) {
			started++
		}
	}
	if started > 0 {
		e.log.Info("sweep started executions", "count", started)
	}
	return started
}

// AddJob validates spec, persists a new pending job and arms it.
func (e *Engine) AddJob(ctx context.Context, spec JobSpec) (store.Job, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return store.Job{}, fmt.Errorf("%w: repository name is required", ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return store.Job{}, ErrNotRunning
	}

	now := e.clock.Now()
	if !spec.ScheduledAt.After(now) {
		return store.Job{}, fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	}

	if e.pendingNameTakenLocked(spec.OwnerRef, name, uuid.Nil) {
		return store.Job{}, fmt.Errorf("%w: a pending job for repository %q already exists", ErrValidation, name)
	}

	job := store.Job{
		ID:                uuid.New(),
		OwnerRef:          spec.OwnerRef,
		Name:              name,
		Description:       strings.TrimSpace(spec.Description),
		ScheduledAt:       spec.ScheduledAt.UTC(),
		Private:           spec.Private,
		AutoInit:          spec.AutoInit,
		GitignoreTemplate: strings.TrimSpace(spec.GitignoreTemplate),
		CredentialRef:     spec.OwnerRef,
		Status:            store.JobStatusPending,
		CreatedAt:         now.UTC(),
	}

	e.jobs = append(e.jobs, job)
	e.persistLocked(ctx)
	e.queue.arm(job.ID, job.ScheduledAt)
	e.notify()

	e.log.Info("job scheduled", "job_id", job.ID, "name", job.Name, "scheduled_at", job.ScheduledAt)
	return job, nil
}

// UpdateJob applies a partial update to a pending job. A new scheduled time
// must be in the future; the job's queue entry is replaced, never duplicated.
func (e *Engine) UpdateJob(ctx context.Context, id uuid.UUID, upd JobUpdate) (store.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return store.Job{}, ErrNotRunning
	}

	i := e.findLocked(id)
	if i < 0 {
		return store.Job{}, ErrNotFound
	}
	if e.jobs[i].Status != store.JobStatusPending {
		return store.Job{}, fmt.Errorf("%w: only pending jobs can be updated (status %s)", ErrInvalidState, e.jobs[i].Status)
	}

	updated := e.jobs[i]
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return store.Job{}, fmt.Errorf("%w: repository name is required", ErrValidation)
		}
		if e.pendingNameTakenLocked(updated.OwnerRef, name, id) {
			return store.Job{}, fmt.Errorf("%w: a pending job for repository %q already exists", ErrValidation, name)
		}
		updated.Name = name
	}
	if upd.ScheduledAt != nil {
		if !upd.ScheduledAt.After(e.clock.Now()) {
			return store.Job{}, fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
		}
		updated.ScheduledAt = upd.ScheduledAt.UTC()
	}
	if upd.Description != nil {
		updated.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Private != nil {
		updated.Private = *upd.Private
	}
	if upd.AutoInit != nil {
		updated.AutoInit = *upd.AutoInit
	}
	if upd.GitignoreTemplate != nil {
		updated.GitignoreTemplate = strings.TrimSpace(*upd.GitignoreTemplate)
	}

	e.jobs[i] = updated
	e.persistLocked(ctx)
	if upd.ScheduledAt != nil {
		e.queue.arm(id, updated.ScheduledAt)
		e.notify()
	}

	e.log.Info("job updated", "job_id", id, "scheduled_at", updated.ScheduledAt)
	return updated, nil
}

// CancelJob removes a pending or terminal job. A creating job cannot be
// removed. Once CancelJob returns the job can no longer fire.
func (e *Engine) CancelJob(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}

	i := e.findLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if e.jobs[i].Status == store.JobStatusCreating {
		return fmt.Errorf("%w: job is being created", ErrInvalidState)
	}

	e.queue.disarm(id)
	e.jobs = append(e.jobs[:i], e.jobs[i+1:]...)
	e.persistLocked(ctx)
	e.notify()

	e.log.Info("job cancelled", "job_id", id)
	return nil
}

// TriggerNow begins execution of a pending job immediately, bypassing its
// scheduled time. The execution itself runs asynchronously.
func (e *Engine) TriggerNow(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}

	i := e.findLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if e.jobs[i].Status != store.JobStatusPending {
		return fmt.Errorf("%w: only pending jobs can be triggered (status %s)", ErrInvalidState, e.jobs[i].Status)
	}

	e.beginLocked(ctx, id)
	e.notify()
	return nil
}

// GetJob returns a copy of the job with the given id.
func (e *Engine) GetJob(id uuid.UUID) (store.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findLocked(id)
	if i < 0 {
		return store.Job{}, ErrNotFound
	}
	return e.jobs[i], nil
}

// ListJobs returns the jobs of ownerRef, or every job when ownerRef is empty.
func (e *Engine) ListJobs(ownerRef string) []store.Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ownedLocked(ownerRef)
}

// Stats returns counts for ownerRef, or for every job when ownerRef is empty.
func (e *Engine) Stats(ownerRef string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs := e.ownedLocked(ownerRef)
	armed := 0
	for _, job := range jobs {
		if e.queue.armed(job.ID) {
			armed++
		}
	}
	return ComputeStats(jobs, armed)
}

func (e *Engine) ownedLocked(ownerRef string) []store.Job {
	jobs := make([]store.Job, 0, len(e.jobs))
	for _, job := range e.jobs {
		if ownerRef == "" || job.OwnerRef == ownerRef {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func (e *Engine) findLocked(id uuid.UUID) int {
	for i := range e.jobs {
		if e.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

// pendingNameTakenLocked reports whether another pending job of ownerRef
// targets the same repository name. GitHub names are case-insensitive.
func (e *Engine) pendingNameTakenLocked(ownerRef, name string, except uuid.UUID) bool {
	for _, job := range e.jobs {
		if job.ID == except || job.OwnerRef != ownerRef || job.Status != store.JobStatusPending {
			continue
		}
		if strings.EqualFold(job.Name, name) {
			return true
		}
	}
	return false
}

// beginLocked moves a pending job to creating, persists that, and only then
// starts the external call. The status check is the lock against concurrent
// trigger paths: a job that is no longer pending is skipped silently.
func (e *Engine) beginLocked(ctx context.Context, id uuid.UUID) bool {
	if !e.running {
		return false
	}

	i := e.findLocked(id)
	if i < 0 || e.jobs[i].Status != store.JobStatusPending {
		return false
	}

	e.queue.disarm(id)
	e.jobs[i].Status = store.JobStatusCreating
	e.persistLocked(ctx)

	job := e.jobs[i]
	e.inflight.Add(1)
	go e.execute(context.WithoutCancel(ctx), job)

	e.log.Info("job execution started", "job_id", job.ID, "name", job.Name)
	return true
}

func (e *Engine) execute(ctx context.Context, job store.Job) {
	defer e.inflight.Done()

	ctx, span := e.tracer.Start(ctx, "create_repository",
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.String("job.name", job.Name),
			attribute.String("job.owner", job.OwnerRef),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.config.ExecutionTimeout)
	defer cancel()

	var result repocreator.Result
	token, err := e.resolveToken(ctx, job.CredentialRef)
	if err == nil {
		result, err = e.creator.Execute(ctx, job, token)
	}
	if err != nil {
		span.RecordError(err)
	}

	e.complete(ctx, job.ID, result, err)
}

// resolveToken binds the credential at execution time, so a rotated token
// applies to jobs that were scheduled before the rotation.
func (e *Engine) resolveToken(ctx context.Context, ref string) (string, error) {
	if e.creds != nil {
		cred, err := e.creds.GetCredential(ctx, ref)
		if err == nil {
			return cred.Token, nil
		}
		if !errors.Is(err, store.ErrCredentialNotFound) {
			return "", fmt.Errorf("failed to load credential: %w", err)
		}
	}
	// An empty token is reported by the creator.
	return e.config.DefaultToken, nil
}

// complete records the outcome against the current collection, not the copy
// the execution started from.
func (e *Engine) complete(ctx context.Context, id uuid.UUID, result repocreator.Result, execErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findLocked(id)
	if i < 0 {
		e.log.Error("finished execution for unknown job", "job_id", id)
		return
	}
	job := &e.jobs[i]
	if job.Status != store.JobStatusCreating {
		e.log.Error("finished execution for job in unexpected state", "job_id", id, "status", job.Status)
		return
	}

	now := e.clock.Now().UTC()
	outcome := store.JobStatusCreated
	if execErr != nil {
		outcome = store.JobStatusFailed
		markFailed(job, execErr.Error(), now)
		e.log.Warn("repository creation failed", "job_id", id, "name", job.Name, "error", execErr)
	} else {
		url := result.URL
		job.Status = store.JobStatusCreated
		job.ResultURL = &url
		if result.ID != 0 {
			ghID := result.ID
			job.GitHubID = &ghID
		}
		job.ErrorMessage = nil
		job.CompletedAt = &now
		e.log.Info("repository created", "job_id", id, "name", job.Name, "url", url)
	}

	e.persistLocked(ctx)

	if e.executions != nil {
		e.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(outcome))))
	}
}

func markFailed(job *store.Job, message string, at time.Time) {
	job.Status = store.JobStatusFailed
	job.ErrorMessage = &message
	job.ResultURL = nil
	job.CompletedAt = &at
}

// persistLocked writes the full snapshot. A failed write is logged and
// counted; memory stays authoritative and the transition is not rolled back.
func (e *Engine) persistLocked(ctx context.Context) {
	snapshot := make([]store.Job, len(e.jobs))
	copy(snapshot, e.jobs)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := e.store.SaveAll(ctx, snapshot); err != nil {
		e.log.Error("failed to persist job snapshot", "error", err, "jobs", len(snapshot))
		if e.persistFailures != nil {
			e.persistFailures.Add(ctx, 1)
		}
	}
}
