// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"reposched/internal/logger"
	"reposched/internal/scheduler"
	"reposched/internal/store"
	"reposched/pkg/api"

	"github.com/google/uuid"
)

// Engine is the part of the scheduler the handlers drive.
type Engine interface {
	AddJob(ctx context.Context, spec scheduler.JobSpec) (store.Job, error)
	UpdateJob(ctx context.Context, id uuid.UUID, upd scheduler.JobUpdate) (store.Job, error)
	CancelJob(ctx context.Context, id uuid.UUID) error
	TriggerNow(ctx context.Context, id uuid.UUID) error
	GetJob(id uuid.UUID) (store.Job, error)
	ListJobs(ownerRef string) []store.Job
	Stats(ownerRef string) scheduler.Stats
}

// Backend combines the store interfaces the handlers need directly.
type Backend interface {
	store.CredentialStore
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	engine  Engine
	backend Backend
	log     *slog.Logger
}

// New creates a new Handlers instance.
func New(engine Engine, backend Backend, log *slog.Logger) *Handlers {
	if log == nil {
		log = logger.New()
	}
	return &Handlers{engine: engine, backend: backend, log: log}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// engineError maps scheduler errors onto HTTP statuses.
func (h *Handlers) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scheduler.ErrValidation):
		h.httpError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, scheduler.ErrNotFound):
		h.httpError(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, scheduler.ErrInvalidState):
		h.httpError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, scheduler.ErrNotRunning):
		h.httpError(w, "Scheduler is not running", http.StatusServiceUnavailable)
	default:
		logger.FromContext(r.Context(), h.log).Error("request failed", "error", err)
		h.httpError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func toJobResponse(job store.Job) api.JobResponse {
	return api.JobResponse{
		ID:                job.ID.String(),
		OwnerRef:          job.OwnerRef,
		Name:              job.Name,
		Description:       job.Description,
		Private:           job.Private,
		AutoInit:          job.AutoInit,
		GitignoreTemplate: job.GitignoreTemplate,
		ScheduledAt:       job.ScheduledAt,
		Status:            string(job.Status),
		ResultURL:         job.ResultURL,
		GitHubID:          job.GitHubID,
		Error:             job.ErrorMessage,
		CreatedAt:         job.CreatedAt,
		CompletedAt:       job.CompletedAt,
	}
}
