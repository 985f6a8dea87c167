package handlers

import (
	"encoding/json"
	"net/http"

	"reposched/internal/controller/middleware"
	"reposched/internal/scheduler"
	"reposched/internal/store"
	"reposched/pkg/api"

	"github.com/google/uuid"
)

// CreateJob handles POST /jobs.
// It schedules a repository creation for the caller.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.ScheduleJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	autoInit := req.AutoInit == nil || *req.AutoInit

	job, err := h.engine.AddJob(r.Context(), scheduler.JobSpec{
		OwnerRef:          middleware.OwnerFromContext(r.Context()),
		Name:              req.Name,
		Description:       req.Description,
		ScheduledAt:       req.ScheduledAt,
		Private:           req.Private,
		AutoInit:          autoInit,
		GitignoreTemplate: req.GitignoreTemplate,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.respondJson(w, http.StatusCreated, toJobResponse(job))
}

// ListJobs handles GET /jobs.
// An optional ?status= filter narrows the result.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := store.JobStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		h.httpError(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	jobs := h.engine.ListJobs(middleware.OwnerFromContext(r.Context()))

	resp := api.ListJobsResponse{Jobs: make([]api.JobResponse, 0, len(jobs))}
	for _, job := range jobs {
		if status != "" && job.Status != status {
			continue
		}
		resp.Jobs = append(resp.Jobs, toJobResponse(job))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	h.respondJson(w, http.StatusOK, toJobResponse(job))
}

// UpdateJob handles PATCH /jobs/{id}.
// Only pending jobs can be changed.
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	var req api.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.engine.UpdateJob(r.Context(), job.ID, scheduler.JobUpdate{
		Name:              req.Name,
		Description:       req.Description,
		ScheduledAt:       req.ScheduledAt,
		Private:           req.Private,
		AutoInit:          req.AutoInit,
		GitignoreTemplate: req.GitignoreTemplate,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	h.respondJson(w, http.StatusOK, toJobResponse(updated))
}

// CancelJob handles DELETE /jobs/{id}.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	if err := h.engine.CancelJob(r.Context(), job.ID); err != nil {
		h.engineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerJob handles POST /jobs/{id}/trigger.
// The creation runs asynchronously; poll GET /jobs/{id} for the outcome.
func (h *Handlers) TriggerJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	if err := h.engine.TriggerNow(r.Context(), job.ID); err != nil {
		h.engineError(w, r, err)
		return
	}

	job.Status = store.JobStatusCreating
	h.respondJson(w, http.StatusAccepted, toJobResponse(job))
}

// ownedJob resolves the {id} path value to a job visible to the caller.
// Another owner's job is reported as not found.
func (h *Handlers) ownedJob(w http.ResponseWriter, r *http.Request) (store.Job, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return store.Job{}, false
	}

	job, err := h.engine.GetJob(id)
	if err != nil {
		h.engineError(w, r, err)
		return store.Job{}, false
	}

	owner := middleware.OwnerFromContext(r.Context())
	if owner != "" && job.OwnerRef != owner {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return store.Job{}, false
	}
	return job, true
}
