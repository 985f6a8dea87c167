// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// Header carrying the owner a request acts for. Absent means single-user mode.
const OwnerHeader = "X-Owner-ID"

// ScheduleJobRequest is the request body for scheduling a repository creation.
type ScheduleJobRequest struct {
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Private           bool      `json:"private"`
	AutoInit          *bool     `json:"auto_init,omitempty"` // defaults to true
	GitignoreTemplate string    `json:"gitignore_template,omitempty"`
}

// UpdateJobRequest is a partial update of a pending job; omitted fields are unchanged.
type UpdateJobRequest struct {
	Name              *string    `json:"name,omitempty"`
	Description       *string    `json:"description,omitempty"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty"`
	Private           *bool      `json:"private,omitempty"`
	AutoInit          *bool      `json:"auto_init,omitempty"`
	GitignoreTemplate *string    `json:"gitignore_template,omitempty"`
}

// JobResponse represents a scheduled job in API responses.
type JobResponse struct {
	ID                string     `json:"id"`
	OwnerRef          string     `json:"owner_ref,omitempty"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Private           bool       `json:"private"`
	AutoInit          bool       `json:"auto_init"`
	GitignoreTemplate string     `json:"gitignore_template,omitempty"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	Status            string     `json:"status"`
	ResultURL         *string    `json:"result_url,omitempty"`
	GitHubID          *int64     `json:"github_id,omitempty"`
	Error             *string    `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// ListJobsResponse is the response body for GET /jobs.
type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// StatsResponse is the response body for GET /stats.
type StatsResponse struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Creating int `json:"creating"`
	Created  int `json:"created"`
	Failed   int `json:"failed"`
	Armed    int `json:"armed"`
}

// SetCredentialRequest stores the GitHub token used for the caller's jobs.
type SetCredentialRequest struct {
	Token string `json:"token"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
