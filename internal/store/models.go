// Package store contains the persistence layer for reposched.
package store

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a scheduled repository job.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusCreating JobStatus = "creating"
	JobStatusCreated  JobStatus = "created"
	JobStatusFailed   JobStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusCreating, JobStatusCreated, JobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCreated || s == JobStatusFailed
}

// Job is one scheduled repository-creation request and its lifecycle state.
type Job struct {
	ID       uuid.UUID `json:"id"`
	OwnerRef string    `json:"owner_ref,omitempty"`

	// Repository payload
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Private           bool   `json:"private"`
	AutoInit          bool   `json:"auto_init"`
	GitignoreTemplate string `json:"gitignore_template,omitempty"`

	ScheduledAt time.Time `json:"scheduled_at"`

	// CredentialRef names the credential resolved at execution time.
	CredentialRef string `json:"credential_ref,omitempty"`

	Status       JobStatus  `json:"status"`
	ResultURL    *string    `json:"result_url,omitempty"`
	GitHubID     *int64     `json:"github_id,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Credential is the bearer token used for a given owner.
type Credential struct {
	OwnerRef  string    `json:"owner_ref"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}
