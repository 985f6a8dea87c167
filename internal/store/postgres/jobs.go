package postgres

import (
	"context"
	"fmt"

	"reposched/internal/store"
)

const selectJobsQuery = `
	SELECT id, owner_ref, name, description, private, auto_init, gitignore_template,
		scheduled_at, credential_ref, status, result_url, github_id, error_message,
		created_at, completed_at
	FROM scheduled_jobs
	ORDER BY created_at ASC
`

const insertJobQuery = `
	INSERT INTO scheduled_jobs (id, owner_ref, name, description, private, auto_init, gitignore_template,
		scheduled_at, credential_ref, status, result_url, github_id, error_message, created_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

// Load reads the full job snapshot.
func (s *Store) Load(ctx context.Context) ([]store.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJobsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		var job store.Job
		if err := rows.Scan(
			&job.ID, &job.OwnerRef, &job.Name, &job.Description,
			&job.Private, &job.AutoInit, &job.GitignoreTemplate,
			&job.ScheduledAt, &job.CredentialRef, &job.Status,
			&job.ResultURL, &job.GitHubID, &job.ErrorMessage,
			&job.CreatedAt, &job.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs rows error: %w", err)
	}

	return jobs, nil
}

// SaveAll replaces the table contents inside one transaction.
// Any failure rolls back, so readers only ever see a complete snapshot.
func (s *Store) SaveAll(ctx context.Context, jobs []store.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scheduled_jobs"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	for _, job := range jobs {
		_, err := tx.ExecContext(ctx, insertJobQuery,
			job.ID,
			job.OwnerRef,
			job.Name,
			job.Description,
			job.Private,
			job.AutoInit,
			job.GitignoreTemplate,
			job.ScheduledAt,
			job.CredentialRef,
			job.Status,
			job.ResultURL,
			job.GitHubID,
			job.ErrorMessage,
			job.CreatedAt,
			job.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
