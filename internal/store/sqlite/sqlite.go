// Package sqlite implements the store interfaces on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reposched/internal/store"

	_ "modernc.org/sqlite"
)

// Timestamps are Unix nanoseconds. seq keeps the snapshot order.
const schema = `
CREATE TABLE IF NOT EXISTS scheduled_jobs (
  id TEXT PRIMARY KEY,
  seq INTEGER NOT NULL,
  owner_ref TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  private INTEGER NOT NULL DEFAULT 0,
  auto_init INTEGER NOT NULL DEFAULT 1,
  gitignore_template TEXT NOT NULL DEFAULT '',
  scheduled_at INTEGER NOT NULL,
  credential_ref TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  result_url TEXT,
  github_id INTEGER,
  error_message TEXT,
  created_at INTEGER NOT NULL,
  completed_at INTEGER
);
CREATE TABLE IF NOT EXISTS credentials (
  owner_ref TEXT PRIMARY KEY,
  token TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
`

// Store keeps the snapshot in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Load(ctx context.Context) ([]store.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_ref, name, description, private, auto_init, gitignore_template,
		        scheduled_at, credential_ref, status, result_url, github_id, error_message,
		        created_at, completed_at
		   FROM scheduled_jobs ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		var (
			job                   store.Job
			id, status            string
			scheduledNs, created  int64
			resultURL, errMessage sql.NullString
			githubID, completedNs sql.NullInt64
		)
		if err := rows.Scan(&id, &job.OwnerRef, &job.Name, &job.Description, &job.Private, &job.AutoInit,
			&job.GitignoreTemplate, &scheduledNs, &job.CredentialRef, &status, &resultURL, &githubID,
			&errMessage, &created, &completedNs); err != nil {
			return nil, err
		}
		if err := job.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("invalid job id %q: %w", id, err)
		}
		job.Status = store.JobStatus(status)
		job.ScheduledAt = time.Unix(0, scheduledNs).UTC()
		job.CreatedAt = time.Unix(0, created).UTC()
		if resultURL.Valid {
			job.ResultURL = &resultURL.String
		}
		if errMessage.Valid {
			job.ErrorMessage = &errMessage.String
		}
		if githubID.Valid {
			job.GitHubID = &githubID.Int64
		}
		if completedNs.Valid {
			t := time.Unix(0, completedNs.Int64).UTC()
			job.CompletedAt = &t
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) SaveAll(ctx context.Context, jobs []store.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_jobs`); err != nil {
		return err
	}

	for i, job := range jobs {
		var completedNs sql.NullInt64
		if job.CompletedAt != nil {
			completedNs = sql.NullInt64{Int64: job.CompletedAt.UnixNano(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scheduled_jobs (id, seq, owner_ref, name, description, private, auto_init, gitignore_template,
			        scheduled_at, credential_ref, status, result_url, github_id, error_message, created_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ID.String(), i, job.OwnerRef, job.Name, job.Description, job.Private, job.AutoInit,
			job.GitignoreTemplate, job.ScheduledAt.UnixNano(), job.CredentialRef, string(job.Status),
			nullString(job.ResultURL), nullInt64(job.GitHubID), nullString(job.ErrorMessage),
			job.CreatedAt.UnixNano(), completedNs,
		); err != nil {
			return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetCredential(ctx context.Context, ownerRef string) (*store.Credential, error) {
	var (
		cred      store.Credential
		updatedNs int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_ref, token, updated_at FROM credentials WHERE owner_ref = ?`, ownerRef,
	).Scan(&cred.OwnerRef, &cred.Token, &updatedNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	cred.UpdatedAt = time.Unix(0, updatedNs).UTC()
	return &cred, nil
}

func (s *Store) PutCredential(ctx context.Context, cred store.Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (owner_ref, token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner_ref) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		cred.OwnerRef, cred.Token, cred.UpdatedAt.UnixNano(),
	)
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
