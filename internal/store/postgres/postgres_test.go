package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"reposched/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}

var jobColumns = []string{
	"id", "owner_ref", "name", "description", "private", "auto_init", "gitignore_template",
	"scheduled_at", "credential_ref", "status", "result_url", "github_id", "error_message",
	"created_at", "completed_at",
}

func TestLoad_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	pendingID := uuid.New()
	createdID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`SELECT id, owner_ref, name, .* FROM scheduled_jobs`).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(pendingID.String(), "alice", "pending-repo", "", true, true, "Go",
				now.Add(time.Hour), "alice", "pending", nil, nil, nil, now, nil).
			AddRow(createdID.String(), "alice", "created-repo", "desc", false, false, "",
				now.Add(-time.Hour), "alice", "created", "https://github.com/alice/created-repo", int64(99), nil, now.Add(-2*time.Hour), now.Add(-time.Hour)))

	jobs, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	if jobs[0].ID != pendingID || jobs[0].Status != store.JobStatusPending {
		t.Errorf("unexpected first job: %+v", jobs[0])
	}
	if jobs[0].ResultURL != nil || jobs[0].CompletedAt != nil {
		t.Errorf("expected NULL columns to scan as nil, got %+v", jobs[0])
	}
	if jobs[1].ResultURL == nil || *jobs[1].ResultURL != "https://github.com/alice/created-repo" {
		t.Errorf("unexpected result url: %v", jobs[1].ResultURL)
	}
	if jobs[1].GitHubID == nil || *jobs[1].GitHubID != 99 {
		t.Errorf("unexpected github id: %v", jobs[1].GitHubID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLoad_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT id, owner_ref, name, .* FROM scheduled_jobs`).
		WillReturnError(errors.New("connection reset"))

	if _, err := s.Load(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestSaveAll_ReplacesRowsInTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	now := time.Now().UTC()
	jobs := []store.Job{
		{ID: uuid.New(), OwnerRef: "alice", Name: "one", ScheduledAt: now.Add(time.Hour), Status: store.JobStatusPending, CreatedAt: now},
		{ID: uuid.New(), OwnerRef: "bob", Name: "two", ScheduledAt: now.Add(time.Hour), Status: store.JobStatusPending, CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scheduled_jobs`).WillReturnResult(sqlmock.NewResult(0, 3))
	for _, job := range jobs {
		mock.ExpectExec(`INSERT INTO scheduled_jobs`).
			WithArgs(job.ID, job.OwnerRef, job.Name, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), "pending", nil, nil, nil, sqlmock.AnyArg(), nil).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	if err := s.SaveAll(context.Background(), jobs); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSaveAll_InsertErrorRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scheduled_jobs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO scheduled_jobs`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := s.SaveAll(context.Background(), []store.Job{{ID: uuid.New(), Name: "x", Status: store.JobStatusPending}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetCredential(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	updatedAt := time.Now().Truncate(time.Second)
	mock.ExpectQuery(`SELECT owner_ref, token, updated_at FROM credentials WHERE owner_ref = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"owner_ref", "token", "updated_at"}).
			AddRow("alice", "ghp_secret", updatedAt))

	cred, err := s.GetCredential(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if cred.Token != "ghp_secret" {
		t.Errorf("got token %q, want ghp_secret", cred.Token)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetCredential_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT owner_ref, token, updated_at FROM credentials`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"owner_ref", "token", "updated_at"}))

	_, err := s.GetCredential(context.Background(), "nobody")
	if !errors.Is(err, store.ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestPutCredential_Upserts(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	cred := store.Credential{OwnerRef: "alice", Token: "ghp_new", UpdatedAt: time.Now()}
	mock.ExpectExec(`INSERT INTO credentials .* ON CONFLICT \(owner_ref\) DO UPDATE`).
		WithArgs(cred.OwnerRef, cred.Token, cred.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.PutCredential(context.Background(), cred); err != nil {
		t.Fatalf("PutCredential failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
