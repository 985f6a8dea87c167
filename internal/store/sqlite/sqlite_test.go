package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reposched/internal/store"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "reposched.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAllThenLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	url := "https://github.com/alice/done"
	var ghID int64 = 7
	done := now.Add(-time.Minute)

	jobs := []store.Job{
		{ID: uuid.New(), OwnerRef: "alice", Name: "later", ScheduledAt: now.Add(time.Hour),
			AutoInit: true, GitignoreTemplate: "Go", Status: store.JobStatusPending, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.New(), OwnerRef: "alice", Name: "done", ScheduledAt: now.Add(-time.Hour), Private: true,
			Status: store.JobStatusCreated, ResultURL: &url, GitHubID: &ghID, CreatedAt: now.Add(-time.Minute), CompletedAt: &done},
	}

	if err := s.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d jobs, want 2", len(loaded))
	}

	if loaded[0].ID != jobs[0].ID || !loaded[0].ScheduledAt.Equal(jobs[0].ScheduledAt) {
		t.Errorf("pending job mismatch: %+v", loaded[0])
	}
	if loaded[0].ResultURL != nil || loaded[0].CompletedAt != nil {
		t.Errorf("expected nil optional fields, got %+v", loaded[0])
	}
	if loaded[1].ResultURL == nil || *loaded[1].ResultURL != url || *loaded[1].GitHubID != ghID {
		t.Errorf("created job mismatch: %+v", loaded[1])
	}
	if !loaded[1].Private || loaded[1].CompletedAt == nil || !loaded[1].CompletedAt.Equal(done) {
		t.Errorf("created job mismatch: %+v", loaded[1])
	}

	// A smaller snapshot replaces the whole table.
	if err := s.SaveAll(ctx, jobs[:1]); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	loaded, _ = s.Load(ctx)
	if len(loaded) != 1 {
		t.Errorf("got %d jobs after replace, want 1", len(loaded))
	}
}

func TestSaveAll_KeepsPrecisionAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Same millisecond, different nanoseconds, saved newest first.
	base := time.Date(2030, 1, 2, 3, 4, 5, 123_000_000, time.UTC)
	jobs := []store.Job{
		{ID: uuid.New(), Name: "b", ScheduledAt: base.Add(900), Status: store.JobStatusPending, CreatedAt: base.Add(500)},
		{ID: uuid.New(), Name: "a", ScheduledAt: base.Add(100), Status: store.JobStatusPending, CreatedAt: base.Add(1)},
	}
	if err := s.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d jobs, want 2", len(loaded))
	}
	for i := range jobs {
		if loaded[i].ID != jobs[i].ID {
			t.Errorf("loaded[%d] = %s, want %s", i, loaded[i].Name, jobs[i].Name)
		}
		if !loaded[i].ScheduledAt.Equal(jobs[i].ScheduledAt) || !loaded[i].CreatedAt.Equal(jobs[i].CreatedAt) {
			t.Errorf("loaded[%d] times = %v/%v, want %v/%v", i,
				loaded[i].ScheduledAt, loaded[i].CreatedAt, jobs[i].ScheduledAt, jobs[i].CreatedAt)
		}
	}
}

func TestCredentials(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetCredential(ctx, "alice"); !errors.Is(err, store.ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound, got %v", err)
	}

	for _, token := range []string{"first", "second"} {
		if err := s.PutCredential(ctx, store.Credential{OwnerRef: "alice", Token: token, UpdatedAt: time.Now()}); err != nil {
			t.Fatalf("PutCredential failed: %v", err)
		}
	}

	cred, err := s.GetCredential(ctx, "alice")
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if cred.Token != "second" {
		t.Errorf("got token %q, want second", cred.Token)
	}
}
