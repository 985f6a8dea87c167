// Package file implements the store interfaces on JSON files in a local directory.
// It is the default backend for single-user deployments.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"reposched/internal/store"
)

const (
	jobsFile        = "jobs.json"
	credentialsFile = "credentials.json"
)

// Store keeps jobs and credentials as two JSON documents under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates the data directory if needed and returns a file-backed store.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the job snapshot. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context) ([]store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []store.Job
	if err := s.readJSON(jobsFile, &jobs); err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	return jobs, nil
}

// SaveAll writes the snapshot to a temp file and renames it over the old one.
func (s *Store) SaveAll(ctx context.Context, jobs []store.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if jobs == nil {
		jobs = []store.Job{}
	}
	if err := s.writeJSON(jobsFile, jobs); err != nil {
		return fmt.Errorf("failed to save jobs: %w", err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, ownerRef string) (*store.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.loadCredentials()
	if err != nil {
		return nil, err
	}
	cred, ok := creds[ownerRef]
	if !ok {
		return nil, store.ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *Store) PutCredential(ctx context.Context, cred store.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.loadCredentials()
	if err != nil {
		return err
	}
	creds[cred.OwnerRef] = cred
	if err := s.writeJSON(credentialsFile, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Ping checks that the data directory is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) loadCredentials() (map[string]store.Credential, error) {
	creds := map[string]store.Credential{}
	if err := s.readJSON(credentialsFile, &creds); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return creds, nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSON never truncates the target in place; the rename is the commit point.
func (s *Store) writeJSON(name string, v any) (err error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return err
	}
	// The rename is only durable once the directory entry is on disk.
	if err = syncDir(s.dir); err != nil {
		return fmt.Errorf("failed to sync data directory: %w", err)
	}
	return nil
}

var syncDir = func(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
