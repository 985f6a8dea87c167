package store

import (
	"context"
	"errors"
)

// ErrCredentialNotFound is returned when no token is stored for an owner.
var ErrCredentialNotFound = errors.New("credential not found")

// JobStore persists the whole job collection as one snapshot.
// There are no row-level updates: callers mutate their in-memory collection
// and hand the full result to SaveAll after every state transition.
type JobStore interface {
	// Load returns every persisted job. A store that was never written loads as empty.
	Load(ctx context.Context) ([]Job, error)

	// SaveAll atomically replaces the persisted snapshot with jobs.
	// A failed write must leave the previous snapshot intact.
	SaveAll(ctx context.Context, jobs []Job) error
}

// CredentialStore keeps one bearer token per owner.
type CredentialStore interface {
	// GetCredential returns ErrCredentialNotFound when the owner has no token.
	GetCredential(ctx context.Context, ownerRef string) (*Credential, error)

	// PutCredential creates or replaces the owner's token.
	PutCredential(ctx context.Context, cred Credential) error
}

// Store is implemented by every backend.
type Store interface {
	JobStore
	CredentialStore
	Ping(ctx context.Context) error
	Close() error
}
