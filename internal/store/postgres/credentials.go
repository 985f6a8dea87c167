package postgres

import (
	"context"
	"database/sql"
	"errors"

	"reposched/internal/store"
)

func (s *Store) GetCredential(ctx context.Context, ownerRef string) (*store.Credential, error) {
	query := "SELECT owner_ref, token, updated_at FROM credentials WHERE owner_ref = $1"

	var cred store.Credential
	err := s.db.QueryRowContext(ctx, query, ownerRef).Scan(&cred.OwnerRef, &cred.Token, &cred.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cred, nil
}

func (s *Store) PutCredential(ctx context.Context, cred store.Credential) error {
	query := `
		INSERT INTO credentials (owner_ref, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_ref) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, cred.OwnerRef, cred.Token, cred.UpdatedAt)
	return err
}
