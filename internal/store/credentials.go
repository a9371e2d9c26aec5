package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Credentials is the access-token pair for an authorized session.
// Either both fields are set or the record is absent; the store never
// persists a partially populated pair.
type Credentials struct {
	TokenKey    string
	TokenSecret string
}

// LoadCredentials returns the persisted credential pair, if any.
// ok is false when no session has been authorized yet.
func (s *Store) LoadCredentials(ctx context.Context) (creds Credentials, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token_key, token_secret FROM credentials
	`)
	if err := row.Scan(&creds.TokenKey, &creds.TokenSecret); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, fmt.Errorf("load credentials: %w", err)
	}
	return creds, true, nil
}

// SaveCredentials replaces the credential singleton atomically.
// Delete and insert run in one transaction so the table never holds
// two rows and a crash never leaves it half-written.
func (s *Store) SaveCredentials(ctx context.Context, creds Credentials) error {
	if creds.TokenKey == "" || creds.TokenSecret == "" {
		return fmt.Errorf("save credentials: refusing to persist partial credential pair")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save credentials: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("save credentials: clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (token_key, token_secret) VALUES (?, ?)
	`, creds.TokenKey, creds.TokenSecret); err != nil {
		return fmt.Errorf("save credentials: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save credentials: commit: %w", err)
	}
	return nil
}
