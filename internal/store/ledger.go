package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// WriteError reports a failed ledger append. The caller must not assume
// the row was written; the loop aborts the rest of the iteration's
// ledger writes when it sees one, so the cursor stays consistent with
// what was actually recorded.
type WriteError struct {
	MatchID int64
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger append failed for match %d: %v", e.MatchID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is a ledger write failure.
// Uses errors.As to handle wrapped errors.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// AppendMatch records a handled search result in the ledger.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - replaying a match id
// that is already recorded is silently ignored, never duplicated.
//
// observedAt is stored as RFC 3339 UTC.
func (s *Store) AppendMatch(ctx context.Context, matchID int64, author, text string, observedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, author, text, observed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		matchID,
		author,
		text,
		observedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &WriteError{MatchID: matchID, Err: err}
	}
	return nil
}

// LastMatchID returns the highest match id in the ledger, or 0 when the
// ledger is empty. This is the since_id low-water mark for searches.
func (s *Store) LastMatchID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	row := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM matches`)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// CountMatches returns the number of ledger rows.
// Used for testing and introspection.
func (s *Store) CountMatches(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}
