package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/jobtrack/internal/repository"
)

var _ repository.TokenRepository = (*DB)(nil)

// Revoke records a refresh token id as unusable. Revoking twice is a no-op.
func (db *DB) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT(jti) DO NOTHING`,
		jti, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: revoking token %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (db *DB) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking token %s: %w", jti, err)
	}
	return n > 0, nil
}

// PurgeExpired deletes revocations for tokens that have expired by now.
func (db *DB) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging revoked tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
