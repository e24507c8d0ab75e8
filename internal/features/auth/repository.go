// repository.go works with admin_sessions and
// admin_login_attempts.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/db/postgres"
)

// Repository implements SessionStore on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the session repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession stores a new session record.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO admin_sessions
			(id, token_hash, user_id, email, remember, issued_at, expires_at, last_activity, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.TokenHash, s.UserID, s.Email, s.Remember,
		s.IssuedAt, s.ExpiresAt, s.LastActivity, s.IP, s.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("sessie aanmaken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// GetSessionByTokenHash returns common.ErrNotFound for unknown tokens.
// Expiry is checked by the caller.
func (r *Repository) GetSessionByTokenHash(ctx context.Context, hash string) (*Session, error) {
	query := `
		SELECT id, token_hash, user_id, email, remember, issued_at, expires_at,
		       last_activity, COALESCE(ip, ''), COALESCE(user_agent, '')
		FROM admin_sessions
		WHERE token_hash = $1
	`
	var s Session
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&s.ID, &s.TokenHash, &s.UserID, &s.Email, &s.Remember, &s.IssuedAt,
		&s.ExpiresAt, &s.LastActivity, &s.IP, &s.UserAgent,
	)
	if err != nil {
		return nil, fmt.Errorf("sessie lezen: %w", postgres.MapError(err))
	}
	return &s, nil
}

// DeleteSession removes one session; deleting an unknown one is not an error.
func (r *Repository) DeleteSession(ctx context.Context, hash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE token_hash = $1`, hash)
	if err != nil {
		return fmt.Errorf("sessie verwijderen mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// DeleteUserSessions removes every session of a user.
func (r *Repository) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("sessies intrekken mislukt: %w", postgres.MapError(err))
	}
	return tag.RowsAffected(), nil
}

// TouchSession records activity on a session.
func (r *Repository) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET last_activity = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("sessie-activiteit bijwerken mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// PurgeExpired deletes sessions that expired before now.
func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("verlopen sessies opruimen mislukt: %w", postgres.MapError(err))
	}
	return tag.RowsAffected(), nil
}

// LogAttempt appends one row to the login audit table.
func (r *Repository) LogAttempt(ctx context.Context, a LoginAttempt) error {
	query := `INSERT INTO admin_login_attempts (email, ip, success) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, a.Email, a.IP, a.Success)
	if err != nil {
		return fmt.Errorf("inlogpoging opslaan mislukt: %w", postgres.MapError(err))
	}
	return nil
}

// PurgeAttempts deletes audit rows older than before.
func (r *Repository) PurgeAttempts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_login_attempts WHERE attempt_time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("inlogpogingen opruimen mislukt: %w", postgres.MapError(err))
	}
	return tag.RowsAffected(), nil
}
