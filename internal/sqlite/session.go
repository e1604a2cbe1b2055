package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/rpggio/datapad/internal/repository"
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" || sess.CurrentID < 1 {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT INTO sessions (id, current_id, version, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.CurrentID,
		sess.Version,
		dbTime(sess.CreatedAt),
		dbTime(sess.LastActivity),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, current_id, version, created_at, last_activity
		FROM sessions
		WHERE id = ?
	`

	var sess session.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.CurrentID,
		&sess.Version,
		&sess.CreatedAt,
		&sess.LastActivity,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &sess, nil
}

// Update stores the cursor if the stored version still equals expectedVersion.
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	if sess == nil || sess.CurrentID < 1 {
		return repository.ErrInvalidInput
	}

	query := `
		UPDATE sessions
		SET current_id = ?, version = ?, last_activity = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		sess.CurrentID,
		expectedVersion+1,
		dbTime(sess.LastActivity),
		sess.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sess.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check session: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	sess.Version = expectedVersion + 1
	return nil
}

// DeleteIdle removes sessions whose last activity is before the cutoff.
// Their activity entries go with them.
func (r *SessionRepository) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity < ?`, dbTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
