package session

import (
	"context"
	"time"
)

// Repository provides persistence for sessions.
type Repository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update stores sess if the stored version equals expectedVersion.
	Update(ctx context.Context, sess *Session, expectedVersion int64) error
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}
