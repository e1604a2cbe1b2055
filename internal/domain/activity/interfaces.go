package activity

import (
	"context"
	"time"
)

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, entry *ActivityEntry) error
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
