package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/datapad/internal/repository"
)

const maxMoveAttempts = 3

// StepFunc computes the new cursor from the current one.
type StepFunc func(ctx context.Context, from int) (int, error)

// Service handles session cursor operations.
type Service struct {
	sessions Repository
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{sessions: sessions, logger: logger}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Ensure loads the session, creating it at the initial cursor when missing.
// An empty id creates a session with a generated ID. The bool reports
// whether the session was created.
func (s *Service) Ensure(ctx context.Context, id string) (*Session, bool, error) {
	if id == "" {
		id = NewID()
	} else {
		sess, err := s.sessions.Get(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, fmt.Errorf("loading session: %w", err)
		}
	}

	now := time.Now()
	sess := &Session{
		ID:           id,
		CurrentID:    InitialCursor,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another request created it first.
			existing, getErr := s.sessions.Get(ctx, id)
			if getErr != nil {
				return nil, false, fmt.Errorf("loading session: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Info("session started", "session_id", id)
	return sess, true, nil
}

// Get loads an existing session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// Move applies step to the session cursor and stores the result. A
// concurrent move on the same session makes the store reject the write;
// the step is then re-run against the fresh cursor.
func (s *Service) Move(ctx context.Context, id string, step StepFunc) (*Session, error) {
	if id == "" || step == nil {
		return nil, ErrInvalidInput
	}

	for attempt := 1; attempt <= maxMoveAttempts; attempt++ {
		sess, _, err := s.Ensure(ctx, id)
		if err != nil {
			return nil, err
		}

		to, err := step(ctx, sess.CurrentID)
		if err != nil {
			return nil, err
		}

		expected := sess.Version
		next := *sess
		next.CurrentID = to
		next.Version = expected + 1
		next.LastActivity = time.Now()

		err = s.sessions.Update(ctx, &next, expected)
		switch {
		case err == nil:
			return &next, nil
		case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrNotFound):
			s.logger.Debug("session cursor moved concurrently", "session_id", id, "attempt", attempt, "error", err)
			continue
		default:
			return nil, fmt.Errorf("updating session: %w", err)
		}
	}
	return nil, ErrContended
}

// Prune deletes sessions idle for longer than idle.
func (s *Service) Prune(ctx context.Context, idle time.Duration) (int64, error) {
	n, err := s.sessions.DeleteIdle(ctx, time.Now().Add(-idle))
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned idle sessions", "count", n)
	}
	return n, nil
}
