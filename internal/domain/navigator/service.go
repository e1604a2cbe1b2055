package navigator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/datapad/internal/domain/character"
	"golang.org/x/text/cases"
)

// Service resolves navigation requests over a sparse identifier space.
// It holds no cursor; callers pass the current identifier in and store the
// resolved one.
type Service struct {
	source     Source
	maxID      int
	legacyJump bool
	logger     *slog.Logger
}

// NewService creates a navigator over source.
func NewService(source Source, opts Options, logger *slog.Logger) *Service {
	maxID := opts.MaxID
	if maxID < 1 {
		maxID = DefaultMaxID
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		source:     source,
		maxID:      maxID,
		legacyJump: opts.LegacyJumpResult,
		logger:     logger,
	}
}

// MaxID returns the largest identifier of the space.
func (s *Service) MaxID() int {
	return s.maxID
}

// Wrap maps any integer onto [1, MaxID] circularly.
func (s *Service) Wrap(id int) int {
	return ((id-1)%s.maxID+s.maxID)%s.maxID + 1
}

// Current resolves the record at id, scanning forward if it has gone missing.
func (s *Service) Current(ctx context.Context, id int) (Result, error) {
	return s.scan(ctx, s.Wrap(id), Forward, s.maxID)
}

// Advance resolves the first present record after from.
func (s *Service) Advance(ctx context.Context, from int) (Result, error) {
	return s.scan(ctx, s.Wrap(from+1), Forward, s.maxID)
}

// Retreat resolves the first present record before from.
func (s *Service) Retreat(ctx context.Context, from int) (Result, error) {
	return s.scan(ctx, s.Wrap(from-1), Backward, s.maxID)
}

// JumpTo resolves id, wrapped into range. An absent target falls back to
// the first present record after it.
func (s *Service) JumpTo(ctx context.Context, id int) (Result, error) {
	target := s.Wrap(id)

	rec, err := s.source.Fetch(ctx, target)
	if err == nil {
		return Result{ID: target, Character: rec, RequestedID: target, Fetches: 1}, nil
	}
	if !character.IsAbsent(err) {
		return Result{}, fmt.Errorf("fetching id %d: %w", target, err)
	}

	res, err := s.scan(ctx, s.Wrap(target+1), Forward, s.maxID-1)
	if err != nil {
		return Result{}, err
	}
	res.Fetches++
	res.Fallback = true
	res.RequestedID = target
	if s.legacyJump {
		res.Character = nil
	}
	s.logger.Debug("jump fell back", "requested_id", target, "resolved_id", res.ID, "legacy", s.legacyJump)
	return res, nil
}

// Search returns the first record whose name equals name under case folding.
// The whole collection is fetched on every call.
func (s *Service) Search(ctx context.Context, name string) (Result, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return Result{}, ErrInvalidInput
	}

	all, err := s.source.FetchAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching collection: %w", err)
	}

	fold := cases.Fold()
	key := fold.String(query)
	for i := range all {
		if fold.String(all[i].Name) == key {
			rec := all[i]
			return Result{ID: rec.ID, Character: &rec, RequestedID: rec.ID, Fetches: 1}, nil
		}
	}
	return Result{}, ErrNoMatch
}

func (s *Service) scan(ctx context.Context, start int, dir Direction, limit int) (Result, error) {
	for step := 0; step < limit; step++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		id := s.Wrap(start + step*int(dir))
		rec, err := s.source.Fetch(ctx, id)
		if err == nil {
			return Result{ID: id, Character: rec, RequestedID: id, Fetches: step + 1}, nil
		}
		if !character.IsAbsent(err) {
			return Result{}, fmt.Errorf("fetching id %d: %w", id, err)
		}
		s.logger.Debug("skipping absent id", "id", id, "error", err)
	}
	return Result{}, ErrNoValidRecord
}
