// Package browser runs one navigation for one session: it reads the
// session cursor, resolves the move against the dataset, stores the new
// cursor and records the step in the activity log.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
)

// Navigator resolves moves over the identifier space.
type Navigator interface {
	MaxID() int
	Current(ctx context.Context, id int) (navigator.Result, error)
	Advance(ctx context.Context, from int) (navigator.Result, error)
	Retreat(ctx context.Context, from int) (navigator.Result, error)
	JumpTo(ctx context.Context, id int) (navigator.Result, error)
	Search(ctx context.Context, name string) (navigator.Result, error)
}

// Sessions stores session cursors.
type Sessions interface {
	Ensure(ctx context.Context, id string) (*session.Session, bool, error)
	Move(ctx context.Context, id string, step session.StepFunc) (*session.Session, error)
}

// ActivityLog records navigation history.
type ActivityLog interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// View is what the presentation layer renders after a navigation.
type View struct {
	SessionID   string               `json:"session_id"`
	CurrentID   int                  `json:"current_id"`
	MaxID       int                  `json:"max_id"`
	Character   *character.Character `json:"character,omitempty"`
	Fallback    bool                 `json:"fallback,omitempty"`
	RequestedID int                  `json:"requested_id,omitempty"`
}

// Browser coordinates navigation for sessions.
type Browser struct {
	nav      Navigator
	sessions Sessions
	activity ActivityLog
	logger   *slog.Logger
}

// New creates a Browser.
func New(nav Navigator, sessions Sessions, activityLog ActivityLog, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Browser{
		nav:      nav,
		sessions: sessions,
		activity: activityLog,
		logger:   logger,
	}
}

// MaxID returns the upper bound of the identifier space.
func (b *Browser) MaxID() int {
	return b.nav.MaxID()
}

// Open ensures the session exists and returns its ID.
func (b *Browser) Open(ctx context.Context, sessionID string) (string, error) {
	sess, created, err := b.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if created {
		b.record(ctx, &activity.ActivityEntry{
			SessionID:    sess.ID,
			ActivityType: activity.TypeSessionStarted,
			ToID:         intPtr(sess.CurrentID),
			Summary:      "session started",
		})
	}
	return sess.ID, nil
}

// Current shows the record under the session cursor.
func (b *Browser) Current(ctx context.Context, sessionID string) (View, error) {
	return b.move(ctx, sessionID, "", func(ctx context.Context, from int) (navigator.Result, error) {
		return b.nav.Current(ctx, from)
	}, nil)
}

// Next advances the cursor to the next present record.
func (b *Browser) Next(ctx context.Context, sessionID string) (View, error) {
	return b.move(ctx, sessionID, activity.TypeAdvance, b.nav.Advance, nil)
}

// Prev retreats the cursor to the previous present record.
func (b *Browser) Prev(ctx context.Context, sessionID string) (View, error) {
	return b.move(ctx, sessionID, activity.TypeRetreat, b.nav.Retreat, nil)
}

// Jump moves the cursor to id, or the first present record after it.
func (b *Browser) Jump(ctx context.Context, sessionID string, id int) (View, error) {
	return b.move(ctx, sessionID, activity.TypeJump, func(ctx context.Context, _ int) (navigator.Result, error) {
		return b.nav.JumpTo(ctx, id)
	}, nil)
}

// Search moves the cursor to the record named name. A miss leaves the
// cursor where it was.
func (b *Browser) Search(ctx context.Context, sessionID, name string) (View, error) {
	return b.move(ctx, sessionID, activity.TypeSearch, func(ctx context.Context, _ int) (navigator.Result, error) {
		return b.nav.Search(ctx, name)
	}, &name)
}

type resolveFunc func(ctx context.Context, from int) (navigator.Result, error)

func (b *Browser) move(ctx context.Context, sessionID string, kind activity.ActivityType, resolve resolveFunc, query *string) (View, error) {
	id, err := b.Open(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	var (
		from   int
		result navigator.Result
	)
	sess, err := b.sessions.Move(ctx, id, func(ctx context.Context, current int) (int, error) {
		from = current
		res, err := resolve(ctx, current)
		if err != nil {
			return 0, err
		}
		if res.ID < 1 {
			return 0, fmt.Errorf("resolved id %d: %w", res.ID, navigator.ErrNoValidRecord)
		}
		result = res
		return res.ID, nil
	})
	if err != nil {
		b.recordFailure(ctx, id, kind, from, query, err)
		return View{}, err
	}

	if kind != "" {
		entry := &activity.ActivityEntry{
			SessionID:    id,
			ActivityType: kind,
			FromID:       intPtr(from),
			ToID:         intPtr(result.ID),
			Summary:      summarize(kind, result),
		}
		if query != nil {
			entry.Query = *query
		}
		if result.Fallback {
			entry.ActivityType = activity.TypeJumpFallback
		}
		b.record(ctx, entry)
	}

	b.logger.Debug("navigated", "session_id", id, "type", kind, "from", from, "to", result.ID, "fetches", result.Fetches)

	return View{
		SessionID:   id,
		CurrentID:   sess.CurrentID,
		MaxID:       b.nav.MaxID(),
		Character:   result.Character,
		Fallback:    result.Fallback,
		RequestedID: result.RequestedID,
	}, nil
}

func (b *Browser) recordFailure(ctx context.Context, sessionID string, kind activity.ActivityType, from int, query *string, err error) {
	entry := &activity.ActivityEntry{
		SessionID:    sessionID,
		ActivityType: activity.TypeFailure,
		Summary:      fmt.Sprintf("%s failed: %v", kindLabel(kind), err),
	}
	if from > 0 {
		entry.FromID = intPtr(from)
	}
	if query != nil {
		entry.Query = *query
	}
	if errors.Is(err, navigator.ErrNoMatch) {
		entry.ActivityType = activity.TypeSearchMiss
		entry.Summary = "no character matches name"
	}
	b.record(ctx, entry)
}

// record logs history best-effort; a history write never fails navigation.
func (b *Browser) record(ctx context.Context, entry *activity.ActivityEntry) {
	if b.activity == nil {
		return
	}
	if err := b.activity.LogActivity(ctx, entry); err != nil {
		b.logger.Warn("failed to record activity", "session_id", entry.SessionID, "type", entry.ActivityType, "error", err)
	}
}

func summarize(kind activity.ActivityType, res navigator.Result) string {
	name := "record"
	if res.Character != nil {
		name = res.Character.Name
	}
	switch {
	case res.Fallback:
		return fmt.Sprintf("id %d absent, moved to %s (%d)", res.RequestedID, name, res.ID)
	case kind == activity.TypeSearch:
		return fmt.Sprintf("found %s (%d)", name, res.ID)
	default:
		return fmt.Sprintf("%s to %s (%d)", kindLabel(kind), name, res.ID)
	}
}

func kindLabel(kind activity.ActivityType) string {
	if kind == "" {
		return "view"
	}
	return string(kind)
}

func intPtr(v int) *int {
	return &v
}
