package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeSessionStarted ActivityType = "session_started"
	TypeAdvance        ActivityType = "advance"
	TypeRetreat        ActivityType = "retreat"
	TypeJump           ActivityType = "jump"
	TypeJumpFallback   ActivityType = "jump_fallback"
	TypeSearch         ActivityType = "search"
	TypeSearchMiss     ActivityType = "search_miss"
	TypeFailure        ActivityType = "failure"
)

// ActivityEntry represents an event in a session's browsing history
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	ActivityType ActivityType `json:"type"`
	FromID       *int         `json:"from_id,omitempty"`
	ToID         *int         `json:"to_id,omitempty"`
	Query        string       `json:"query,omitempty"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}
