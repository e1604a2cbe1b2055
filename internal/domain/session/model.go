package session

import "time"

// InitialCursor is where a new session starts browsing.
const InitialCursor = 1

// Session tracks one browser's (or agent's) position in the dataset.
type Session struct {
	ID           string    `json:"id"`
	CurrentID    int       `json:"current_id"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
