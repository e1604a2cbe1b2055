package mcp

import (
	"time"

	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/character"
)

// EmptyParams is the input of tools that take no arguments.
type EmptyParams struct{}

type JumpParams struct {
	ID int `json:"id" jsonschema:"character identifier; values outside the range wrap around"`
}

type SearchParams struct {
	Name string `json:"name" jsonschema:"full character name, matched ignoring case"`
}

type RecentActivityParams struct {
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20)"`
	Type  string `json:"type,omitempty" jsonschema:"only entries of this type, e.g. advance or search_miss"`
}

// CharacterResult is the outcome of every navigation tool.
type CharacterResult struct {
	CurrentID   int                  `json:"current_id" jsonschema:"identifier under the cursor"`
	MaxID       int                  `json:"max_id" jsonschema:"upper bound of the identifier space"`
	Character   *character.Character `json:"character,omitempty" jsonschema:"the record under the cursor"`
	Fallback    bool                 `json:"fallback,omitempty" jsonschema:"true when the requested identifier was absent"`
	RequestedID int                  `json:"requested_id,omitempty" jsonschema:"identifier asked for when fallback is true"`
}

type ActivityItem struct {
	Type      string `json:"type"`
	FromID    int    `json:"from_id,omitempty"`
	ToID      int    `json:"to_id,omitempty"`
	Query     string `json:"query,omitempty"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

type RecentActivityResult struct {
	Entries []ActivityItem `json:"entries"`
}

func characterResult(view browser.View) CharacterResult {
	return CharacterResult{
		CurrentID:   view.CurrentID,
		MaxID:       view.MaxID,
		Character:   view.Character,
		Fallback:    view.Fallback,
		RequestedID: view.RequestedID,
	}
}

func activityItems(entries []activity.ActivityEntry) []ActivityItem {
	items := make([]ActivityItem, 0, len(entries))
	for _, entry := range entries {
		item := ActivityItem{
			Type:      string(entry.ActivityType),
			Query:     entry.Query,
			Summary:   entry.Summary,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if entry.FromID != nil {
			item.FromID = *entry.FromID
		}
		if entry.ToID != nil {
			item.ToID = *entry.ToID
		}
		items = append(items, item)
	}
	return items
}
