package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 200
)

func registerTools(server *sdkmcp.Server, b Browser, history HistoryService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "current_character",
		Description: "Show the character under this session's cursor",
	}, navigate(func(ctx context.Context, sid string, _ EmptyParams) (browser.View, error) {
		return b.Current(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "next_character",
		Description: "Advance the cursor to the next character, skipping missing identifiers and wrapping past the last",
	}, navigate(func(ctx context.Context, sid string, _ EmptyParams) (browser.View, error) {
		return b.Next(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "previous_character",
		Description: "Move the cursor to the previous character, skipping missing identifiers and wrapping before the first",
	}, navigate(func(ctx context.Context, sid string, _ EmptyParams) (browser.View, error) {
		return b.Prev(ctx, sid)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "jump_to_character",
		Description: "Move the cursor to a character by identifier; a missing identifier resolves to the next present one",
	}, navigate(func(ctx context.Context, sid string, in JumpParams) (browser.View, error) {
		return b.Jump(ctx, sid, in.ID)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_character",
		Description: "Find a character by full name, ignoring case, and move the cursor to it",
	}, navigate(func(ctx context.Context, sid string, in SearchParams) (browser.View, error) {
		return b.Search(ctx, sid, in.Name)
	}))

	if history == nil {
		return
	}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List this session's navigation history, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResult, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = defaultActivityLimit
		}
		if limit > maxActivityLimit {
			limit = maxActivityLimit
		}
		opts := activity.ListActivityOptions{SessionID: getSessionID(ctx), Limit: limit}
		if in.Type != "" {
			kind := activity.ActivityType(in.Type)
			opts.ActivityType = &kind
		}

		entries, err := history.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, RecentActivityResult{}, mapError(err)
		}
		return nil, RecentActivityResult{Entries: activityItems(entries)}, nil
	})
}

// navigate adapts a browser call into a tool handler keyed to the caller's session.
func navigate[In any](fn func(ctx context.Context, sessionID string, in In) (browser.View, error)) sdkmcp.ToolHandlerFor[In, CharacterResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, CharacterResult, error) {
		view, err := fn(ctx, getSessionID(ctx), in)
		if err != nil {
			return nil, CharacterResult{}, mapError(err)
		}
		return nil, characterResult(view), nil
	}
}
