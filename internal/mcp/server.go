package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
)

// Browser defines the navigation operations exposed as tools.
type Browser interface {
	MaxID() int
	Current(ctx context.Context, sessionID string) (browser.View, error)
	Next(ctx context.Context, sessionID string) (browser.View, error)
	Prev(ctx context.Context, sessionID string) (browser.View, error)
	Jump(ctx context.Context, sessionID string, id int) (browser.View, error)
	Search(ctx context.Context, sessionID, name string) (browser.View, error)
}

// HistoryService defines activity operations needed by MCP.
type HistoryService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Config contains server configuration.
type Config struct {
	Browser       Browser
	History       HistoryService
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "datapad",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio serves a single client, so every call shares one cursor.
	fallback := DefaultHTTPSession
	if cfg.TransportMode == "stdio" {
		fallback = DefaultStdioSession
	}
	server.AddReceivingMiddleware(sessionMiddleware(fallback))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Browser, cfg.History)

	return server
}
