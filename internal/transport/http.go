package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/rpggio/datapad/internal/web"
)

// Browser runs navigations for a session.
type Browser interface {
	MaxID() int
	Current(ctx context.Context, sessionID string) (browser.View, error)
	Next(ctx context.Context, sessionID string) (browser.View, error)
	Prev(ctx context.Context, sessionID string) (browser.View, error)
	Jump(ctx context.Context, sessionID string, id int) (browser.View, error)
	Search(ctx context.Context, sessionID, name string) (browser.View, error)
}

// History lists a session's navigation history.
type History interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Sessions looks up stored session cursors.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Config wires the HTTP server.
type Config struct {
	Browser Browser
	History History
	// Sessions, when set, lets /history report the cursor and tell an
	// unknown session from one with no history yet.
	Sessions Sessions
	Logger   *slog.Logger

	SessionCookie string
	SessionTTL    time.Duration

	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// MCPAuth guards /mcp when set.
	MCPAuth func(http.Handler) http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	browser  Browser
	history  History
	sessions Sessions
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{browser: cfg.Browser, history: cfg.History, sessions: cfg.Sessions, logger: cfg.Logger}

	r.Get("/health", srv.handleHealth)
	r.Handle("/static/*", web.Static())

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.SessionCookie, cfg.SessionTTL))
		r.Use(LoggingMiddleware(cfg.Logger))

		r.Get("/", srv.handleCurrent)
		r.Get("/next", srv.handleNext)
		r.Get("/prev", srv.handlePrev)
		r.Get("/character", srv.handleJumpForm)
		r.Get("/character/{id}", srv.handleJump)
		r.Get("/search", srv.handleSearch)
		r.Get("/history", srv.handleHistory)
	})

	if cfg.MCP != nil {
		r.Group(func(r chi.Router) {
			if cfg.MCPAuth != nil {
				r.Use(cfg.MCPAuth)
			}
			r.Use(LoggingMiddleware(cfg.Logger))
			r.Handle("/mcp", cfg.MCP)
			r.Handle("/mcp/*", cfg.MCP)
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = web.Error(w, http.StatusNotFound, web.Page{Message: "There is nothing at this address."})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
