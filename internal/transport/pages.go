package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/rpggio/datapad/internal/web"
)

const maxHistoryLimit = 200

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	view, err := s.browser.Current(r.Context(), sessionID(r))
	s.respond(w, r, view, err, "")
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.browser.Next(r.Context(), sessionID(r))
	s.respond(w, r, view, err, "")
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	view, err := s.browser.Prev(r.Context(), sessionID(r))
	s.respond(w, r, view, err, "")
}

// handleJumpForm turns the pager's ?id= form submission into a /character/{id} URL.
func (s *Server) handleJumpForm(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/character/"+url.PathEscape(id), http.StatusSeeOther)
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Character IDs are whole numbers.", "")
		return
	}
	view, err := s.browser.Jump(r.Context(), sessionID(r), id)
	s.respond(w, r, view, err, "")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	view, err := s.browser.Search(r.Context(), sessionID(r), name)
	s.respond(w, r, view, err, name)
}

type historyResponse struct {
	SessionID string                   `json:"session_id"`
	CurrentID int                      `json:"current_id,omitempty"`
	Entries   []activity.ActivityEntry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	opts := activity.ListActivityOptions{SessionID: sessionID(r)}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 200"})
			return
		}
		opts.Limit = limit
	}

	resp := historyResponse{SessionID: opts.SessionID}
	if s.sessions != nil {
		sess, err := s.sessions.Get(r.Context(), opts.SessionID)
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no browsing session yet; visit / first"})
			return
		case err != nil:
			s.logError(r, "session lookup failed", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
			return
		}
		resp.CurrentID = sess.CurrentID
	}

	entries, err := s.history.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.logError(r, "history lookup failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	resp.Entries = entries
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, view browser.View, err error, query string) {
	if err != nil {
		status, message := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logError(r, "navigation failed", err)
		}
		s.renderError(w, r, status, message, query)
		return
	}

	page := web.Page{
		Query:       query,
		CurrentID:   view.CurrentID,
		MaxID:       view.MaxID,
		Character:   view.Character,
		Fallback:    view.Fallback,
		RequestedID: view.RequestedID,
	}
	if err := web.Home(w, page); err != nil {
		s.logError(r, "render failed", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message, query string) {
	if err := web.Error(w, status, web.Page{Message: message, Query: query, MaxID: s.browser.MaxID()}); err != nil {
		s.logError(r, "render failed", err)
	}
}

func (s *Server) logError(r *http.Request, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, "path", r.URL.Path, "session_id", sessionID(r), "error", err)
}

// statusFor maps a navigation failure to an HTTP status and user-facing text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, navigator.ErrNoMatch):
		return http.StatusNotFound, "No character matches that name."
	case errors.Is(err, navigator.ErrInvalidInput):
		return http.StatusBadRequest, "Enter a name to search for."
	case errors.Is(err, navigator.ErrNoValidRecord), errors.Is(err, character.ErrNotFound):
		return http.StatusNotFound, "No character could be found in the dataset."
	case errors.Is(err, character.ErrTransport):
		return http.StatusBadGateway, "The character dataset is unavailable right now."
	case errors.Is(err, session.ErrContended):
		return http.StatusConflict, "This session is busy with another request; try again."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "The character dataset took too long to answer."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}

func sessionID(r *http.Request) string {
	id, _ := SessionIDFromContext(r.Context())
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
