package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	cursor  int
	lastSID string
	err     error
}

func (b *fakeBrowser) MaxID() int { return 88 }

func (b *fakeBrowser) view(sid string) (browser.View, error) {
	b.lastSID = sid
	if b.err != nil {
		return browser.View{}, b.err
	}
	return browser.View{
		SessionID: sid,
		CurrentID: b.cursor,
		MaxID:     88,
		Character: &character.Character{ID: b.cursor, Name: fmt.Sprintf("Character %d", b.cursor)},
	}, nil
}

func (b *fakeBrowser) Current(_ context.Context, sid string) (browser.View, error) {
	return b.view(sid)
}

func (b *fakeBrowser) Next(_ context.Context, sid string) (browser.View, error) {
	b.cursor++
	return b.view(sid)
}

func (b *fakeBrowser) Prev(_ context.Context, sid string) (browser.View, error) {
	b.cursor--
	return b.view(sid)
}

func (b *fakeBrowser) Jump(_ context.Context, sid string, id int) (browser.View, error) {
	b.cursor = id
	return b.view(sid)
}

func (b *fakeBrowser) Search(_ context.Context, sid, name string) (browser.View, error) {
	if name != "Yoda" {
		b.lastSID = sid
		return browser.View{}, navigator.ErrNoMatch
	}
	b.cursor = 20
	return b.view(sid)
}

type fakeHistory struct {
	opts activity.ListActivityOptions
}

func (h *fakeHistory) GetRecentActivity(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	h.opts = opts
	return []activity.ActivityEntry{{SessionID: opts.SessionID, ActivityType: activity.TypeAdvance, Summary: "advanced"}}, nil
}

func newTestServer(t *testing.T, b *fakeBrowser, h *fakeHistory) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewServer(Config{Browser: b, History: h}))
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHTTPServer_Health(t *testing.T) {
	server := newTestServer(t, &fakeBrowser{cursor: 1}, &fakeHistory{})

	resp, body := get(t, server.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body)
}

func TestHTTPServer_Pages(t *testing.T) {
	b := &fakeBrowser{cursor: 1}
	server := newTestServer(t, b, &fakeHistory{})

	resp, body := get(t, server.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Character 1")
	require.NotEmpty(t, b.lastSID)

	_, body = get(t, server.URL+"/next")
	require.Contains(t, body, "Character 2")

	_, body = get(t, server.URL+"/prev")
	require.Contains(t, body, "Character 1")

	_, body = get(t, server.URL+"/character/42")
	require.Contains(t, body, "Character 42")

	resp, body = get(t, server.URL+"/search?name=Yoda")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Character 20")
}

func TestHTTPServer_JumpForm(t *testing.T) {
	b := &fakeBrowser{cursor: 1}
	server := newTestServer(t, b, &fakeHistory{})

	resp, body := get(t, server.URL+"/character?id=7")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/character/7", resp.Request.URL.Path)
	require.Contains(t, body, "Character 7")
}

func TestHTTPServer_Errors(t *testing.T) {
	b := &fakeBrowser{cursor: 1}
	server := newTestServer(t, b, &fakeHistory{})

	resp, body := get(t, server.URL+"/character/abc")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "whole numbers")

	resp, body = get(t, server.URL+"/search?name=nobody")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "No character matches that name.")
	require.Contains(t, body, `value="nobody"`)

	b.err = &character.FetchError{Kind: character.KindTransport, ID: 2}
	resp, _ = get(t, server.URL+"/next")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	b.err = navigator.ErrNoValidRecord
	resp, _ = get(t, server.URL+"/")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, server.URL+"/nowhere")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_History(t *testing.T) {
	h := &fakeHistory{}
	server := newTestServer(t, &fakeBrowser{cursor: 1}, h)

	resp, body := get(t, server.URL+"/history?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, 5, h.opts.Limit)
	require.NotEmpty(t, h.opts.SessionID)

	var payload historyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.Equal(t, h.opts.SessionID, payload.SessionID)
	require.Len(t, payload.Entries, 1)

	resp, _ = get(t, server.URL+"/history?limit=0")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type fakeSessions struct {
	known bool
}

func (s *fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	if !s.known {
		return nil, session.ErrSessionNotFound
	}
	return &session.Session{ID: id, CurrentID: 7}, nil
}

func TestHTTPServer_HistoryReportsSession(t *testing.T) {
	sessions := &fakeSessions{}
	h := &fakeHistory{}
	server := httptest.NewServer(NewServer(Config{Browser: &fakeBrowser{cursor: 1}, History: h, Sessions: sessions}))
	t.Cleanup(server.Close)

	resp, body := get(t, server.URL+"/history")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "no browsing session yet")
	require.Empty(t, h.opts.SessionID, "history is not listed for an unknown session")

	sessions.known = true
	resp, body = get(t, server.URL+"/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload historyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.Equal(t, 7, payload.CurrentID)
	require.Len(t, payload.Entries, 1)
}

func TestHTTPServer_MCPMountedBehindAuth(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _ := ClientFromContext(r.Context())
		_, _ = w.Write([]byte(client))
	})
	resolver := &testResolver{tokenToClient: map[string]string{"token": "agent"}}
	server := httptest.NewServer(NewServer(Config{
		Browser: &fakeBrowser{cursor: 1},
		History: &fakeHistory{},
		MCP:     mcp,
		MCPAuth: AuthMiddleware(resolver),
	}))
	t.Cleanup(server.Close)

	resp, _ := get(t, server.URL+"/mcp")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	body, err := io.ReadAll(authed.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, authed.StatusCode)
	require.Equal(t, "agent", string(body))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{navigator.ErrNoMatch, http.StatusNotFound},
		{navigator.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("scan: %w", navigator.ErrNoValidRecord), http.StatusNotFound},
		{&character.FetchError{Kind: character.KindTransport}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, message := statusFor(tc.err)
		require.Equal(t, tc.status, status, "%v", tc.err)
		require.NotEmpty(t, message)
	}
}
