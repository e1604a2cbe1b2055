package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/datapad/internal/browser"
	"github.com/rpggio/datapad/internal/dataset"
	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/rpggio/datapad/internal/mcp"
	"github.com/rpggio/datapad/internal/sqlite"
	"github.com/rpggio/datapad/internal/transport"
	"github.com/stretchr/testify/require"
)

// Options tunes the stack built by New.
type Options struct {
	MaxID            int
	Absent           []int
	LegacyJumpResult bool
}

// TestServer wraps the full HTTP stack for functional tests.
type TestServer struct {
	Server   *httptest.Server
	Dataset  *Dataset
	DB       *sqlite.DB
	Browser  *browser.Browser
	Activity *activity.Service
	Token    string
}

// New builds the whole stack against a fake dataset and in-memory database.
func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	maxID := opts.MaxID
	if maxID <= 0 {
		maxID = navigator.DefaultMaxID
	}
	data := NewDataset(t, maxID, opts.Absent...)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	// Shared-cache connections fail with table locks instead of waiting.
	db.SetMaxOpenConns(1)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	source := dataset.New(dataset.Config{BaseURL: data.URL(), Timeout: 5 * time.Second})
	nav := navigator.NewService(source, navigator.Options{MaxID: maxID, LegacyJumpResult: opts.LegacyJumpResult}, nil)
	sessions := session.NewService(sqlite.NewSessionRepository(db), nil)
	history := activity.NewService(sqlite.NewActivityRepository(db), nil)
	b := browser.New(nav, sessions, history, nil)

	apiKeys := sqlite.NewAPIKeyRepository(db)
	token := "test-token"
	require.NoError(t, apiKeys.Put(context.Background(), token, "functional-tests"))

	mcpServer := mcp.NewServer(mcp.Config{Browser: b, History: history, TransportMode: "http"})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	handler := transport.NewServer(transport.Config{
		Browser:  b,
		History:  history,
		Sessions: sessions,
		MCP:      mcpHandler,
		MCPAuth:  transport.AuthMiddleware(apiKeys),
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Dataset:  data,
		DB:       db,
		Browser:  b,
		Activity: history,
		Token:    token,
	}
}

// Client returns an HTTP client that keeps its own session cookie, like a
// separate browser would.
func (s *TestServer) Client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// MCPClient connects an MCP client over streamable HTTP with the bearer token.
func (s *TestServer) MCPClient(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	clientTransport := &sdkmcp.StreamableClientTransport{
		Endpoint:   s.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: s.Token, next: http.DefaultTransport}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}
