package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const sessionIDKey contextKey = iota

const (
	// DefaultStdioSession keys the cursor of the single stdio client.
	DefaultStdioSession = "mcp:stdio"
	// DefaultHTTPSession keys the cursor when a request carries no session.
	DefaultHTTPSession = "mcp:default"

	sessionPrefix = "mcp:"
)

// getSessionID extracts the browse session key from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware keys every call to a browse session. The MCP session ID
// wins; stdio clients may pass _meta.session_id; otherwise fallback is used.
// Keys are prefixed so they never collide with browser cookies.
func sessionMiddleware(fallback string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			sessionID := safeSessionID(req)

			// Some notifications (like "initialized") have nil params, and
			// GetMeta panics on a nil underlying value.
			if sessionID == "" {
				if params := safeParams(req); params != nil {
					func() {
						defer func() { recover() }()
						if p, ok := params.(interface{ GetMeta() map[string]any }); ok {
							if sid, ok := p.GetMeta()["session_id"].(string); ok {
								sessionID = sid
							}
						}
					}()
				}
			}

			key := fallback
			if sessionID != "" {
				key = sessionPrefix + sessionID
			}
			ctx = context.WithValue(ctx, sessionIDKey, key)
			return next(ctx, method, req)
		}
	}
}
