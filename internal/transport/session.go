package transport

import (
	"context"
	"net/http"
)

// SessionHeader names the wizard session on plain JSON-RPC calls. It is the
// same header the streamable MCP transport uses.
const SessionHeader = "Mcp-Session-Id"

type sessionKey struct{}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// SessionMiddleware stores the session header in the request context.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionID := r.Header.Get(SessionHeader); sessionID != "" {
			r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, sessionID))
		}
		next.ServeHTTP(w, r)
	})
}
