// Package testserver runs the full server stack on an in-memory database
// for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/app"
	"github.com/rpggio/careplan/internal/mcp"
	"github.com/rpggio/careplan/internal/sqlstore"
	"github.com/rpggio/careplan/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlstore.DB
	App      *app.App
	Token    string
	TenantID string
}

// New starts a server whose API key token resolves to tenantID. Autosave
// uses a one hour debounce so only explicit saves and navigation write.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlstore.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	a, err := app.New(app.Config{
		DB:               db,
		AutosaveDebounce: time.Hour,
	})
	require.NoError(t, err)

	handler := mcp.NewHandler(a.MCPServices(), nil)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      a.APIKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	streamable := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer
	}, nil)

	server := httptest.NewServer(transport.NewServer(transport.Config{
		Handler:    handler,
		Streamable: streamable,
		Auth:       transport.AuthMiddleware(a.APIKeys),
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		App:      a,
		Token:    token,
		TenantID: tenantID,
	}
	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		a.Shutdown(context.Background())
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.App.APIKeys.AddAPIKey(context.Background(), tenantID, token, "test")
}

// Call posts one JSON-RPC request to /rpc. sessionID is sent as the session
// header when non-empty.
func (ts *TestServer) Call(t *testing.T, sessionID, method string, params any) transport.Response {
	t.Helper()

	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if sessionID != "" {
		req.Header.Set(transport.SessionHeader, sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Decode re-marshals a JSON-RPC result into out.
func Decode(t *testing.T, resp transport.Response, out any) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// ErrorCode returns the application error code of a failed response.
func ErrorCode(t *testing.T, resp transport.Response) string {
	t.Helper()
	require.NotNil(t, resp.Error, "expected an error")
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok, "error has no data: %+v", resp.Error)
	code, _ := data["code"].(string)
	return code
}
