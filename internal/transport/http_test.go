package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": tenantID, "session": sessionID}, nil
}

type staticResolver struct {
	tenant string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	return r.tenant, nil
}

type codedErr struct{}

func (codedErr) Error() string             { return "SESSION_NOT_FOUND: wizard session not found" }
func (codedErr) CodeValue() string         { return "SESSION_NOT_FOUND" }
func (codedErr) MessageValue() string      { return "wizard session not found" }
func (codedErr) DetailsValue() any         { return nil }
func (codedErr) RecoveryHintValue() string { return "Call open_wizard" }

func postRPC(t *testing.T, url, body string, headers map[string]string) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(Config{
		Handler: handler,
		Auth:    AuthMiddleware(&staticResolver{tenant: "tenant1"}),
	}))
	t.Cleanup(server.Close)

	resp, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_wizard","id":1}`, map[string]string{
		"Authorization": "Bearer token",
		SessionHeader:   "sess1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "get_wizard", handler.method)
	require.Nil(t, out.Error)
	require.Equal(t, map[string]any{"tenant": "tenant1", "session": "sess1"}, out.Result)
}

func TestHTTPServer_RPCRequiresAuth(t *testing.T) {
	server := httptest.NewServer(NewServer(Config{
		Handler: &testHandler{},
		Auth:    AuthMiddleware(&staticResolver{tenant: "tenant1"}),
	}))
	t.Cleanup(server.Close)

	resp, _ := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_wizard","id":1}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	handler := &testHandler{err: codedErr{}}
	server := httptest.NewServer(NewServer(Config{Handler: handler, Auth: StaticTenant("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_wizard","id":1}`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrApplication, out.Error.Code)
	data, ok := out.Error.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "SESSION_NOT_FOUND", data["code"])
	require.Equal(t, "Call open_wizard", data["recovery_hint"])

	handler.err = errors.New("boom")
	_, out = postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_wizard","id":2}`, nil)
	require.Equal(t, ErrInternal, out.Error.Code)

	_, out = postRPC(t, server.URL, `{not json`, nil)
	require.Equal(t, ErrParseCode, out.Error.Code)

	_, out = postRPC(t, server.URL, `{"jsonrpc":"1.0","method":"x"}`, nil)
	require.Equal(t, ErrInvalidReq, out.Error.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(Config{Handler: &testHandler{}}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_MountsStreamable(t *testing.T) {
	called := false
	server := httptest.NewServer(NewServer(Config{
		Handler: &testHandler{},
		Streamable: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusAccepted)
		}),
	}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.True(t, called)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}
