package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/odds-mcp-server/internal/mcp-service/provider"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/session"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/tools"
)

const initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`

func newTestStack(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()

	// provedor falso devolvendo listas vazias; o roteador não depende do
	// conteúdo das respostas
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(upstream.Close)

	client := provider.New(upstream.URL, "test-key", nil, zap.NewNop())
	registry := tools.NewRegistry(client, zap.NewNop())
	sessions := session.NewManager(registry.NewServer, zap.NewNop())

	api := &API{Sessions: sessions, Log: zap.NewNop()}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	return srv, sessions
}

func postMCP(t *testing.T, srv *httptest.Server, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(headerSessionID, sessionID)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func TestInitializeCreatesSession(t *testing.T) {
	srv, sessions := newTestStack(t)

	res := postMCP(t, srv, "", initializeBody)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	sid := res.Header.Get(headerSessionID)
	require.NotEmpty(t, sid, "response must carry the generated session id")
	assert.Equal(t, 1, sessions.Len())

	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), `"result"`)
}

func TestInitializeWithClientIDProvisionsFreshTransport(t *testing.T) {
	srv, sessions := newTestStack(t)

	res := postMCP(t, srv, "client-chosen", initializeBody)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "client-chosen", res.Header.Get(headerSessionID))

	_, err := sessions.Lookup("client-chosen")
	assert.NoError(t, err)
}

func TestPostWithoutSessionAndNotInitializing(t *testing.T) {
	srv, sessions := newTestStack(t)

	res := postMCP(t, srv, "", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, 0, sessions.Len())

	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "missing session id")
}

func TestPostUnknownSession(t *testing.T) {
	srv, _ := newTestStack(t)

	res := postMCP(t, srv, "bogus-session", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "not found")
}

func TestSequentialRequestsHitSameTransport(t *testing.T) {
	srv, sessions := newTestStack(t)

	res := postMCP(t, srv, "", initializeBody)
	res.Body.Close()
	sid := res.Header.Get(headerSessionID)
	require.NotEmpty(t, sid)

	first, err := sessions.Lookup(sid)
	require.NoError(t, err)

	res2 := postMCP(t, srv, sid, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)

	body, _ := io.ReadAll(res2.Body)
	assert.Contains(t, string(body), "fetch_sports_odds")
	assert.Contains(t, string(body), "fetch_player_props")

	// mesma sessão, mesmo transporte; nenhuma instância nova foi criada
	again, err := sessions.Lookup(sid)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, sessions.Len())
}

func TestNotificationReturnsAccepted(t *testing.T) {
	srv, _ := newTestStack(t)

	res := postMCP(t, srv, "", initializeBody)
	res.Body.Close()
	sid := res.Header.Get(headerSessionID)

	res2 := postMCP(t, srv, sid, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusAccepted, res2.StatusCode)
}

func TestPushStreamRequiresKnownSession(t *testing.T) {
	srv, _ := newTestStack(t)

	// sem header
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/mcp", nil)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// id desconhecido
	req2, _ := http.NewRequest(http.MethodGet, srv.URL+"/mcp", nil)
	req2.Header.Set(headerSessionID, "bogus-session")
	res2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
}

func TestDeleteClosesSession(t *testing.T) {
	srv, sessions := newTestStack(t)

	res := postMCP(t, srv, "", initializeBody)
	res.Body.Close()
	sid := res.Header.Get(headerSessionID)
	require.Equal(t, 1, sessions.Len())

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/mcp", nil)
	req.Header.Set(headerSessionID, sid)
	delRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delRes.Body.Close()
	assert.Equal(t, http.StatusOK, delRes.StatusCode)
	assert.Equal(t, 0, sessions.Len())

	// depois do encerramento, o id volta a ser desconhecido
	res2 := postMCP(t, srv, sid, `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestMalformedBodyIsParseError(t *testing.T) {
	srv, _ := newTestStack(t)

	res := postMCP(t, srv, "", `{not json`)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var envelope struct {
		JSONRPC string `json:"jsonrpc"`
		Error   struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	assert.Equal(t, "2.0", envelope.JSONRPC)
	assert.Equal(t, -32700, envelope.Error.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestStack(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["time"])
}
