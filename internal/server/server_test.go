package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/registry/registrytest"
	"github.com/t569/scanapi/internal/server/events"
	ws "github.com/t569/scanapi/internal/server/websocket"
	"github.com/t569/scanapi/pkg/artifact/artifacttest"
	"github.com/t569/scanapi/pkg/endpoints"
)

func newTestApplication(t *testing.T) *application.Mock {
	t.Helper()
	reg := registrytest.New(t, nil)
	return &application.Mock{
		RegistryFunc: func() (application.Registry, error) { return reg, nil },
		VersionFunc:  func() string { return "test" },
	}
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := New(newTestApplication(t), cfg)
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ts
}

// TestServerInitialization tests that server.New() completes without blocking.
func TestServerInitialization(t *testing.T) {
	done := make(chan struct{})
	var srv *Server
	var newErr error

	go func() {
		srv, newErr = New(newTestApplication(t), DefaultConfig())
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, newErr)
		require.NotNil(t, srv)
	case <-time.After(5 * time.Second):
		t.Fatal("server.New() deadlocked - did not complete within 5 seconds")
	}

	// Shutdown without Start returns immediately
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestServerStartAndShutdown(t *testing.T) {
	srv, err := New(newTestApplication(t), DefaultConfig())
	require.NoError(t, err)

	srv.Start()
	srv.Start() // second call is a no-op

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestServerShutdownRemovesRegistryHooks(t *testing.T) {
	app := newTestApplication(t)
	reg, err := app.Registry()
	require.NoError(t, err)

	first, err := New(app, DefaultConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, first.Shutdown(ctx))

	second, err := New(app, DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = second.Shutdown(ctx) }()

	before := first.Cache().GetStats().Generation
	_, err = reg.Create(context.Background(), endpoints.CreateRequest{
		Name: "a", URL: "https://example.com", Secret: "s",
	})
	require.NoError(t, err)

	assert.Equal(t, before, first.Cache().GetStats().Generation, "shut down server still invalidated")
	assert.Greater(t, second.Cache().GetStats().Generation, before)
}

func TestServerRegistryError(t *testing.T) {
	app := &application.Mock{
		RegistryFunc: func() (application.Registry, error) { return nil, assert.AnError },
	}
	_, err := New(app, DefaultConfig())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestServerEndToEnd(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	resp, err := http.Post(ts.URL+"/api/v1/endpoint", "application/json",
		strings.NewReader(`{"name":"docs","url":"https://example.com/docs","password":"pw"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(ts.URL + "/api/v1/endpoints/docs?password=pw")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	png, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text, err := artifacttest.Decode(png)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", text)
}

func TestServerRoutes(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/endpoints", http.StatusOK},
		{http.MethodGet, "/api/v1/endpoints/", http.StatusOK},
		{http.MethodGet, "/api/v1/openapi.json", http.StatusOK},
		{http.MethodGet, "/api/v1/openapi.yaml", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/favicon.ico", http.StatusNoContent},
		{http.MethodDelete, "/api/v1/endpoints", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServerAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	cfg.APIKey = "api-key"
	_, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/api/v1/endpoints")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/endpoints", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "api-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerCreateInvalidatesListCache(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/v1/endpoints")
	require.NoError(t, err)
	resp.Body.Close()
	before := srv.Cache().GetStats().Generation

	resp, err = http.Post(ts.URL+"/api/v1/endpoint", "application/json",
		strings.NewReader(`{"name":"a","url":"https://example.com","secret":"s"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Greater(t, srv.Cache().GetStats().Generation, before)

	resp, err = http.Get(ts.URL + "/api/v1/endpoints")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	var body struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Data.Count)
}

func TestServerWebSocketReceivesCreateEvent(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/updates/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello ws.Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, string(events.ClientConnected), hello.Type)

	require.Eventually(t, func() bool { return srv.WSHub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/v1/endpoint", "application/json",
		strings.NewReader(`{"name":"a","url":"https://example.com","secret":"s"}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(events.EndpointCreated), msg.Type)
	assert.NotZero(t, msg.ID)
}
