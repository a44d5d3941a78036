package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, upgrader)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	hello := readMessage(t, conn)
	assert.Equal(t, "client.connected", hello.Type)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{ID: 3, Type: "endpoint.created", Timestamp: time.Now(), Data: map[string]any{"name": "menu"}})

	msg := readMessage(t, conn)
	assert.Equal(t, "endpoint.created", msg.Type)
	assert.EqualValues(t, 3, msg.ID)
	assert.Equal(t, map[string]any{"name": "menu"}, msg.Data)
}

func TestHub_Disconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_MultipleClients(t *testing.T) {
	hub, srv := startHub(t)
	a, b := dial(t, srv), dial(t, srv)
	readMessage(t, a)
	readMessage(t, b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{Type: "endpoint.updated"})
	assert.Equal(t, "endpoint.updated", readMessage(t, a).Type)
	assert.Equal(t, "endpoint.updated", readMessage(t, b).Type)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	for i := 0; i < 500; i++ {
		hub.Broadcast(Message{Type: "x"})
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_UpgradeFailure(t *testing.T) {
	_, srv := startHub(t)
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
