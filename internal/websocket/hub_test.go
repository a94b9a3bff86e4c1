package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(EventCatalogInvalidated, map[string]string{"reason": "organize"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, EventCatalogInvalidated, msg.Type)
	assert.Equal(t, "organize", msg.Payload["reason"])
}

func TestHub_Handle(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	got := make(chan string, 1)
	hub.Handle("catalog:refresh", func(payload json.RawMessage) {
		got <- string(payload)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.incoming <- incomingMessage{message: []byte(`{"type":"catalog:refresh","payload":{"force":true}}`)}
	hub.incoming <- incomingMessage{message: []byte(`{"type":"unknown"}`)}

	select {
	case payload := <-got:
		assert.JSONEq(t, `{"force":true}`, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	for i := 0; i < 1000; i++ {
		require.NoError(t, hub.Broadcast(EventLogEntry, i))
	}
}
