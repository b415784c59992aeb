package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketNotifierBroadcastsToConnectedClient(t *testing.T) {
	wsn := NewWebSocketNotifier("ws1")
	defer wsn.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, wsn.Upgrade(w, r))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server side time to register the connection.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, wsn.Notify(context.Background(), Event{Definition: "d", Reaction: "r", Phase: "fired"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "d", got.Definition)
	require.Equal(t, "r", got.Reaction)
}

func TestWebSocketNotifierIDAndType(t *testing.T) {
	wsn := NewWebSocketNotifier("ws2")
	defer wsn.Close()
	require.Equal(t, "ws2", wsn.ID())
	require.Equal(t, "websocket", wsn.Type())
}

func TestWebSocketNotifierCloseStopsLoop(t *testing.T) {
	wsn := NewWebSocketNotifier("ws3")
	require.NoError(t, wsn.Close())
}
