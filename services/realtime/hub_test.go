package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialHub spins up a server that upgrades and registers the connection for
// the given user, then dials it.
func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Add(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForConnections(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d connections for %s", want, userID)
}

func TestBroadcastReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	first := dialHub(t, hub, "user-1")
	second := dialHub(t, hub, "user-1")
	waitForConnections(t, hub, "user-1", 2)

	sent := hub.Broadcast("user-1", Message{
		Type:    EventNotificationNew,
		Payload: map[string]string{"id": "n-1"},
	})
	assert.Equal(t, 2, sent)

	for _, client := range []*websocket.Conn{first, second} {
		_ = client.SetReadDeadline(time.Now().Add(time.Second))
		var msg Message
		require.NoError(t, client.ReadJSON(&msg))
		assert.Equal(t, EventNotificationNew, msg.Type)
	}
}

func TestBroadcastScopedToUser(t *testing.T) {
	hub := NewHub()
	mine := dialHub(t, hub, "user-1")
	other := dialHub(t, hub, "user-2")
	waitForConnections(t, hub, "user-1", 1)
	waitForConnections(t, hub, "user-2", 1)

	sent := hub.Broadcast("user-1", Message{Type: EventNotificationRead, Payload: map[string]string{"id": "n-1"}})
	assert.Equal(t, 1, sent)

	_ = mine.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	require.NoError(t, mine.ReadJSON(&msg))

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "the other user's connection must stay silent")
}

func TestBroadcastWithNoConnectionsIsNoOp(t *testing.T) {
	hub := NewHub()
	sent := hub.Broadcast("nobody", Message{Type: EventNotificationNew})
	assert.Zero(t, sent)
}

func TestRemoveDropsConnection(t *testing.T) {
	hub := NewHub()
	conns := make(chan *Connection, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- hub.Add("user-1", conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	conn := <-conns
	assert.Equal(t, 1, hub.ConnectionCount("user-1"))

	hub.Remove(conn)
	assert.Zero(t, hub.ConnectionCount("user-1"))

	// Double remove is safe.
	hub.Remove(conn)
}
