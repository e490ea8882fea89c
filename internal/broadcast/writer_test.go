package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWriterServer upgrades incoming connections, subscribes them to the
// hub and attaches a Writer, mirroring what the transport layer does.
func testWriterServer(t *testing.T, hub *Hub) func() *ws.Conn {
	t.Helper()

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		sub, err := hub.Subscribe()
		require.NoError(t, err)

		writer := NewWriter(conn, sub, clockwork.NewRealClock())
		t.Cleanup(func() {
			hub.Unsubscribe(sub.ID())
			writer.Stop("test finished")
		})
	}))
	t.Cleanup(server.Close)

	return func() *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
}

func TestWriter_DeliversSnapshotsOverWebSocket(t *testing.T) {
	source := &fakeSource{}
	source.setRecords(2)
	hub := testHub(t, source, 0)
	dial := testWriterServer(t, hub)

	conn := dial()

	// Late-join snapshot arrives without any publish.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg, &payload))
	assert.Equal(t, float64(2), payload["total_records"])
	assert.Equal(t, sourceCatchUp, payload["source"])
	records, ok := payload["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 2)

	// A publish after an append reaches the socket too.
	source.setRecords(3)
	hub.Publish("upload:data.csv")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &payload))
	assert.Equal(t, float64(3), payload["total_records"])
	assert.Equal(t, "upload:data.csv", payload["source"])
}
