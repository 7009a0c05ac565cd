package monitor

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewsync"
)

func newTestHub(t *testing.T, cfg Config) (*Hub, *httptest.Server) {
	t.Helper()
	cfg.Registerer = prometheus.NewRegistry()
	hub := NewHub(zerolog.Nop(), cfg)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	want := hub.Clients() + 1
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.Clients() == want }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) viewsync.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt viewsync.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestHubDeliversEvents(t *testing.T) {
	hub, srv := newTestHub(t, Config{})
	first := dial(t, hub, srv, "")
	second := dial(t, hub, srv, "")

	sent := hub.Publish(viewsync.Event{
		Type:     viewsync.EventPropagated,
		Mode:     types.ScopeWorkspace,
		Viewport: "a1",
		Peers:    []types.ViewportID{"a2", "b1"},
	})
	assert.Equal(t, 2, sent)

	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		assert.Equal(t, viewsync.EventPropagated, evt.Type)
		assert.Equal(t, types.ScopeWorkspace, evt.Mode)
		assert.Equal(t, []types.ViewportID{"a2", "b1"}, evt.Peers)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(hub.metrics.published))
}

func TestHubFiltersByType(t *testing.T) {
	hub, srv := newTestHub(t, Config{})
	conn := dial(t, hub, srv, "?types=rebuilt,%20disabled")

	assert.Zero(t, hub.Publish(viewsync.Event{Type: viewsync.EventPropagated}))
	assert.Equal(t, 1, hub.Publish(viewsync.Event{Type: viewsync.EventRebuilt, Reason: "scope_mode"}))

	evt := readEvent(t, conn)
	assert.Equal(t, viewsync.EventRebuilt, evt.Type)
	assert.Equal(t, "scope_mode", evt.Reason)
}

func TestHubDisconnectsSlowSubscriber(t *testing.T) {
	hub, srv := newTestHub(t, Config{SendBuffer: 1, WriteTimeout: 200 * time.Millisecond})
	dial(t, hub, srv, "")

	peers := make([]types.ViewportID, 20000)
	for i := range peers {
		peers[i] = types.ViewportID(fmt.Sprintf("vp-%d", i))
	}
	big := viewsync.Event{Type: viewsync.EventPropagated, Peers: peers}

	require.Eventually(t, func() bool {
		hub.Publish(big)
		return hub.Clients() == 0
	}, 10*time.Second, time.Millisecond)
}

func TestFullQueueStopsClientWithoutWriting(t *testing.T) {
	hub := NewHub(zerolog.Nop(), Config{SendBuffer: 1, Registerer: prometheus.NewRegistry()})
	// No connection: the publisher's side must never write to it.
	c := newClient(hub, nil, "stalled", nil)
	require.True(t, hub.register(c))

	assert.True(t, c.enqueue([]byte("first")))
	assert.False(t, c.enqueue([]byte("second")), "queue full")

	assert.Zero(t, hub.Clients())
	assert.Equal(t, float64(1), testutil.ToFloat64(hub.metrics.dropped))
	select {
	case <-c.done:
	default:
		t.Fatal("client still running")
	}
	assert.Equal(t, websocket.CloseTryAgainLater, c.closeCode)
	assert.False(t, c.enqueue([]byte("third")))
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub, srv := newTestHub(t, Config{})
	conn := dial(t, hub, srv, "")

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.Clients())
	assert.Zero(t, hub.Publish(viewsync.Event{Type: viewsync.EventEnabled}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}
