package monitor

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/viewport-sync/internal/viewsync"
)

// maxInbound caps frames read from subscribers; they only send control frames.
const maxInbound = 512

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	filter map[viewsync.EventType]struct{}

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Set once by shutdown, read by the writer after done is closed.
	closeCode   int
	closeReason string
}

func newClient(h *Hub, conn *websocket.Conn, remote string, filter map[viewsync.EventType]struct{}) *client {
	return &client{
		hub:    h,
		conn:   conn,
		remote: remote,
		filter: filter,
		send:   make(chan []byte, h.cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *client) wants(t viewsync.EventType) bool {
	if len(c.filter) == 0 {
		return true
	}
	_, ok := c.filter[t]
	return ok
}

// enqueue hands payload to the writer goroutine without blocking.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		c.hub.metrics.queueDepth.Observe(float64(len(c.send)))
		return true
	default:
		c.hub.metrics.dropped.Inc()
		c.hub.logger.Warn().Str("remote", c.remote).Msg("send buffer full; closing subscriber")
		c.shutdown(websocket.CloseTryAgainLater, "backpressure")
		return false
	}
}

// writeLoop owns every write on the connection, including the final close
// frame.
func (c *client) writeLoop() {
	ticker := time.NewTicker(c.hub.cfg.HeartbeatInterval)
	defer ticker.Stop()
	defer c.finish()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.hub.logger.Debug().Err(err).Str("remote", c.remote).Msg("write loop error")
				c.shutdown(websocket.CloseInternalServerErr, "write error")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.hub.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.hub.logger.Debug().Err(err).Str("remote", c.remote).Msg("heartbeat ping failed")
				c.shutdown(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

// readLoop consumes control frames until the subscriber disconnects or misses
// two heartbeats.
func (c *client) readLoop() error {
	allowed := 2 * c.hub.cfg.HeartbeatInterval
	c.conn.SetReadLimit(maxInbound)
	_ = c.conn.SetReadDeadline(time.Now().Add(allowed))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(allowed))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// shutdown stops the client and unregisters it without touching the
// connection, so it may run on the publisher's goroutine.
func (c *client) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode, c.closeReason = code, reason
		close(c.done)
		c.hub.unregister(c)
	})
}

// finish sends the close frame recorded by shutdown and releases the
// connection.
func (c *client) finish() {
	deadline := time.Now().Add(c.hub.cfg.WriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason), deadline)
	_ = c.conn.Close()
}
