// Package monitor streams sync engine events to websocket subscribers.
package monitor

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/example/viewport-sync/internal/viewsync"
)

// Config controls the runtime behaviour of the hub.
type Config struct {
	HeartbeatInterval time.Duration
	SendBuffer        int
	WriteTimeout      time.Duration
	// Registerer receives the hub metrics; nil means the default registerer.
	Registerer prometheus.Registerer
}

// Hub tracks subscribers and fans engine events out to them. Publish never
// blocks: a subscriber whose queue is full is disconnected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	closed   bool
	logger   zerolog.Logger
	cfg      Config
	upgrader websocket.Upgrader
	metrics  *metrics
}

// NewHub creates a Hub with sane defaults.
func NewHub(logger zerolog.Logger, cfg Config) *Hub {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.SendBuffer == 0 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With().Str("component", "monitor").Logger(),
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		metrics: newMetrics(cfg.Registerer),
	}
}

// Publish delivers evt to every subscriber interested in its type and returns
// how many accepted it.
func (h *Hub) Publish(evt viewsync.Event) int {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(evt.Type)).Msg("failed to encode event")
		return 0
	}
	h.metrics.published.Inc()

	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return 0
	}
	recipients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.wants(evt.Type) {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range recipients {
		if c.enqueue(payload) {
			sent++
		}
	}
	return sent
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown(websocket.CloseGoingAway, "shutting down")
	}
}

// ServeHTTP upgrades the request and streams events until the subscriber
// goes away. The optional "types" query parameter is a comma separated list
// of event types to receive.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	h.metrics.upgradeLatency.Observe(time.Since(start).Seconds())

	c := newClient(h, conn, r.RemoteAddr, parseTypes(r.URL.Query().Get("types")))
	if !h.register(c) {
		c.shutdown(websocket.CloseGoingAway, "shutting down")
		c.finish()
		return
	}
	h.logger.Info().Str("remote", c.remote).Msg("monitor subscriber connected")

	go c.writeLoop()
	if err := c.readLoop(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Debug().Err(err).Str("remote", c.remote).Msg("read loop exited")
	}
	c.shutdown(websocket.CloseNormalClosure, "")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.clients.Set(float64(len(h.clients)))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.metrics.clients.Set(float64(len(h.clients)))
	h.logger.Info().Str("remote", c.remote).Msg("monitor subscriber disconnected")
}

func parseTypes(raw string) map[viewsync.EventType]struct{} {
	if raw == "" {
		return nil
	}
	filter := make(map[viewsync.EventType]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			filter[viewsync.EventType(part)] = struct{}{}
		}
	}
	return filter
}
