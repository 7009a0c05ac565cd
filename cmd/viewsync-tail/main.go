package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/viewport-sync/internal/viewsync"
)

type tally struct {
	events int
	byType map[viewsync.EventType]int
	peers  int
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/events", "monitor websocket address")
	types := flag.String("types", "", "comma separated event types to receive (default all)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := log.With().Str("addr", *addr).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	u, err := url.Parse(*addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid websocket address")
	}
	if *types != "" {
		q := u.Query()
		q.Set("types", *types)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial failed")
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	t := tally{byType: make(map[viewsync.EventType]int)}
	readerLoop(ctx, conn, &t, logger)
	report(t)
}

func readerLoop(ctx context.Context, conn *websocket.Conn, t *tally, logger zerolog.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		var evt viewsync.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			logger.Warn().Err(err).Msg("failed to decode event")
			continue
		}
		t.events++
		t.byType[evt.Type]++
		t.peers += len(evt.Peers)

		logger.Info().
			Str("type", string(evt.Type)).
			Str("mode", evt.Mode.String()).
			Str("viewport", string(evt.Viewport)).
			Int("peers", len(evt.Peers)).
			Int("members", evt.Members).
			Str("reason", evt.Reason).
			Msg("event")
	}
}

func report(t tally) {
	if t.events == 0 {
		fmt.Fprintln(os.Stdout, "no events received")
		return
	}
	fmt.Fprintf(os.Stdout, "Events: %d\n", t.events)
	for typ, n := range t.byType {
		fmt.Fprintf(os.Stdout, "  %s: %d\n", typ, n)
	}
	if n := t.byType[viewsync.EventPropagated]; n > 0 {
		fmt.Fprintf(os.Stdout, "Avg peers per propagation: %.2f\n", float64(t.peers)/float64(n))
	}
}
