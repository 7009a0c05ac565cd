package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/viewport-sync/internal/config"
	"github.com/example/viewport-sync/internal/hostsim"
	"github.com/example/viewport-sync/internal/monitor"
	"github.com/example/viewport-sync/internal/observability"
	"github.com/example/viewport-sync/internal/prefs"
	"github.com/example/viewport-sync/internal/viewsync"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := log.With().Str("app", cfg.AppName).Logger()
	if err := observability.RegisterRuntimeCollectors(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal().Err(err).Msg("failed to register runtime collectors")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := observability.Start(ctx, observability.Config{
		ServiceName:  cfg.AppName,
		MetricsAddr:  cfg.MetricsAddr,
		OTLPEndpoint: cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer telemetryShutdown(context.Background())

	session := hostsim.Build(hostsim.Layout{
		Workspaces:           cfg.SimWorkspaces,
		Windows:              cfg.SimWindows,
		ViewportsPerWindow:   cfg.SimViewportsPerWindow,
		ClosedScreensPerWS:   cfg.SimClosedScreens,
		SyncEnabledByDefault: true,
	}, hostsim.Options{RedrawOnWrite: true})

	store := prefs.NewStore(cfg.Policy())
	engine := viewsync.NewEngine(session, store, logger, viewsync.WithFrameHooks(session))

	hub := monitor.NewHub(logger, monitor.Config{})
	engine.Subscribe(func(evt viewsync.Event) { hub.Publish(evt) })

	mux := http.NewServeMux()
	mux.Handle("/events", hub)
	httpServer := &http.Server{Addr: cfg.MonitorAddr, Handler: mux}
	go func() {
		logger.Info().Str("addr", cfg.MonitorAddr).Msg("monitor server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("monitor server failed")
		}
	}()

	d := newDriver(session, store, engine, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx, cfg.FrameInterval)
	}()

	logger.Info().
		Int("windows", cfg.SimWindows).
		Int("viewports_per_window", cfg.SimViewportsPerWindow).
		Str("mode", cfg.SyncMode.String()).
		Msg("view sync daemon running")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Error().Err(shutdownCtx.Err()).Msg("frame loop did not stop")
	}

	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return
	}
	logger.Info().Msg("shutdown complete")
}
