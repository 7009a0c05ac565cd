package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/viewport-sync/internal/hostsim"
	"github.com/example/viewport-sync/internal/prefs"
	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewsync"
)

const (
	// framesPerFocus is how long the simulated user stays on one viewport.
	framesPerFocus = 90
	// framesPerMode cycles the scope mode preference.
	framesPerMode = 900
	orbitDegrees  = 1.5
)

// driver plays the part of the host's event loop and of a user orbiting
// viewports. Everything it touches is owned by the goroutine calling run.
type driver struct {
	session *hostsim.Session
	store   *prefs.Store
	engine  *viewsync.Engine
	tracker *hostsim.Tracker
	logger  zerolog.Logger

	frame int
	focus int
}

func newDriver(session *hostsim.Session, store *prefs.Store, engine *viewsync.Engine, logger zerolog.Logger) *driver {
	return &driver{
		session: session,
		store:   store,
		engine:  engine,
		tracker: hostsim.NewTracker(session, engine),
		logger:  logger.With().Str("component", "driver").Logger(),
	}
}

func (d *driver) run(ctx context.Context, interval time.Duration) {
	unsubscribe := d.session.Subscribe(func(evt hostsim.TopologyEvent) {
		d.logger.Debug().Str("kind", string(evt.Kind)).Msg("topology changed")
		d.engine.NotifyTopologyChanged()
	})
	defer unsubscribe()

	d.engine.Enable()
	defer d.engine.Disable()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.step()
		}
	}
}

func (d *driver) step() {
	viewports := d.session.VisibleViewports()
	if len(viewports) == 0 {
		d.session.Redraw()
		return
	}

	if d.frame%framesPerFocus == 0 {
		d.focus = (d.frame / framesPerFocus) % len(viewports)
		d.tracker.PointerMoved(viewports[d.focus])
	}
	if d.frame > 0 && d.frame%framesPerMode == 0 {
		next := types.ScopeModes[(int(d.store.Policy().Mode)+1)%len(types.ScopeModes)]
		d.logger.Info().Str("mode", next.String()).Msg("switching scope mode")
		d.store.SetMode(next)
	}

	if d.focus < len(viewports) {
		viewports[d.focus].Orbit(orbitDegrees)
	}
	d.session.Redraw()
	d.frame++
}
