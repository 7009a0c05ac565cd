package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/viewport-sync/internal/hostsim"
	"github.com/example/viewport-sync/internal/prefs"
	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewsync"
)

func TestDriverOrbitsAndPropagates(t *testing.T) {
	session := hostsim.Build(hostsim.Layout{
		Workspaces:           1,
		Windows:              2,
		ViewportsPerWindow:   2,
		SyncEnabledByDefault: true,
	}, hostsim.Options{RedrawOnWrite: true})
	store := prefs.NewStore(prefs.Default())
	engine := viewsync.NewEngine(session, store, zerolog.Nop(),
		viewsync.WithFrameHooks(session),
		viewsync.WithRegisterer(prometheus.NewRegistry()),
	)
	d := newDriver(session, store, engine, zerolog.Nop())
	engine.Enable()

	for i := 0; i < 5; i++ {
		d.step()
	}

	viewports := session.VisibleViewports()
	require.Len(t, viewports, 4)
	assert.Equal(t, types.ViewportID("vp-0-0"), engine.ActiveViewport())
	assert.Equal(t, viewports[0].State().ViewRotation, viewports[1].State().ViewRotation)
	assert.NotEqual(t, viewports[0].State().ViewRotation, viewports[2].State().ViewRotation, "other window stays put in window scope")
}

func TestDriverCyclesScopeMode(t *testing.T) {
	session := hostsim.Build(hostsim.Layout{Windows: 1, ViewportsPerWindow: 1}, hostsim.Options{})
	store := prefs.NewStore(prefs.Default())
	engine := viewsync.NewEngine(session, store, zerolog.Nop(), viewsync.WithRegisterer(prometheus.NewRegistry()))
	d := newDriver(session, store, engine, zerolog.Nop())

	for i := 0; i <= framesPerMode; i++ {
		d.step()
	}
	assert.Equal(t, types.ScopeWorkspace, store.Policy().Mode)
}
