// Package viewsync keeps the view of every viewport in a sync group in step
// with the one the user is navigating.
//
// The engine runs entirely on the host's frame thread. Redraw callbacks,
// input-tracking reports and preference notifications must all arrive on
// that one goroutine; the engine holds no mutex because callbacks re-enter
// it synchronously while it is writing peer views.
package viewsync

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/viewport-sync/internal/host"
	"github.com/example/viewport-sync/internal/membership"
	"github.com/example/viewport-sync/internal/observability"
	"github.com/example/viewport-sync/internal/prefs"
	"github.com/example/viewport-sync/internal/types"
	"github.com/example/viewport-sync/internal/viewstate"
)

// Preferences is the policy source consulted by the engine.
type Preferences interface {
	Policy() prefs.Policy
	Subscribe(listener prefs.Listener) func()
}

// Option customises an Engine.
type Option func(*Engine)

// WithFrameHooks makes Enable register the engine's redraw callback with
// hooks and Disable remove it.
func WithFrameHooks(hooks host.FrameHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithRegisterer sets where engine metrics are registered. The default is
// prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.registerer = reg }
}

// WithClock overrides the time source used for event timestamps and rebuild
// latency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine propagates view changes from the active viewport to its sync group.
type Engine struct {
	session    host.Session
	prefs      Preferences
	hooks      host.FrameHooks
	registerer prometheus.Registerer
	logger     zerolog.Logger
	metrics    *metrics
	now        func() time.Time

	state    State
	active   host.Viewport
	window   host.Window
	detector viewstate.Detector
	table    *membership.Table

	// outgoing is the snapshot being written to peers, copied so nested
	// callbacks cannot move it mid-propagation.
	outgoing    viewstate.Snapshot
	propagating bool

	removeDraw  func()
	unsubscribe func()
	listeners   []*listenerSlot
}

// NewEngine constructs a disabled engine.
func NewEngine(session host.Session, preferences Preferences, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		session:    session,
		prefs:      preferences,
		registerer: prometheus.DefaultRegisterer,
		logger:     logger.With().Str("component", "viewsync").Logger(),
		now:        time.Now,
		state:      StateDisabled,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = newMetrics(e.registerer)
	e.table = membership.NewTable(preferences.Policy().Mode)
	return e
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// IsEnabled reports whether the engine is running.
func (e *Engine) IsEnabled() bool { return e.state != StateDisabled }

// Members returns the number of viewports in the membership table.
func (e *Engine) Members() int { return e.table.Len() }

// ActiveViewport returns the id of the viewport last reported active.
func (e *Engine) ActiveViewport() types.ViewportID {
	if e.active == nil {
		return ""
	}
	return e.active.ID()
}

// Enable starts the engine and builds the first membership table. Enabling a
// running engine is a no-op.
func (e *Engine) Enable() {
	if e.state != StateDisabled {
		return
	}
	if err := e.transition(StateIdle); err != nil {
		e.logger.Error().Err(err).Msg("enable")
		return
	}
	e.detector.Reset()
	e.unsubscribe = e.prefs.Subscribe(e.onPolicyChange)
	if e.hooks != nil {
		e.removeDraw = e.hooks.AddDrawHandler(e.OnViewportRedraw)
	}

	e.rebuild(reasonEnabled)
	if e.state == StateDisabled {
		return
	}
	e.logger.Info().Str("mode", e.prefs.Policy().Mode.String()).Int("members", e.table.Len()).Msg("view sync enabled")
	e.emit(Event{Type: EventEnabled})
}

// Disable stops the engine and clears all state. It is safe at any point,
// including from inside a redraw callback; the callback in flight stops
// before touching another peer.
func (e *Engine) Disable() {
	if e.state == StateDisabled {
		return
	}
	if e.removeDraw != nil {
		e.removeDraw()
		e.removeDraw = nil
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	if err := e.transition(StateDisabled); err != nil {
		e.logger.Error().Err(err).Msg("disable")
		return
	}

	e.active = nil
	e.window = nil
	e.detector.Reset()
	e.table = membership.NewTable(e.prefs.Policy().Mode)
	e.metrics.members.Set(0)

	e.logger.Info().Msg("view sync disabled")
	e.emit(Event{Type: EventDisabled})
}

// Reset restarts a running engine from scratch.
func (e *Engine) Reset() {
	if e.state == StateDisabled {
		return
	}
	e.Disable()
	e.Enable()
}

// SetActiveViewport records the viewport under the user's pointer. A
// different viewport starts a new change-detection lineage.
func (e *Engine) SetActiveViewport(vp host.Viewport) {
	if e.state == StateDisabled {
		return
	}
	if sameViewport(e.active, vp) {
		e.active = vp
		return
	}
	e.active = vp
	e.detector.Reset()
}

// SetActiveWindow records the window under the user's pointer. A different
// window invalidates the baseline and rebuilds the membership table.
func (e *Engine) SetActiveWindow(w host.Window) {
	if e.state == StateDisabled {
		return
	}
	if sameWindow(e.window, w) {
		e.window = w
		return
	}
	e.window = w
	e.detector.Reset()
	e.rebuild(reasonWindow)
}

// RequestRebuild rebuilds the membership table from the live topology, for
// example after a user toggles a viewport's sync flag.
func (e *Engine) RequestRebuild() {
	if e.state == StateDisabled {
		return
	}
	e.rebuild(reasonRequested)
}

// NotifyTopologyChanged is the host's signal that sync flags or workspaces
// changed. It enables a stopped engine, otherwise it rebuilds.
func (e *Engine) NotifyTopologyChanged() {
	if e.state == StateDisabled {
		e.Enable()
		return
	}
	e.RequestRebuild()
}

// CanToggle reports whether the sync toggle should be offered for vp.
func CanToggle(vp host.Viewport) bool {
	return vp != nil && vp.Valid() && vp.QuadViews() <= 1
}

func (e *Engine) onPolicyChange(c prefs.Change) {
	if !c.ModeChanged() || e.state == StateDisabled {
		return
	}
	e.detector.Reset()
	e.rebuild(reasonScopeMode)
}

func (e *Engine) rebuild(reason string) {
	if e.state != StateIdle {
		return
	}
	if err := e.transition(StateLocked); err != nil {
		e.logger.Error().Err(err).Str("reason", reason).Msg("rebuild")
		return
	}

	mode := e.prefs.Policy().Mode
	ctx, span := tracer.Start(context.Background(), "viewsync.rebuild", trace.WithAttributes(
		attribute.String("viewsync.reason", reason),
		attribute.String("viewsync.mode", mode.String()),
	))
	defer span.End()

	start := e.now()
	table := membership.Rebuild(mode, e.window, e.session)
	elapsed := e.now().Sub(start)

	span.SetAttributes(
		attribute.Int("viewsync.members", table.Len()),
		attribute.Int("viewsync.skipped_screens", table.SkippedScreens()),
	)

	// Disabled from inside the host while the topology was enumerated.
	if e.state == StateDisabled {
		return
	}
	e.table = table
	if err := e.transition(StateIdle); err != nil {
		e.logger.Error().Err(err).Msg("rebuild")
		return
	}

	e.metrics.rebuilds.WithLabelValues(reason).Inc()
	e.metrics.rebuildLatency.Observe(elapsed.Seconds())
	e.metrics.members.Set(float64(table.Len()))

	traced := observability.LoggerWithTrace(ctx, e.logger)
	traced.Debug().
		Str("reason", reason).
		Str("mode", mode.String()).
		Int("members", table.Len()).
		Int("skipped_screens", table.SkippedScreens()).
		Dur("elapsed", elapsed).
		Msg("membership rebuilt")

	if e.observed() {
		evt := Event{Type: EventRebuilt, Reason: reason}
		if e.window != nil {
			evt.Window = e.window.ID()
		}
		e.emit(evt)
	}
}

// OnViewportRedraw is the per-frame callback. The host calls it once for
// every visible viewport after it is drawn.
func (e *Engine) OnViewportRedraw(vp host.Viewport) {
	if vp == nil || e.state == StateDisabled {
		return
	}
	// Quad view splits a viewport into regions that cannot share one view;
	// such a viewport is forced out of sync before anything else happens.
	if vp.QuadViews() > 1 {
		if vp.SyncEnabled() {
			vp.SetSyncEnabled(false)
		}
		if e.table.Remove(vp.ID()) {
			e.metrics.members.Set(float64(e.table.Len()))
		}
		e.count(outcomeQuadView)
		return
	}
	e.count(e.redraw(vp))
}

func (e *Engine) redraw(vp host.Viewport) outcome {
	if e.state == StateLocked {
		return outcomeLocked
	}

	id := vp.ID()
	if e.active == nil {
		e.forget(id)
		return outcomeNoActive
	}
	if !vp.Valid() {
		e.dropStale(id)
		return outcomeStale
	}
	if !vp.SyncEnabled() {
		e.forget(id)
		return outcomeSyncDisabled
	}

	if !e.table.Put(vp) {
		return outcomeDoNotSync
	}
	e.metrics.members.Set(float64(e.table.Len()))

	if id != e.active.ID() {
		return outcomePeer
	}

	policy := e.prefs.Policy()
	switch {
	case policy.Paused:
		return outcomePaused
	case !policy.SyncDuringPlayback && e.session.Playing():
		return outcomePlayback
	case !policy.SyncInCameraView && vp.Projection() == types.ProjectionCamera:
		return outcomeCameraView
	}

	// The host redrew the active viewport from inside one of our own peer
	// writes; the outer call owns this change.
	if e.propagating {
		return outcomeReentrant
	}
	if !e.detector.Observe(vp) {
		return outcomeUnchanged
	}

	group := membership.ResolveGroup(e.table, id, policy.Mode)
	e.propagate(vp, group)
	return outcomePropagated
}

func (e *Engine) forget(id types.ViewportID) {
	if e.table.Remove(id) {
		e.metrics.members.Set(float64(e.table.Len()))
	}
}

// dropStale forgets a handle that stopped resolving.
func (e *Engine) dropStale(id types.ViewportID) {
	if !e.table.Remove(id) {
		return
	}
	e.metrics.members.Set(float64(e.table.Len()))
	if e.observed() {
		e.emit(Event{Type: EventDropped, Viewport: id, Reason: "stale handle"})
	}
}

func (e *Engine) propagate(source host.Viewport, group []host.Viewport) {
	baseline := e.detector.Baseline()
	if baseline == nil {
		return
	}
	e.outgoing = *baseline
	e.propagating = true
	e.metrics.propagations.Inc()
	defer func() { e.propagating = false }()

	var updated []types.ViewportID
	for _, peer := range group {
		if e.state == StateDisabled {
			return
		}
		if !peer.Valid() {
			e.dropStale(peer.ID())
			continue
		}
		if !peer.SyncEnabled() {
			continue
		}
		if _, err := viewstate.Apply(&e.outgoing, peer); err != nil {
			e.metrics.applyFailures.Inc()
			e.forget(peer.ID())
			e.logger.Warn().Err(err).
				Str("source", string(source.ID())).
				Str("peer", string(peer.ID())).
				Msg("peer rejected view update")
			if e.observed() {
				e.emit(Event{Type: EventApplyFailed, Viewport: peer.ID(), Reason: err.Error()})
			}
			continue
		}
		e.metrics.peerUpdates.Inc()
		if e.observed() {
			updated = append(updated, peer.ID())
		}
	}

	e.logger.Debug().
		Str("source", string(source.ID())).
		Int("peers", len(group)).
		Msg("view propagated")

	if e.observed() && e.state != StateDisabled {
		e.emit(Event{
			Type:     EventPropagated,
			Viewport: source.ID(),
			Window:   source.Window(),
			Peers:    updated,
			Fields:   e.outgoing.Present().String(),
		})
	}
}

func (e *Engine) count(o outcome) {
	e.metrics.redraws[o].Inc()
}

func sameViewport(a, b host.Viewport) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

func sameWindow(a, b host.Window) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
