package viewsync

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/example/viewport-sync/viewsync")

// outcome classifies how a redraw callback ended.
type outcome int

const (
	outcomeLocked outcome = iota
	outcomeNoActive
	outcomeQuadView
	outcomeStale
	outcomeSyncDisabled
	outcomeDoNotSync
	outcomePeer
	outcomePaused
	outcomePlayback
	outcomeCameraView
	outcomeReentrant
	outcomeUnchanged
	outcomePropagated
	numOutcomes
)

var outcomeNames = [numOutcomes]string{
	"locked",
	"no_active",
	"quad_view",
	"stale",
	"sync_disabled",
	"do_not_sync",
	"peer",
	"paused",
	"playback",
	"camera_view",
	"reentrant",
	"unchanged",
	"propagated",
}

func (o outcome) String() string { return outcomeNames[o] }

const (
	reasonEnabled   = "enabled"
	reasonWindow    = "active_window"
	reasonScopeMode = "scope_mode"
	reasonRequested = "requested"
)

type metrics struct {
	redraws        [numOutcomes]prometheus.Counter
	propagations   prometheus.Counter
	peerUpdates    prometheus.Counter
	applyFailures  prometheus.Counter
	rebuilds       *prometheus.CounterVec
	members        prometheus.Gauge
	rebuildLatency prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	redraws := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewsync",
		Name:      "redraws_total",
		Help:      "Redraw callbacks handled by the sync engine, by outcome.",
	}, []string{"outcome"}))

	m := &metrics{
		propagations: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "viewsync",
			Name:      "propagations_total",
			Help:      "Detected changes of the active viewport that were fanned out.",
		})),
		peerUpdates: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "viewsync",
			Name:      "peer_updates_total",
			Help:      "View state copies written to peer viewports.",
		})),
		applyFailures: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "viewsync",
			Name:      "apply_failures_total",
			Help:      "Peer writes that faulted in the host and were skipped.",
		})),
		rebuilds: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewsync",
			Name:      "rebuilds_total",
			Help:      "Membership table rebuilds, by trigger.",
		}, []string{"reason"})),
		members: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "viewsync",
			Name:      "membership_entries",
			Help:      "Viewports currently recorded in the membership table.",
		})),
		rebuildLatency: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "viewsync",
			Name:      "rebuild_seconds",
			Help:      "Time spent rebuilding the membership table.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14),
		})),
	}
	// Curried up front so the per-frame path does no label lookups.
	for o := outcome(0); o < numOutcomes; o++ {
		m.redraws[o] = redraws.WithLabelValues(o.String())
	}
	return m
}

// register adds c to reg, reusing the collector already registered under the
// same descriptor when several engines share a registerer.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var regErr prometheus.AlreadyRegisteredError
		if errors.As(err, &regErr) {
			if existing, ok := regErr.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
