package monitor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	clients        prometheus.Gauge
	published      prometheus.Counter
	dropped        prometheus.Counter
	queueDepth     prometheus.Histogram
	upgradeLatency prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "monitor",
			Name:      "subscribers",
			Help:      "Connected event stream subscribers.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitor",
			Name:      "events_published_total",
			Help:      "Engine events published to the hub.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitor",
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers disconnected because their send queue was full.",
		}),
		queueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monitor",
			Name:      "send_queue_depth",
			Help:      "Buffered outbound events per subscriber after enqueue.",
			Buckets:   prometheus.LinearBuckets(0, 8, 9),
		}),
		upgradeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monitor",
			Name:      "upgrade_seconds",
			Help:      "Latency spent upgrading HTTP connections to WebSockets.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	m.clients = register(reg, m.clients)
	m.published = register(reg, m.published)
	m.dropped = register(reg, m.dropped)
	m.queueDepth = register(reg, m.queueDepth)
	m.upgradeLatency = register(reg, m.upgradeLatency)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
