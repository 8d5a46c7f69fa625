// Package metrics holds the prometheus collectors of the host. Counters,
// gauges and histograms are lock free and may be updated from the render
// thread.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plughost"

// Engine contains the collectors updated by the engine and its command
// queue.
type Engine struct {
	Cycles           prometheus.Counter
	CommandsExecuted prometheus.Counter
	QueueDepth       prometheus.Gauge
	QueueSaturated   prometheus.Counter
	CycleDuration    prometheus.Histogram
	Nodes            prometheus.Gauge
	Routes           prometheus.Gauge
}

// NewEngine creates the engine collectors and registers them with reg. A
// nil reg leaves them unregistered, which is what tests want.
func NewEngine(reg prometheus.Registerer) *Engine {
	m := &Engine{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Number of completed render cycles.",
		}),
		CommandsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "commands_executed_total",
			Help:      "Number of commands executed on the render thread.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Commands waiting for the render thread after the last cycle.",
		}),
		QueueSaturated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "saturated_total",
			Help:      "Pushes that had to wait for a free slot.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time spent in one render cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the processing graph.",
		}),
		Routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "routes",
			Help:      "Routes in the processing graph.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Cycles, m.CommandsExecuted, m.QueueDepth,
			m.QueueSaturated, m.CycleDuration, m.Nodes, m.Routes)
	}

	return m
}

// Discovery contains the collectors updated by plugin discovery.
type Discovery struct {
	Plugins prometheus.Gauge
	Errors  prometheus.Counter
}

// NewDiscovery creates the discovery collectors and registers them with
// reg unless reg is nil.
func NewDiscovery(reg prometheus.Registerer) *Discovery {
	m := &Discovery{
		Plugins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "plugins",
			Help:      "Plugin descriptors registered by the last scan.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "errors_total",
			Help:      "Libraries skipped during discovery.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Plugins, m.Errors)
	}

	return m
}
