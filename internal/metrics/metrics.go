// Package metrics provides Prometheus metrics for the wrapper service:
// session lifecycle, command throughput, and per-channel output volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	RestartsTotal  prometheus.Counter
	CommandsTotal  prometheus.Counter

	// OutputItemsTotal and OutputBytesTotal are labelled by channel
	// ("stdout" or "stderr").
	OutputItemsTotal *prometheus.CounterVec
	OutputBytesTotal *prometheus.CounterVec

	DrainErrorsTotal prometheus.Counter
}

// New creates all collectors registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cliwrap_sessions_active",
			Help: "Number of live wrapper sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cliwrap_sessions_total",
			Help: "Total sessions created",
		}),
		RestartsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cliwrap_restarts_total",
			Help: "Total child process restarts",
		}),
		CommandsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cliwrap_commands_total",
			Help: "Total commands written to child processes",
		}),
		OutputItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cliwrap_output_items_total",
			Help: "Output items drained, by channel",
		}, []string{"channel"}),
		OutputBytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cliwrap_output_bytes_total",
			Help: "Output bytes drained, by channel",
		}, []string{"channel"}),
		DrainErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cliwrap_drain_errors_total",
			Help: "Output drains that failed because the child was gone",
		}),
	}
}
