// Package metrics exposes the Prometheus metrics describing the
// scheduler's live state: how many schedules are running, how callbacks
// are faring, and how the connection-handling server is loaded.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SchedulesRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "async_sched",
		Name:      "schedules_running",
		Help:      "Number of schedules currently firing on this server.",
	})

	CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "async_sched",
		Name:      "callbacks_total",
		Help:      "Total callback invocations, by schedule name and outcome.",
	}, []string{"schedule", "outcome"})

	CallbackDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "async_sched",
		Name:      "callback_duration_seconds",
		Help:      "Duration of a single callback invocation.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"schedule"})

	ConnectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "async_sched",
		Name:      "connections_open",
		Help:      "Number of open client connections.",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "async_sched",
		Name:      "messages_total",
		Help:      "Total wire messages dispatched, by kind and outcome.",
	}, []string{"kind", "outcome"})

	RegistrySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "async_sched",
		Name:      "registry_callbacks",
		Help:      "Number of callbacks currently registered.",
	})

	ServerStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "async_sched",
		Name:      "server_start_time_seconds",
		Help:      "Unix timestamp when the server started.",
	})
)

func Register() {
	prometheus.MustRegister(
		SchedulesRunning,
		CallbacksTotal,
		CallbackDuration,
		ConnectionsOpen,
		MessagesTotal,
		RegistrySize,
		ServerStartTime,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
