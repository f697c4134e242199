// Package metrics defines the Prometheus collectors exported by the server.
//
// A nil *Metrics is valid and records nothing, so components take one
// unconditionally and tests can pass nil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "appdrawer"

// Result label values for commands_total.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collectors for commands, windows, pollers and events.
type Metrics struct {
	commands  *prometheus.CounterVec
	windows   prometheus.Gauge
	pollers   prometheus.Gauge
	enqueued  *prometheus.CounterVec
	dropped   prometheus.Counter
	delivered prometheus.Counter
}

// Creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by command kind and result.",
		}, []string{"command", "result"}),

		windows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "windows",
			Help:      "Windows currently registered.",
		}),

		pollers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pollers",
			Help:      "Event delivery workers currently running.",
		}),

		enqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      "Events queued for delivery, by event kind.",
		}, []string{"kind"}),

		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events discarded because the window was not polling.",
		}),

		delivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Events written to event consumers.",
		}),
	}
}

// Counts a handled command.
func (m *Metrics) Command(kind, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind, result).Inc()
}

// Sets the number of registered windows.
func (m *Metrics) SetWindows(n int) {
	if m == nil {
		return
	}
	m.windows.Set(float64(n))
}

// Counts a delivery worker that has been started.
func (m *Metrics) PollerStarted() {
	if m == nil {
		return
	}
	m.pollers.Inc()
}

// Counts a delivery worker that has exited.
func (m *Metrics) PollerStopped() {
	if m == nil {
		return
	}
	m.pollers.Dec()
}

// Counts an event accepted into a window queue.
func (m *Metrics) Enqueued(kind string) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(kind).Inc()
}

// Counts n events discarded without being delivered.
func (m *Metrics) Dropped(n int) {
	if m == nil {
		return
	}
	m.dropped.Add(float64(n))
}

// Counts an event written to a consumer.
func (m *Metrics) Delivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}
