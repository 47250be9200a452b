// Package metrics holds the Prometheus collectors of the scheduling core.
// Every method is safe on a nil receiver so callers never need to check.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinic"

type Metrics struct {
	bookings      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	sideEffects   *prometheus.CounterVec
	lockBypass    prometheus.Counter
	httpDuration  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Book operations by outcome",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "cancellations_total",
			Help:      "Cancel operations by outcome",
		}, []string{"outcome"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "side_effects_total",
			Help:      "Post-commit SMS and calendar attempts by status",
		}, []string{"effect", "status"}),
		lockBypass: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "slot_lock_bypass_total",
			Help:      "Bookings that ran on row locks alone because Redis was unreachable",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.cancellations, m.sideEffects, m.lockBypass, m.httpDuration)
	return m
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSideEffect(effect, status string) {
	if m == nil {
		return
	}
	m.sideEffects.WithLabelValues(effect, status).Inc()
}

func (m *Metrics) ObserveLockBypass() {
	if m == nil {
		return
	}
	m.lockBypass.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
