package runtime

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks invocation and control-plane statistics. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	mu sync.Mutex

	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	controlPlaneErrors *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lambdaflow",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates the collectors. Passing a nil registerer uses
// prometheus.DefaultRegisterer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer:       registerer,
		invocationsTotal: newCounterVec("invocations_total", "Total number of invocations by outcome", []string{"outcome"}),
		invocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lambdaflow",
			Name:      "invocation_duration_seconds",
			Help:      "Time from fetching an event to publishing its outcome",
			Buckets:   prometheus.DefBuckets,
		}),
		controlPlaneErrors: newCounterVec("control_plane_errors_total", "Total number of failed control-plane calls by operation", []string{"operation"}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.invocationsTotal,
		m.invocationDuration,
		m.controlPlaneErrors,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// ObserveInvocation counts one finished invocation.
func (m *Metrics) ObserveInvocation(outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.invocationsTotal.WithLabelValues(string(outcome)).Inc()
	m.invocationDuration.Observe(d.Seconds())
}

// ControlPlaneError counts a failed call to the control plane.
func (m *Metrics) ControlPlaneError(operation string) {
	if m == nil {
		return
	}
	m.controlPlaneErrors.WithLabelValues(operation).Inc()
}
