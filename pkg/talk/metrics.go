package talk

import (
	"errors"
	"time"

	"github.com/aretw0/talks/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts talk modifications by outcome and times them.
// A nil *Metrics records nothing.
type Metrics struct {
	modifications *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics creates and registers the talk collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		modifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talks_modifications_total",
				Help: "Total number of talk modifications by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talks_modification_duration_seconds",
				Help:    "Duration of talk modifications, lock wait included",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.modifications, m.duration)
	return m
}

func (m *Metrics) observe(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.modifications.WithLabelValues(outcome(err)).Inc()
	m.duration.Observe(d.Seconds())
}

func outcome(err error) string {
	var (
		state   *domain.StateError
		invalid *domain.ValidationError
		storage *domain.StorageError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &state):
		return "state_error"
	case errors.As(err, &invalid):
		return "validation_error"
	case errors.As(err, &storage):
		return "storage_error"
	default:
		return "error"
	}
}
