package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// UploadsTotal counts document intake attempts by outcome.
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docclassify",
		Subsystem: "intake",
		Name:      "uploads_total",
		Help:      "Total number of document intake attempts, labeled by outcome.",
	}, []string{"outcome"})

	// ClassificationsTotal counts settled classification attempts by result.
	ClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docclassify",
		Subsystem: "classifier",
		Name:      "classifications_total",
		Help:      "Total number of classification attempts, labeled by result.",
	}, []string{"result"})

	// ClassificationDurationSeconds is end-to-end time per attempt,
	// measured from invocation to settlement.
	ClassificationDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docclassify",
		Subsystem: "classifier",
		Name:      "classification_duration_seconds",
		Help:      "End-to-end time for a classification attempt (encode + model call + validation).",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"result"})

	// ClassificationsInFlight is the number of attempts currently awaiting
	// the provider, at most one per session.
	ClassificationsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docclassify",
		Subsystem: "classifier",
		Name:      "classifications_in_flight",
		Help:      "Current number of classification attempts awaiting the model provider.",
	})

	// ActiveSessions is the number of live sessions holding state in memory.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docclassify",
		Subsystem: "sessions",
		Name:      "active_sessions",
		Help:      "Current number of in-memory sessions.",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			UploadsTotal,
			ClassificationsTotal,
			ClassificationDurationSeconds,
			ClassificationsInFlight,
			ActiveSessions,
		)
	})
}
