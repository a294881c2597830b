package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successfully answered prediction queries.
	OutcomeSuccess = "success"
	// OutcomeError labels failed prediction queries (validation or pipeline issues).
	OutcomeError = "error"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admit_engine",
			Name:      "predictions_total",
			Help:      "Total number of prediction queries handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "admit_engine",
			Name:      "prediction_seconds",
			Help:      "Prediction query latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	datasetOffers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admit_engine",
			Name:      "dataset_offers",
			Help:      "Number of distinct offers in the loaded dataset.",
		},
	)

	datasetObservations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admit_engine",
			Name:      "dataset_observations",
			Help:      "Number of closing-rank observations in the loaded dataset.",
		},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admit_engine",
			Name:      "cache_requests_total",
			Help:      "Prediction cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches admit-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		predictionsTotal,
		predictionDurationSeconds,
		datasetOffers,
		datasetObservations,
		cacheHitsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePrediction records a prediction query duration and outcome label.
func ObservePrediction(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	predictionsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
}

// SetDatasetSize publishes the loaded dataset dimensions.
func SetDatasetSize(offers, observations int) {
	datasetOffers.Set(float64(offers))
	datasetObservations.Set(float64(observations))
}

// ObserveCacheLookup records a prediction cache hit or miss.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheHitsTotal.WithLabelValues(result).Inc()
}
