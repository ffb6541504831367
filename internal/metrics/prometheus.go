package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "shape"

// Prometheus holds the prometheus collectors of the classifiers.
type Prometheus struct {
	Trainings   *prometheus.CounterVec
	Predictions *prometheus.CounterVec
	Skipped     *prometheus.CounterVec
	Iterations  prometheus.Histogram
}

// NewPrometheusMetrics creates the collectors.
func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Trainings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trainings_total",
				Help:      "Number of classifier trainings.",
			}, []string{"classifier"}),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Number of classifier predictions.",
			}, []string{"classifier"}),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_files_total",
				Help:      "Number of representation files skipped during loading.",
			}, []string{"reason"}),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kmeans_iterations",
				Help:      "Number of lloyd iterations until convergence.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Trainings, p.Predictions, p.Skipped, p.Iterations}
}
