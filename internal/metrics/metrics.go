package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Observer is the process wide metrics collector.
var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.collectors()...)
}

// Metrics tracks the classifier activity.
type Metrics struct {
	prometheus Prometheus
}

// Trained counts a training of the given classifier.
func (m *Metrics) Trained(classifier string) {
	m.prometheus.Trainings.WithLabelValues(classifier).Inc()
}

// Predicted counts a prediction of the given classifier.
func (m *Metrics) Predicted(classifier string) {
	m.prometheus.Predictions.WithLabelValues(classifier).Inc()
}

// Skipped counts a file skipped during loading.
func (m *Metrics) Skipped(reason string) {
	m.prometheus.Skipped.WithLabelValues(reason).Inc()
}

// Converged records the iterations a clustering run needed.
func (m *Metrics) Converged(iterations int) {
	m.prometheus.Iterations.Observe(float64(iterations))
}
