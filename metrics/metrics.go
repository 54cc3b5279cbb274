// Package metrics collects the per-run validation counters and pushes them to a Prometheus
// Pushgateway. A batch job is not scraped, so the metrics are only published if a pushgateway
// is configured.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Batch struct {
	registry    *prometheus.Registry
	outcomes    *prometheus.CounterVec
	responses   prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewBatch() *Batch {
	b := Batch{
		registry: prometheus.NewRegistry(),

		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brats",
			Subsystem: "access",
			Name:      "validated_total",
			Help:      "Data access requests validated, by outcome.",
		}, []string{"outcome"}),

		responses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brats",
			Subsystem: "access",
			Name:      "responses",
			Help:      "Form responses in the responses worksheet.",
		}),

		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brats",
			Subsystem: "access",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last validation run.",
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brats",
			Subsystem: "access",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful validation run.",
		}),
	}

	b.registry.MustRegister(b.outcomes, b.responses, b.duration, b.lastSuccess)

	return &b
}

// Observe counts a validated response.
func (b *Batch) Observe(outcome string) {
	b.outcomes.WithLabelValues(outcome).Inc()
}

// Completed records a successful run.
func (b *Batch) Completed(start time.Time, responses int) {
	b.responses.Set(float64(responses))
	b.duration.Set(time.Since(start).Seconds())
	b.lastSuccess.SetToCurrentTime()
}

// Push replaces the metrics for the job on the pushgateway.
func (b *Batch) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(b.registry).PushContext(ctx)
}
