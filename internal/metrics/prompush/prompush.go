// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. Collectors live in a private registry that Flush pushes
// to the gateway under the configured job name.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"eventschema/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter      *prometheus.CounterVec // schemagen_step_total
	stepDuration     *prometheus.SummaryVec // schemagen_step_duration_seconds
	eventTypeCounter *prometheus.CounterVec // schemagen_event_types_total
	artifactCounter  *prometheus.CounterVec // schemagen_artifacts_total
}

// NewBackend constructs a Prometheus Pushgateway backend. An empty jobName
// defaults to "schemagen".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "schemagen"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Run step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of run steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	eventTypeCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.EventTypesTotal,
			Help: "Event types processed, partitioned by outcome (consistent, inconsistent, failed).",
		},
		[]string{"kind"},
	)
	artifactCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ArtifactsTotal,
			Help: "Generated artifacts, partitioned by dialect.",
		},
		[]string{"dialect"},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":       stepCounter,
		"step summary":       stepDuration,
		"event type counter": eventTypeCounter,
		"artifact counter":   artifactCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:       gatewayURL,
		jobName:          jobName,
		reg:              reg,
		stepCounter:      stepCounter,
		stepDuration:     stepDuration,
		eventTypeCounter: eventTypeCounter,
		artifactCounter:  artifactCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.EventTypesTotal:
		if b.eventTypeCounter == nil {
			return
		}
		b.eventTypeCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.ArtifactsTotal:
		if b.artifactCounter == nil {
			return
		}
		b.artifactCounter.WithLabelValues(labels["dialect"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
