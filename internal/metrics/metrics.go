// Package metrics records operational metrics for schema generation runs
// through a pluggable global backend. The default backend is a no-op, so
// metrics are always safe to call when nothing is configured.
//
// Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend.
package metrics

import "time"

// Metric names.
const (
	StepTotal           = "schemagen_step_total"
	StepDurationSeconds = "schemagen_step_duration_seconds"
	EventTypesTotal     = "schemagen_event_types_total"
	ArtifactsTotal      = "schemagen_artifacts_total"
)

// Event type outcome kinds for RecordEventType.
const (
	KindConsistent   = "consistent"
	KindInconsistent = "inconsistent"
	KindFailed       = "failed"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a run step and observes its duration.
// Steps are collect, evaluate, merge, generate and publish.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordEventType counts one event type outcome.
func RecordEventType(job, kind string) {
	backend.IncCounter(EventTypesTotal, 1, Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordArtifacts counts generated artifacts for a dialect.
func RecordArtifacts(job, dialect string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(ArtifactsTotal, float64(n), Labels{
		"job":     job,
		"dialect": dialect,
	})
}
