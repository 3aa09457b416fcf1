package config

import (
	"fmt"
	"strings"

	"github.com/microsoft/go-mssqldb/msdsn"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the run
// file, e.g. "source.path".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over r without mutating it. Call
// ApplyDefaults first; zero values that defaults would fill are reported.
func (r Run) Validate() []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and identifies runs")
	}

	switch r.Source.Kind {
	case "dir", "list":
		if strings.TrimSpace(r.Source.Path) == "" {
			add(SeverityError, "source.path", "%s source requires a non-empty path", r.Source.Kind)
		}
	case "":
		add(SeverityError, "source.kind", "source.kind must not be empty")
	default:
		add(SeverityError, "source.kind", "unknown source kind %q; want dir or list", r.Source.Kind)
	}
	if r.Source.Workers < 0 {
		add(SeverityError, "source.workers", "workers must not be negative")
	}
	if r.Source.SampleBytes < 0 {
		add(SeverityError, "source.sample_bytes", "sample_bytes must not be negative")
	}
	if r.Source.MaxSamples < 0 {
		add(SeverityError, "source.max_samples", "max_samples must not be negative")
	}
	if r.Source.HTTP.InsecureSkipVerify {
		add(SeverityWarning, "source.http.insecure_skip_verify", "TLS verification is disabled")
	}

	switch r.Registry.Kind {
	case "":
		add(SeverityWarning, "registry.kind", "no registry configured; avro samples will be skipped")
	case "dir":
		if strings.TrimSpace(r.Registry.Path) == "" {
			add(SeverityError, "registry.path", "dir registry requires a non-empty path")
		}
	case "http":
		if !strings.HasPrefix(r.Registry.URL, "http://") && !strings.HasPrefix(r.Registry.URL, "https://") {
			add(SeverityError, "registry.url", "http registry requires an http(s) URL, got %q", r.Registry.URL)
		}
	default:
		add(SeverityError, "registry.kind", "unknown registry kind %q; want dir or http", r.Registry.Kind)
	}

	if !Enabled(r.Drill.Enabled) && !Enabled(r.Spark.Enabled) && !Enabled(r.ETLJob.Enabled) {
		add(SeverityError, "drill.enabled", "every generator is disabled; nothing would be generated")
	}
	if Enabled(r.ETLJob.Enabled) && r.ETLJob.Step < 0 {
		add(SeverityError, "etljob.step", "step must not be negative")
	}

	switch r.Store.Kind {
	case "":
	case "sqlite", "postgres":
		if strings.TrimSpace(r.Store.DSN) == "" {
			add(SeverityError, "store.dsn", "%s store requires a dsn", r.Store.Kind)
		}
		if r.Store.BatchSize <= 0 {
			add(SeverityWarning, "store.batch_size", "batch_size=%d; non-positive batch sizes are replaced by %d", r.Store.BatchSize, DefaultBatchSize)
		}
	default:
		add(SeverityError, "store.kind", "unknown store kind %q; want sqlite or postgres", r.Store.Kind)
	}

	if r.Catalog.DSN != "" {
		if _, err := msdsn.Parse(r.Catalog.DSN); err != nil {
			add(SeverityError, "catalog.dsn", "invalid SQL Server DSN: %v", err)
		}
		if !Enabled(r.ETLJob.Enabled) {
			add(SeverityWarning, "catalog.dsn", "catalog is only consulted for etljob targets, which are disabled")
		}
	}

	if r.Output.Dir == "" && r.Store.Kind == "" {
		add(SeverityWarning, "output.dir", "neither output.dir nor store is set; artifacts are only logged")
	}

	switch r.Metrics.Backend {
	case "":
	case "prometheus":
		if r.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url")
		}
	case "datadog":
		if r.Metrics.Addr == "" {
			add(SeverityError, "metrics.addr", "datadog backend requires addr")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q; want prometheus or datadog", r.Metrics.Backend)
	}

	return issues
}
