package main

import (
	"fmt"
	"log"

	"eventschema/internal/config"
	"eventschema/internal/metrics"
	"eventschema/internal/metrics/datadog"
	"eventschema/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the flush to
// defer. A backend that fails to initialize leaves metrics disabled.
func setupMetrics(cfg config.Metrics, job string, logger *log.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Backend {
	case "prometheus":
		b, err = prompush.NewBackend(job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: cfg.Addr, Namespace: cfg.Namespace, GlobalTags: cfg.Tags})
	case "", "none":
		logger.Printf("metrics: disabled")
		return func() {}
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		logger.Printf("metrics: warning: %v; metrics disabled", err)
		return func() {}
	}

	logger.Printf("metrics: backend=%s job=%s", cfg.Backend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
	}
}
