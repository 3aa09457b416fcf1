// Package publish delivers rendered artifacts: to a directory tree, to an
// artifact store, or both.
package publish

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"eventschema/internal/dialect"
)

// Publisher delivers the artifacts of one run.
type Publisher interface {
	Publish(ctx context.Context, runID string, artifacts []dialect.Artifact) error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, runID string, artifacts []dialect.Artifact) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, runID, artifacts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log prints each artifact. It is used when no other publisher is
// configured.
type Log struct {
	Logger *log.Logger
}

func (l Log) Publish(_ context.Context, runID string, artifacts []dialect.Artifact) error {
	logger := dialect.LoggerOrDefault(l.Logger)
	for _, a := range artifacts {
		logger.Printf("publish: run %s: %s\n%s", runID, a, a.Text)
	}
	return nil
}
