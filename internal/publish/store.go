package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	"eventschema/internal/dialect"
	"eventschema/internal/storage"
)

// checksumReader is implemented by stores that can report the checksums of
// the latest run per event type.
type checksumReader interface {
	Checksums(ctx context.Context, eventType string) (map[string]string, error)
}

// Store saves artifacts as rows of the artifact table.
type Store struct {
	Repo      storage.Repository
	BatchSize int
	Logger    *log.Logger
	// Now is the clock used for created_at; nil means time.Now.
	Now func() time.Time
}

func (s Store) Publish(ctx context.Context, runID string, artifacts []dialect.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 500
	}
	logger := dialect.LoggerOrDefault(s.Logger)
	recs := storage.RecordsFor(runID, now(), artifacts)

	if cr, ok := s.Repo.(checksumReader); ok {
		s.logUnchanged(ctx, logger, cr, recs)
	}

	n, err := storage.SaveRecords(ctx, s.Repo, recs, batch)
	if err != nil {
		return fmt.Errorf("publish: store: %w", err)
	}
	logger.Printf("publish: run %s: stored %d artifacts", runID, n)
	return nil
}

// logUnchanged reports, per event type, how many artifacts match the
// previous run.
func (s Store) logUnchanged(ctx context.Context, logger *log.Logger, cr checksumReader, recs []storage.Record) {
	byType := map[string][]storage.Record{}
	var order []string
	for _, r := range recs {
		if _, ok := byType[r.EventType]; !ok {
			order = append(order, r.EventType)
		}
		byType[r.EventType] = append(byType[r.EventType], r)
	}
	for _, et := range order {
		prev, err := cr.Checksums(ctx, et)
		if err != nil {
			logger.Printf("publish: %s: previous checksums unavailable: %v", et, err)
			continue
		}
		if len(prev) == 0 {
			continue
		}
		same := 0
		for _, r := range byType[et] {
			if prev[r.Name] == r.Checksum {
				same++
			}
		}
		logger.Printf("publish: %s: %d of %d artifacts unchanged since last run", et, same, len(byType[et]))
	}
}
