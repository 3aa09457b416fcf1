// Package pipeline runs one schemagen pass end to end:
//
//	channels → collect → per event type (evaluate → merge → generate) → publish
//
// Each event type is processed in isolation. A contract violation while
// merging or generating one type marks that type failed and is logged; the
// remaining types still generate and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"eventschema/internal/collect"
	"eventschema/internal/datasource"
	"eventschema/internal/dialect"
	"eventschema/internal/dialect/etljob"
	"eventschema/internal/eventtype"
	"eventschema/internal/metrics"
	"eventschema/internal/publish"
	"eventschema/internal/schema"
	"eventschema/internal/storage"
)

// Catalog lists the existing columns of a target table.
type Catalog interface {
	Columns(ctx context.Context, fqn string) ([]string, error)
}

// Runner holds the wired components of a run.
type Runner struct {
	Job        string
	Collector  *collect.Collector
	Generators []dialect.Generator
	// Publisher receives the artifacts of all successful event types. Nil
	// skips publishing.
	Publisher publish.Publisher

	// Catalog and ETLJob enable drift notes against live ETL targets.
	Catalog Catalog
	ETLJob  *etljob.Generator

	Logger *log.Logger
}

// Outcome is the result for one event type.
type Outcome struct {
	EventType  string
	Samples    int
	Channels   []string
	Consistent bool
	Report     []string
	Structure  *schema.EventStructure
	Artifacts  []dialect.Artifact
	Err        error
}

// Kind classifies the outcome for metrics.
func (o Outcome) Kind() string {
	switch {
	case o.Err != nil:
		return metrics.KindFailed
	case o.Consistent:
		return metrics.KindConsistent
	default:
		return metrics.KindInconsistent
	}
}

// Summary describes a whole run.
type Summary struct {
	RunID          string
	Channels       int
	Lines          int
	Skipped        int
	FailedChannels []string
	Outcomes       []Outcome
}

// Counts tallies outcomes by kind.
func (s *Summary) Counts() (consistent, inconsistent, failed int) {
	for _, o := range s.Outcomes {
		switch o.Kind() {
		case metrics.KindConsistent:
			consistent++
		case metrics.KindInconsistent:
			inconsistent++
		default:
			failed++
		}
	}
	return consistent, inconsistent, failed
}

// Artifacts returns the artifacts of every successful event type.
func (s *Summary) Artifacts() []dialect.Artifact {
	var out []dialect.Artifact
	for _, o := range s.Outcomes {
		if o.Err == nil {
			out = append(out, o.Artifacts...)
		}
	}
	return out
}

// Outcome returns the outcome for eventType.
func (s *Summary) Outcome(eventType string) (Outcome, bool) {
	for _, o := range s.Outcomes {
		if o.EventType == eventType {
			return o, true
		}
	}
	return Outcome{}, false
}

func (r *Runner) logger() *log.Logger { return dialect.LoggerOrDefault(r.Logger) }

// timed records one step.
func (r *Runner) timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(r.Job, step, err, time.Since(start))
	return err
}

// Run executes the pass. The returned summary is non-nil whenever
// collection succeeded, including when publishing fails.
func (r *Runner) Run(ctx context.Context, runID string, channels []datasource.Channel) (*Summary, error) {
	if r.Collector == nil {
		return nil, errors.New("pipeline: no collector")
	}
	if runID == "" {
		runID = publish.NewRunID()
	}
	logger := r.logger()
	logger.Printf("pipeline: run %s: %d channels, %d generators", runID, len(channels), len(r.Generators))

	var batch *collect.Batch
	err := r.timed("collect", func() error {
		var err error
		batch, err = r.Collector.Collect(ctx, channels)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	sum := &Summary{RunID: runID, Channels: batch.Channels, Lines: batch.Lines, Skipped: batch.Skipped}
	for name := range batch.Failed {
		sum.FailedChannels = append(sum.FailedChannels, name)
	}
	sort.Strings(sum.FailedChannels)

	// Published paths are keyed by dialect and artifact name; the first
	// event type in name order keeps a contested key.
	owners := map[string]string{}
	for _, name := range batch.Names() {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("pipeline: %w", err)
		}
		et, _ := batch.EventType(name)
		o := r.process(ctx, et)
		if o.Err == nil {
			claim(owners, et, &o)
		}
		metrics.RecordEventType(r.Job, o.Kind())
		if o.Err != nil {
			logger.Printf("pipeline: %s: failed: %v", name, o.Err)
		}
		for _, note := range o.Report {
			logger.Printf("pipeline: %s: %s", name, note)
		}
		sum.Outcomes = append(sum.Outcomes, o)
	}

	artifacts := sum.Artifacts()
	byDialect := map[string]int{}
	for _, a := range artifacts {
		byDialect[a.Dialect]++
	}
	for d, n := range byDialect {
		metrics.RecordArtifacts(r.Job, d, n)
	}

	if r.Publisher != nil && len(artifacts) > 0 {
		err := r.timed("publish", func() error {
			return r.Publisher.Publish(ctx, runID, artifacts)
		})
		if err != nil {
			r.logSummary(sum)
			return sum, fmt.Errorf("pipeline: publish: %w", err)
		}
	}
	r.logSummary(sum)
	return sum, nil
}

// process evaluates, merges and generates one event type.
func (r *Runner) process(ctx context.Context, et *eventtype.EventType) Outcome {
	o := Outcome{EventType: et.Name, Samples: len(et.Samples()), Channels: et.Channels()}

	_ = r.timed("evaluate", func() error {
		et.Evaluate()
		return nil
	})
	o.Consistent = et.IsConsistent()

	err := r.timed("merge", func() error {
		var err error
		o.Structure, err = et.Merge()
		return err
	})
	if err != nil {
		o.Err = err
		o.Report = et.Report()
		return o
	}

	err = r.timed("generate", func() error {
		for _, g := range r.Generators {
			arts, err := g.Generate(et.Name, o.Structure.Tree)
			if err != nil {
				return fmt.Errorf("%s: %w", g.Dialect(), err)
			}
			o.Artifacts = append(o.Artifacts, arts...)
		}
		return nil
	})
	if err != nil {
		o.Err = err
		o.Artifacts = nil
	} else {
		r.driftNotes(ctx, et, o.Structure.Tree)
	}
	o.Report = et.Report()
	return o
}

// claim records o's artifact keys in owners. When another event type
// already owns one of them, o fails instead and claims nothing.
func claim(owners map[string]string, et *eventtype.EventType, o *Outcome) {
	for _, a := range o.Artifacts {
		key := a.Dialect + "/" + a.Name
		if owner, taken := owners[key]; taken && owner != et.Name {
			et.Notef("Name Collision: %s already used by %q", key, owner)
			o.Report = et.Report()
			o.Artifacts = nil
			o.Err = fmt.Errorf("%w: %s is produced by both %q and %q", dialect.ErrNameCollision, key, owner, et.Name)
			return
		}
	}
	for _, a := range o.Artifacts {
		owners[a.Dialect+"/"+a.Name] = et.Name
	}
}

// driftNotes compares the live ETL target table with the generated
// columns and records differences as report notes.
func (r *Runner) driftNotes(ctx context.Context, et *eventtype.EventType, tree *schema.Tree) {
	if r.Catalog == nil || r.ETLJob == nil {
		return
	}
	table := r.ETLJob.TableName(et.Name)
	existing, err := r.Catalog.Columns(ctx, table)
	if err != nil {
		r.logger().Printf("pipeline: %s: catalog unavailable: %v", et.Name, err)
		return
	}
	if len(existing) == 0 {
		return
	}
	// Generation already logged any fallback warnings.
	silent := *r.ETLJob
	silent.Logger = log.New(io.Discard, "", 0)
	d, err := silent.Describe(et.Name, tree)
	if err != nil {
		return
	}
	generated := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		generated = append(generated, c.Name)
	}
	missing, extra := storage.Drift(existing, generated)
	if len(missing) > 0 {
		et.Notef("Target Drift: %s lacks columns %s", table, strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		et.Notef("Target Drift: %s has columns not generated: %s", table, strings.Join(extra, ", "))
	}
}

func (r *Runner) logSummary(s *Summary) {
	consistent, inconsistent, failed := s.Counts()
	r.logger().Printf(
		"summary: run=%s channels=%d failed_channels=%d lines=%d skipped=%d event_types=%d consistent=%d inconsistent=%d failed=%d artifacts=%d",
		s.RunID, s.Channels, len(s.FailedChannels), s.Lines, s.Skipped, len(s.Outcomes),
		consistent, inconsistent, failed, len(s.Artifacts()),
	)
}
