// Package eventtype aggregates the samples of one logical event type,
// evaluates whether they agree with each other, and merges their
// structures into the canonical structure used by the dialect generators.
//
// Lifecycle:
//
//	New → Add (any number of times) → Evaluate → Merge → Canonical
//
// Consistency is advisory. Each violated expectation appends a note to the
// report; nothing here blocks generation.
package eventtype

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"eventschema/internal/schema"
)

var (
	ErrSealed       = errors.New("eventtype: samples can only be added before evaluation")
	ErrNotEvaluated = errors.New("eventtype: not evaluated")
	ErrNotMerged    = errors.New("eventtype: not merged")
	ErrNoSamples    = errors.New("eventtype: no samples")
)

// State is the lifecycle position of an EventType.
type State int

const (
	Collecting State = iota
	Evaluated
	MergedState
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Evaluated:
		return "evaluated"
	case MergedState:
		return "merged"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sample is one decoded observation of an event.
type Sample struct {
	// Channel is the name of the channel the sample was read from.
	Channel string
	// Label identifies the sample for provenance, e.g. "orders.jsonl#3".
	Label         string
	SchemaVersion string
	// Encoded is true for schema-encoded (Avro) samples.
	Encoded   bool
	Schema    *schema.AvroSchema
	Timestamp TimestampStyle
	Structure *schema.EventStructure
}

// EventType is the aggregation unit for one logical event name.
type EventType struct {
	Name string

	channels map[string]struct{}
	samples  []Sample
	state    State

	structures []*schema.EventStructure
	versions   []string
	encodings  []bool
	schemas    []*schema.AvroSchema
	timestamps []TimestampStyle

	consistent bool
	report     []string
	canonical  *schema.EventStructure
}

// New returns an empty EventType in the collecting state.
func New(name string) *EventType {
	return &EventType{Name: name, channels: map[string]struct{}{}}
}

// Add appends a sample. It fails once the type has been evaluated.
func (e *EventType) Add(s Sample) error {
	if e.state != Collecting {
		return fmt.Errorf("%w: %s", ErrSealed, e.Name)
	}
	if s.Structure == nil || s.Structure.Tree == nil {
		return fmt.Errorf("eventtype: %s: sample %q has no structure", e.Name, s.Label)
	}
	if s.Channel != "" {
		e.channels[s.Channel] = struct{}{}
	}
	e.samples = append(e.samples, s)
	return nil
}

// State returns the lifecycle state.
func (e *EventType) State() State { return e.state }

// Samples returns the collected samples in insertion order.
func (e *EventType) Samples() []Sample { return append([]Sample(nil), e.samples...) }

// Channels returns the sorted names of the channels this type was seen on.
func (e *EventType) Channels() []string {
	out := make([]string, 0, len(e.channels))
	for c := range e.channels {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Evaluate computes the evidence sets and classifies consistency. Calling
// it again is a no-op.
func (e *EventType) Evaluate() {
	if e.state != Collecting {
		return
	}
	e.state = Evaluated

	if len(e.samples) < 2 {
		e.Notef("Insufficient Samples: %d sample(s); consistency cannot be judged", len(e.samples))
	}

	byHash := map[uint64][]*schema.EventStructure{}
	seenVersion := map[string]bool{}
	seenEncoding := map[bool]bool{}
	seenTimestamp := map[TimestampStyle]bool{}

	for _, s := range e.samples {
		e.addStructure(byHash, s.Structure)

		if s.SchemaVersion != "" && !seenVersion[s.SchemaVersion] {
			seenVersion[s.SchemaVersion] = true
			e.versions = append(e.versions, s.SchemaVersion)
		}
		if !seenEncoding[s.Encoded] {
			seenEncoding[s.Encoded] = true
			e.encodings = append(e.encodings, s.Encoded)
		}
		if s.Schema != nil && !containsSchema(e.schemas, s.Schema) {
			e.schemas = append(e.schemas, s.Schema)
		}
		if s.Timestamp != TimestampNone && !seenTimestamp[s.Timestamp] {
			seenTimestamp[s.Timestamp] = true
			e.timestamps = append(e.timestamps, s.Timestamp)
		}
	}

	e.consistent = true
	if len(e.versions) > 1 {
		e.consistent = false
		vs := append([]string(nil), e.versions...)
		sort.Strings(vs)
		e.Notef("Mixed Schema Versions: %s", strings.Join(vs, ", "))
	}
	if len(e.encodings) > 1 {
		e.consistent = false
		e.Notef("Mixed Encodings: both avro-encoded and plain documents observed")
	}
	if len(e.schemas) > 1 {
		e.consistent = false
		fps := make([]string, 0, len(e.schemas))
		for _, s := range e.schemas {
			fps = append(fps, shortFingerprint(s.Fingerprint))
		}
		sort.Strings(fps)
		e.Notef("Mixed Avro Schemas: %s", strings.Join(fps, ", "))
	}
	if len(e.timestamps) > 1 {
		e.consistent = false
		ts := make([]string, 0, len(e.timestamps))
		for _, t := range e.timestamps {
			ts = append(ts, string(t))
		}
		sort.Strings(ts)
		e.Notef("Mixed Timestamp Representations: %s", strings.Join(ts, ", "))
	}
	if len(e.structures) > 1 {
		e.Notef("Multiple Structures: %d distinct structures across %d samples", len(e.structures), len(e.samples))
	}
}

func (e *EventType) addStructure(byHash map[uint64][]*schema.EventStructure, s *schema.EventStructure) {
	h := s.Tree.Hash()
	for _, seen := range byHash[h] {
		if seen.Tree.Equal(s.Tree) {
			return
		}
	}
	byHash[h] = append(byHash[h], s)
	e.structures = append(e.structures, s)
}

// IsConsistent reports the evaluation outcome. It is false before Evaluate.
// Structural drift alone never makes a type inconsistent; the merge
// reconciles it.
func (e *EventType) IsConsistent() bool {
	return e.state != Collecting && e.consistent
}

// Merge produces the canonical structure. It runs regardless of the
// consistency outcome but requires Evaluate and at least one sample.
func (e *EventType) Merge() (*schema.EventStructure, error) {
	switch {
	case e.state == Collecting:
		return nil, fmt.Errorf("%w: %s", ErrNotEvaluated, e.Name)
	case e.state == MergedState:
		return e.canonical, nil
	case len(e.samples) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, e.Name)
	}
	merged, err := schema.MergeStructures(e.Name, e.structures)
	if err != nil {
		return nil, fmt.Errorf("eventtype: merge %s: %w", e.Name, err)
	}
	e.canonical = merged
	e.state = MergedState
	return merged, nil
}

// Canonical returns the merged structure; it fails before Merge.
func (e *EventType) Canonical() (*schema.EventStructure, error) {
	if e.state != MergedState {
		return nil, fmt.Errorf("%w: %s", ErrNotMerged, e.Name)
	}
	return e.canonical, nil
}

// Notef appends a human-readable report note.
func (e *EventType) Notef(format string, args ...any) {
	e.report = append(e.report, fmt.Sprintf(format, args...))
}

// Report returns the notes accumulated so far.
func (e *EventType) Report() []string { return append([]string(nil), e.report...) }

// Structures returns the distinct per-sample structures found by Evaluate.
func (e *EventType) Structures() []*schema.EventStructure {
	return append([]*schema.EventStructure(nil), e.structures...)
}

// SchemaVersions returns the distinct declared schema versions.
func (e *EventType) SchemaVersions() []string { return append([]string(nil), e.versions...) }

// Encodings returns the distinct avro-encoded flags.
func (e *EventType) Encodings() []bool { return append([]bool(nil), e.encodings...) }

// Schemas returns the distinct declared Avro schemas.
func (e *EventType) Schemas() []*schema.AvroSchema {
	return append([]*schema.AvroSchema(nil), e.schemas...)
}

// TimestampStyles returns the distinct timestamp representations.
func (e *EventType) TimestampStyles() []TimestampStyle {
	return append([]TimestampStyle(nil), e.timestamps...)
}

func containsSchema(list []*schema.AvroSchema, s *schema.AvroSchema) bool {
	for _, x := range list {
		if x.Equal(s) {
			return true
		}
	}
	return false
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
