// Package config defines the run configuration for schemagen. A run file is
// JSON or YAML; both decode into Run through the same field names.
//
// Example (YAML):
//
//	job: nightly
//	source:   { kind: dir, path: ./samples, workers: 4 }
//	registry: { kind: http, url: http://registry:8081 }
//	drill:    { database: dfs.views, store: "hbase.`events`" }
//	spark:    { database: events, source: events_raw }
//	etljob:   { schema: dbo, table_prefix: evt_ }
//	output:   { dir: ./out }
//	store:    { kind: sqlite, dsn: schemagen.db }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job labels metrics and identifies runs.
	Job string `json:"job" yaml:"job"`

	Source   Source   `json:"source" yaml:"source"`
	Registry Registry `json:"registry" yaml:"registry"`
	Drill    Drill    `json:"drill" yaml:"drill"`
	Spark    Spark    `json:"spark" yaml:"spark"`
	ETLJob   ETLJob   `json:"etljob" yaml:"etljob"`
	Output   Output   `json:"output" yaml:"output"`
	Store    Store    `json:"store" yaml:"store"`
	Catalog  Catalog  `json:"catalog" yaml:"catalog"`
	Metrics  Metrics  `json:"metrics" yaml:"metrics"`
}

// Source locates the sample channels.
type Source struct {
	// Kind is "dir" (one channel per *.jsonl file) or "list" (a file of
	// URLs and paths, one channel each).
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
	// Pattern filters files for the dir kind.
	Pattern string `json:"pattern" yaml:"pattern"`
	// Workers bounds concurrent channel reads.
	Workers int `json:"workers" yaml:"workers"`
	// SampleBytes caps the bytes fetched from an HTTP channel.
	SampleBytes int `json:"sample_bytes" yaml:"sample_bytes"`
	// MaxSamples caps the samples kept per channel; 0 keeps all.
	MaxSamples int `json:"max_samples" yaml:"max_samples"`
	// TimestampField names the payload field classified for timestamp
	// representation.
	TimestampField string `json:"timestamp_field" yaml:"timestamp_field"`
	HTTP           HTTP   `json:"http" yaml:"http"`
}

// HTTP configures fetches of HTTP channels and the HTTP registry.
type HTTP struct {
	Timeout            Duration          `json:"timeout" yaml:"timeout"`
	MaxRetries         int               `json:"max_retries" yaml:"max_retries"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Headers            map[string]string `json:"headers" yaml:"headers"`
}

// Registry resolves Avro schema ids.
type Registry struct {
	// Kind is "dir", "http" or empty (JSON-only samples).
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
	URL  string `json:"url" yaml:"url"`
}

// Drill configures the flattened-view generator.
type Drill struct {
	Enabled   *bool  `json:"enabled" yaml:"enabled"`
	Database  string `json:"database" yaml:"database"`
	Store     string `json:"store" yaml:"store"`
	Family    string `json:"family" yaml:"family"`
	Qualifier string `json:"qualifier" yaml:"qualifier"`
}

// Spark configures the nested-type view generator.
type Spark struct {
	Enabled       *bool  `json:"enabled" yaml:"enabled"`
	Database      string `json:"database" yaml:"database"`
	Source        string `json:"source" yaml:"source"`
	ExplodeArrays bool   `json:"explode_arrays" yaml:"explode_arrays"`
}

// ETLJob configures the ETL descriptor generator.
type ETLJob struct {
	Enabled     *bool  `json:"enabled" yaml:"enabled"`
	Schema      string `json:"schema" yaml:"schema"`
	TablePrefix string `json:"table_prefix" yaml:"table_prefix"`
	JobPrefix   string `json:"job_prefix" yaml:"job_prefix"`
	Step        int    `json:"step" yaml:"step"`
	ParamTable  string `json:"param_table" yaml:"param_table"`
	// TemplatePath points at a file holding the descriptor template.
	TemplatePath string `json:"template_path" yaml:"template_path"`
	FallbackType string `json:"fallback_type" yaml:"fallback_type"`
	ArrayType    string `json:"array_type" yaml:"array_type"`
}

// Output selects the directory artifacts are written to. Empty disables
// the directory publisher.
type Output struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Store persists artifacts in a database.
type Store struct {
	// Kind is "sqlite", "postgres" or empty (disabled).
	Kind      string `json:"kind" yaml:"kind"`
	DSN       string `json:"dsn" yaml:"dsn"`
	Table     string `json:"table" yaml:"table"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
}

// Catalog reads existing SQL Server target tables for drift notes.
type Catalog struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	// Backend is "prometheus", "datadog" or empty (disabled).
	Backend string `json:"backend" yaml:"backend"`
	// PushgatewayURL is used by the prometheus backend.
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	// Addr is the DogStatsD address used by the datadog backend.
	Addr      string   `json:"addr" yaml:"addr"`
	Namespace string   `json:"namespace" yaml:"namespace"`
	Tags      []string `json:"tags" yaml:"tags"`
}

// Duration decodes "30s" style strings in both JSON and YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Enabled reports whether an optional toggle is on; nil means on.
func Enabled(b *bool) bool { return b == nil || *b }

// Load reads a run file. Files ending in .yaml or .yml decode as YAML,
// everything else as JSON. Unknown fields are rejected in both.
func Load(path string) (Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var r Run
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return Run{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return Run{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	return r, nil
}

// Defaults applied by ApplyDefaults.
const (
	DefaultJob         = "schemagen"
	DefaultPattern     = "*.jsonl"
	DefaultWorkers     = 4
	DefaultSampleBytes = 1 << 20
	DefaultTimestamp   = "timestamp"
	DefaultBatchSize   = 500
	DefaultHTTPTimeout = 30 * time.Second
	DefaultMaxRetries  = 3
)

// ApplyDefaults fills zero values. Generator settings that the generators
// default themselves are left alone.
func (r *Run) ApplyDefaults() {
	if r.Job == "" {
		r.Job = DefaultJob
	}
	if r.Source.Kind == "" {
		r.Source.Kind = "dir"
	}
	if r.Source.Pattern == "" {
		r.Source.Pattern = DefaultPattern
	}
	if r.Source.Workers == 0 {
		r.Source.Workers = DefaultWorkers
	}
	if r.Source.SampleBytes == 0 {
		r.Source.SampleBytes = DefaultSampleBytes
	}
	if r.Source.TimestampField == "" {
		r.Source.TimestampField = DefaultTimestamp
	}
	if r.Source.HTTP.Timeout == 0 {
		r.Source.HTTP.Timeout = Duration(DefaultHTTPTimeout)
	}
	if r.Source.HTTP.MaxRetries == 0 {
		r.Source.HTTP.MaxRetries = DefaultMaxRetries
	}
	if r.Drill.Database == "" {
		r.Drill.Database = "dfs.views"
	}
	if r.Drill.Store == "" {
		r.Drill.Store = "hbase.`events`"
	}
	if r.Drill.Family == "" {
		r.Drill.Family = "d"
	}
	if r.Drill.Qualifier == "" {
		r.Drill.Qualifier = "json"
	}
	if r.Spark.Database == "" {
		r.Spark.Database = "events"
	}
	if r.Spark.Source == "" {
		r.Spark.Source = "events_raw"
	}
	if r.Store.BatchSize == 0 {
		r.Store.BatchSize = DefaultBatchSize
	}
}
