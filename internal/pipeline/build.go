package pipeline

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"eventschema/internal/collect"
	"eventschema/internal/config"
	"eventschema/internal/datasource"
	"eventschema/internal/datasource/file"
	"eventschema/internal/datasource/httpds"
	"eventschema/internal/decode"
	"eventschema/internal/dialect"
	"eventschema/internal/dialect/drill"
	"eventschema/internal/dialect/etljob"
	"eventschema/internal/dialect/spark"
	"eventschema/internal/publish"
	"eventschema/internal/registry"
	"eventschema/internal/schema"
	"eventschema/internal/storage"
	"eventschema/internal/storage/mssql"
)

// Function variables used as test seams.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	newCatalogFn = func(ctx context.Context, dsn string) (Catalog, func(), error) {
		c, closeFn, err := mssql.NewCatalog(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return c, closeFn, nil
	}

	readFileFn = os.ReadFile
)

// Options tune Build for callers that only need part of a run.
type Options struct {
	// SkipPublish leaves Runner.Publisher nil and opens no store.
	SkipPublish bool
	// SkipCatalog disables drift notes.
	SkipCatalog bool
}

// Build wires a Runner and its channels from a run configuration that has
// had defaults applied. The returned func releases store and catalog
// connections and is never nil.
func Build(ctx context.Context, cfg config.Run, opts Options, logger *log.Logger) (*Runner, []datasource.Channel, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Runner, []datasource.Channel, func(), error) {
		cleanup()
		return nil, nil, func() {}, err
	}

	client := httpds.NewClient(httpds.Config{
		Timeout:            cfg.Source.HTTP.Timeout.Std(),
		MaxRetries:         cfg.Source.HTTP.MaxRetries,
		InsecureSkipVerify: cfg.Source.HTTP.InsecureSkipVerify,
		Headers:            headerOf(cfg.Source.HTTP.Headers),
	})

	channels, err := Channels(cfg.Source, client)
	if err != nil {
		return fail(err)
	}

	dec := &decode.Decoder{TimestampField: cfg.Source.TimestampField}
	lookup, err := Registry(cfg.Registry, client)
	if err != nil {
		return fail(err)
	}
	if lookup != nil {
		dec.Registry = lookup
	}

	gens, etl, err := Generators(cfg, logger)
	if err != nil {
		return fail(err)
	}

	r := &Runner{
		Job: cfg.Job,
		Collector: &collect.Collector{
			Decoder:    dec,
			Workers:    cfg.Source.Workers,
			MaxSamples: cfg.Source.MaxSamples,
			Logger:     logger,
		},
		Generators: gens,
		ETLJob:     etl,
		Logger:     logger,
	}

	if !opts.SkipPublish {
		pubs, closeFn, err := publishers(ctx, cfg, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeFn)
		r.Publisher = pubs
	}

	if !opts.SkipCatalog && cfg.Catalog.DSN != "" && etl != nil {
		cat, closeFn, err := newCatalogFn(ctx, cfg.Catalog.DSN)
		if err != nil {
			return fail(fmt.Errorf("pipeline: catalog: %w", err))
		}
		closers = append(closers, closeFn)
		r.Catalog = cat
	}

	return r, channels, cleanup, nil
}

func headerOf(m map[string]string) http.Header {
	if len(m) == 0 {
		return nil
	}
	h := http.Header{}
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// Channels discovers the channels named by src.
func Channels(src config.Source, client *httpds.Client) ([]datasource.Channel, error) {
	switch src.Kind {
	case "dir", "":
		chans, err := file.Discover(src.Path, src.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pipeline: source: %w", err)
		}
		return chans, nil
	case "list":
		entries, err := file.ReadList(src.Path)
		if err != nil {
			return nil, fmt.Errorf("pipeline: source: %w", err)
		}
		return collect.FromList(entries, client, src.SampleBytes), nil
	default:
		return nil, fmt.Errorf("pipeline: unsupported source kind %q", src.Kind)
	}
}

// Registry returns the memoized schema lookup for reg, or nil when no
// registry is configured.
func Registry(reg config.Registry, client *httpds.Client) (*registry.Memo, error) {
	switch reg.Kind {
	case "":
		return nil, nil
	case "dir":
		return registry.NewMemo(registry.Dir{Path: reg.Path}), nil
	case "http":
		return registry.NewMemo(registry.HTTP{Client: client, BaseURL: reg.URL}), nil
	default:
		return nil, fmt.Errorf("pipeline: unsupported registry kind %q", reg.Kind)
	}
}

// Generators builds the enabled generators in drill, spark, etljob order.
// The ETL generator is also returned on its own for drift notes.
func Generators(cfg config.Run, logger *log.Logger) ([]dialect.Generator, *etljob.Generator, error) {
	resolver := schema.NewResolver()
	var gens []dialect.Generator

	if config.Enabled(cfg.Drill.Enabled) {
		gens = append(gens, drill.Generator{
			Database:  cfg.Drill.Database,
			Store:     cfg.Drill.Store,
			Family:    cfg.Drill.Family,
			Qualifier: cfg.Drill.Qualifier,
			Logger:    logger,
		})
	}
	if config.Enabled(cfg.Spark.Enabled) {
		gens = append(gens, spark.Generator{
			Database:      cfg.Spark.Database,
			Source:        cfg.Spark.Source,
			ExplodeArrays: cfg.Spark.ExplodeArrays,
			Resolver:      resolver,
			Logger:        logger,
		})
	}

	var etl *etljob.Generator
	if config.Enabled(cfg.ETLJob.Enabled) {
		var tmpl string
		if cfg.ETLJob.TemplatePath != "" {
			b, err := readFileFn(cfg.ETLJob.TemplatePath)
			if err != nil {
				return nil, nil, fmt.Errorf("pipeline: etljob template: %w", err)
			}
			tmpl = string(b)
		}
		etl = &etljob.Generator{
			Schema:       cfg.ETLJob.Schema,
			TablePrefix:  cfg.ETLJob.TablePrefix,
			JobPrefix:    cfg.ETLJob.JobPrefix,
			Step:         cfg.ETLJob.Step,
			ParamTable:   cfg.ETLJob.ParamTable,
			Template:     tmpl,
			FallbackType: cfg.ETLJob.FallbackType,
			ArrayType:    cfg.ETLJob.ArrayType,
			Resolver:     resolver,
			Logger:       logger,
		}
		gens = append(gens, *etl)
	}
	return gens, etl, nil
}

// publishers assembles the directory and store publishers. With neither
// configured, artifacts are logged.
func publishers(ctx context.Context, cfg config.Run, logger *log.Logger) (publish.Publisher, func(), error) {
	var fan publish.Fanout
	closeFn := func() {}

	if cfg.Output.Dir != "" {
		fan = append(fan, publish.Dir{Path: cfg.Output.Dir, Logger: logger})
	}
	if cfg.Store.Kind != "" {
		scfg := storage.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN, Table: cfg.Store.Table}
		repo, err := newRepositoryFn(ctx, scfg)
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline: store: %w", err)
		}
		if err := storage.EnsureArtifactTable(ctx, scfg, repo); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("pipeline: store: %w", err)
		}
		closeFn = func() { repo.Close() }
		fan = append(fan, publish.Store{Repo: repo, BatchSize: cfg.Store.BatchSize, Logger: logger})
	}
	if len(fan) == 0 {
		return publish.Log{Logger: logger}, closeFn, nil
	}
	return fan, closeFn, nil
}
