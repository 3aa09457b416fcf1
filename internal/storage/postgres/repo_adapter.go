package postgres

import (
	"context"
	"fmt"

	"eventschema/internal/ddl"
	"eventschema/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// CreateArtifactTable renders the artifact table DDL for Postgres.
func CreateArtifactTable(table string) (string, error) {
	return ddl.BuildCreateTableSQL(storage.ArtifactTable(table, "TEXT", "TIMESTAMPTZ"))
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, table string) error {
		stmt, err := CreateArtifactTable(table)
		if err != nil {
			return fmt.Errorf("postgres: artifact table: %w", err)
		}
		return repo.Exec(ctx, stmt)
	})
}
