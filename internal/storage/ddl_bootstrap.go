package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the artifact table for one backend.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureArtifactTable runs the bootstrapper registered for cfg.Kind.
func EnsureArtifactTable(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", cfg.Kind)
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	return fn(ctx, repo, table)
}
