package sqlite

import (
	"context"
	"strings"
	"testing"

	"eventschema/internal/storage"
)

// TestStorageNew_UsesHook verifies storage.New routes "sqlite" through the
// newRepository hook and that Close invokes the cleanup func.
func TestStorageNew_UsesHook(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var gotCfg Config
	closed := false
	fakeRepo := &Repository{}
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "file:x.db"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.DSN != "file:x.db" || gotCfg.Table != storage.DefaultTable {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}

	repo.Close()
	if !closed {
		t.Fatalf("wrappedRepo.Close() did not invoke closeFn")
	}
}

func TestCreateArtifactTable(t *testing.T) {
	t.Parallel()

	got, err := CreateArtifactTable("artifacts")
	if err != nil {
		t.Fatalf("CreateArtifactTable: %v", err)
	}
	for _, want := range []string{`CREATE TABLE IF NOT EXISTS "artifacts"`, `"window_name" TEXT`, `"created_at" TIMESTAMP NOT NULL`} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q:\n%s", want, got)
		}
	}
}
