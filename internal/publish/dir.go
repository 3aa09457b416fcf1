package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eventschema/internal/dialect"
	"eventschema/internal/storage"
)

// ErrLocked is returned when another process holds the output directory.
var ErrLocked = errors.New("publish: output directory is locked by another run")

const (
	lockName     = ".schemagen.lock"
	manifestName = "MANIFEST"
)

// Dir writes each artifact to <Path>/<dialect>/<name>.sql and a MANIFEST
// of "<checksum>  <relative path>" lines for the run. The directory is held
// under an exclusive lock while writing.
type Dir struct {
	Path   string
	Logger *log.Logger
}

// ArtifactPath is the path of a within the tree rooted at root.
func ArtifactPath(root string, a dialect.Artifact) string {
	return filepath.Join(root, a.Dialect, a.Name+".sql")
}

func (d Dir) Publish(ctx context.Context, runID string, artifacts []dialect.Artifact) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("publish: mkdir %s: %w", d.Path, err)
	}
	unlock, err := lockDir(filepath.Join(d.Path, lockName))
	if err != nil {
		return err
	}
	defer unlock()

	logger := dialect.LoggerOrDefault(d.Logger)
	manifest := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := ArtifactPath(d.Path, a)
		if err := writeFileAtomic(p, []byte(a.Text+"\n")); err != nil {
			return err
		}
		rel, _ := filepath.Rel(d.Path, p)
		manifest = append(manifest, storage.Checksum(a.Text)+"  "+filepath.ToSlash(rel))
	}
	sort.Strings(manifest)

	body := fmt.Sprintf("# run %s\n%s\n", runID, strings.Join(manifest, "\n"))
	if err := writeFileAtomic(filepath.Join(d.Path, manifestName), []byte(body)); err != nil {
		return err
	}
	logger.Printf("publish: run %s: wrote %d artifacts to %s", runID, len(artifacts), d.Path)
	return nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("publish: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("publish: temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("publish: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("publish: close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("publish: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish: rename %s: %w", path, err)
	}
	return nil
}
