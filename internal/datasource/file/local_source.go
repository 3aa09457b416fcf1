// Package file reads channels and channel lists from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eventschema/internal/datasource"
)

// Local is a channel backed by one file.
type Local struct{ path string }

// NewLocal returns a Local for path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns the file. A context that is already done short-circuits
// before touching the filesystem.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ChannelName is the file's base name without extension.
func ChannelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Discover returns one channel per file in dir matching pattern (e.g.
// "*.jsonl"), sorted by name.
func Discover(dir, pattern string) ([]datasource.Channel, error) {
	if pattern == "" {
		pattern = "*.jsonl"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	sort.Strings(matches)

	out := make([]datasource.Channel, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		out = append(out, datasource.Channel{Name: ChannelName(m), Source: NewLocal(m)})
	}
	return out, nil
}
