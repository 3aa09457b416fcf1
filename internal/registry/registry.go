// Package registry resolves Avro schema ids to parsed schemas, either from
// a directory of <id>.avsc files or from a Confluent-compatible HTTP
// registry. Lookups are memoized per id.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"eventschema/internal/datasource/httpds"
	"eventschema/internal/schema"
)

// ErrNotFound is returned for unknown schema ids.
var ErrNotFound = errors.New("registry: schema not found")

// Lookup resolves one schema id.
type Lookup interface {
	Lookup(ctx context.Context, id int) (*schema.AvroSchema, error)
}

// Dir reads <Path>/<id>.avsc.
type Dir struct {
	Path string
}

func (d Dir) Lookup(ctx context.Context, id int) (*schema.AvroSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(d.Path, strconv.Itoa(id)+".avsc")
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d (%s)", ErrNotFound, id, p)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", p, err)
	}
	return schema.ParseAvroSchema(string(b))
}

// HTTP queries GET <BaseURL>/schemas/ids/<id>, which answers
// {"schema": "<schema json as string>"}.
type HTTP struct {
	Client  *httpds.Client
	BaseURL string
}

func (h HTTP) Lookup(ctx context.Context, id int) (*schema.AvroSchema, error) {
	url := strings.TrimRight(h.BaseURL, "/") + "/schemas/ids/" + strconv.Itoa(id)
	resp, err := h.Client.Get(ctx, url, http.Header{"Accept": {"application/vnd.schemaregistry.v1+json, application/json"}})
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry: GET %s: status %d", url, resp.StatusCode)
	}

	var body struct {
		Schema string `json:"schema"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("registry: decode %s: %w", url, err)
	}
	if body.Schema == "" {
		return nil, fmt.Errorf("registry: %s: empty schema", url)
	}
	return schema.ParseAvroSchema(body.Schema)
}

// Memo caches successful lookups of an underlying Lookup. Concurrent
// lookups of the same id share one call. Failures are not cached.
type Memo struct {
	next Lookup

	mu    sync.RWMutex
	byID  map[int]*schema.AvroSchema
	group singleflight.Group
}

// NewMemo wraps next.
func NewMemo(next Lookup) *Memo {
	return &Memo{next: next, byID: map[int]*schema.AvroSchema{}}
}

func (m *Memo) Lookup(ctx context.Context, id int) (*schema.AvroSchema, error) {
	m.mu.RLock()
	s, ok := m.byID[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := m.group.Do(strconv.Itoa(id), func() (any, error) {
		s, err := m.next.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.byID[id] = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.AvroSchema), nil
}

// Len is the number of cached schemas.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
