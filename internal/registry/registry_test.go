package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"eventschema/internal/datasource/httpds"
	"eventschema/internal/schema"
)

const paymentSchema = `{"type":"record","name":"RegistryPayment","fields":[{"name":"amount","type":"long"}]}`

func TestDir_Lookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7.avsc"), []byte(paymentSchema), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Dir{Path: dir}.Lookup(context.Background(), 7)
	if err != nil {
		t.Fatalf("Lookup(7): %v", err)
	}
	if s.Name != "RegistryPayment" {
		t.Fatalf("name = %q", s.Name)
	}
	if _, err := (Dir{Path: dir}).Lookup(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup(8) error = %v, want ErrNotFound", err)
	}
}

func TestHTTP_Lookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schemas/ids/7":
			_ = json.NewEncoder(w).Encode(map[string]string{"schema": paymentSchema})
		case "/schemas/ids/9":
			_, _ = w.Write([]byte(`{"schema": ""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := HTTP{Client: httpds.NewClient(httpds.Config{}), BaseURL: srv.URL + "/"}

	s, err := h.Lookup(context.Background(), 7)
	if err != nil {
		t.Fatalf("Lookup(7): %v", err)
	}
	if s.Name != "RegistryPayment" || s.Fingerprint == "" {
		t.Fatalf("schema = %+v", s)
	}
	if _, err := h.Lookup(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup(8) error = %v, want ErrNotFound", err)
	}
	if _, err := h.Lookup(context.Background(), 9); err == nil {
		t.Fatalf("Lookup(9) accepted an empty schema")
	}
}

type countingLookup struct {
	calls int32
	fail  bool
}

func (c *countingLookup) Lookup(ctx context.Context, id int) (*schema.AvroSchema, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail {
		return nil, ErrNotFound
	}
	return schema.ParseAvroSchema(paymentSchema)
}

func TestMemo(t *testing.T) {
	t.Parallel()

	next := &countingLookup{}
	m := NewMemo(next)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Lookup(context.Background(), 1); err != nil {
				t.Errorf("Lookup: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := m.Lookup(context.Background(), 1); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	// Concurrent first lookups may or may not coalesce, but once cached no
	// further calls are made.
	before := atomic.LoadInt32(&next.calls)
	_, _ = m.Lookup(context.Background(), 1)
	if after := atomic.LoadInt32(&next.calls); after != before || m.Len() != 1 {
		t.Fatalf("calls %d -> %d, len %d", before, after, m.Len())
	}

	failing := NewMemo(&countingLookup{fail: true})
	for i := 0; i < 2; i++ {
		if _, err := failing.Lookup(context.Background(), 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup error = %v", err)
		}
	}
	if failing.Len() != 0 {
		t.Fatalf("failure was cached")
	}
}
