package collect

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"eventschema/internal/datasource"
	"eventschema/internal/datasource/file"
	"eventschema/internal/decode"
)

type stringSource string

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

type failingSource struct{}

func (failingSource) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.New("connection refused")
}

func quietCollector() *Collector {
	return &Collector{Decoder: &decode.Decoder{}, Workers: 2, Logger: log.New(io.Discard, "", 0)}
}

func TestCollect_GroupsByEventType(t *testing.T) {
	t.Parallel()

	channels := []datasource.Channel{
		{Name: "eu", Source: stringSource(
			`{"event_type":"order.created","schema_version":"v1","payload":{"a":1}}` + "\n" +
				`{"event_type":"user.signup","payload":{"u":"x"}}` + "\n" +
				"\n" +
				`not json` + "\n",
		)},
		{Name: "us", Source: stringSource(
			`{"event_type":"order.created","schema_version":"v1","payload":{"a":{"b":2}}}` + "\n",
		)},
		{Name: "down", Source: failingSource{}},
	}

	b, err := quietCollector().Collect(context.Background(), channels)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if want := []string{"order.created", "user.signup"}; !reflect.DeepEqual(b.Names(), want) {
		t.Fatalf("Names = %v, want %v", b.Names(), want)
	}
	orders, _ := b.EventType("order.created")
	if got := len(orders.Samples()); got != 2 {
		t.Fatalf("order samples = %d, want 2", got)
	}
	if want := []string{"eu", "us"}; !reflect.DeepEqual(orders.Channels(), want) {
		t.Fatalf("order channels = %v, want %v", orders.Channels(), want)
	}
	if b.Lines != 5 || b.Skipped != 1 {
		t.Fatalf("lines/skipped = %d/%d, want 5/1", b.Lines, b.Skipped)
	}
	if _, ok := b.Failed["down"]; !ok || len(b.Failed) != 1 {
		t.Fatalf("Failed = %v", b.Failed)
	}
}

// A channel that fails partway contributes none of the samples it read.
func TestCollect_DiscardsFailedChannelSamples(t *testing.T) {
	t.Parallel()

	line := `{"event_type":"e","payload":{"a":1}}` + "\n"
	c := quietCollector()
	c.MaxLineBytes = 128

	b, err := c.Collect(context.Background(), []datasource.Channel{
		{Name: "ok", Source: stringSource(line)},
		{Name: "long", Source: stringSource(
			`{"event_type":"e","payload":{"b":1}}` + "\n" +
				`{"event_type":"other","payload":{"x":"` + strings.Repeat("x", 256) + `"}}` + "\n",
		)},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if _, ok := b.Failed["long"]; !ok {
		t.Fatalf("Failed = %v, want long", b.Failed)
	}
	if want := []string{"e"}; !reflect.DeepEqual(b.Names(), want) {
		t.Fatalf("Names = %v, want %v", b.Names(), want)
	}
	et, _ := b.EventType("e")
	if got, want := et.Channels(), []string{"ok"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("channels = %v, want %v", got, want)
	}
	if got := len(et.Samples()); got != 1 {
		t.Fatalf("samples = %d, want 1", got)
	}
}

func TestCollect_MaxSamples(t *testing.T) {
	t.Parallel()

	line := `{"event_type":"e","payload":{"a":1}}` + "\n"
	c := quietCollector()
	c.MaxSamples = 2

	b, err := c.Collect(context.Background(), []datasource.Channel{{Name: "c", Source: stringSource(strings.Repeat(line, 5))}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	et, _ := b.EventType("e")
	if got := len(et.Samples()); got != 2 {
		t.Fatalf("samples = %d, want 2", got)
	}
}

func TestCollect_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietCollector().Collect(ctx, []datasource.Channel{{Name: "c", Source: stringSource("{}\n")}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Collect error = %v, want context.Canceled", err)
	}
}

func TestCollect_FromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "orders.jsonl"),
		[]byte(`{"event_type":"order.created","payload":{"id":1}}`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	channels, err := file.Discover(dir, "*.jsonl")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	b, err := quietCollector().Collect(context.Background(), channels)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := b.Names(); len(got) != 1 || got[0] != "order.created" {
		t.Fatalf("Names = %v", got)
	}
}

func TestFromList(t *testing.T) {
	t.Parallel()

	chans := FromList([]string{
		"https://samples.example.com/orders.jsonl",
		"/data/orders.jsonl",
		"/data/payments.jsonl",
	}, nil, 1024)

	var names []string
	for _, c := range chans {
		names = append(names, c.Name)
	}
	if want := []string{"orders", "orders_2", "payments"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if _, ok := chans[0].Source.(interface{ Open(context.Context) (io.ReadCloser, error) }); !ok {
		t.Fatalf("source %T is not a datasource", chans[0].Source)
	}
	if _, ok := chans[1].Source.(*file.Local); !ok {
		t.Fatalf("local entry source = %T", chans[1].Source)
	}
}
