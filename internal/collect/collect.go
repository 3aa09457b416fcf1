// Package collect drains channels in parallel and groups the decoded
// samples by event type.
//
// An event type is handed out only after every channel has been drained, so
// each EventType holds a complete, closed sample set when it is evaluated.
package collect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"eventschema/internal/datasource"
	"eventschema/internal/datasource/file"
	"eventschema/internal/datasource/httpds"
	"eventschema/internal/decode"
	"eventschema/internal/eventtype"
)

const (
	DefaultWorkers      = 4
	DefaultMaxLineBytes = 4 << 20
)

// Collector drains channels.
type Collector struct {
	Decoder *decode.Decoder
	// Workers bounds the number of channels read concurrently.
	Workers int
	// MaxLineBytes bounds a single envelope line.
	MaxLineBytes int
	// MaxSamples caps the samples kept per channel; 0 means no cap.
	MaxSamples int

	Logger *log.Logger
}

// Batch is the result of draining a set of channels.
type Batch struct {
	types map[string]*eventtype.EventType

	Channels int
	Lines    int
	Skipped  int
	// Failed maps channel names to the error that stopped them.
	Failed map[string]error
}

// Names returns the event type names in sorted order.
func (b *Batch) Names() []string {
	out := make([]string, 0, len(b.types))
	for n := range b.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// EventType returns the named type.
func (b *Batch) EventType(name string) (*eventtype.EventType, bool) {
	et, ok := b.types[name]
	return et, ok
}

type channelResult struct {
	samples []eventtype.Sample
	types   []string
	lines   int
	skipped int
	err     error
}

// Collect drains channels. Per-channel failures are recorded in the batch
// and the failed channel contributes no samples; only context cancellation
// fails the whole collection.
func (c *Collector) Collect(ctx context.Context, channels []datasource.Channel) (*Batch, error) {
	logger := c.logger()
	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]channelResult, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = c.drain(gctx, ch)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	b := &Batch{
		types:    map[string]*eventtype.EventType{},
		Channels: len(channels),
		Failed:   map[string]error{},
	}
	for i, r := range results {
		name := channels[i].Name
		b.Lines += r.lines
		b.Skipped += r.skipped
		if r.err != nil {
			logger.Printf("collect: channel %s failed: %v (discarding %d samples)", name, r.err, len(r.samples))
			b.Failed[name] = r.err
			continue
		}
		for j, s := range r.samples {
			et, ok := b.types[r.types[j]]
			if !ok {
				et = eventtype.New(r.types[j])
				b.types[r.types[j]] = et
			}
			if err := et.Add(s); err != nil {
				return nil, fmt.Errorf("collect: %w", err)
			}
		}
	}
	logger.Printf("collect: %d channels, %d lines, %d skipped, %d event types", b.Channels, b.Lines, b.Skipped, len(b.types))
	return b, nil
}

func (c *Collector) drain(ctx context.Context, ch datasource.Channel) channelResult {
	var r channelResult
	logger := c.logger()

	rc, err := ch.Source.Open(ctx)
	if err != nil {
		r.err = err
		return r
	}
	defer rc.Close()

	maxLine := c.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			r.err = err
			return r
		}
		r.lines++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if c.MaxSamples > 0 && len(r.samples) >= c.MaxSamples {
			continue
		}

		rec, err := c.Decoder.DecodeLine(ctx, ch.Name, r.lines, line)
		if err != nil {
			r.skipped++
			logger.Printf("collect: skip: %v", err)
			continue
		}
		s, err := c.Decoder.Sample(rec)
		if err != nil {
			r.skipped++
			logger.Printf("collect: skip: %v", err)
			continue
		}
		r.samples = append(r.samples, s)
		r.types = append(r.types, rec.EventType)
	}
	if err := sc.Err(); err != nil {
		r.err = fmt.Errorf("read %s: %w", ch.Name, err)
	}
	return r
}

func (c *Collector) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// FromList builds channels from list entries. http(s) entries are fetched
// through client with at most limit bytes; anything else is a local path.
func FromList(entries []string, client *httpds.Client, limit int) []datasource.Channel {
	out := make([]datasource.Channel, 0, len(entries))
	seen := map[string]int{}
	for _, e := range entries {
		var ch datasource.Channel
		if strings.HasPrefix(e, "http://") || strings.HasPrefix(e, "https://") {
			ch = datasource.Channel{Name: httpds.ChannelName(e), Source: httpds.Source{Client: client, URL: e, Limit: limit}}
		} else {
			ch = datasource.Channel{Name: file.ChannelName(e), Source: file.NewLocal(e)}
		}
		seen[ch.Name]++
		if n := seen[ch.Name]; n > 1 {
			ch.Name = fmt.Sprintf("%s_%d", ch.Name, n)
		}
		out = append(out, ch)
	}
	return out
}
