// Package datasource defines where channel samples come from. A channel is
// one independent stream of newline-delimited sample envelopes; concrete
// sources live in the file and httpds subpackages.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one channel.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Channel names a Source. Names are used in provenance labels and reports.
type Channel struct {
	Name   string
	Source Source
}
