package httpds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
)

// Source is a channel served over HTTP. Only the first Limit bytes are
// fetched and cut back to the last complete line.
type Source struct {
	Client *Client
	URL    string
	Limit  int
}

// Open fetches the sample prefix.
func (s Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("httpds: source %s has no client", s.URL)
	}
	b, err := s.Client.FetchFirstBytes(ctx, s.URL, s.Limit)
	if err != nil {
		return nil, err
	}
	if len(b) == s.Limit {
		b = CutAtLastNewline(b)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ChannelName derives a stable, filesystem-safe channel name from a URL:
// the last path element without extension, or an xxh3 digest of the URL
// when no usable element exists.
func ChannelName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		base := path.Base(u.Path)
		base = strings.TrimSuffix(base, path.Ext(base))
		if clean := strings.Trim(nameCleaner.ReplaceAllString(base, "_"), "_"); clean != "" {
			return clean
		}
	}
	return fmt.Sprintf("%016x", xxh3.HashString(rawURL))
}
