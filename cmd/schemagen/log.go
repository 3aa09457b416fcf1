package main

import (
	"bytes"
	"io"
)

// quietWriter passes through only log lines worth seeing without
// --verbose. log.Logger issues one Write per message.
type quietWriter struct {
	w io.Writer
}

var keepMarkers = [][]byte{[]byte("warning:"), []byte("failed"), []byte("summary:"), []byte("error")}

func (q *quietWriter) Write(p []byte) (int, error) {
	for _, m := range keepMarkers {
		if bytes.Contains(p, m) {
			return q.w.Write(p)
		}
	}
	return len(p), nil
}
