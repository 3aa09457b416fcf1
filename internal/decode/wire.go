package decode

import "encoding/binary"

const (
	wireMagic      = 0x00
	wireHeaderSize = 5
)

// SplitWireHeader strips a Confluent wire header from b. It reports false
// when b is too short or does not start with the magic byte.
func SplitWireHeader(b []byte) (id int, body []byte, ok bool) {
	if len(b) < wireHeaderSize || b[0] != wireMagic {
		return 0, b, false
	}
	return int(binary.BigEndian.Uint32(b[1:wireHeaderSize])), b[wireHeaderSize:], true
}

// WithWireHeader prefixes body with a wire header for id.
func WithWireHeader(id int, body []byte) []byte {
	out := make([]byte, wireHeaderSize, wireHeaderSize+len(body))
	out[0] = wireMagic
	binary.BigEndian.PutUint32(out[1:], uint32(id))
	return append(out, body...)
}
