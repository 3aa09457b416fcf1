package eventtype

import (
	"encoding/json"
	"testing"
)

func TestClassifyTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want TimestampStyle
	}{
		{name: "absent", in: nil, want: TimestampNone},
		{name: "seconds number", in: json.Number("1700000000"), want: TimestampSeconds},
		{name: "millis number", in: json.Number("1700000000123"), want: TimestampMillis},
		{name: "micros number", in: json.Number("1700000000123456"), want: TimestampMicros},
		{name: "seconds float", in: 1700000000.5, want: TimestampSeconds},
		{name: "millis int64", in: int64(1700000000123), want: TimestampMillis},
		{name: "numeric string", in: "1700000000", want: TimestampSeconds},
		{name: "rfc3339", in: "2024-03-01T12:00:00Z", want: TimestampISO8601},
		{name: "rfc3339 fractional", in: "2024-03-01T12:00:00.123+02:00", want: TimestampISO8601},
		{name: "garbage", in: "yesterday", want: TimestampUnknown},
		{name: "avro union wrapper", in: map[string]any{"long": int64(1700000000123)}, want: TimestampMillis},
		{name: "bool", in: true, want: TimestampUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyTimestamp(tt.in); got != tt.want {
				t.Fatalf("ClassifyTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
