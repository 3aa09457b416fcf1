package eventtype

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampStyle classifies how a sample represents its event time.
type TimestampStyle string

const (
	// TimestampNone means the sample carried no timestamp field. It is not
	// counted as a representation.
	TimestampNone    TimestampStyle = ""
	TimestampSeconds TimestampStyle = "epoch_seconds"
	TimestampMillis  TimestampStyle = "epoch_millis"
	TimestampMicros  TimestampStyle = "epoch_micros"
	TimestampISO8601 TimestampStyle = "iso8601"
	TimestampUnknown TimestampStyle = "unknown"
)

// Magnitude boundaries for epoch values. 1e11 seconds is year ~5138 and
// 1e14 milliseconds is year ~5138 again, so present-day values never straddle.
const (
	maxEpochSeconds = 1e11
	maxEpochMillis  = 1e14
)

// ClassifyTimestamp inspects a decoded timestamp value.
//
// Numbers (and numeric strings) are classified by magnitude; other strings
// are tried as RFC 3339. A nil value yields TimestampNone.
func ClassifyTimestamp(v any) TimestampStyle {
	switch val := v.(type) {
	case nil:
		return TimestampNone
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return TimestampUnknown
		}
		return classifyEpoch(f)
	case float64:
		return classifyEpoch(val)
	case float32:
		return classifyEpoch(float64(val))
	case int:
		return classifyEpoch(float64(val))
	case int32:
		return classifyEpoch(float64(val))
	case int64:
		return classifyEpoch(float64(val))
	case time.Time:
		return TimestampISO8601
	case string:
		s := strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return classifyEpoch(f)
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return TimestampISO8601
		}
		return TimestampUnknown
	case map[string]any:
		// Avro unions decoded into generic values arrive as {"long": 123}.
		if len(val) == 1 {
			for _, inner := range val {
				return ClassifyTimestamp(inner)
			}
		}
		return TimestampUnknown
	default:
		return TimestampUnknown
	}
}

func classifyEpoch(f float64) TimestampStyle {
	f = math.Abs(f)
	switch {
	case f < maxEpochSeconds:
		return TimestampSeconds
	case f < maxEpochMillis:
		return TimestampMillis
	default:
		return TimestampMicros
	}
}
