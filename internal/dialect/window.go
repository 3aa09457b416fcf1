package dialect

import (
	"strings"
	"time"
)

// Window bounds a view to recent events by the epoch seconds embedded in
// the row key. A zero Span means unbounded.
type Window struct {
	Name   string
	Suffix string
	Span   time.Duration
}

var (
	All      = Window{Name: "all"}
	LastDay  = Window{Name: "last_day", Suffix: "_last_day", Span: 24 * time.Hour}
	LastWeek = Window{Name: "last_week", Suffix: "_last_week", Span: 7 * 24 * time.Hour}
)

// Windows lists the variants rendered for every view, in output order.
var Windows = []Window{All, LastDay, LastWeek}

// Bounded reports whether the window has a lower time bound.
func (w Window) Bounded() bool { return w.Span > 0 }

// Seconds is the window span in whole seconds.
func (w Window) Seconds() int64 { return int64(w.Span / time.Second) }

// ViewName is the normalized event type plus the window suffix.
func ViewName(eventType string, w Window) string {
	return NormalizeName(eventType) + w.Suffix
}

// RowKeyPrefix is the prefix shared by every row key of an event type. Row
// keys have the form <EVENT_TYPE>-<epoch-seconds>.
func RowKeyPrefix(eventType string) string { return eventType + "-" }

// RowKeyUpper is the quoted upper bound of a row-key range scan.
func RowKeyUpper(eventType string) string {
	return SQLString(RowKeyPrefix(eventType) + "9")
}

// RowKeyLowerAll is the quoted lower bound of the unbounded window.
func RowKeyLowerAll(eventType string) string {
	return SQLString(RowKeyPrefix(eventType) + "0")
}

// EpochOffset is the 1-based position of the first epoch digit in a row key,
// as taken by SQL SUBSTR.
func EpochOffset(eventType string) int {
	return len(RowKeyPrefix(eventType)) + 1
}

// SQLString quotes s as a single-quoted SQL literal.
func SQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
