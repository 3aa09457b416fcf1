package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"eventschema/internal/ddl"
	"eventschema/internal/dialect"
)

// DefaultTable is the artifact table name used when none is configured.
const DefaultTable = "schemagen_artifacts"

// Record is one persisted artifact.
type Record struct {
	RunID     string
	EventType string
	Dialect   string
	Name      string
	Window    string
	Checksum  string
	Text      string
	CreatedAt time.Time
}

// Columns is the insert order used by Row.
var Columns = []string{"run_id", "event_type", "dialect", "name", "window_name", "checksum", "body", "created_at"}

// Row returns r aligned to Columns.
func (r Record) Row() []any {
	return []any{r.RunID, r.EventType, r.Dialect, r.Name, r.Window, r.Checksum, r.Text, r.CreatedAt.UTC()}
}

// Checksum is the hex xxh3 hash of text.
func Checksum(text string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(text))
}

// RecordsFor converts artifacts of one run into records.
func RecordsFor(runID string, at time.Time, artifacts []dialect.Artifact) []Record {
	out := make([]Record, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, Record{
			RunID:     runID,
			EventType: a.EventType,
			Dialect:   a.Dialect,
			Name:      a.Name,
			Window:    a.Window,
			Checksum:  Checksum(a.Text),
			Text:      a.Text,
			CreatedAt: at,
		})
	}
	return out
}

// ArtifactTable describes the artifact table with backend-specific text and
// timestamp types.
func ArtifactTable(fqn, textType, timeType string) ddl.TableDef {
	col := func(name, typ string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, SQLType: typ} }
	return ddl.TableDef{
		FQN: fqn,
		Columns: []ddl.ColumnDef{
			col("run_id", textType),
			col("event_type", textType),
			col("dialect", textType),
			col("name", textType),
			{Name: "window_name", SQLType: textType, Nullable: true},
			col("checksum", textType),
			col("body", textType),
			col("created_at", timeType),
		},
		IfNotExists: true,
		Quote:       true,
	}
}

// Drift compares a table's existing columns with the generated ones. Names
// are compared case-insensitively, as SQL Server does by default.
func Drift(existing, generated []string) (missing, extra []string) {
	have := map[string]bool{}
	for _, c := range existing {
		have[strings.ToLower(c)] = true
	}
	want := map[string]bool{}
	for _, c := range generated {
		want[strings.ToLower(c)] = true
		if !have[strings.ToLower(c)] {
			missing = append(missing, c)
		}
	}
	for _, c := range existing {
		if !want[strings.ToLower(c)] {
			extra = append(extra, c)
		}
	}
	return missing, extra
}
