// Package drill renders flattened-column views for Apache Drill over a keyed
// store (HBase/MapR-DB style) holding one JSON document per row.
//
// Every non-array branch is descended into; every leaf or array becomes one
// projected column whose alias is the underscore-joined path.
package drill

import (
	"fmt"
	"log"
	"strings"

	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

const Dialect = "drill"

// Generator renders Drill views.
type Generator struct {
	// Database is the workspace the views are created in, e.g. "dfs.views".
	Database string
	// Store is the keyed table scanned by the views, e.g. "hbase.`events`".
	Store string
	// Family and Qualifier locate the JSON payload cell.
	Family    string
	Qualifier string

	Logger *log.Logger
}

func (g Generator) Dialect() string { return Dialect }

// Columns returns the projection list, one entry per leaf or array node, in
// tree order.
func (g Generator) Columns(tree *schema.Tree) []string {
	aliases := &dialect.AliasSet{Dialect: Dialect, Logger: g.Logger}
	var cols []string
	var walk func(n *schema.Node)
	walk = func(n *schema.Node) {
		for _, c := range n.Children() {
			if c.HasChildren() && !c.IsArray {
				walk(c)
				continue
			}
			path := c.Path()
			cols = append(cols, fmt.Sprintf("%s as %s",
				dialect.FieldAccess("e.json", path),
				dialect.Backtick(aliases.Claim(dialect.Alias(path))),
			))
		}
	}
	walk(tree.Root)
	return cols
}

// Generate renders one view per window.
func (g Generator) Generate(eventType string, tree *schema.Tree) ([]dialect.Artifact, error) {
	cols := g.Columns(tree)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", Dialect, eventType, dialect.ErrNoColumns)
	}
	projection := strings.Join(cols, ", ")

	out := make([]dialect.Artifact, 0, len(dialect.Windows))
	for _, w := range dialect.Windows {
		name := dialect.ViewName(eventType, w)
		out = append(out, dialect.Artifact{
			EventType: eventType,
			Dialect:   Dialect,
			Name:      name,
			Window:    w.Name,
			Text:      g.view(eventType, name, w, projection),
		})
	}
	return out, nil
}

func (g Generator) view(eventType, name string, w dialect.Window, projection string) string {
	rowKey := "CONVERT_FROM(t.row_key, 'UTF8')"
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE VIEW %s.%s AS SELECT e.row_key, ", g.Database, dialect.Backtick(name))
	fmt.Fprintf(&b, "TO_TIMESTAMP(CAST(SUBSTR(e.row_key, %d) AS BIGINT)) AS `event_time`, ", dialect.EpochOffset(eventType))
	b.WriteString(projection)
	fmt.Fprintf(&b, " FROM (SELECT %s AS row_key, CONVERT_FROM(t.%s.%s, 'JSON') AS json FROM %s t",
		rowKey, g.Family, g.Qualifier, g.Store)
	fmt.Fprintf(&b, " WHERE %s BETWEEN %s AND %s) e;",
		rowKey, lowerBound(eventType, w), dialect.RowKeyUpper(eventType))
	return b.String()
}

// lowerBound is evaluated by Drill at query time.
func lowerBound(eventType string, w dialect.Window) string {
	if !w.Bounded() {
		return dialect.RowKeyLowerAll(eventType)
	}
	return fmt.Sprintf("CONCAT(%s, CAST(UNIX_TIMESTAMP() - %d AS VARCHAR))",
		dialect.SQLString(dialect.RowKeyPrefix(eventType)), w.Seconds())
}
