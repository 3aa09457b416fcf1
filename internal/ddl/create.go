// Package ddl defines a small model for CREATE TABLE statements and the
// renderers that turn it into SQL text.
//
// Two renderers exist:
//
//   - BuildCreateTableSQL emits a portable statement. Identifiers are
//     double-quoted only when TableDef.Quote is set, and IfNotExists adds the
//     guard supported by SQLite and PostgreSQL. The artifact stores use it
//     to bootstrap their tables.
//   - BuildSQLServerCreateTableSQL emits bracket-quoted identifiers wrapped in
//     an IF OBJECT_ID(...) IS NULL guard. The ETL job generator uses it for
//     the target table of each event type.
//
// ColumnDef.Default is emitted as raw SQL; callers own its correctness.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Each column is rendered as
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// and primary key columns are collected into a trailing PRIMARY KEY clause.
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn, cols, err := renderColumns(t, "ddl", t.quoter())
	if err != nil {
		return "", err
	}

	guard := ""
	if t.IfNotExists {
		guard = "IF NOT EXISTS "
	}
	if t.Quote {
		fqn = quoteFQN(fqn, quoteDouble)
	}

	return fmt.Sprintf(
		"CREATE TABLE %s%s (\n  %s\n);",
		guard,
		fqn,
		strings.Join(cols, ",\n  "),
	), nil
}

// renderColumns validates t and renders its column list with quote applied
// to every column name. It returns the trimmed FQN.
func renderColumns(t TableDef, component string, quote func(string) string) (string, []string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", nil, fmt.Errorf("%s: table FQN must not be empty", component)
	}
	if len(t.Columns) == 0 {
		return "", nil, fmt.Errorf("%s: at least one column is required", component)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))
	seen := make(map[string]struct{}, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", nil, fmt.Errorf("%s: column with empty name in table %s", component, fqn)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return "", nil, fmt.Errorf("%s: duplicate column %s in table %s", component, name, fqn)
		}
		seen[key] = struct{}{}

		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", nil, fmt.Errorf("%s: column %s missing SQLType", component, name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return fqn, cols, nil
}

func (t TableDef) quoter() func(string) string {
	if t.Quote {
		return quoteDouble
	}
	return func(s string) string { return s }
}

func quoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
