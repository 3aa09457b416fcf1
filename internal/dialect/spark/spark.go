// Package spark renders views for Spark SQL that parse the JSON payload
// into a typed struct with from_json and project out of it.
//
// The complex type string is derived from the tree: branches become
// struct<...>, array nodes are wrapped in array<...>, and leaves take the
// resolved primitive type or "string" when no evidence exists.
package spark

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

const (
	Dialect = "spark"

	// FallbackType is used for leaves whose type cannot be resolved.
	FallbackType = "string"
)

var primitiveTypes = map[schema.PrimitiveType]string{
	schema.Text:    "string",
	schema.Int:     "int",
	schema.BigInt:  "bigint",
	schema.Float:   "float",
	schema.Double:  "double",
	schema.Boolean: "boolean",
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Generator renders Spark SQL views.
type Generator struct {
	// Database qualifies view names, e.g. "events".
	Database string
	// Source is the table holding (row_key, json) rows.
	Source string
	// ExplodeArrays switches the projection to one LATERAL VIEW OUTER
	// posexplode per array, yielding a row per element.
	ExplodeArrays bool

	Resolver *schema.Resolver
	Logger   *log.Logger
}

func (g Generator) Dialect() string { return Dialect }

// TypeString renders the struct type of the tree's root.
func (g Generator) TypeString(tree *schema.Tree) (string, error) {
	if !tree.Root.HasChildren() {
		return "", fmt.Errorf("%s: %s: %w", Dialect, tree.Name(), dialect.ErrNoColumns)
	}
	return g.structType(tree.Root)
}

func (g Generator) structType(n *schema.Node) (string, error) {
	children := n.Children()
	fields := make([]string, 0, len(children))
	for _, c := range children {
		t, err := g.nodeType(c)
		if err != nil {
			return "", err
		}
		fields = append(fields, fieldName(c.Name)+":"+t)
	}
	return "struct<" + strings.Join(fields, ",") + ">", nil
}

func (g Generator) nodeType(n *schema.Node) (string, error) {
	r := dialect.ResolverOrDefault(g.Resolver)
	switch {
	case n.HasChildren():
		st, err := g.structType(n)
		if err != nil {
			return "", err
		}
		if n.IsArray {
			return "array<" + st + ">", nil
		}
		return st, nil
	case n.IsArray:
		item, err := dialect.ItemType(r, n, primitiveTypes, FallbackType, Dialect, g.Logger)
		if err != nil {
			return "", err
		}
		return "array<" + item + ">", nil
	default:
		return dialect.LeafType(r, n, primitiveTypes, FallbackType, Dialect, g.Logger)
	}
}

func fieldName(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return dialect.Backtick(name)
}

// Projection returns the flattened column list against the typed struct
// and, when ExplodeArrays is set, the lateral view clauses it needs.
func (g Generator) Projection(tree *schema.Tree) (cols, laterals []string) {
	if g.ExplodeArrays {
		return g.explodedProjection(tree)
	}
	aliases := &dialect.AliasSet{Dialect: Dialect, Logger: g.Logger}
	var walk func(n *schema.Node)
	walk = func(n *schema.Node) {
		for _, c := range n.Children() {
			if c.HasChildren() && !c.IsArray {
				walk(c)
				continue
			}
			path := c.Path()
			cols = append(cols, fmt.Sprintf("%s AS %s",
				dialect.FieldAccess("e.typed", path),
				dialect.Backtick(aliases.Claim(dialect.Alias(path))),
			))
		}
	}
	walk(tree.Root)
	return cols, nil
}

// Generate renders one view per window.
func (g Generator) Generate(eventType string, tree *schema.Tree) ([]dialect.Artifact, error) {
	typ, err := g.TypeString(tree)
	if err != nil {
		return nil, err
	}
	cols, laterals := g.Projection(tree)

	out := make([]dialect.Artifact, 0, len(dialect.Windows))
	for _, w := range dialect.Windows {
		name := dialect.ViewName(eventType, w)
		out = append(out, dialect.Artifact{
			EventType: eventType,
			Dialect:   Dialect,
			Name:      name,
			Window:    w.Name,
			Text:      g.view(eventType, name, w, typ, cols, laterals),
		})
	}
	return out, nil
}

func (g Generator) view(eventType, name string, w dialect.Window, typ string, cols, laterals []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE VIEW %s.%s AS SELECT e.row_key, ", g.Database, name)
	fmt.Fprintf(&b, "from_unixtime(CAST(substr(e.row_key, %d) AS BIGINT)) AS event_time, ", dialect.EpochOffset(eventType))
	b.WriteString(strings.Join(cols, ", "))
	fmt.Fprintf(&b, " FROM (SELECT row_key, from_json(json, %s) AS typed FROM %s", sparkString(typ), g.Source)
	fmt.Fprintf(&b, " WHERE row_key BETWEEN %s AND %s) e", lowerBound(eventType, w), dialect.RowKeyUpper(eventType))
	for _, l := range laterals {
		b.WriteByte(' ')
		b.WriteString(l)
	}
	b.WriteByte(';')
	return b.String()
}

func lowerBound(eventType string, w dialect.Window) string {
	if !w.Bounded() {
		return dialect.RowKeyLowerAll(eventType)
	}
	return fmt.Sprintf("concat(%s, CAST(unix_timestamp() - %d AS STRING))",
		dialect.SQLString(dialect.RowKeyPrefix(eventType)), w.Seconds())
}

// sparkString quotes s as a Spark SQL string literal, which escapes with
// backslashes.
func sparkString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
