// Package etljob renders the flat ETL descriptor for an event type: a SQL
// Server target table with one column per leaf, plus the job-parameter
// rows that tell the loader which JSON path feeds which column.
//
// Structure is ignored. Only the leaf set matters, sorted by path, so the
// output is deterministic for a given tree.
package etljob

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"eventschema/internal/ddl"
	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

const (
	Dialect = "etljob"

	// DefaultFallbackType is used for leaves whose type cannot be resolved.
	DefaultFallbackType = "NVARCHAR(255)"
	// DefaultArrayType holds array leaves as JSON text.
	DefaultArrayType = "NVARCHAR(MAX)"

	DefaultSchema     = "dbo"
	DefaultParamTable = "etl.job_parameters"
	DefaultJobPrefix  = "load_"
)

// Parameter keys written per column.
const (
	KeyColumnName = "column_name"
	KeyJSONPath   = "json_path"
	KeyDataType   = "data_type"
)

// DefaultTemplate is used when Generator.Template is empty.
const DefaultTemplate = `-- ETL job ${JOB} for event type ${EVENT_TYPE}
-- target table ${TABLE}
${CREATE_TABLE}

DELETE FROM ${PARAM_TABLE} WHERE job = N'${JOB}';
${PARAMETERS}
`

var sqlServerTypes = map[schema.PrimitiveType]string{
	schema.Text:    "NVARCHAR(MAX)",
	schema.Int:     "INT",
	schema.BigInt:  "BIGINT",
	schema.Float:   "REAL",
	schema.Double:  "FLOAT",
	schema.Boolean: "BIT",
}

var plainPathStep = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Generator renders ETL descriptors.
type Generator struct {
	// Schema is the SQL Server schema for target tables.
	Schema string
	// TablePrefix is prepended to the normalized event type.
	TablePrefix string
	// JobPrefix is prepended to the normalized event type to name the job.
	JobPrefix string
	// Step is the job step the parameter rows belong to.
	Step int
	// ParamTable receives the (job, step, idx, key, value) rows.
	ParamTable string
	// Template receives the placeholder substitutions.
	Template string

	FallbackType string
	ArrayType    string

	Resolver *schema.Resolver
	Logger   *log.Logger
}

func (g Generator) Dialect() string { return Dialect }

// Column is one leaf mapped to the target table.
type Column struct {
	Name     string
	JSONPath string
	DataType string
}

// ParamRow is one job-parameter row.
type ParamRow struct {
	Job   string
	Step  int
	Index int
	Key   string
	Value string
}

// Descriptor is the structured form of the rendered text.
type Descriptor struct {
	EventType string
	Job       string
	Table     ddl.TableDef
	Columns   []Column
	Rows      []ParamRow
}

func (g Generator) withDefaults() Generator {
	if g.Schema == "" {
		g.Schema = DefaultSchema
	}
	if g.JobPrefix == "" {
		g.JobPrefix = DefaultJobPrefix
	}
	if g.Step == 0 {
		g.Step = 1
	}
	if g.ParamTable == "" {
		g.ParamTable = DefaultParamTable
	}
	if g.Template == "" {
		g.Template = DefaultTemplate
	}
	if g.FallbackType == "" {
		g.FallbackType = DefaultFallbackType
	}
	if g.ArrayType == "" {
		g.ArrayType = DefaultArrayType
	}
	g.Resolver = dialect.ResolverOrDefault(g.Resolver)
	return g
}

// TableName is the target table for an event type, schema-qualified.
func (g Generator) TableName(eventType string) string {
	g = g.withDefaults()
	return g.Schema + "." + g.TablePrefix + dialect.NormalizeName(eventType)
}

// Describe maps every leaf of tree to a column and parameter rows.
func (g Generator) Describe(eventType string, tree *schema.Tree) (*Descriptor, error) {
	g = g.withDefaults()

	leaves := tree.Leaves()
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", Dialect, eventType, dialect.ErrNoColumns)
	}

	d := &Descriptor{
		EventType: eventType,
		Job:       g.JobPrefix + dialect.NormalizeName(eventType),
		Table:     ddl.TableDef{FQN: g.TableName(eventType)},
	}
	aliases := &dialect.AliasSet{Dialect: Dialect, Logger: g.Logger}

	for i, leaf := range leaves {
		typ, err := g.dataType(leaf)
		if err != nil {
			return nil, err
		}
		col := Column{
			Name:     aliases.Claim(dialect.Alias(leaf.Path())),
			JSONPath: JSONPath(leaf.Path()),
			DataType: typ,
		}
		d.Columns = append(d.Columns, col)
		d.Table.Columns = append(d.Table.Columns, ddl.ColumnDef{Name: col.Name, SQLType: col.DataType, Nullable: true})

		idx := i + 1
		d.Rows = append(d.Rows,
			ParamRow{Job: d.Job, Step: g.Step, Index: idx, Key: KeyColumnName, Value: col.Name},
			ParamRow{Job: d.Job, Step: g.Step, Index: idx, Key: KeyJSONPath, Value: col.JSONPath},
			ParamRow{Job: d.Job, Step: g.Step, Index: idx, Key: KeyDataType, Value: col.DataType},
		)
	}
	return d, nil
}

func (g Generator) dataType(leaf *schema.Node) (string, error) {
	if leaf.IsArray {
		return g.ArrayType, nil
	}
	return dialect.LeafType(g.Resolver, leaf, sqlServerTypes, g.FallbackType, Dialect, g.Logger)
}

// Generate renders the descriptor into the template. ETL descriptors are
// window-independent, so one artifact is produced.
func (g Generator) Generate(eventType string, tree *schema.Tree) ([]dialect.Artifact, error) {
	g = g.withDefaults()
	d, err := g.Describe(eventType, tree)
	if err != nil {
		return nil, err
	}
	text, err := g.Render(d)
	if err != nil {
		return nil, err
	}
	return []dialect.Artifact{{
		EventType: eventType,
		Dialect:   Dialect,
		Name:      d.Job,
		Text:      text,
	}}, nil
}

// Render substitutes a descriptor into the template.
func (g Generator) Render(d *Descriptor) (string, error) {
	g = g.withDefaults()
	create, err := ddl.BuildSQLServerCreateTableSQL(d.Table)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", Dialect, d.EventType, err)
	}
	r := strings.NewReplacer(
		"${EVENT_TYPE}", d.EventType,
		"${TABLE}", ddl.QuoteFQN(d.Table.FQN),
		"${JOB}", strings.ReplaceAll(d.Job, "'", "''"),
		"${PARAM_TABLE}", ddl.QuoteFQN(g.ParamTable),
		"${CREATE_TABLE}", create,
		"${PARAMETERS}", g.insertRows(d.Rows),
	)
	return r.Replace(g.Template), nil
}

func (g Generator) insertRows(rows []ParamRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (job, step, idx, [key], value) VALUES", ddl.QuoteFQN(g.ParamTable))
	for i, r := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "\n  (%s, %d, %d, %s, %s)", nString(r.Job), r.Step, r.Index, nString(r.Key), nString(r.Value))
	}
	b.WriteByte(';')
	return b.String()
}

// JSONPath renders a SQL Server JSON path ($.a.b), quoting steps that are
// not plain identifiers.
func JSONPath(path []string) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, p := range path {
		b.WriteByte('.')
		if plainPathStep.MatchString(p) {
			b.WriteString(p)
			continue
		}
		b.WriteString(strconv.Quote(p))
	}
	return b.String()
}

func nString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}
