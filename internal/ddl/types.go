package ddl

// ColumnDef describes a single column.
//
// Fields:
//   - Name: column name, unquoted; renderers quote it
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, NVARCHAR(255))
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the dotted table name (e.g., "dbo.orders") and an ordered
// list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef

	// IfNotExists adds "IF NOT EXISTS" in BuildCreateTableSQL.
	IfNotExists bool
	// Quote double-quotes identifiers in BuildCreateTableSQL.
	Quote bool
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
