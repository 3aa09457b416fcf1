// Package mssql reads the SQL Server catalog. The ETL job generator targets
// SQL Server tables; listing a target's existing columns lets the pipeline
// report drift between the live table and the generated definition.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"eventschema/internal/ddl"
)

const columnsQuery = `SELECT COLUMN_NAME
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
ORDER BY ORDINAL_POSITION`

// Catalog lists table columns.
type Catalog struct {
	db *sql.DB
}

// NewCatalog validates dsn, connects and pings. The returned func closes
// the connection pool.
func NewCatalog(ctx context.Context, dsn string) (*Catalog, func(), error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Catalog{db: db}, close, nil
}

// Columns returns the columns of fqn in ordinal order. A table that does
// not exist yields no columns and no error. Unqualified names resolve in
// the dbo schema.
func (c *Catalog) Columns(ctx context.Context, fqn string) ([]string, error) {
	schemaName, table := ddl.SplitFQN(fqn)
	rows, err := c.db.QueryContext(ctx, columnsQuery,
		sql.Named("schema", schemaName),
		sql.Named("table", table),
	)
	if err != nil {
		return nil, fmt.Errorf("mssql: list columns of %s: %w", fqn, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mssql: scan column: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: list columns of %s: %w", fqn, err)
	}
	return out, nil
}
