package ddl

import (
	"fmt"
	"strings"
)

// BuildSQLServerCreateTableSQL renders an idempotent SQL Server CREATE TABLE:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col] TYPE [NOT NULL] [DEFAULT ...],
//	    ...
//	  );
//	END;
func BuildSQLServerCreateTableSQL(t TableDef) (string, error) {
	fqn, cols, err := renderColumns(t, "ddl sqlserver", QuoteIdent)
	if err != nil {
		return "", err
	}

	quoted := QuoteFQN(fqn)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(quoted, "'", "''"),
		quoted,
		strings.Join(cols, ",\n    "),
	), nil
}

// QuoteIdent bracket-quotes a SQL Server identifier, escaping "]" as "]]".
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN bracket-quotes every dot-separated part of fqn, dropping empty
// parts.
func QuoteFQN(fqn string) string {
	return quoteFQN(fqn, QuoteIdent)
}

// SplitFQN splits "schema.table" into its parts, defaulting the schema to
// "dbo" when absent.
func SplitFQN(fqn string) (schemaName, table string) {
	fqn = strings.TrimSpace(fqn)
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return strings.TrimSpace(fqn[:i]), strings.TrimSpace(fqn[i+1:])
	}
	return "dbo", fqn
}
