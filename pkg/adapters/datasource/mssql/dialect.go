package mssql

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

// Dialect implements datasource.Dialect for SQL Server.
type Dialect struct{}

func (Dialect) Name() string          { return "mssql" }
func (Dialect) DefaultPort() int      { return DefaultPort() }
func (Dialect) DefaultSchema() string { return "dbo" }

// Placeholder returns @pn, the go-mssqldb positional form.
func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// QuoteIdentifier brackets name the way QUOTENAME does, escaping ] as ]].
func (Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// QualifiedTable returns [schema].[table], or just [table] for an empty schema.
func (d Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return fmt.Sprintf("%s.%s", d.QuoteIdentifier(schema), d.QuoteIdentifier(table))
}

// InsertReturning builds INSERT ... OUTPUT INSERTED.[pk] VALUES (@p1, ...).
func (d Dialect) InsertReturning(schema, table string, columns []string, primaryKey string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QualifiedTable(schema, table))

	output := " OUTPUT INSERTED." + d.QuoteIdentifier(primaryKey)

	if len(columns) == 0 {
		b.WriteString(output)
		b.WriteString(" DEFAULT VALUES")
		return b.String()
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdentifier(col)
		placeholders[i] = d.Placeholder(i + 1)
	}
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(")")
	b.WriteString(output)
	b.WriteString(" VALUES (")
	b.WriteString(strings.Join(placeholders, ", "))
	b.WriteString(")")
	return b.String()
}

func (Dialect) ColumnsQuery() string {
	return `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END AS is_nullable,
			c.ORDINAL_POSITION,
			c.COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`
}

func (Dialect) TablesQuery() string {
	return `
		SELECT t.TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES t
		WHERE t.TABLE_SCHEMA = @p1
		  AND t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY t.TABLE_NAME
	`
}

// Ensure Dialect implements datasource.Dialect at compile time.
var _ datasource.Dialect = Dialect{}
