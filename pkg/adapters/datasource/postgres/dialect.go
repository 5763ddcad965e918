package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

// Dialect implements datasource.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string          { return "postgres" }
func (Dialect) DefaultPort() int      { return DefaultPort() }
func (Dialect) DefaultSchema() string { return "public" }

// Placeholder returns $n.
func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuoteIdentifier quotes name with pgx.Identifier sanitization.
func (Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// QualifiedTable returns "schema"."table", or just "table" for an empty schema.
func (d Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

// InsertReturning builds INSERT ... VALUES ($1, ...) RETURNING "pk".
func (d Dialect) InsertReturning(schema, table string, columns []string, primaryKey string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QualifiedTable(schema, table))

	if len(columns) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = d.QuoteIdentifier(col)
			placeholders[i] = d.Placeholder(i + 1)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(") VALUES (")
		b.WriteString(strings.Join(placeholders, ", "))
		b.WriteString(")")
	}

	b.WriteString(" RETURNING ")
	b.WriteString(d.QuoteIdentifier(primaryKey))
	return b.String()
}

// ColumnsQuery casts information_schema domains to plain types so pgx decodes
// them as string and int32.
func (Dialect) ColumnsQuery() string {
	return `
		SELECT
			c.column_name::text,
			c.data_type::text,
			CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS is_nullable,
			c.ordinal_position::int,
			c.column_default::text
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
}

func (Dialect) TablesQuery() string {
	return `
		SELECT t.table_name::text
		FROM information_schema.tables t
		WHERE t.table_schema = $1
		  AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name
	`
}

// Ensure Dialect implements datasource.Dialect at compile time.
var _ datasource.Dialect = Dialect{}
