package testhelpers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

// Operations that can be made to fail with MemoryDriver.Fail.
const (
	OpColumns = "columns"
	OpTables  = "tables"
	OpSelect  = "select"
	OpInsert  = "insert"
	OpBegin   = "begin"
	OpCommit  = "commit"
	OpPing    = "ping"
)

const (
	memoryColumnsQuery = "SELECT column_name, data_type, is_nullable, ordinal_position, column_default FROM memory.columns WHERE table_schema = $1 AND table_name = $2"
	memoryTablesQuery  = "SELECT table_name FROM memory.tables WHERE table_schema = $1"
)

var (
	selectPattern = regexp.MustCompile(`^SELECT \* FROM "([^"]+)"\."([^"]+)"(?: WHERE "([^"]+)" = \$1)?$`)
	insertPattern = regexp.MustCompile(`^INSERT INTO "([^"]+)"\."([^"]+)" (?:\(([^)]*)\) VALUES \([^)]*\)|DEFAULT VALUES) RETURNING "([^"]+)"$`)
)

// MemoryDialect is a postgres-flavoured dialect understood by MemoryDriver.
type MemoryDialect struct{}

func (MemoryDialect) Name() string             { return "memory" }
func (MemoryDialect) DefaultPort() int         { return 0 }
func (MemoryDialect) DefaultSchema() string    { return "public" }
func (MemoryDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (MemoryDialect) ColumnsQuery() string     { return memoryColumnsQuery }
func (MemoryDialect) TablesQuery() string      { return memoryTablesQuery }

func (MemoryDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d MemoryDialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func (d MemoryDialect) InsertReturning(schema, table string, columns []string, primaryKey string) string {
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
		fmt.Fprintf(&b, " (%s) VALUES (%s)", strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	}
	b.WriteString(" RETURNING ")
	b.WriteString(d.QuoteIdentifier(primaryKey))
	return b.String()
}

// MemoryDriver is an in-process datasource.Driver for unit tests. It
// understands the catalog queries of MemoryDialect plus the SELECT and INSERT
// forms the record package emits. Inserts inside a transaction become visible
// on commit.
type MemoryDriver struct {
	mu         sync.Mutex
	tables     map[string]*memoryTable
	failures   map[string]error
	statements []string
	commits    int
	rollbacks  int
	closed     bool
}

type memoryTable struct {
	columns    []datasource.ColumnMetadata
	primaryKey string
	auto       int64
	rows       []map[string]any
}

// NewMemoryDriver returns an empty MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		tables:   make(map[string]*memoryTable),
		failures: make(map[string]error),
	}
}

func tableKey(schema, table string) string {
	return schema + "." + table
}

// CreateTable declares a table with an auto-assigned integer primary key
// followed by text columns, in ordinal order.
func (m *MemoryDriver) CreateTable(schema, table, primaryKey string, columns ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols := []datasource.ColumnMetadata{{
		ColumnName:      primaryKey,
		DataType:        "bigint",
		OrdinalPosition: 1,
	}}
	for i, name := range columns {
		cols = append(cols, datasource.ColumnMetadata{
			ColumnName:      name,
			DataType:        "text",
			IsNullable:      true,
			OrdinalPosition: i + 2,
		})
	}
	m.tables[tableKey(schema, table)] = &memoryTable{columns: cols, primaryKey: primaryKey}
}

// Seed inserts a committed row directly. The primary key is assigned unless
// row carries an int64 one.
func (m *MemoryDriver) Seed(schema, table string, row map[string]any) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tables[tableKey(schema, table)]
	if t == nil {
		panic(fmt.Sprintf("memory db: table %s.%s not created", schema, table))
	}
	stored := cloneRow(row)
	for _, col := range t.columns {
		if _, ok := stored[col.ColumnName]; !ok {
			stored[col.ColumnName] = nil
		}
	}
	id, ok := stored[t.primaryKey].(int64)
	if !ok {
		t.auto++
		id = t.auto
		stored[t.primaryKey] = id
	} else if id > t.auto {
		t.auto = id
	}
	t.rows = append(t.rows, stored)
	return id
}

// Rows returns a copy of the committed rows of a table.
func (m *MemoryDriver) Rows(schema, table string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tables[tableKey(schema, table)]
	if t == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, cloneRow(row))
	}
	return out
}

// Fail makes every later op fail with err. A nil err clears the failure.
func (m *MemoryDriver) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Statements returns every statement run so far.
func (m *MemoryDriver) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statements...)
}

// Count returns how many statements starting with prefix were run.
func (m *MemoryDriver) Count(prefix string) int {
	n := 0
	for _, stmt := range m.Statements() {
		if strings.HasPrefix(stmt, prefix) {
			n++
		}
	}
	return n
}

// Commits returns the number of committed transactions.
func (m *MemoryDriver) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns the number of rolled back transactions.
func (m *MemoryDriver) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

// Closed reports whether Close was called.
func (m *MemoryDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MemoryDriver) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	return m.run(ctx, nil, query, args)
}

func (m *MemoryDriver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	rs, err := m.run(ctx, nil, query, args)
	if err != nil {
		return 0, err
	}
	return int64(rs.Len()), nil
}

func (m *MemoryDriver) Begin(ctx context.Context) (datasource.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpBegin]; err != nil {
		return nil, err
	}
	return &memoryTx{driver: m}, nil
}

func (m *MemoryDriver) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[OpPing]
}

func (m *MemoryDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryDriver) Type() string {
	return "memory"
}

type pendingRow struct {
	table *memoryTable
	row   map[string]any
}

type memoryTx struct {
	driver  *MemoryDriver
	pending []pendingRow
	done    bool
}

func (t *memoryTx) Query(ctx context.Context, query string, args ...any) (*datasource.ResultSet, error) {
	if t.done {
		return nil, fmt.Errorf("memory db: transaction already closed")
	}
	return t.driver.run(ctx, t, query, args)
}

func (t *memoryTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	rs, err := t.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return int64(rs.Len()), nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	m := t.driver
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.done {
		return fmt.Errorf("memory db: transaction already closed")
	}
	if err := m.failures[OpCommit]; err != nil {
		return err
	}
	for _, p := range t.pending {
		p.table.rows = append(p.table.rows, p.row)
	}
	t.done = true
	m.commits++
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	m := t.driver
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.done {
		return fmt.Errorf("memory db: transaction already closed")
	}
	t.pending = nil
	t.done = true
	m.rollbacks++
	return nil
}

func (m *MemoryDriver) run(ctx context.Context, tx *memoryTx, query string, args []any) (*datasource.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("memory db: driver closed")
	}
	query = strings.TrimSpace(query)
	m.statements = append(m.statements, query)

	switch {
	case query == memoryColumnsQuery:
		return m.columns(args)
	case query == memoryTablesQuery:
		return m.tableNames(args)
	case selectPattern.MatchString(query):
		return m.selectRows(selectPattern.FindStringSubmatch(query), args)
	case insertPattern.MatchString(query):
		return m.insert(tx, insertPattern.FindStringSubmatch(query), args)
	default:
		return nil, fmt.Errorf("memory db: unsupported statement: %s", query)
	}
}

func (m *MemoryDriver) columns(args []any) (*datasource.ResultSet, error) {
	if err := m.failures[OpColumns]; err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("memory db: columns query takes 2 arguments, got %d", len(args))
	}

	rs := &datasource.ResultSet{
		Columns: []string{"column_name", "data_type", "is_nullable", "ordinal_position", "column_default"},
		Rows:    make([][]any, 0),
	}
	t := m.tables[tableKey(fmt.Sprint(args[0]), fmt.Sprint(args[1]))]
	if t == nil {
		return rs, nil
	}
	for _, col := range t.columns {
		nullable := int32(0)
		if col.IsNullable {
			nullable = 1
		}
		rs.Rows = append(rs.Rows, []any{col.ColumnName, col.DataType, nullable, int32(col.OrdinalPosition), nil})
	}
	return rs, nil
}

func (m *MemoryDriver) tableNames(args []any) (*datasource.ResultSet, error) {
	if err := m.failures[OpTables]; err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("memory db: tables query takes 1 argument, got %d", len(args))
	}

	prefix := fmt.Sprint(args[0]) + "."
	names := make([]string, 0)
	for key := range m.tables {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(names)

	rs := &datasource.ResultSet{Columns: []string{"table_name"}, Rows: make([][]any, 0, len(names))}
	for _, name := range names {
		rs.Rows = append(rs.Rows, []any{name})
	}
	return rs, nil
}

func (m *MemoryDriver) selectRows(match []string, args []any) (*datasource.ResultSet, error) {
	if err := m.failures[OpSelect]; err != nil {
		return nil, err
	}
	t := m.tables[tableKey(match[1], match[2])]
	if t == nil {
		return nil, fmt.Errorf("memory db: relation %s.%s does not exist", match[1], match[2])
	}

	where := match[3]
	if where != "" && len(args) != 1 {
		return nil, fmt.Errorf("memory db: expected 1 argument, got %d", len(args))
	}

	rs := &datasource.ResultSet{Rows: make([][]any, 0)}
	for _, col := range t.columns {
		rs.Columns = append(rs.Columns, col.ColumnName)
	}
	for _, row := range t.rows {
		if where != "" && fmt.Sprint(row[where]) != fmt.Sprint(args[0]) {
			continue
		}
		values := make([]any, len(t.columns))
		for i, col := range t.columns {
			values[i] = row[col.ColumnName]
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, nil
}

func (m *MemoryDriver) insert(tx *memoryTx, match []string, args []any) (*datasource.ResultSet, error) {
	if err := m.failures[OpInsert]; err != nil {
		return nil, err
	}
	t := m.tables[tableKey(match[1], match[2])]
	if t == nil {
		return nil, fmt.Errorf("memory db: relation %s.%s does not exist", match[1], match[2])
	}

	var names []string
	if match[3] != "" {
		for _, part := range strings.Split(match[3], ", ") {
			names = append(names, strings.Trim(part, `"`))
		}
	}
	if len(names) != len(args) {
		return nil, fmt.Errorf("memory db: %d columns but %d arguments", len(names), len(args))
	}

	row := make(map[string]any, len(t.columns))
	for _, col := range t.columns {
		row[col.ColumnName] = nil
	}
	for i, name := range names {
		if _, ok := row[name]; !ok {
			return nil, fmt.Errorf("memory db: column %q of relation %s does not exist", name, match[2])
		}
		row[name] = args[i]
	}

	if row[t.primaryKey] == nil {
		t.auto++
		row[t.primaryKey] = t.auto
	}
	for _, existing := range t.rows {
		if fmt.Sprint(existing[t.primaryKey]) == fmt.Sprint(row[t.primaryKey]) {
			return nil, fmt.Errorf("memory db: duplicate key value violates unique constraint on %s", t.primaryKey)
		}
	}

	if tx != nil {
		tx.pending = append(tx.pending, pendingRow{table: t, row: row})
	} else {
		t.rows = append(t.rows, row)
	}

	returning := match[4]
	return &datasource.ResultSet{
		Columns: []string{returning},
		Rows:    [][]any{{row[returning]}},
	}, nil
}

func cloneRow(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ datasource.Driver  = (*MemoryDriver)(nil)
	_ datasource.Dialect = MemoryDialect{}
)
