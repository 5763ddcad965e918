package record

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
	sqlutil "github.com/ekaya-inc/ekaya-record/pkg/sql"
)

// Model is one record of a table. Its column and visible lists are loaded
// from the catalog when the model is constructed and never change afterwards.
// A Model is not safe for concurrent mutation.
type Model struct {
	conn   *database.Connection
	def    Definition
	logger *zap.Logger

	columns  []string
	visible  []string
	canSee   map[string]struct{}
	canWrite map[string]struct{}

	attributes map[string]any
	exists     bool
}

// NewModel creates an unsaved record for def, loading its columns for
// (conn.Schema(), def.Table) through introspector. It fails when the catalog
// cannot be read or reports no columns for the table.
func NewModel(ctx context.Context, conn *database.Connection, introspector catalog.Introspector, def Definition) (*Model, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def = def.withDefaults()

	metadata, err := introspector.Columns(ctx, conn.Schema(), def.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %w", apperrors.ErrIntrospection, conn.Schema(), def.Table, err)
	}
	if len(metadata) == 0 {
		return nil, fmt.Errorf("%w: %w: %s.%s", apperrors.ErrIntrospection, apperrors.ErrNoColumns, conn.Schema(), def.Table)
	}

	columns := make([]string, len(metadata))
	for i, col := range metadata {
		columns[i] = col.ColumnName
	}

	m := &Model{
		conn:       conn,
		def:        def,
		logger:     conn.Logger().With(zap.String("table", def.Table)),
		columns:    columns,
		visible:    resolveVisible(columns, def.Visible),
		canWrite:   toSet(def.Fillable),
		attributes: make(map[string]any),
	}
	m.canSee = toSet(m.visible)
	return m, nil
}

// resolveVisible keeps the declared visible names that are real columns, in
// declaration order. No declaration means every column.
func resolveVisible(columns, declared []string) []string {
	if len(declared) == 0 {
		return append([]string(nil), columns...)
	}
	existing := toSet(columns)
	visible := make([]string, 0, len(declared))
	for _, name := range declared {
		if _, ok := existing[name]; ok {
			visible = append(visible, name)
		}
	}
	return visible
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// newInstance returns an empty record sharing this model's table metadata.
func (m *Model) newInstance() *Model {
	return &Model{
		conn:       m.conn,
		def:        m.def,
		logger:     m.logger,
		columns:    m.columns,
		visible:    m.visible,
		canSee:     m.canSee,
		canWrite:   m.canWrite,
		attributes: make(map[string]any, len(m.columns)),
	}
}

// hydrate loads a stored row. It bypasses the fillable allow-list.
func (m *Model) hydrate(row map[string]any) {
	for name, value := range row {
		m.attributes[name] = value
	}
	m.exists = true
}

// Get returns the value of a visible attribute, or nil for hidden or unset ones.
func (m *Model) Get(name string) any {
	value, _ := m.Attribute(name)
	return value
}

// Attribute returns the value of name and whether it is visible and set.
func (m *Model) Attribute(name string) (any, bool) {
	if _, ok := m.canSee[name]; !ok {
		return nil, false
	}
	value, ok := m.attributes[name]
	return value, ok
}

// Set assigns a fillable attribute.
func (m *Model) Set(name string, value any) error {
	if _, ok := m.canWrite[name]; !ok {
		return fmt.Errorf("%w: %s.%s", apperrors.ErrNotFillable, m.def.Table, name)
	}
	m.attributes[name] = value
	return nil
}

// Fill assigns every attribute in attrs. If any key is not fillable nothing
// is assigned. String values that look like SQL injection are logged; they are
// always bound as parameters.
func (m *Model) Fill(attrs map[string]any) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := m.canWrite[name]; !ok {
			return fmt.Errorf("%w: %s.%s", apperrors.ErrNotFillable, m.def.Table, name)
		}
	}

	for _, result := range sqlutil.CheckAttributes(attrs) {
		m.logger.Warn("Attribute value resembles SQL injection",
			zap.String("attribute", result.Attribute),
			zap.String("fingerprint", result.Fingerprint),
		)
	}

	for _, name := range names {
		m.attributes[name] = attrs[name]
	}
	return nil
}

// Save inserts a new record. Updating a persisted record is not implemented.
func (m *Model) Save(ctx context.Context) (*Model, error) {
	if m.exists {
		return m, fmt.Errorf("update %s: %w", m.def.Table, apperrors.ErrNotImplemented)
	}
	if err := m.insert(ctx); err != nil {
		return m, err
	}
	return m, nil
}

// insert writes the record inside a transaction. Columns without an assigned
// attribute are left out so the database applies their defaults; an unset
// primary key is assigned by the database and read back.
func (m *Model) insert(ctx context.Context) error {
	pk := m.def.PrimaryKey
	columns := make([]string, 0, len(m.columns))
	args := make([]any, 0, len(m.columns))
	for _, col := range m.columns {
		value, set := m.attributes[col]
		if !set || (col == pk && value == nil) {
			continue
		}
		columns = append(columns, col)
		args = append(args, value)
	}

	dialect := m.conn.Dialect()
	query := dialect.InsertReturning(m.conn.Schema(), m.def.Table, columns, pk)

	tx, err := m.conn.Handle().Begin(ctx)
	if err != nil {
		return m.insertFailed(query, fmt.Errorf("begin transaction: %w", err))
	}

	rs, err := tx.Query(ctx, query, args...)
	if err == nil && rs.Len() != 1 {
		err = fmt.Errorf("expected 1 returned key, got %d", rs.Len())
	}
	if err != nil {
		m.rollback(ctx, tx)
		return m.insertFailed(query, err)
	}

	if err := tx.Commit(ctx); err != nil {
		m.rollback(ctx, tx)
		return m.insertFailed(query, fmt.Errorf("commit: %w", err))
	}

	m.attributes[pk] = rs.Rows[0][0]
	m.exists = true

	m.logger.Debug("Inserted record", zap.Any("id", m.attributes[pk]))
	return nil
}

func (m *Model) rollback(ctx context.Context, tx datasource.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		m.logger.Debug("Rollback after failed insert", zap.String("error", logging.SanitizeError(err)))
	}
}

func (m *Model) insertFailed(query string, err error) error {
	m.logger.Error("Insert failed",
		zap.String("query", logging.SanitizeQuery(query)),
		zap.String("error", logging.SanitizeError(err)),
	)
	return fmt.Errorf("insert into %s: %w", m.def.Table, err)
}

// Attributes returns a copy of the visible attributes that are set.
func (m *Model) Attributes() map[string]any {
	out := make(map[string]any, len(m.visible))
	for _, name := range m.visible {
		if value, ok := m.attributes[name]; ok {
			out[name] = value
		}
	}
	return out
}

// ID returns the primary key value, nil until the record is saved or loaded.
func (m *Model) ID() any {
	return m.attributes[m.def.PrimaryKey]
}

// Exists reports whether the record is persisted.
func (m *Model) Exists() bool {
	return m.exists
}

func (m *Model) Table() string {
	return m.def.Table
}

func (m *Model) PrimaryKey() string {
	return m.def.PrimaryKey
}

// Columns returns the table's columns in catalog order.
func (m *Model) Columns() []string {
	return append([]string(nil), m.columns...)
}

// Visible returns the readable attribute names.
func (m *Model) Visible() []string {
	return append([]string(nil), m.visible...)
}

// Fillable returns the externally writable attribute names.
func (m *Model) Fillable() []string {
	return append([]string(nil), m.def.Fillable...)
}

// Relations returns the declared relation names.
func (m *Model) Relations() []string {
	return append([]string(nil), m.def.Relations...)
}
