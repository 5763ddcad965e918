package record

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
)

// Mapper converts a hydrated record into an entity.
type Mapper[T any] func(m *Model) (T, error)

// ModelMapper returns the record itself.
func ModelMapper(m *Model) (*Model, error) {
	return m, nil
}

// Repository loads and creates records of one table and maps them to T.
type Repository[T any] struct {
	conn         *database.Connection
	introspector catalog.Introspector
	def          Definition
	mapper       Mapper[T]
	logger       *zap.Logger
}

// NewRepository creates a repository for def.
func NewRepository[T any](conn *database.Connection, introspector catalog.Introspector, def Definition, mapper Mapper[T], logger *zap.Logger) *Repository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	def = def.withDefaults()
	return &Repository[T]{
		conn:         conn,
		introspector: introspector,
		def:          def,
		mapper:       mapper,
		logger:       logger.Named("repository").With(zap.String("table", def.Table)),
	}
}

// Definition returns the table definition, with defaults applied.
func (r *Repository[T]) Definition() Definition {
	return r.def
}

// New returns an unsaved record.
func (r *Repository[T]) New(ctx context.Context) (*Model, error) {
	return NewModel(ctx, r.conn, r.introspector, r.def)
}

// All returns every row of the table.
func (r *Repository[T]) All(ctx context.Context) (*Collection[T], error) {
	query := "SELECT * FROM " + r.conn.Dialect().QualifiedTable(r.conn.Schema(), r.def.Table)
	return r.load(ctx, query)
}

// Find returns the rows whose primary key equals pk. No match yields an empty
// collection, not an error.
func (r *Repository[T]) Find(ctx context.Context, pk any) (*Collection[T], error) {
	dialect := r.conn.Dialect()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		dialect.QualifiedTable(r.conn.Schema(), r.def.Table),
		dialect.QuoteIdentifier(r.def.PrimaryKey),
		dialect.Placeholder(1),
	)
	return r.load(ctx, query, pk)
}

// Create fills a new record from attrs through the fillable allow-list and
// inserts it.
func (r *Repository[T]) Create(ctx context.Context, attrs map[string]any) (T, error) {
	var zero T

	m, err := r.New(ctx)
	if err != nil {
		return zero, err
	}
	if err := m.Fill(attrs); err != nil {
		return zero, err
	}
	if _, err := m.Save(ctx); err != nil {
		return zero, err
	}

	entity, err := r.mapper(m)
	if err != nil {
		return zero, fmt.Errorf("map %s record: %w", r.def.Table, err)
	}
	return entity, nil
}

// With would eager-load relations. It is not implemented and always fails.
func (r *Repository[T]) With(relations ...string) (*Repository[T], error) {
	return nil, fmt.Errorf("eager loading %v on %s: %w", relations, r.def.Table, apperrors.ErrNotImplemented)
}

func (r *Repository[T]) load(ctx context.Context, query string, args ...any) (*Collection[T], error) {
	prototype, err := r.New(ctx)
	if err != nil {
		return nil, err
	}

	rs, err := r.conn.Handle().Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Query failed",
			zap.String("query", logging.SanitizeQuery(query)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("query %s: %w", r.def.Table, err)
	}

	result := NewCollection[T]()
	for i := 0; i < rs.Len(); i++ {
		m := prototype.newInstance()
		m.hydrate(rs.Row(i))

		entity, err := r.mapper(m)
		if err != nil {
			return nil, fmt.Errorf("map %s row %d: %w", r.def.Table, i, err)
		}
		result.Add(entity)
	}
	return result, nil
}
