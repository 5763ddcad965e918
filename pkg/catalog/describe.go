package catalog

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

// TableLister lists the base tables of a schema.
type TableLister interface {
	Tables(ctx context.Context, schema string) ([]string, error)
}

// SchemaDescription is the introspected shape of a schema.
type SchemaDescription struct {
	Database string             `yaml:"database"`
	Schema   string             `yaml:"schema"`
	Dialect  string             `yaml:"dialect"`
	Tables   []TableDescription `yaml:"tables"`
}

// TableDescription lists a table's columns in ordinal order.
type TableDescription struct {
	Name    string                      `yaml:"name"`
	Columns []datasource.ColumnMetadata `yaml:"columns"`
}

// Describe introspects the named tables of schema, or every table when none
// are named.
func Describe(ctx context.Context, lister TableLister, introspector Introspector, schema string, tables ...string) ([]TableDescription, error) {
	if len(tables) == 0 {
		var err error
		tables, err = lister.Tables(ctx, schema)
		if err != nil {
			return nil, err
		}
	}

	described := make([]TableDescription, 0, len(tables))
	for _, table := range tables {
		columns, err := introspector.Columns(ctx, schema, table)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("table %s.%s not found", schema, table)
		}
		described = append(described, TableDescription{Name: table, Columns: columns})
	}
	return described, nil
}

// WriteYAML encodes d as YAML.
func (d *SchemaDescription) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode schema description: %w", err)
	}
	return enc.Close()
}
