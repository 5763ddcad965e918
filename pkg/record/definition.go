package record

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	sqlutil "github.com/ekaya-inc/ekaya-record/pkg/sql"
)

// DefaultPrimaryKey is used when a Definition leaves PrimaryKey empty.
const DefaultPrimaryKey = "id"

// Definition declares how an entity maps onto a table.
type Definition struct {
	// Table is the unqualified table name. Required.
	Table string

	// PrimaryKey defaults to DefaultPrimaryKey.
	PrimaryKey string

	// Fillable lists the attributes that may be set from external input.
	// An empty list makes every attribute read-only to callers.
	Fillable []string

	// Visible restricts which attributes can be read. Empty means all columns.
	Visible []string

	// Relations are declared for eager loading, which is not implemented.
	Relations []string
}

func (d Definition) withDefaults() Definition {
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}
	return d
}

// Validate checks the table and primary key are safe identifiers.
func (d Definition) Validate() error {
	d = d.withDefaults()
	if d.Table == "" {
		return fmt.Errorf("definition: table name is required")
	}
	if err := sqlutil.ValidateIdentifiers(d.Table, d.PrimaryKey); err != nil {
		return fmt.Errorf("definition for %q: %w", d.Table, err)
	}
	return nil
}

// TableNameFor derives the conventional table name for an entity type name:
// lower-cased and pluralised ("User" -> "users", "Category" -> "categories").
// Package qualifiers and pointer markers are ignored. Use it to declare a
// Definition's Table, not at runtime.
func TableNameFor(typeName string) string {
	name := strings.TrimLeft(typeName, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return inflection.Plural(strings.ToLower(name))
}
