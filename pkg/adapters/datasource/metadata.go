package datasource

import (
	"fmt"
)

// ColumnMetadata represents a discovered database column.
type ColumnMetadata struct {
	ColumnName      string  `json:"column_name" yaml:"name"`
	DataType        string  `json:"data_type" yaml:"type"`
	IsNullable      bool    `json:"is_nullable" yaml:"nullable"`
	OrdinalPosition int     `json:"ordinal_position" yaml:"position"`
	DefaultValue    *string `json:"default_value,omitempty" yaml:"default,omitempty"`
}

// ResultSet is a buffered query result. Rows hold values positionally in
// Columns order, as decoded by the driver.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Row returns row i as a column name -> value map.
func (r *ResultSet) Row(i int) map[string]any {
	row := make(map[string]any, len(r.Columns))
	for j, col := range r.Columns {
		row[col] = r.Rows[i][j]
	}
	return row
}

// ParseColumns converts the rows of a Dialect.ColumnsQuery into metadata.
func ParseColumns(rs *ResultSet) ([]ColumnMetadata, error) {
	columns := make([]ColumnMetadata, 0, rs.Len())
	for i, row := range rs.Rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("column row %d: expected 5 values, got %d", i, len(row))
		}

		name, ok := AsString(row[0])
		if !ok || name == "" {
			return nil, fmt.Errorf("column row %d: invalid column name %v", i, row[0])
		}
		dataType, _ := AsString(row[1])
		nullable, err := AsInt64(row[2])
		if err != nil {
			return nil, fmt.Errorf("column %s: is_nullable: %w", name, err)
		}
		position, err := AsInt64(row[3])
		if err != nil {
			return nil, fmt.Errorf("column %s: ordinal_position: %w", name, err)
		}

		col := ColumnMetadata{
			ColumnName:      name,
			DataType:        dataType,
			IsNullable:      nullable == 1,
			OrdinalPosition: int(position),
		}
		if def, ok := AsString(row[4]); ok {
			col.DefaultValue = &def
		}
		columns = append(columns, col)
	}
	return columns, nil
}
