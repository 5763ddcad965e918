package record

import (
	"fmt"
	"time"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
)

// Typed readers for mappers. Each reads a visible attribute through Get and
// normalises the driver's value with the datasource.As* helpers. A missing or
// NULL attribute reads as the zero value; a value of the wrong family is an
// error naming the column.

// Int64 reads an integer attribute.
func (m *Model) Int64(name string) (int64, error) {
	n, err := datasource.AsInt64(m.Get(name))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// Float64 reads a floating point or decimal attribute.
func (m *Model) Float64(name string) (float64, error) {
	f, err := datasource.AsFloat64(m.Get(name))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// Text reads a text, decimal or uuid attribute as a string.
func (m *Model) Text(name string) (string, error) {
	s, err := datasource.AsText(m.Get(name))
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// OptionalText is Text with NULL reported as nil.
func (m *Model) OptionalText(name string) (*string, error) {
	v := m.Get(name)
	if v == nil {
		return nil, nil
	}
	s, err := datasource.AsText(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &s, nil
}

// Bool reads a boolean or bit attribute.
func (m *Model) Bool(name string) (bool, error) {
	b, err := datasource.AsBool(m.Get(name))
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// Time reads a date or timestamp attribute.
func (m *Model) Time(name string) (time.Time, error) {
	t, err := datasource.AsTime(m.Get(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Bytes reads a binary attribute.
func (m *Model) Bytes(name string) ([]byte, error) {
	b, err := datasource.AsBytes(m.Get(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
