package datasource

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Drivers decode the same SQL type into different Go values: pgx returns
// int16/int32/int64, pgtype.Numeric and [16]byte uuids while go-mssqldb
// returns int64 for every integer width and []byte for decimals. The As*
// helpers normalise those into one Go type per family. nil converts to the
// zero value without error.

// AsString converts a driver value holding text into a string.
// Returns false for nil and non-text values.
func AsString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case [16]byte:
		return uuid.UUID(x).String(), true
	case uuid.UUID:
		return x.String(), true
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil || inner == nil {
			return "", false
		}
		return AsString(inner)
	default:
		return "", false
	}
}

// AsText is AsString with an error for values that do not hold text.
func AsText(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := AsString(v)
	if !ok {
		return "", fmt.Errorf("unexpected text type %T", v)
	}
	return s, nil
}

// AsInt64 converts a driver value holding an integer into int64.
func AsInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected integer type %T", v)
	}
}

// AsFloat64 converts a driver value holding a number into float64.
// Text values and driver.Valuer results (pgtype.Numeric) are parsed.
func AsFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64, int32, int16, int8, int, uint8:
		n, err := AsInt64(x)
		return float64(n), err
	case string:
		return strconv.ParseFloat(x, 64)
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return 0, err
		}
		if _, nested := inner.(driver.Valuer); nested {
			return 0, fmt.Errorf("unexpected number type %T", v)
		}
		return AsFloat64(inner)
	default:
		return 0, fmt.Errorf("unexpected number type %T", v)
	}
}

// AsBool converts a driver value holding a boolean or a bit into bool.
func AsBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	case []byte:
		return strconv.ParseBool(string(x))
	default:
		n, err := AsInt64(v)
		if err != nil {
			return false, fmt.Errorf("unexpected boolean type %T", v)
		}
		return n != 0, nil
	}
}

// AsTime converts a driver value holding a date or timestamp into time.Time.
func AsTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected time type %T", v)
	}
}

// AsBytes converts a driver value holding binary data into []byte.
func AsBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("unexpected binary type %T", v)
	}
}
