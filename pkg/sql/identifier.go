package sql

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
)

// MaxIdentifierLength is the longest identifier accepted (SQL Server's limit).
const MaxIdentifierLength = 128

// ValidateIdentifier checks that name is a plain, unquoted SQL identifier:
// a letter or underscore followed by letters, digits, underscores or '$'.
// Table and column names are interpolated into statements after dialect
// quoting; anything outside this set is rejected before that point.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", apperrors.ErrInvalidIdentifier)
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: %q exceeds %d characters", apperrors.ErrInvalidIdentifier, name, MaxIdentifierLength)
	}

	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '$'):
		default:
			return fmt.Errorf("%w: %q", apperrors.ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// ValidateIdentifiers validates each name, returning the first failure.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
