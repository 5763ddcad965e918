package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotImplemented     = errors.New("not implemented")
	ErrNotFillable        = errors.New("attribute is not fillable")
	ErrIntrospection      = errors.New("column introspection failed")
	ErrNoColumns          = errors.New("table has no columns")
	ErrInvalidIdentifier  = errors.New("invalid SQL identifier")
	ErrUnsupportedDialect = errors.New("unsupported database type")
)
