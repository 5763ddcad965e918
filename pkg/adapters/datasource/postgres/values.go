package postgres

import (
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// normalizeRow rewrites values pgx decodes into pgtype structs that callers
// cannot read without importing pgx. Everything else is left as decoded.
func normalizeRow(values []any) []any {
	for i, v := range values {
		if n, ok := v.(pgtype.Numeric); ok {
			values[i] = formatNumeric(n)
		}
	}
	return values
}

// formatNumeric renders a numeric as its exact decimal text ("123.45"),
// or nil for NULL.
func formatNumeric(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return "NaN"
	case n.InfinityModifier == pgtype.Infinity:
		return "Infinity"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "-Infinity"
	case n.Int == nil:
		return "0"
	}

	sign := ""
	if n.Int.Sign() < 0 {
		sign = "-"
	}
	digits := new(big.Int).Abs(n.Int).String()

	if n.Exp >= 0 {
		if n.Int.Sign() == 0 {
			return "0"
		}
		return sign + digits + strings.Repeat("0", int(n.Exp))
	}

	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}
