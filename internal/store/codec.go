package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts are stored as decimal strings and dates as RFC3339 UTC, so
// BETWEEN over the date column compares correctly as text.

// EncodeDecimal renders a decimal for storage.
func EncodeDecimal(d decimal.Decimal) string { return d.String() }

// DecodeDecimal parses a stored decimal.
func DecodeDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decoding amount %q: %w", s, err)
	}
	return d, nil
}

// EncodeTime renders a timestamp for storage.
func EncodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// DecodeTime parses a stored timestamp.
func DecodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding timestamp %q: %w", s, err)
	}
	return t, nil
}

// NullString maps an empty string to SQL NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
