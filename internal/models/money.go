package models

import "github.com/shopspring/decimal"

func init() {
	// Documents store amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money parses a fixed-point amount such as "16.00". It panics on malformed input and
// is meant for constants and fixtures.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
