package account

import "strings"

// Currency is an ISO 4217 currency code
type Currency string

// Supported currencies
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
	SEK Currency = "SEK"
	NOK Currency = "NOK"
	DKK Currency = "DKK"
	JPY Currency = "JPY"
)

// Valid reports whether c is one of the supported currencies (case-insensitive)
func (c Currency) Valid() bool {
	switch Currency(strings.ToUpper(string(c))) {
	case USD, EUR, GBP, CHF, SEK, NOK, DKK, JPY:
		return true
	}

	return false
}

// String implements fmt.Stringer
func (c Currency) String() string { return string(c) }

func (c Currency) upper() string { return strings.ToUpper(string(c)) }
