package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces = 2

// FitsMoney reports whether d can be stored without rounding.
func FitsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}
