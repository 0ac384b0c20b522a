package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const MonthLayout = "2006-01"

var ErrInvalidMonth = errors.New("month must be formatted YYYY-MM")

func init() {
	// Amounts travel as JSON numbers, matching the document store the clients were written for.
	decimal.MarshalJSONWithoutQuotes = true
}

const dayLayout = "2006-01-02"

// ParseMonth accepts a YYYY-MM key or a YYYY-MM-DD date and returns the month key.
func ParseMonth(s string) (string, error) {
	layout := MonthLayout
	if len(s) == len(dayLayout) {
		layout = dayLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return MonthOf(t), nil
}

// MonthOf returns the month key of t.
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}
