// Package budget keeps a user's monthly balance and per-category allocations consistent.
package budget

import (
	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
)

// TotalAllocated sums the allocations of record. A nil record has no allocations.
func TotalAllocated(record *models.MonthlyCategory) decimal.Decimal {
	total := decimal.Zero
	if record == nil {
		return total
	}
	for _, a := range record.Categories {
		total = total.Add(a.Budget)
	}
	return total
}

// Remaining is balance minus totalAllocated, never below zero.
func Remaining(balance, totalAllocated decimal.Decimal) decimal.Decimal {
	left := balance.Sub(totalAllocated)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// ResolveBalance picks the balance to reconcile against: the override, then the stored
// balance, then zero.
func ResolveBalance(override *decimal.Decimal, record *models.MonthlyCategory) decimal.Decimal {
	switch {
	case override != nil:
		return *override
	case record != nil:
		return record.Balance
	default:
		return decimal.Zero
	}
}

// Summarize builds the overview of record for month. record may be nil.
func Summarize(month string, record *models.MonthlyCategory, override *decimal.Decimal, names map[int64]string) *models.BudgetOverview {
	balance := ResolveBalance(override, record)
	total := TotalAllocated(record)
	if names == nil {
		names = map[int64]string{}
	}
	return &models.BudgetOverview{
		Month:          month,
		Record:         record,
		TotalAllocated: total,
		Remaining:      Remaining(balance, total),
		Overallocated:  total.GreaterThan(balance),
		CategoryNames:  names,
	}
}
