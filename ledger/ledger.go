// Package ledger lists, filters, sorts, pages and deletes a user's transactions for a month.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nemopss/budgetly/models"
)

type Order string

const (
	OrderNone Order = "none"
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(s)) {
	case "", OrderNone:
		return OrderNone, nil
	case OrderAsc:
		return OrderAsc, nil
	case OrderDesc:
		return OrderDesc, nil
	default:
		return OrderNone, fmt.Errorf("unknown sort order %q", s)
	}
}

// MonthKey is the YYYY-MM the transaction belongs to: the prefix of Month when set, else the
// month it was created in.
func MonthKey(tx models.Transaction) string {
	if len(tx.Month) >= len(models.MonthLayout) {
		return tx.Month[:len(models.MonthLayout)]
	}
	return models.MonthOf(tx.CreatedAt)
}

// FilterMonth keeps the transactions whose MonthKey is month.
func FilterMonth(txs []models.Transaction, month string) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if MonthKey(tx) == month {
			out = append(out, tx)
		}
	}
	return out
}

// Search keeps transactions whose note or category name contains query, ignoring case.
// An empty query keeps everything.
func Search(txs []models.Transaction, query string, names map[int64]string) []models.Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]models.Transaction(nil), txs...)
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.Note), query) ||
			strings.Contains(strings.ToLower(names[tx.CategoryID]), query) {
			out = append(out, tx)
		}
	}
	return out
}

// Sort orders a copy of txs by amount. Ties keep their input order.
func Sort(txs []models.Transaction, order Order) []models.Transaction {
	out := append([]models.Transaction(nil), txs...)
	switch order {
	case OrderAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	case OrderDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	}
	return out
}
