package ledger

import (
	"context"

	"github.com/nemopss/budgetly/models"
)

// View is one user's ledger for a month with search, sort and paging state. Changing the
// month, query or order returns to the first page.
type View struct {
	svc      *Service
	userID   int64
	month    string
	query    string
	order    Order
	page     int
	pageSize int

	all   []models.Transaction
	names map[int64]string
}

// SetMonth refetches the month. On failure the view keeps its previous contents.
func (v *View) SetMonth(ctx context.Context, month string) error {
	txs, names, err := v.svc.load(ctx, v.userID, month)
	if err != nil {
		return err
	}
	v.month, _ = models.ParseMonth(month)
	v.all, v.names = txs, names
	v.page = 1
	return nil
}

func (v *View) SetQuery(q string) {
	v.query = q
	v.page = 1
}

func (v *View) SetOrder(o Order) {
	v.order = o
	v.page = 1
}

// SetPage moves to page n, clamped to the available pages.
func (v *View) SetPage(n int) {
	v.page = n
	v.clamp(len(v.visible()))
}

func (v *View) Month() string { return v.month }

func (v *View) visible() []models.Transaction {
	return Sort(Search(v.all, v.query, v.names), v.order)
}

func (v *View) clamp(total int) {
	pages := (total + v.pageSize - 1) / v.pageSize
	if v.page > pages {
		v.page = pages
	}
	if v.page < 1 {
		v.page = 1
	}
}

// Page returns the current page of the filtered, sorted list.
func (v *View) Page() models.TransactionPage {
	visible := v.visible()
	total := len(visible)
	v.clamp(total)

	start := (v.page - 1) * v.pageSize
	end := start + v.pageSize
	if end > total {
		end = total
	}
	items := []models.Transaction{}
	if start < total {
		items = append(items, visible[start:end]...)
	}

	return models.TransactionPage{
		Transactions: items,
		Page:         v.page,
		PageSize:     v.pageSize,
		Total:        total,
		TotalPages:   (total + v.pageSize - 1) / v.pageSize,
	}
}

// Remove deletes the transaction remotely first; the view only drops it once that succeeded.
func (v *View) Remove(ctx context.Context, id int64) error {
	if err := v.svc.Delete(ctx, v.userID, id); err != nil {
		return err
	}
	kept := make([]models.Transaction, 0, len(v.all))
	for _, tx := range v.all {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	v.all = kept
	v.clamp(len(v.visible()))
	return nil
}
