package ledger

import (
	"testing"
	"time"

	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id int64, amount int64, note string) models.Transaction {
	return models.Transaction{ID: id, Amount: decimal.NewFromInt(amount), Note: note, CategoryID: 1, Month: "2025-09"}
}

func ids(txs []models.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestMonthKey(t *testing.T) {
	created := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-09", MonthKey(models.Transaction{Month: "2025-09", CreatedAt: created}))
	assert.Equal(t, "2025-09", MonthKey(models.Transaction{Month: "2025-09-14", CreatedAt: created}))
	assert.Equal(t, "2025-08", MonthKey(models.Transaction{CreatedAt: created}))
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderNone, "none": OrderNone, "ASC": OrderAsc, "desc": OrderDesc} {
		got, err := ParseOrder(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOrder("sideways")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	txs := []models.Transaction{
		tx(1, 10, "Lunch with Minh"),
		{ID: 2, Amount: decimal.NewFromInt(5), Note: "", CategoryID: 2},
		tx(3, 7, "bus ticket"),
	}
	names := map[int64]string{1: "Food", 2: "Transport"}

	assert.Equal(t, []int64{1}, ids(Search(txs, "LUNCH", names)))
	assert.Equal(t, []int64{2}, ids(Search(txs, "transp", names)))
	assert.Equal(t, []int64{1, 3}, ids(Search(txs, "food", names)))
	assert.Equal(t, []int64{1, 2, 3}, ids(Search(txs, "  ", names)))
	assert.Empty(t, Search(txs, "rent", names))
}

func TestSortStable(t *testing.T) {
	txs := []models.Transaction{tx(1, 30, ""), tx(2, 10, ""), tx(3, 30, ""), tx(4, 20, "")}

	assert.Equal(t, []int64{2, 4, 1, 3}, ids(Sort(txs, OrderAsc)))
	assert.Equal(t, []int64{1, 3, 4, 2}, ids(Sort(txs, OrderDesc)))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Sort(txs, OrderNone)))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(txs), "input is left untouched")
}
