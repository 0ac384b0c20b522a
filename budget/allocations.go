package budget

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
)

var (
	ErrAllocationNotFound = fmt.Errorf("allocation: %w", common.ErrNotFound)
	ErrNoRecord           = fmt.Errorf("monthly budget: %w", common.ErrNotFound)
)

// The list operations below never modify their input slice.

// Upsert sets the allocation for categoryID to amount, appending a new entry when the
// category has none. It returns the new list and the affected entry.
func Upsert(list []models.CategoryBudget, categoryID int64, amount decimal.Decimal) ([]models.CategoryBudget, models.CategoryBudget) {
	out := make([]models.CategoryBudget, 0, len(list)+1)
	var entry models.CategoryBudget
	found := false
	for _, a := range list {
		if a.CategoryID == categoryID && !found {
			a.Budget = amount
			entry, found = a, true
		} else if a.CategoryID == categoryID {
			// Older data may hold a second entry for the category; fold it away.
			continue
		}
		out = append(out, a)
	}
	if !found {
		entry = models.CategoryBudget{ID: uuid.New(), CategoryID: categoryID, Budget: amount}
		out = append(out, entry)
	}
	return out, entry
}

func SetAmount(list []models.CategoryBudget, id uuid.UUID, amount decimal.Decimal) ([]models.CategoryBudget, models.CategoryBudget, error) {
	out := append([]models.CategoryBudget(nil), list...)
	for i := range out {
		if out[i].ID == id {
			out[i].Budget = amount
			return out, out[i], nil
		}
	}
	return nil, models.CategoryBudget{}, ErrAllocationNotFound
}

func Remove(list []models.CategoryBudget, id uuid.UUID) ([]models.CategoryBudget, models.CategoryBudget, error) {
	out := make([]models.CategoryBudget, 0, len(list))
	var removed models.CategoryBudget
	found := false
	for _, a := range list {
		if a.ID == id {
			removed, found = a, true
			continue
		}
		out = append(out, a)
	}
	if !found {
		return nil, models.CategoryBudget{}, ErrAllocationNotFound
	}
	return out, removed, nil
}
