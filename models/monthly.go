package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryBudget is one category's spending limit inside a month.
type CategoryBudget struct {
	ID         uuid.UUID       `json:"id"`
	CategoryID int64           `json:"categoryId"`
	Budget     decimal.Decimal `json:"budget"`
}

// MonthlyCategory is a user's budget ceiling for one month plus its allocations.
// Version is bumped on every successful write.
type MonthlyCategory struct {
	ID         int64            `json:"id"`
	Month      string           `json:"month"`
	Balance    decimal.Decimal  `json:"balance"`
	UserID     int64            `json:"userId"`
	Categories []CategoryBudget `json:"categories"`
	Version    int64            `json:"version"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Clone returns a copy that shares no slice memory with m.
func (m *MonthlyCategory) Clone() *MonthlyCategory {
	if m == nil {
		return nil
	}
	c := *m
	c.Categories = append([]CategoryBudget(nil), m.Categories...)
	return &c
}
