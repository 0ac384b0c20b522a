package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Month      string          `json:"month"`
	CategoryID int64           `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExternalID string          `json:"externalId,omitempty"`
}
