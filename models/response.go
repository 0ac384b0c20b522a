package models

import "github.com/shopspring/decimal"

type SignInResponse struct {
	Token   string  `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Session Session `json:"session"`
}

// Session is the public view of a signed-in actor.
type Session struct {
	ID                string `json:"id" example:"6f1c2a8e-3e5b-4d8a-9c1f-0b7e2d4a5c6d"`
	User              User   `json:"user"`
	Role              Role   `json:"role" example:"user"`
	LastSelectedMonth string `json:"lastSelectedMonth,omitempty" example:"2025-09"`
}

// BudgetOverview is a month record with its derived aggregates.
type BudgetOverview struct {
	Month          string           `json:"month" example:"2025-09"`
	Record         *MonthlyCategory `json:"record"`
	TotalAllocated decimal.Decimal  `json:"totalAllocated" swaggertype:"number" example:"3000000"`
	Remaining      decimal.Decimal  `json:"remaining" swaggertype:"number" example:"2000000"`
	Overallocated  bool             `json:"overallocated"`
	CategoryNames  map[int64]string `json:"categoryNames"`
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page" example:"1"`
	PageSize     int           `json:"pageSize" example:"8"`
	Total        int           `json:"total" example:"100"`
	TotalPages   int           `json:"totalPages" example:"13"`
}

type DashboardStats struct {
	UserCount        int             `json:"userCount" example:"12"`
	CategoryCount    int             `json:"categoryCount" example:"8"`
	TransactionCount int             `json:"totalTransactionCount" example:"240"`
	TotalSpending    decimal.Decimal `json:"totalSpending" swaggertype:"number" example:"15400000"`
	TotalBudgeted    decimal.Decimal `json:"totalBudgeted" swaggertype:"number" example:"42000000"`
	TotalBalance     decimal.Decimal `json:"totalBalance" swaggertype:"number" example:"60000000"`
}

type ErrorResponse struct {
	Error  string            `json:"error" example:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	SignIn string            `json:"signIn,omitempty" example:"/sign-in"`
}
