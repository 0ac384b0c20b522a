// Package store defines the persistence ports used by the services and selects a backend.
//
// Every backend reports missing rows with common.ErrNotFound, unique violations with
// common.ErrDuplicate and stale monthly-record versions with common.ErrConflict.
package store

import (
	"context"

	"github.com/nemopss/budgetly/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// BudgetStore persists MonthlyCategory records.
//
// UpdateMonthlyCategory writes only when the stored version equals m.Version and bumps
// m.Version on success.
type BudgetStore interface {
	CreateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error
	FindMonthlyCategory(ctx context.Context, userID int64, month string) (*models.MonthlyCategory, error)
	UpdateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error
	ListMonthlyCategories(ctx context.Context, userID int64) ([]models.MonthlyCategory, error)
	ListAllMonthlyCategories(ctx context.Context) ([]models.MonthlyCategory, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	// FindTransactionByExternalID looks up an imported transaction. A second create with the
	// same non-empty (UserID, ExternalID) fails with common.ErrDuplicate.
	FindTransactionByExternalID(ctx context.Context, userID int64, externalID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]models.Transaction, error)
}

type Store interface {
	UserStore
	CategoryStore
	BudgetStore
	TransactionStore
	Close() error
}
