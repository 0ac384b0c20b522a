// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a backend. newStore must return an empty store for every call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("MonthlyCategories", func(t *testing.T) { testMonthly(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("ExternalIDs", func(t *testing.T) { testExternalIDs(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := &models.User{FullName: "An", Email: "an@example.com", Password: "hash", Status: true, Gender: true, Role: models.RoleUser}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	err := s.CreateUser(ctx, &models.User{Email: "an@example.com", Password: "x", Role: models.RoleUser})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	got, err := s.FindUserByEmail(ctx, "an@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	_, err = s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.GetUser(ctx, u.ID+100)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got.Status = false
	got.Phone = "0900"
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)
	assert.Equal(t, "0900", got.Phone)

	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: u.ID + 100, Email: "x@example.com"}), common.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "admin@example.com", Password: "h", Role: models.RoleAdmin, Status: true}))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "an@example.com", users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[1].Role)
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()

	food := &models.Category{Name: "Food", ImageURL: "https://img.example.com/food.png", Status: true}
	rent := &models.Category{Name: "Rent", Status: true}
	require.NoError(t, s.CreateCategory(ctx, food))
	require.NoError(t, s.CreateCategory(ctx, rent))

	food.Status = false
	require.NoError(t, s.UpdateCategory(ctx, food))

	got, err := s.GetCategory(ctx, food.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)
	assert.Equal(t, "https://img.example.com/food.png", got.ImageURL)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Food", list[0].Name)

	require.NoError(t, s.DeleteCategory(ctx, rent.ID))
	assert.ErrorIs(t, s.DeleteCategory(ctx, rent.ID), common.ErrNotFound)
	_, err = s.GetCategory(ctx, rent.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.UpdateCategory(ctx, rent), common.ErrNotFound)
}

func testMonthly(t *testing.T, s store.Store) {
	ctx := context.Background()

	record := &models.MonthlyCategory{
		UserID:  7,
		Month:   "2025-09",
		Balance: decimal.NewFromInt(5000000),
		Categories: []models.CategoryBudget{
			{ID: uuid.New(), CategoryID: 1, Budget: decimal.NewFromInt(2000000)},
		},
	}
	require.NoError(t, s.CreateMonthlyCategory(ctx, record))
	assert.EqualValues(t, 1, record.Version)

	err := s.CreateMonthlyCategory(ctx, &models.MonthlyCategory{UserID: 7, Month: "2025-09"})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	// Same month for another user is a different record.
	require.NoError(t, s.CreateMonthlyCategory(ctx, &models.MonthlyCategory{UserID: 8, Month: "2025-09"}))

	stale := record.Clone()
	record.Categories = append(record.Categories, models.CategoryBudget{ID: uuid.New(), CategoryID: 2, Budget: decimal.NewFromInt(1000000)})
	require.NoError(t, s.UpdateMonthlyCategory(ctx, record))
	assert.EqualValues(t, 2, record.Version)
	assert.ErrorIs(t, s.UpdateMonthlyCategory(ctx, stale), common.ErrConflict)

	got, err := s.FindMonthlyCategory(ctx, 7, "2025-09")
	require.NoError(t, err)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, record.Categories[0].ID, got.Categories[0].ID)
	assert.True(t, got.Categories[1].Budget.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(5000000)))
	assert.EqualValues(t, 2, got.Version)

	_, err = s.FindMonthlyCategory(ctx, 7, "2025-10")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, s.UpdateMonthlyCategory(ctx, &models.MonthlyCategory{ID: record.ID + 100, Version: 1}), common.ErrNotFound)

	require.NoError(t, s.CreateMonthlyCategory(ctx, &models.MonthlyCategory{UserID: 7, Month: "2025-08"}))
	own, err := s.ListMonthlyCategories(ctx, 7)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "2025-08", own[0].Month)

	all, err := s.ListAllMonthlyCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()

	lunch := &models.Transaction{UserID: 1, Month: "2025-09", CategoryID: 3, Amount: decimal.RequireFromString("120000.50"), Note: "lunch"}
	require.NoError(t, s.CreateTransaction(ctx, lunch))
	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{UserID: 2, Month: "2025-09", CategoryID: 3, Amount: decimal.NewFromInt(1), Note: "tea"}))

	own, err := s.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "lunch", own[0].Note)
	assert.True(t, own[0].Amount.Equal(decimal.RequireFromString("120000.50")))

	all, err := s.ListAllTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.GetTransaction(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CategoryID)

	require.NoError(t, s.DeleteTransaction(ctx, lunch.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, lunch.ID), common.ErrNotFound)
	_, err = s.GetTransaction(ctx, lunch.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testExternalIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx := func(userID int64, externalID string) *models.Transaction {
		return &models.Transaction{UserID: userID, Month: "2025-09", CategoryID: 3, Amount: decimal.NewFromInt(5), ExternalID: externalID}
	}

	first := tx(1, "ofx:42")
	require.NoError(t, s.CreateTransaction(ctx, first))
	assert.ErrorIs(t, s.CreateTransaction(ctx, tx(1, "ofx:42")), common.ErrDuplicate)
	require.NoError(t, s.CreateTransaction(ctx, tx(2, "ofx:42")))

	require.NoError(t, s.CreateTransaction(ctx, tx(1, "")))
	require.NoError(t, s.CreateTransaction(ctx, tx(1, "")))

	got, err := s.FindTransactionByExternalID(ctx, 1, "ofx:42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.FindTransactionByExternalID(ctx, 1, "ofx:43")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.FindTransactionByExternalID(ctx, 1, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
