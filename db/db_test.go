package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to the database named by POSTGRES_TEST_URL and empties every table
// so each test starts from a clean state.
func setupTestDB(t *testing.T) *Storage {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL is not set")
	}

	store, err := NewStorage(connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = store.DB.Exec("TRUNCATE TABLE transactions, monthly_categories, categories, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return store
}

func createUser(t *testing.T, store *Storage, email string) *models.User {
	user := &models.User{Email: email, Password: "hash", Status: true, Role: models.RoleUser, Gender: true}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// TestUsers covers creation, lookup by email and the case-insensitive unique index.
func TestUsers(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createUser(t, store, "an@example.com")
	if user.ID == 0 {
		t.Error("Expected user ID to be set, got 0")
	}

	fetched, err := store.FindUserByEmail(ctx, "AN@example.com")
	if err != nil {
		t.Fatalf("Failed to find user: %v", err)
	}
	if fetched.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, fetched.ID)
	}

	// The same address in another case is still a duplicate
	err = store.CreateUser(ctx, &models.User{Email: "An@Example.com", Password: "x", Role: models.RoleUser})
	if !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	if _, err := store.FindUserByEmail(ctx, "missing@example.com"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	fetched.Status = false
	if err := store.UpdateUser(ctx, fetched); err != nil {
		t.Fatalf("Failed to update user: %v", err)
	}
	fetched, _ = store.GetUser(ctx, user.ID)
	if fetched.Status {
		t.Error("Expected user to be blocked")
	}
}

// TestCategories covers the admin category lifecycle.
func TestCategories(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	category := &models.Category{Name: "Food", Status: true}
	if err := store.CreateCategory(ctx, category); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	category.Name = "Groceries"
	category.Status = false
	if err := store.UpdateCategory(ctx, category); err != nil {
		t.Fatalf("Failed to update category: %v", err)
	}

	categories, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("Failed to list categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Groceries" || categories[0].Status {
		t.Errorf("Unexpected categories: %+v", categories)
	}

	if err := store.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("Failed to delete category: %v", err)
	}
	if err := store.DeleteCategory(ctx, category.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestMonthlyCategories covers the one-record-per-month constraint and version checks.
func TestMonthlyCategories(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createUser(t, store, "budget@example.com")
	record := &models.MonthlyCategory{
		UserID:  user.ID,
		Month:   "2025-09",
		Balance: decimal.NewFromInt(5000000),
		Categories: []models.CategoryBudget{
			{ID: uuid.New(), CategoryID: 1, Budget: decimal.NewFromInt(2000000)},
		},
	}
	if err := store.CreateMonthlyCategory(ctx, record); err != nil {
		t.Fatalf("Failed to create monthly record: %v", err)
	}
	if record.Version != 1 {
		t.Errorf("Expected version 1, got %d", record.Version)
	}

	dup := &models.MonthlyCategory{UserID: user.ID, Month: "2025-09"}
	if err := store.CreateMonthlyCategory(ctx, dup); !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	stale := record.Clone()
	record.Categories = append(record.Categories, models.CategoryBudget{ID: uuid.New(), CategoryID: 2, Budget: decimal.NewFromInt(1000000)})
	if err := store.UpdateMonthlyCategory(ctx, record); err != nil {
		t.Fatalf("Failed to update monthly record: %v", err)
	}
	if err := store.UpdateMonthlyCategory(ctx, stale); !errors.Is(err, common.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	fetched, err := store.FindMonthlyCategory(ctx, user.ID, "2025-09")
	if err != nil {
		t.Fatalf("Failed to find monthly record: %v", err)
	}
	if len(fetched.Categories) != 2 || !fetched.Balance.Equal(decimal.NewFromInt(5000000)) {
		t.Errorf("Unexpected record: %+v", fetched)
	}
	if fetched.Categories[0].ID != record.Categories[0].ID {
		t.Error("Expected allocation ids to survive the round trip")
	}
}

// TestTransactions covers creation, listing per user and deletion.
func TestTransactions(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createUser(t, store, "ledger@example.com")
	other := createUser(t, store, "other@example.com")

	for _, tx := range []*models.Transaction{
		{UserID: user.ID, Month: "2025-09", CategoryID: 1, Amount: decimal.NewFromInt(120000), Note: "lunch"},
		{UserID: other.ID, Month: "2025-09", CategoryID: 1, Amount: decimal.NewFromInt(5000), Note: "tea"},
	} {
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("Failed to create transaction: %v", err)
		}
	}

	transactions, err := store.ListTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(transactions) != 1 || transactions[0].Note != "lunch" {
		t.Fatalf("Unexpected transactions: %+v", transactions)
	}

	if err := store.DeleteTransaction(ctx, transactions[0].ID); err != nil {
		t.Fatalf("Failed to delete transaction: %v", err)
	}
	if err := store.DeleteTransaction(ctx, transactions[0].ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransactionExternalIDs(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createUser(t, store, "import@example.com")
	imported := func() *models.Transaction {
		return &models.Transaction{UserID: user.ID, Month: "2025-09", CategoryID: 1, Amount: decimal.NewFromInt(5), ExternalID: "ofx:42"}
	}

	first := imported()
	if err := store.CreateTransaction(ctx, first); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}
	if err := store.CreateTransaction(ctx, imported()); !errors.Is(err, common.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	for i := 0; i < 2; i++ {
		manual := &models.Transaction{UserID: user.ID, Month: "2025-09", CategoryID: 1, Amount: decimal.NewFromInt(1)}
		if err := store.CreateTransaction(ctx, manual); err != nil {
			t.Fatalf("Failed to create transaction without external id: %v", err)
		}
	}

	got, err := store.FindTransactionByExternalID(ctx, user.ID, "ofx:42")
	if err != nil {
		t.Fatalf("Failed to find transaction: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("Expected transaction %d, got %d", first.ID, got.ID)
	}
}
