package sqlite

import (
	"time"

	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
)

type userRow struct {
	ID        int64  `gorm:"primaryKey"`
	FullName  string `gorm:"not null;default:''"`
	Email     string `gorm:"type:text collate nocase;not null;uniqueIndex"`
	Password  string `gorm:"not null"`
	Phone     string `gorm:"not null;default:''"`
	Gender    bool
	Status    bool
	Role      string `gorm:"not null;default:user"`
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type categoryRow struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	ImageURL  string `gorm:"not null;default:''"`
	Status    bool
	CreatedAt time.Time
}

func (categoryRow) TableName() string { return "categories" }

// monthlyRow keeps allocations as a JSON column; (user_id, month) is unique.
type monthlyRow struct {
	ID         int64                   `gorm:"primaryKey"`
	UserID     int64                   `gorm:"not null;uniqueIndex:idx_monthly_user_month"`
	Month      string                  `gorm:"not null;uniqueIndex:idx_monthly_user_month"`
	Balance    decimal.Decimal         `gorm:"type:text;not null"`
	Categories []models.CategoryBudget `gorm:"serializer:json"`
	Version    int64                   `gorm:"not null;default:1"`
	UpdatedAt  time.Time
}

func (monthlyRow) TableName() string { return "monthly_categories" }

type transactionRow struct {
	ID         int64           `gorm:"primaryKey"`
	UserID     int64           `gorm:"not null;index;uniqueIndex:idx_transactions_user_external,where:external_id <> ''"`
	Month      string          `gorm:"not null;default:''"`
	CategoryID int64           `gorm:"not null"`
	Amount     decimal.Decimal `gorm:"type:text;not null"`
	Note       string          `gorm:"not null;default:''"`
	ExternalID string          `gorm:"not null;default:'';uniqueIndex:idx_transactions_user_external,where:external_id <> ''"`
	CreatedAt  time.Time
}

func (transactionRow) TableName() string { return "transactions" }

func fromUser(u *models.User) userRow {
	return userRow{
		ID: u.ID, FullName: u.FullName, Email: u.Email, Password: u.Password, Phone: u.Phone,
		Gender: u.Gender, Status: u.Status, Role: string(u.Role), CreatedAt: u.CreatedAt,
	}
}

func (r userRow) model() models.User {
	return models.User{
		ID: r.ID, FullName: r.FullName, Email: r.Email, Password: r.Password, Phone: r.Phone,
		Gender: r.Gender, Status: r.Status, Role: models.Role(r.Role), CreatedAt: r.CreatedAt,
	}
}

func fromCategory(c *models.Category) categoryRow {
	return categoryRow{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL, Status: c.Status, CreatedAt: c.CreatedAt}
}

func (r categoryRow) model() models.Category {
	return models.Category{ID: r.ID, Name: r.Name, ImageURL: r.ImageURL, Status: r.Status, CreatedAt: r.CreatedAt}
}

func fromMonthly(m *models.MonthlyCategory) monthlyRow {
	return monthlyRow{
		ID: m.ID, UserID: m.UserID, Month: m.Month, Balance: m.Balance,
		Categories: append([]models.CategoryBudget{}, m.Categories...), Version: m.Version, UpdatedAt: m.UpdatedAt,
	}
}

func (r monthlyRow) model() models.MonthlyCategory {
	categories := r.Categories
	if categories == nil {
		categories = []models.CategoryBudget{}
	}
	return models.MonthlyCategory{
		ID: r.ID, UserID: r.UserID, Month: r.Month, Balance: r.Balance,
		Categories: categories, Version: r.Version, UpdatedAt: r.UpdatedAt,
	}
}

func fromTransaction(t *models.Transaction) transactionRow {
	return transactionRow{
		ID: t.ID, UserID: t.UserID, Month: t.Month, CategoryID: t.CategoryID, Amount: t.Amount,
		Note: t.Note, ExternalID: t.ExternalID, CreatedAt: t.CreatedAt,
	}
}

func (r transactionRow) model() models.Transaction {
	return models.Transaction{
		ID: r.ID, UserID: r.UserID, Month: r.Month, CategoryID: r.CategoryID, Amount: r.Amount,
		Note: r.Note, ExternalID: r.ExternalID, CreatedAt: r.CreatedAt,
	}
}
