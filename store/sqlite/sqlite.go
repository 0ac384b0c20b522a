// Package sqlite is the gorm backend used for single-node installs (DATA_BACKEND=sqlite).
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the database file at dbPath and migrates the schema.
// ":memory:" gives a private in-memory database.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single connection keeps ":memory:" databases from splitting per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &categoryRow{}, &monthlyRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.ErrDuplicate
	default:
		return err
	}
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (d *Database) CreateUser(ctx context.Context, u *models.User) error {
	row := fromUser(u)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", translate(err))
	}
	u.ID, u.CreatedAt = row.ID, row.CreatedAt
	return nil
}

func (d *Database) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	if err := d.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, translate(err))
	}
	u := row.model()
	return &u, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", translate(err))
	}
	u := row.model()
	return &u, nil
}

func (d *Database) UpdateUser(ctx context.Context, u *models.User) error {
	row := fromUser(u)
	res := d.db.WithContext(ctx).Model(&userRow{ID: u.ID}).
		Select("full_name", "email", "password", "phone", "gender", "status", "role").
		Updates(&row)
	if err := affected(res); err != nil {
		return fmt.Errorf("failed to update user %d: %w", u.ID, err)
	}
	return nil
}

func (d *Database) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := d.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users, nil
}

func (d *Database) CreateCategory(ctx context.Context, c *models.Category) error {
	row := fromCategory(c)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save category: %w", translate(err))
	}
	c.ID, c.CreatedAt = row.ID, row.CreatedAt
	return nil
}

func (d *Database) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var row categoryRow
	if err := d.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load category %d: %w", id, translate(err))
	}
	c := row.model()
	return &c, nil
}

func (d *Database) UpdateCategory(ctx context.Context, c *models.Category) error {
	row := fromCategory(c)
	res := d.db.WithContext(ctx).Model(&categoryRow{ID: c.ID}).
		Select("name", "image_url", "status").
		Updates(&row)
	if err := affected(res); err != nil {
		return fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	return nil
}

func (d *Database) DeleteCategory(ctx context.Context, id int64) error {
	if err := affected(d.db.WithContext(ctx).Delete(&categoryRow{}, id)); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return nil
}

func (d *Database) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := d.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.model())
	}
	return categories, nil
}

func (d *Database) CreateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error {
	row := fromMonthly(m)
	row.Version = 1
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save monthly categories: %w", translate(err))
	}
	m.ID, m.Version, m.UpdatedAt = row.ID, row.Version, row.UpdatedAt
	return nil
}

func (d *Database) FindMonthlyCategory(ctx context.Context, userID int64, month string) (*models.MonthlyCategory, error) {
	var row monthlyRow
	err := d.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find monthly categories for %s: %w", month, translate(err))
	}
	m := row.model()
	return &m, nil
}

// UpdateMonthlyCategory writes the balance and allocation list only if nobody else wrote
// the record since m.Version was read.
func (d *Database) UpdateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error {
	row := fromMonthly(m)
	row.Version = m.Version + 1
	row.UpdatedAt = time.Now().UTC()

	res := d.db.WithContext(ctx).Model(&monthlyRow{ID: m.ID}).
		Where("version = ?", m.Version).
		Select("balance", "categories", "version", "updated_at").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update monthly categories %d: %w", m.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := d.db.WithContext(ctx).Model(&monthlyRow{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check monthly categories %d: %w", m.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("failed to update monthly categories %d: %w", m.ID, common.ErrNotFound)
		}
		return fmt.Errorf("failed to update monthly categories %d: %w", m.ID, common.ErrConflict)
	}
	m.Version, m.UpdatedAt = row.Version, row.UpdatedAt
	return nil
}

func (d *Database) ListMonthlyCategories(ctx context.Context, userID int64) ([]models.MonthlyCategory, error) {
	return d.listMonthly(d.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (d *Database) ListAllMonthlyCategories(ctx context.Context) ([]models.MonthlyCategory, error) {
	return d.listMonthly(d.db.WithContext(ctx))
}

func (d *Database) listMonthly(q *gorm.DB) ([]models.MonthlyCategory, error) {
	var rows []monthlyRow
	if err := q.Order("month").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list monthly categories: %w", err)
	}
	out := make([]models.MonthlyCategory, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (d *Database) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	row := fromTransaction(t)
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", translate(err))
	}
	t.ID, t.CreatedAt = row.ID, row.CreatedAt
	return nil
}

func (d *Database) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var row transactionRow
	if err := d.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load transaction %d: %w", id, translate(err))
	}
	t := row.model()
	return &t, nil
}

func (d *Database) FindTransactionByExternalID(ctx context.Context, userID int64, externalID string) (*models.Transaction, error) {
	if externalID == "" {
		return nil, common.ErrNotFound
	}
	var row transactionRow
	err := d.db.WithContext(ctx).Where("user_id = ? AND external_id = ?", userID, externalID).First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", externalID, translate(err))
	}
	t := row.model()
	return &t, nil
}

func (d *Database) DeleteTransaction(ctx context.Context, id int64) error {
	if err := affected(d.db.WithContext(ctx).Delete(&transactionRow{}, id)); err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return nil
}

func (d *Database) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return d.listTransactions(d.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (d *Database) ListAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	return d.listTransactions(d.db.WithContext(ctx))
}

func (d *Database) listTransactions(q *gorm.DB) ([]models.Transaction, error) {
	var rows []transactionRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
