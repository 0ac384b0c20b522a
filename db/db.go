// Package db is the PostgreSQL backend.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
)

const uniqueViolation = "23505"

type Storage struct {
	DB *sql.DB
}

// NewStorage connects to connStr and migrates the schema.
func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return common.ErrDuplicate
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const userColumns = "id, full_name, email, password, phone, gender, status, role, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.Phone, &u.Gender, &u.Status, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (full_name, email, password, phone, gender, status, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		u.FullName, u.Email, u.Password, u.Phone, u.Gender, u.Status, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return u, nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", translate(err))
	}
	return u, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET full_name = $2, email = $3, password = $4, phone = $5, gender = $6, status = $7, role = $8
		 WHERE id = $1`,
		u.ID, u.FullName, u.Email, u.Password, u.Phone, u.Gender, u.Status, u.Role)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, translate(err))
	}
	return requireRow(res)
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

const categoryColumns = "id, name, image_url, status, created_at"

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.ImageURL, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CreateCategory(ctx context.Context, c *models.Category) error {
	err := s.DB.QueryRowContext(ctx,
		"INSERT INTO categories (name, image_url, status) VALUES ($1, $2, $3) RETURNING id, created_at",
		c.Name, c.ImageURL, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(s.DB.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, translate(err))
	}
	return c, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE categories SET name = $2, image_url = $3, status = $4 WHERE id = $1",
		c.ID, c.Name, c.ImageURL, c.Status)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return requireRow(res)
}

func (s *Storage) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return requireRow(res)
}

func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

const monthlyColumns = "id, user_id, month, balance, categories, version, updated_at"

func scanMonthly(row scanner) (*models.MonthlyCategory, error) {
	var (
		m   models.MonthlyCategory
		raw []byte
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Month, &m.Balance, &raw, &m.Version, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &m.Categories); err != nil {
		return nil, fmt.Errorf("decode allocations of record %d: %w", m.ID, err)
	}
	return &m, nil
}

func encodeAllocations(list []models.CategoryBudget) ([]byte, error) {
	if list == nil {
		list = []models.CategoryBudget{}
	}
	return json.Marshal(list)
}

func (s *Storage) CreateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error {
	raw, err := encodeAllocations(m.Categories)
	if err != nil {
		return err
	}
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO monthly_categories (user_id, month, balance, categories)
		 VALUES ($1, $2, $3, $4) RETURNING id, version, updated_at`,
		m.UserID, m.Month, m.Balance, raw,
	).Scan(&m.ID, &m.Version, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create monthly record %s: %w", m.Month, translate(err))
	}
	return nil
}

func (s *Storage) FindMonthlyCategory(ctx context.Context, userID int64, month string) (*models.MonthlyCategory, error) {
	m, err := scanMonthly(s.DB.QueryRowContext(ctx,
		"SELECT "+monthlyColumns+" FROM monthly_categories WHERE user_id = $1 AND month = $2", userID, month))
	if err != nil {
		return nil, fmt.Errorf("find monthly record %s: %w", month, translate(err))
	}
	return m, nil
}

func (s *Storage) UpdateMonthlyCategory(ctx context.Context, m *models.MonthlyCategory) error {
	raw, err := encodeAllocations(m.Categories)
	if err != nil {
		return err
	}
	err = s.DB.QueryRowContext(ctx,
		`UPDATE monthly_categories
		 SET balance = $3, categories = $4, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $2
		 RETURNING version, updated_at`,
		m.ID, m.Version, m.Balance, raw,
	).Scan(&m.Version, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if qErr := s.DB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM monthly_categories WHERE id = $1)", m.ID).Scan(&exists); qErr != nil {
			return fmt.Errorf("update monthly record %d: %w", m.ID, qErr)
		}
		if exists {
			return common.ErrConflict
		}
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update monthly record %d: %w", m.ID, err)
	}
	return nil
}

func (s *Storage) ListMonthlyCategories(ctx context.Context, userID int64) ([]models.MonthlyCategory, error) {
	return s.queryMonthly(ctx, "SELECT "+monthlyColumns+" FROM monthly_categories WHERE user_id = $1 ORDER BY month", userID)
}

func (s *Storage) ListAllMonthlyCategories(ctx context.Context) ([]models.MonthlyCategory, error) {
	return s.queryMonthly(ctx, "SELECT "+monthlyColumns+" FROM monthly_categories ORDER BY month")
}

func (s *Storage) queryMonthly(ctx context.Context, query string, args ...any) ([]models.MonthlyCategory, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list monthly records: %w", err)
	}
	defer rows.Close()

	records := []models.MonthlyCategory{}
	for rows.Next() {
		m, err := scanMonthly(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *m)
	}
	return records, rows.Err()
}

const transactionColumns = "id, user_id, month, category_id, amount, note, external_id, created_at"

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Month, &t.CategoryID, &t.Amount, &t.Note, &t.ExternalID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, month, category_id, amount, note, external_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		t.UserID, t.Month, t.CategoryID, t.Amount, t.Note, t.ExternalID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.DB.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, translate(err))
	}
	return t, nil
}

func (s *Storage) FindTransactionByExternalID(ctx context.Context, userID int64, externalID string) (*models.Transaction, error) {
	if externalID == "" {
		return nil, common.ErrNotFound
	}
	t, err := scanTransaction(s.DB.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = $1 AND external_id = $2", userID, externalID))
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", externalID, translate(err))
	}
	return t, nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return requireRow(res)
}

func (s *Storage) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE user_id = $1 ORDER BY id", userID)
}

func (s *Storage) ListAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY id")
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
