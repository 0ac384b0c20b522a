// Package memory is a process-local backend. It is what the tests run against and what
// DATA_BACKEND=memory selects for local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
)

type Store struct {
	mu sync.RWMutex

	users        map[int64]models.User
	categories   map[int64]models.Category
	monthly      map[int64]models.MonthlyCategory
	transactions map[int64]models.Transaction

	nextID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[int64]models.User),
		categories:   make(map[int64]models.Category),
		monthly:      make(map[int64]models.MonthlyCategory),
		transactions: make(map[int64]models.Transaction),
		now:          time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return common.ErrDuplicate
		}
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return common.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return common.ErrDuplicate
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return common.ErrNotFound
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateMonthlyCategory(_ context.Context, m *models.MonthlyCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.monthly {
		if existing.UserID == m.UserID && existing.Month == m.Month {
			return common.ErrDuplicate
		}
	}
	m.ID = s.id()
	m.Version = 1
	m.UpdatedAt = s.now().UTC()
	s.monthly[m.ID] = *m.Clone()
	return nil
}

func (s *Store) FindMonthlyCategory(_ context.Context, userID int64, month string) (*models.MonthlyCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.monthly {
		if m.UserID == userID && m.Month == month {
			return m.Clone(), nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *Store) UpdateMonthlyCategory(_ context.Context, m *models.MonthlyCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.monthly[m.ID]
	if !ok {
		return common.ErrNotFound
	}
	if existing.Version != m.Version {
		return common.ErrConflict
	}
	m.Version++
	m.UpdatedAt = s.now().UTC()
	s.monthly[m.ID] = *m.Clone()
	return nil
}

func (s *Store) ListMonthlyCategories(_ context.Context, userID int64) ([]models.MonthlyCategory, error) {
	return s.listMonthly(func(m models.MonthlyCategory) bool { return m.UserID == userID }), nil
}

func (s *Store) ListAllMonthlyCategories(_ context.Context) ([]models.MonthlyCategory, error) {
	return s.listMonthly(func(models.MonthlyCategory) bool { return true }), nil
}

func (s *Store) listMonthly(keep func(models.MonthlyCategory) bool) []models.MonthlyCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MonthlyCategory, 0)
	for _, m := range s.monthly {
		if keep(m) {
			out = append(out, *m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func (s *Store) CreateTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ExternalID != "" {
		for _, existing := range s.transactions {
			if existing.UserID == t.UserID && existing.ExternalID == t.ExternalID {
				return common.ErrDuplicate
			}
		}
	}
	t.ID = s.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.transactions[t.ID] = *t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (s *Store) FindTransactionByExternalID(_ context.Context, userID int64, externalID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if externalID == "" {
		return nil, common.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.UserID == userID && t.ExternalID == externalID {
			return &t, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	return s.listTransactions(func(t models.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) ListAllTransactions(_ context.Context) ([]models.Transaction, error) {
	return s.listTransactions(func(models.Transaction) bool { return true }), nil
}

func (s *Store) listTransactions(keep func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for _, t := range s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
