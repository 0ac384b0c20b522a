// Package catalog manages the spending categories administrators curate for everyone.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/store"
)

// ErrCategoryInUse is returned when deleting a category that transactions or budgets still
// reference. Deactivate it instead.
var ErrCategoryInUse = fmt.Errorf("category is used in transactions or budgets: %w", common.ErrConflict)

type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *logging.Logger
}

func NewService(s store.Store, p events.Publisher, logger *logging.Logger) *Service {
	if p == nil {
		p = events.Noop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{store: s, publisher: p, logger: logger.WithComponent(logging.ComponentCatalog)}
}

// List returns categories whose name contains query, case-insensitively.
func (s *Service) List(ctx context.Context, query string, activeOnly bool) ([]models.Category, error) {
	all, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Category, 0, len(all))
	for _, c := range all {
		if activeOnly && !c.Status {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) Active(ctx context.Context) ([]models.Category, error) {
	return s.List(ctx, "", true)
}

// Names maps every category id, active or not, to its display name.
func (s *Service) Names(ctx context.Context) (map[int64]string, error) {
	all, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(all))
	for _, c := range all {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

// GetActive returns the category only if it exists and is enabled. Both failures are
// reported against the categoryId field.
func (s *Service) GetActive(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewValidationError("categoryId", "category does not exist")
	}
	if err != nil {
		return nil, err
	}
	if !c.Status {
		return nil, common.NewValidationError("categoryId", "category is not active")
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, in models.CreateCategory) (*models.Category, error) {
	c := &models.Category{
		Name:     strings.TrimSpace(in.Name),
		ImageURL: strings.TrimSpace(in.ImageURL),
		Status:   true,
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.changed(ctx, c, "created")
	return c, nil
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, id int64, in models.UpdateCategory) (*models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.ImageURL != nil {
		c.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	s.changed(ctx, c, "updated")
	return c, nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, active bool) (*models.Category, error) {
	return s.Update(ctx, id, models.UpdateCategory{Status: &active})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	used, err := s.inUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrCategoryInUse
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.changed(ctx, c, "deleted")
	return nil
}

func (s *Service) inUse(ctx context.Context, id int64) (bool, error) {
	txs, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	for _, t := range txs {
		if t.CategoryID == id {
			return true, nil
		}
	}

	records, err := s.store.ListAllMonthlyCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	for _, r := range records {
		for _, a := range r.Categories {
			if a.CategoryID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Service) changed(ctx context.Context, c *models.Category, action string) {
	e := events.New(events.CategoryChanged, 0, "", map[string]any{"categoryId": c.ID, "action": action, "status": c.Status})
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", logging.FieldEvent, e.Type, logging.FieldError, err)
	}
}

func validate(c *models.Category) error {
	v := &common.ValidationError{}
	if c.Name == "" {
		v.Add("name", "name is required")
	}
	if c.ImageURL != "" {
		u, err := url.Parse(c.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.Add("imageUrl", "image URL must be an absolute http(s) URL")
		}
	}
	return v.OrNil()
}
