package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
	"github.com/nemopss/budgetly/store"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Writes without an expected version retry this many times when another session wins the race.
const maxAttempts = 3

// Categories is the part of the catalog the budget needs.
type Categories interface {
	GetActive(ctx context.Context, id int64) (*models.Category, error)
	Names(ctx context.Context) (map[int64]string, error)
}

// MonthRecorder remembers the month a session last worked on.
type MonthRecorder interface {
	RememberMonth(sessionID, month string) error
}

type Service struct {
	store      store.BudgetStore
	categories Categories
	sessions   MonthRecorder
	publisher  events.Publisher
	logger     *logging.Logger
}

func NewService(st store.BudgetStore, categories Categories, sessions MonthRecorder, p events.Publisher, logger *logging.Logger) *Service {
	if p == nil {
		p = events.Noop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:      st,
		categories: categories,
		sessions:   sessions,
		publisher:  p,
		logger:     logger.WithComponent(logging.ComponentBudget),
	}
}

// Find returns the user's record for month, or nil when the month has none.
func (s *Service) Find(ctx context.Context, userID int64, month string) (*models.MonthlyCategory, error) {
	month, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.FindMonthlyCategory(ctx, userID, month)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find monthly budget: %w", err)
	}
	return rec, nil
}

// Records lists every month the user has a budget for.
func (s *Service) Records(ctx context.Context, userID int64) ([]models.MonthlyCategory, error) {
	recs, err := s.store.ListMonthlyCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list monthly budgets: %w", err)
	}
	return recs, nil
}

// Overview loads the month's record and the category names together.
func (s *Service) Overview(ctx context.Context, userID int64, month string, override *decimal.Decimal) (*models.BudgetOverview, error) {
	month, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	var (
		rec   *models.MonthlyCategory
		names map[int64]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = s.Find(gctx, userID, month)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.categories.Names(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Summarize(month, rec, override, names), nil
}

// SaveBalance sets the month's ceiling, creating the record when the month has none, and
// remembers the month on the session.
func (s *Service) SaveBalance(ctx context.Context, sess *session.Session, month string, balance decimal.Decimal, ifMatch int64) (*models.BudgetOverview, error) {
	if balance.IsNegative() {
		return nil, common.NewValidationError("balance", "balance must not be negative")
	}
	if !models.FitsMoney(balance) {
		return nil, common.NewValidationError("balance", "balance must have at most 2 decimal places")
	}

	rec, err := s.mutate(ctx, sess.User.ID, month, ifMatch,
		func(m *models.MonthlyCategory) error {
			m.Balance = balance
			return nil
		},
		func(m *models.MonthlyCategory) {
			m.Balance = balance
		})
	if err != nil {
		return nil, err
	}

	if s.sessions != nil {
		if err := s.sessions.RememberMonth(sess.ID, rec.Month); err != nil {
			s.logger.WarnContext(ctx, "Failed to remember month", logging.FieldSessionID, sess.ID, logging.FieldError, err)
		}
	}
	return s.finish(ctx, events.BalanceSaved, rec, map[string]any{"balance": balance.String()})
}

// UpsertAllocation sets the allocation for an active category. A month without a record gets
// one with a zero balance.
func (s *Service) UpsertAllocation(ctx context.Context, userID int64, month string, categoryID int64, amount decimal.Decimal, ifMatch int64) (*models.BudgetOverview, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetActive(ctx, categoryID); err != nil {
		return nil, err
	}

	var entry models.CategoryBudget
	apply := func(m *models.MonthlyCategory) error {
		m.Categories, entry = Upsert(m.Categories, categoryID, amount)
		return nil
	}
	rec, err := s.mutate(ctx, userID, month, ifMatch, apply, func(m *models.MonthlyCategory) { _ = apply(m) })
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, events.AllocationUpserted, rec, map[string]any{
		"allocationId": entry.ID, "categoryId": categoryID, "amount": amount.String(),
	})
}

func (s *Service) UpdateAllocationAmount(ctx context.Context, userID int64, month string, allocationID uuid.UUID, amount decimal.Decimal, ifMatch int64) (*models.BudgetOverview, error) {
	if err := positive(amount); err != nil {
		return nil, err
	}

	var entry models.CategoryBudget
	rec, err := s.mutate(ctx, userID, month, ifMatch, func(m *models.MonthlyCategory) error {
		var err error
		m.Categories, entry, err = SetAmount(m.Categories, allocationID, amount)
		return err
	}, nil)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, events.AllocationUpdated, rec, map[string]any{
		"allocationId": allocationID, "categoryId": entry.CategoryID, "amount": amount.String(),
	})
}

func (s *Service) RemoveAllocation(ctx context.Context, userID int64, month string, allocationID uuid.UUID, ifMatch int64) (*models.BudgetOverview, error) {
	var removed models.CategoryBudget
	rec, err := s.mutate(ctx, userID, month, ifMatch, func(m *models.MonthlyCategory) error {
		var err error
		m.Categories, removed, err = Remove(m.Categories, allocationID)
		return err
	}, nil)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, events.AllocationRemoved, rec, map[string]any{
		"allocationId": allocationID, "categoryId": removed.CategoryID, "amount": removed.Budget.String(),
	})
}

// mutate is a version-checked read-modify-write of one month's record. apply edits an
// existing record; create, when non-nil, fills a new one for a month without a record.
//
// With ifMatch > 0 the stored version must equal ifMatch and a lost race is reported as
// common.ErrConflict. Without it the write is retried against the fresh record.
func (s *Service) mutate(ctx context.Context, userID int64, month string, ifMatch int64,
	apply func(*models.MonthlyCategory) error, create func(*models.MonthlyCategory)) (*models.MonthlyCategory, error) {
	month, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		rec, err := s.store.FindMonthlyCategory(ctx, userID, month)
		switch {
		case errors.Is(err, common.ErrNotFound):
			if create == nil {
				return nil, ErrNoRecord
			}
			if ifMatch > 0 {
				return nil, fmt.Errorf("monthly budget %s: %w", month, common.ErrConflict)
			}
			rec = &models.MonthlyCategory{UserID: userID, Month: month, Balance: decimal.Zero, Categories: []models.CategoryBudget{}}
			create(rec)
			err = s.store.CreateMonthlyCategory(ctx, rec)
			if errors.Is(err, common.ErrDuplicate) && attempt < maxAttempts {
				// Another session created the month first; edit theirs.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("create monthly budget: %w", err)
			}
			return rec, nil

		case err != nil:
			return nil, fmt.Errorf("find monthly budget: %w", err)
		}

		if ifMatch > 0 && rec.Version != ifMatch {
			return nil, fmt.Errorf("monthly budget %s: %w", month, common.ErrConflict)
		}
		if err := apply(rec); err != nil {
			return nil, err
		}
		err = s.store.UpdateMonthlyCategory(ctx, rec)
		if errors.Is(err, common.ErrConflict) && ifMatch == 0 && attempt < maxAttempts {
			s.logger.DebugContext(ctx, "Retrying monthly budget write", logging.FieldUserID, userID, logging.FieldMonth, month)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update monthly budget: %w", err)
		}
		return rec, nil
	}
}

func (s *Service) finish(ctx context.Context, eventType string, rec *models.MonthlyCategory, data map[string]any) (*models.BudgetOverview, error) {
	names, err := s.categories.Names(ctx)
	if err != nil {
		// The write already happened; fall back to ids only.
		s.logger.WarnContext(ctx, "Failed to load category names", logging.FieldError, err)
	}
	ov := Summarize(rec.Month, rec, nil, names)

	s.publish(ctx, events.New(eventType, rec.UserID, rec.Month, data))
	if ov.Overallocated {
		s.publish(ctx, events.New(events.Overallocated, rec.UserID, rec.Month, map[string]any{
			"balance": rec.Balance.String(), "totalAllocated": ov.TotalAllocated.String(),
		}))
	}
	return ov, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", logging.FieldEvent, e.Type, logging.FieldError, err)
	}
}

func parseMonth(month string) (string, error) {
	m, err := models.ParseMonth(month)
	if err != nil {
		return "", common.NewValidationError("month", err.Error())
	}
	return m, nil
}

func positive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.NewValidationError("amount", "amount must be greater than 0")
	}
	if !models.FitsMoney(amount) {
		return common.NewValidationError("amount", "amount must have at most 2 decimal places")
	}
	return nil
}
