package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/store"
	"golang.org/x/sync/errgroup"
)

const DefaultPageSize = 8

type Categories interface {
	GetActive(ctx context.Context, id int64) (*models.Category, error)
	Names(ctx context.Context) (map[int64]string, error)
}

type Service struct {
	store      store.TransactionStore
	categories Categories
	publisher  events.Publisher
	logger     *logging.Logger
	pageSize   int
	now        func() time.Time
}

func NewService(st store.TransactionStore, categories Categories, pageSize int, p events.Publisher, logger *logging.Logger) *Service {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if p == nil {
		p = events.Noop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:      st,
		categories: categories,
		publisher:  p,
		logger:     logger.WithComponent(logging.ComponentLedger),
		pageSize:   pageSize,
		now:        time.Now,
	}
}

// List fetches the user's transactions for month. Nothing is cached between calls.
func (s *Service) List(ctx context.Context, userID int64, month string) ([]models.Transaction, error) {
	month, err := models.ParseMonth(month)
	if err != nil {
		return nil, common.NewValidationError("month", err.Error())
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return FilterMonth(txs, month), nil
}

// Record stores a new spend. A repeated ExternalID returns the earlier transaction with
// common.ErrDuplicate.
func (s *Service) Record(ctx context.Context, userID int64, in models.CreateTransaction) (*models.Transaction, error) {
	v := &common.ValidationError{}
	switch {
	case !in.Amount.IsPositive():
		v.Add("amount", "amount must be greater than 0")
	case !models.FitsMoney(in.Amount):
		v.Add("amount", "amount must have at most 2 decimal places")
	}
	month := models.MonthOf(s.now())
	if in.Month != "" {
		m, err := models.ParseMonth(in.Month)
		if err != nil {
			v.Add("month", err.Error())
		}
		month = m
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetActive(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:     userID,
		Month:      month,
		CategoryID: in.CategoryID,
		Amount:     in.Amount,
		Note:       strings.TrimSpace(in.Note),
		ExternalID: in.ExternalID,
	}
	err := s.store.CreateTransaction(ctx, tx)
	if errors.Is(err, common.ErrDuplicate) && in.ExternalID != "" {
		existing, findErr := s.store.FindTransactionByExternalID(ctx, userID, in.ExternalID)
		if findErr != nil {
			return nil, fmt.Errorf("find transaction %s: %w", in.ExternalID, findErr)
		}
		return existing, common.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, events.New(events.TransactionRecorded, userID, month, map[string]any{
		"transactionId": tx.ID, "categoryId": tx.CategoryID, "amount": tx.Amount.String(),
	}))
	return tx, nil
}

// Delete removes one of the user's transactions. Other users' transactions are reported as
// not found.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}
	if tx.UserID != userID {
		return fmt.Errorf("get transaction %d: %w", id, common.ErrNotFound)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.publish(ctx, events.New(events.TransactionDeleted, userID, MonthKey(*tx), map[string]any{"transactionId": id}))
	return nil
}

// Open builds a view over the user's month, loading transactions and category names together.
func (s *Service) Open(ctx context.Context, userID int64, month string) (*View, error) {
	v := &View{svc: s, userID: userID, order: OrderNone, page: 1, pageSize: s.pageSize}
	if err := v.SetMonth(ctx, month); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) load(ctx context.Context, userID int64, month string) ([]models.Transaction, map[int64]string, error) {
	var (
		txs   []models.Transaction
		names map[int64]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.List(gctx, userID, month)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.categories.Names(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, names, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", logging.FieldEvent, e.Type, logging.FieldError, err)
	}
}

// IsDuplicate reports whether Record skipped an already imported line.
func IsDuplicate(err error) bool {
	return errors.Is(err, common.ErrDuplicate)
}
