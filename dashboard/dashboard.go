// Package dashboard computes the admin overview figures.
package dashboard

import (
	"context"
	"fmt"

	"github.com/nemopss/budgetly/budget"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/store"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Stats reads users, categories, budgets and transactions concurrently.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var (
		users        []models.User
		categories   []models.Category
		records      []models.MonthlyCategory
		transactions []models.Transaction
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.store.ListUsers(ctx)
		return wrap("users", err)
	})
	g.Go(func() (err error) {
		categories, err = s.store.ListCategories(ctx)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		records, err = s.store.ListAllMonthlyCategories(ctx)
		return wrap("monthly budgets", err)
	})
	g.Go(func() (err error) {
		transactions, err = s.store.ListAllTransactions(ctx)
		return wrap("transactions", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		CategoryCount:    len(categories),
		TransactionCount: len(transactions),
		TotalSpending:    decimal.Zero,
		TotalBudgeted:    decimal.Zero,
		TotalBalance:     decimal.Zero,
	}
	for _, u := range users {
		if u.Role == models.RoleUser {
			stats.UserCount++
		}
	}
	for _, t := range transactions {
		stats.TotalSpending = stats.TotalSpending.Add(t.Amount)
	}
	for i := range records {
		stats.TotalBudgeted = stats.TotalBudgeted.Add(budget.TotalAllocated(&records[i]))
		stats.TotalBalance = stats.TotalBalance.Add(records[i].Balance)
	}
	return stats, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
