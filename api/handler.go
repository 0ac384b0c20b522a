package api

import (
	"github.com/nemopss/budgetly/account"
	"github.com/nemopss/budgetly/budget"
	"github.com/nemopss/budgetly/catalog"
	"github.com/nemopss/budgetly/dashboard"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/ledger"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/session"
	"github.com/nemopss/budgetly/store"
)

type Handler struct {
	accounts  *account.Service
	sessions  *session.Manager
	catalog   *catalog.Service
	budget    *budget.Service
	ledger    *ledger.Service
	dashboard *dashboard.Service
	logger    *logging.Logger
}

type Options struct {
	Store          store.Store
	Sessions       *session.Manager
	Publisher      events.Publisher
	Logger         *logging.Logger
	LedgerPageSize int
}

// NewHandler builds the services over one store and shares the session manager between them.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	cat := catalog.NewService(opts.Store, opts.Publisher, logger)
	return &Handler{
		accounts:  account.NewService(opts.Store, opts.Sessions, opts.Publisher, logger),
		sessions:  opts.Sessions,
		catalog:   cat,
		budget:    budget.NewService(opts.Store, cat, opts.Sessions, opts.Publisher, logger),
		ledger:    ledger.NewService(opts.Store, cat, opts.LedgerPageSize, opts.Publisher, logger),
		dashboard: dashboard.NewService(opts.Store),
		logger:    logger.WithComponent(logging.ComponentHTTP),
	}
}
