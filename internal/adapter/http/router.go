package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health       *Handler
	Funding      *FundingHandler
	Applications *ApplicationHandler
	Accounts     *AccountHandler
	Journal      *JournalHandler // nil when no journal store is configured
}

// Register mounts every route. guard wraps the routes that start a ledger sequence.
func Register(e *echo.Echo, h Handlers, guard ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	e.GET("/loans", h.Funding.ListLoans)
	e.GET("/loans/:id", h.Funding.GetLoan)
	e.GET("/stats", h.Funding.Stats)
	e.POST("/loans/:id/lend", h.Funding.Lend, guard...)

	e.GET("/applications", h.Applications.List)
	e.GET("/applications/:id", h.Applications.Get)
	e.POST("/applications", h.Applications.Submit, guard...)
	e.POST("/applications/:id/approve", h.Applications.Approve, guard...)
	e.POST("/applications/:id/reject", h.Applications.Reject, guard...)

	e.GET("/lenders/:address", h.Accounts.Lender)
	e.GET("/balances/:address", h.Accounts.Balances)
	e.GET("/swap/quote", h.Accounts.Quote)
	e.POST("/swap", h.Accounts.Swap, guard...)

	if h.Journal != nil {
		e.GET("/journal", h.Journal.List)
		e.GET("/journal/:run_id", h.Journal.Get)
	}
}
