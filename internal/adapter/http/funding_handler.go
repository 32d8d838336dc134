package http

import (
	"context"
	"net/http"

	"microlend/internal/domain/loan"
	"microlend/internal/usecase/funding"
	"microlend/internal/usecase/lend"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type FundingService interface {
	ListActiveLoans(ctx context.Context) ([]loan.Loan, error)
	Get(ctx context.Context, id uint64) (loan.Loan, error)
	Stats(ctx context.Context) (funding.Stats, error)
}

type LendService interface {
	Lend(ctx context.Context, in lend.Input) (*lend.Result, error)
}

type FundingHandler struct {
	funding FundingService
	lend    LendService
}

func NewFundingHandler(f FundingService, l LendService) *FundingHandler {
	return &FundingHandler{funding: f, lend: l}
}

// loanView adds the derived funding figures to a loan.
type loanView struct {
	loan.Loan
	Remaining   decimal.Decimal `json:"remaining"`
	Progress    decimal.Decimal `json:"progress"`
	FullyFunded bool            `json:"fully_funded"`
}

func viewOf(l loan.Loan) loanView {
	return loanView{
		Loan:        l,
		Remaining:   l.RemainingCapacity(),
		Progress:    l.FundingProgress().Round(2),
		FullyFunded: l.FullyFunded(),
	}
}

func (h *FundingHandler) ListLoans(c echo.Context) error {
	loans, err := h.funding.ListActiveLoans(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]loanView, 0, len(loans))
	for _, l := range loans {
		out = append(out, viewOf(l))
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": out})
}

func (h *FundingHandler) GetLoan(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	l, err := h.funding.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(l))
}

func (h *FundingHandler) Stats(c echo.Context) error {
	s, err := h.funding.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

type lendReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *FundingHandler) Lend(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	var req lendReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	amount, ok, err := amountOf(c, "amount", req.Amount)
	if !ok {
		return err
	}
	res, err := h.lend.Lend(c.Request().Context(), lend.Input{LoanID: id, Amount: amount})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}
