package http

import (
	"context"
	"net/http"

	"microlend/internal/domain/token"
	"microlend/internal/usecase/incentive"
	"microlend/internal/usecase/swap"
	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SwapService interface {
	Quote(from, to token.Symbol, input decimal.Decimal) (*swap.Quote, error)
	Execute(ctx context.Context, from, to token.Symbol, input decimal.Decimal) (*swap.Result, error)
	Balances(ctx context.Context, account common.Address) (*swap.Balances, error)
}

type IncentiveService interface {
	Position(ctx context.Context, account common.Address) (*incentive.Position, error)
}

type AccountHandler struct {
	swap      SwapService
	incentive IncentiveService
}

func NewAccountHandler(s SwapService, i IncentiveService) *AccountHandler {
	return &AccountHandler{swap: s, incentive: i}
}

func (h *AccountHandler) Quote(c echo.Context) error {
	from, err := token.Parse(c.QueryParam("from"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	to, err := token.Parse(c.QueryParam("to"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	amount, err := units.Parse(c.QueryParam("amount"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	q, err := h.swap.Quote(from, to, amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

type swapReq struct {
	From   string `json:"from" validate:"required,token"`
	To     string `json:"to" validate:"required,token,nefield=From"`
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *AccountHandler) Swap(c echo.Context) error {
	var req swapReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	from, _ := token.Parse(req.From)
	to, _ := token.Parse(req.To)
	amount, ok, err := amountOf(c, "amount", req.Amount)
	if !ok {
		return err
	}
	res, err := h.swap.Execute(c.Request().Context(), from, to, amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AccountHandler) Balances(c echo.Context) error {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		return badRequest(c, "invalid address")
	}
	b, err := h.swap.Balances(c.Request().Context(), addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *AccountHandler) Lender(c echo.Context) error {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		return badRequest(c, "invalid address")
	}
	p, err := h.incentive.Position(c.Request().Context(), addr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
