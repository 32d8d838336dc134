package http

import (
	"context"
	"net/http"

	"microlend/internal/domain/application"
	appuc "microlend/internal/usecase/application"

	"github.com/labstack/echo/v4"
)

type ApplicationService interface {
	Submit(ctx context.Context, in appuc.SubmitInput) (*appuc.SubmitResult, error)
	Approve(ctx context.Context, in appuc.ApproveInput) (*appuc.ApproveResult, error)
	Reject(ctx context.Context, id uint64) (*appuc.RejectResult, error)
	Get(ctx context.Context, id uint64) (application.Application, error)
	List(ctx context.Context, f application.Filter) ([]application.Application, error)
}

type ApplicationHandler struct{ uc ApplicationService }

func NewApplicationHandler(uc ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

func (h *ApplicationHandler) List(c echo.Context) error {
	f, err := application.ParseFilter(c.QueryParam("status"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	apps, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"filter": f, "applications": apps})
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}
	a, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Field rules past shape (amount bounds) stay in the domain validator.
type submitReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=40"`
	Location string `json:"location" validate:"required,max=120"`
	Business string `json:"business" validate:"required,max=200"`
	Story    string `json:"story" validate:"required,max=4000"`
	Amount   string `json:"amount" validate:"required,amount"`
}

func (h *ApplicationHandler) Submit(c echo.Context) error {
	var req submitReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	amount, ok, err := amountOf(c, "amount", req.Amount)
	if !ok {
		return err
	}
	res, err := h.uc.Submit(c.Request().Context(), appuc.SubmitInput{
		Personal: application.Personal{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Location: req.Location,
		},
		Business: application.Business{
			Business: req.Business,
			Story:    req.Story,
			Amount:   amount,
		},
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

type approveReq struct {
	PhotoURL string `json:"photo_url" validate:"required,url"`
}

func (h *ApplicationHandler) Approve(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}
	var req approveReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.Approve(c.Request().Context(), appuc.ApproveInput{ApplicationID: id, PhotoURL: req.PhotoURL})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ApplicationHandler) Reject(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}
	res, err := h.uc.Reject(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
