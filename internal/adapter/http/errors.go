package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/application"
	"microlend/internal/domain/journal"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"
	"microlend/internal/domain/token"
	"microlend/pkg/units"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type partialResponse struct {
	Error      string   `json:"error"`
	Kind       string   `json:"kind"`
	Sequence   string   `json:"sequence"`
	RunID      string   `json:"run_id"`
	Completed  []string `json:"completed"`
	FailedStep string   `json:"failed_step"`
	ResumeFrom string   `json:"resume_from"`
	SubjectID  uint64   `json:"subject_id,omitempty"`
}

// statusOf maps the engine's failure taxonomy onto HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, application.ErrNotFound), errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, token.ErrUnknownToken):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrReadOnly):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch apperr.KindOf(err) {
	case apperr.KindPartialSequence:
		return http.StatusConflict
	case apperr.KindValidation, apperr.KindLedgerRejection:
		return http.StatusUnprocessableEntity
	case apperr.KindCapability:
		return http.StatusForbidden
	}
	if errors.Is(err, application.ErrInvalidTransition) {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func writeError(c echo.Context, err error) error {
	code := statusOf(err)
	kind := string(apperr.KindOf(err))

	var pe *apperr.PartialSequenceError
	if errors.As(err, &pe) {
		return c.JSON(code, partialResponse{
			Error:      err.Error(),
			Kind:       kind,
			Sequence:   pe.Sequence,
			RunID:      pe.RunID,
			Completed:  pe.Completed,
			FailedStep: pe.FailedStep,
			ResumeFrom: pe.ResumeFrom(),
			SubjectID:  pe.SubjectID,
		})
	}
	resp := ErrorResponse{Error: err.Error(), Kind: kind}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		resp.Details = []FieldError{{Field: ve.Field, Message: ve.Reason}}
	}
	return c.JSON(code, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate decodes the JSON body strictly and runs struct validation.
// ok is false when a response has already been written.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return false, badRequest(c, "invalid body: "+err.Error())
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Kind:    string(apperr.KindValidation),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// amountOf re-parses an amount the validator already accepted.
func amountOf(c echo.Context, field, raw string) (decimal.Decimal, bool, error) {
	d, err := units.Parse(raw)
	if err != nil {
		return decimal.Zero, false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Kind:    string(apperr.KindValidation),
			Details: []FieldError{{Field: field, Message: err.Error()}},
		})
	}
	return d, true, nil
}
