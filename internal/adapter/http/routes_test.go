package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/application"
	"microlend/internal/domain/journal"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"
	"microlend/internal/domain/token"
	appuc "microlend/internal/usecase/application"
	"microlend/internal/usecase/funding"
	"microlend/internal/usecase/lend"
	"microlend/internal/usecase/swap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "raw=%s", rec.Body.String())
}

func TestListLoans_AddsDerivedFigures(t *testing.T) {
	s := newTestServer()
	s.funding.ListFn = func(context.Context) ([]loan.Loan, error) {
		return []loan.Loan{{
			ID:              2,
			Name:            "Ama",
			RequestedAmount: decimal.NewFromInt(200),
			FundedAmount:    decimal.NewFromInt(50),
			Active:          true,
		}}, nil
	}

	rec := s.do(http.MethodGet, "/loans", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Loans []struct {
			ID          uint64 `json:"id"`
			Remaining   string `json:"remaining"`
			Progress    string `json:"progress"`
			FullyFunded bool   `json:"fully_funded"`
		} `json:"loans"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Loans, 1)
	assert.Equal(t, uint64(2), body.Loans[0].ID)
	assert.Equal(t, "150", body.Loans[0].Remaining)
	assert.Equal(t, "25", body.Loans[0].Progress)
	assert.False(t, body.Loans[0].FullyFunded)
}

func TestGetLoan_Errors(t *testing.T) {
	s := newTestServer()
	s.funding.GetFn = func(_ context.Context, id uint64) (loan.Loan, error) {
		return loan.Loan{}, loan.ErrNotFound
	}

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/loans/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/loans/0", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/loans/9", "").Code)
}

func TestStats(t *testing.T) {
	s := newTestServer()
	s.funding.StatsFn = func(context.Context) (funding.Stats, error) {
		return funding.Stats{BorrowerCount: 3, TotalLoansValue: "1200"}, nil
	}
	rec := s.do(http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1200"`)
}

func TestLend_PassesParsedInput(t *testing.T) {
	s := newTestServer()
	var got lend.Input
	s.funding.LendFn = func(_ context.Context, in lend.Input) (*lend.Result, error) {
		got = in
		return &lend.Result{RunID: "r1", LoanID: in.LoanID, Amount: in.Amount.String()}, nil
	}

	rec := s.do(http.MethodPost, "/loans/4/lend", `{"amount":"12.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(4), got.LoanID)
	assert.Equal(t, "12.5", got.Amount.String())
}

func TestLend_BodyRejectedBeforeUsecase(t *testing.T) {
	s := newTestServer()
	s.funding.LendFn = func(context.Context, lend.Input) (*lend.Result, error) {
		t.Fatalf("usecase must not run")
		return nil, nil
	}

	cases := map[string]struct {
		body string
		code int
	}{
		"unknown field": {`{"amount":"1","memo":"x"}`, http.StatusBadRequest},
		"not json":      {`amount=1`, http.StatusBadRequest},
		"missing":       {`{}`, http.StatusUnprocessableEntity},
		"zero":          {`{"amount":"0"}`, http.StatusUnprocessableEntity},
		"negative":      {`{"amount":"-3"}`, http.StatusUnprocessableEntity},
		"garbage":       {`{"amount":"ten"}`, http.StatusUnprocessableEntity},
		"too precise":   {`{"amount":"0.0000000000000000001"}`, http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/loans/1/lend", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestAmounts_WithSurroundingSpaceAreParsed(t *testing.T) {
	s := newTestServer()
	var lent, swapped, applied decimal.Decimal
	s.funding.LendFn = func(_ context.Context, in lend.Input) (*lend.Result, error) {
		lent = in.Amount
		return &lend.Result{}, nil
	}
	s.accounts.ExecuteFn = func(_ context.Context, _, _ token.Symbol, input decimal.Decimal) (*swap.Result, error) {
		swapped = input
		return &swap.Result{}, nil
	}
	s.apps.SubmitFn = func(_ context.Context, in appuc.SubmitInput) (*appuc.SubmitResult, error) {
		applied = in.Business.Amount
		return &appuc.SubmitResult{}, nil
	}

	for _, amount := range []string{" 10", "10 ", "\\t10\\n"} {
		t.Run(amount, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/loans/1/lend", `{"amount":"`+amount+`"}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.True(t, lent.Equal(decimal.NewFromInt(10)), lent.String())

			rec = s.do(http.MethodPost, "/swap", `{"from":"cUSD","to":"CELO","amount":"`+amount+`"}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.True(t, swapped.Equal(decimal.NewFromInt(10)), swapped.String())

			body := `{"name":"Ama","email":"ama@example.com","location":"Accra","business":"Bakery","story":"Ovens","amount":"` + amount + `"}`
			rec = s.do(http.MethodPost, "/applications", body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.True(t, applied.Equal(decimal.NewFromInt(10)), applied.String())
		})
	}
}

func TestLend_PartialSequenceSurfacesProgress(t *testing.T) {
	s := newTestServer()
	s.funding.LendFn = func(context.Context, lend.Input) (*lend.Result, error) {
		return nil, &apperr.PartialSequenceError{
			Sequence:   "lend",
			RunID:      "abc",
			Completed:  []string{"validate", "read-allowance", "approve-allowance"},
			FailedStep: "lend",
			Err:        &apperr.LedgerRejection{Step: "lend", Reason: "loan fully funded"},
		}
	}

	rec := s.do(http.MethodPost, "/loans/1/lend", `{"amount":"5"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body partialResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "partial_sequence", body.Kind)
	assert.Equal(t, "abc", body.RunID)
	assert.Equal(t, "lend", body.ResumeFrom)
	assert.Equal(t, []string{"validate", "read-allowance", "approve-allowance"}, body.Completed)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("amount", "too small"), http.StatusUnprocessableEntity},
		{&apperr.CapabilityError{Action: "approve"}, http.StatusForbidden},
		{&apperr.LedgerRejection{Reason: "nope"}, http.StatusUnprocessableEntity},
		{&apperr.PartialSequenceError{Err: errors.New("x")}, http.StatusConflict},
		{fmt.Errorf("get: %w", application.ErrNotFound), http.StatusNotFound},
		{journal.ErrNotFound, http.StatusNotFound},
		{application.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("lend: %w", ledger.ErrReadOnly), http.StatusServiceUnavailable},
		{token.ErrUnknownToken, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("dial tcp: refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestApplications_ListFilter(t *testing.T) {
	s := newTestServer()
	var gotFilter application.Filter
	s.apps.ListFn = func(_ context.Context, f application.Filter) ([]application.Application, error) {
		gotFilter = f
		return []application.Application{{ID: 1, Status: application.StatusPending}}, nil
	}

	rec := s.do(http.MethodGet, "/applications?status=Pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, application.FilterPending, gotFilter)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/applications?status=weird", "").Code)
}

func TestApplications_Submit(t *testing.T) {
	s := newTestServer()
	var got appuc.SubmitInput
	s.apps.SubmitFn = func(_ context.Context, in appuc.SubmitInput) (*appuc.SubmitResult, error) {
		got = in
		return &appuc.SubmitResult{RunID: "r", ApplicationID: 7}, nil
	}

	body := `{"name":"Ama","email":"ama@example.com","location":"Accra","business":"Bakery","story":"Ovens","amount":"500"}`
	rec := s.do(http.MethodPost, "/applications", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Ama", got.Personal.Name)
	assert.Equal(t, "", got.Personal.Phone)
	assert.True(t, got.Business.Amount.Equal(decimal.NewFromInt(500)))
}

func TestApplications_SubmitValidationDetails(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodPost, "/applications", `{"name":"","email":"nope","location":"x","business":"y","story":"z","amount":"5"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.True(t, containsFieldMsg(body.Details, "name", "is required"), "%+v", body.Details)
	assert.True(t, containsFieldMsg(body.Details, "email", "valid email"), "%+v", body.Details)
}

func TestApplications_ApproveAndReject(t *testing.T) {
	s := newTestServer()
	s.apps.ApproveFn = func(_ context.Context, in appuc.ApproveInput) (*appuc.ApproveResult, error) {
		if in.ApplicationID != 3 || in.PhotoURL != "https://img.example/3.png" {
			return nil, fmt.Errorf("unexpected input %+v", in)
		}
		return &appuc.ApproveResult{ApplicationID: 3, LoanID: 11}, nil
	}
	s.apps.RejectFn = func(_ context.Context, id uint64) (*appuc.RejectResult, error) {
		return nil, &apperr.CapabilityError{Action: "reject", Caller: common.HexToAddress("0x1"), Owner: common.HexToAddress("0x2")}
	}

	rec := s.do(http.MethodPost, "/applications/3/approve", `{"photo_url":"https://img.example/3.png"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"loan_id":11`)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/applications/3/approve", `{"photo_url":""}`).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/applications/3/reject", "").Code)
}

func TestSwap_QuoteAndExecute(t *testing.T) {
	s := newTestServer()
	s.accounts.QuoteFn = func(from, to token.Symbol, input decimal.Decimal) (*swap.Quote, error) {
		est, err := swap.Estimate(from, to, input, decimal.RequireFromString("0.5"))
		if err != nil {
			return nil, err
		}
		return &swap.Quote{From: from, To: to, Input: input, Estimated: est, MinimumOutput: swap.MinimumOutput(est)}, nil
	}
	var executed bool
	s.accounts.ExecuteFn = func(_ context.Context, from, to token.Symbol, input decimal.Decimal) (*swap.Result, error) {
		executed = from == token.StableUSD && to == token.Native
		return &swap.Result{RunID: "r"}, nil
	}

	rec := s.do(http.MethodGet, "/swap/quote?from=celo&to=cusd&amount=10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var q struct {
		Estimated string `json:"estimated_output"`
		Minimum   string `json:"minimum_output"`
	}
	decodeBody(t, rec, &q)
	assert.Equal(t, "4.85", q.Estimated)
	assert.Equal(t, "4.365", q.Minimum)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/swap/quote?from=btc&to=cusd&amount=1", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodGet, "/swap/quote?from=cUSD&to=cUSD&amount=1", "").Code)

	rec = s.do(http.MethodPost, "/swap", `{"from":"cUSD","to":"CELO","amount":"3"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, executed)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/swap", `{"from":"cUSD","to":"cUSD","amount":"3"}`).Code)
}

func TestAccountRoutes_RejectBadAddress(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/lenders/0x12", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/balances/nope", "").Code)
}

func TestJournalRoutes(t *testing.T) {
	s := newTestServer()
	var gotStatus journal.RunStatus
	s.runs.ListFn = func(_ context.Context, st journal.RunStatus, limit int) ([]journal.Run, error) {
		gotStatus = st
		return []journal.Run{{RunID: "abc", Status: st}}, nil
	}

	rec := s.do(http.MethodGet, "/journal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, journal.RunPartial, gotStatus)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/journal?status=bogus", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/journal/missing", "").Code)
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
