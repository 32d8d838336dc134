package http

import (
	"context"
	"errors"

	"microlend/internal/domain/application"
	"microlend/internal/domain/journal"
	"microlend/internal/domain/loan"
	"microlend/internal/domain/token"
	appuc "microlend/internal/usecase/application"
	"microlend/internal/usecase/funding"
	"microlend/internal/usecase/incentive"
	"microlend/internal/usecase/lend"
	"microlend/internal/usecase/swap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var errNotStubbed = errors.New("not stubbed")

type fakeFunding struct {
	ListFn  func(ctx context.Context) ([]loan.Loan, error)
	GetFn   func(ctx context.Context, id uint64) (loan.Loan, error)
	StatsFn func(ctx context.Context) (funding.Stats, error)
	LendFn  func(ctx context.Context, in lend.Input) (*lend.Result, error)
}

func (f *fakeFunding) ListActiveLoans(ctx context.Context) ([]loan.Loan, error) {
	if f.ListFn == nil {
		return nil, errNotStubbed
	}
	return f.ListFn(ctx)
}
func (f *fakeFunding) Get(ctx context.Context, id uint64) (loan.Loan, error) {
	if f.GetFn == nil {
		return loan.Loan{}, errNotStubbed
	}
	return f.GetFn(ctx, id)
}
func (f *fakeFunding) Stats(ctx context.Context) (funding.Stats, error) {
	if f.StatsFn == nil {
		return funding.Stats{}, errNotStubbed
	}
	return f.StatsFn(ctx)
}
func (f *fakeFunding) Lend(ctx context.Context, in lend.Input) (*lend.Result, error) {
	if f.LendFn == nil {
		return nil, errNotStubbed
	}
	return f.LendFn(ctx, in)
}

type fakeApps struct {
	SubmitFn  func(ctx context.Context, in appuc.SubmitInput) (*appuc.SubmitResult, error)
	ApproveFn func(ctx context.Context, in appuc.ApproveInput) (*appuc.ApproveResult, error)
	RejectFn  func(ctx context.Context, id uint64) (*appuc.RejectResult, error)
	GetFn     func(ctx context.Context, id uint64) (application.Application, error)
	ListFn    func(ctx context.Context, f application.Filter) ([]application.Application, error)
}

func (f *fakeApps) Submit(ctx context.Context, in appuc.SubmitInput) (*appuc.SubmitResult, error) {
	if f.SubmitFn == nil {
		return nil, errNotStubbed
	}
	return f.SubmitFn(ctx, in)
}
func (f *fakeApps) Approve(ctx context.Context, in appuc.ApproveInput) (*appuc.ApproveResult, error) {
	if f.ApproveFn == nil {
		return nil, errNotStubbed
	}
	return f.ApproveFn(ctx, in)
}
func (f *fakeApps) Reject(ctx context.Context, id uint64) (*appuc.RejectResult, error) {
	if f.RejectFn == nil {
		return nil, errNotStubbed
	}
	return f.RejectFn(ctx, id)
}
func (f *fakeApps) Get(ctx context.Context, id uint64) (application.Application, error) {
	if f.GetFn == nil {
		return application.Application{}, errNotStubbed
	}
	return f.GetFn(ctx, id)
}
func (f *fakeApps) List(ctx context.Context, flt application.Filter) ([]application.Application, error) {
	if f.ListFn == nil {
		return nil, errNotStubbed
	}
	return f.ListFn(ctx, flt)
}

type fakeAccounts struct {
	QuoteFn    func(from, to token.Symbol, input decimal.Decimal) (*swap.Quote, error)
	ExecuteFn  func(ctx context.Context, from, to token.Symbol, input decimal.Decimal) (*swap.Result, error)
	BalancesFn func(ctx context.Context, account common.Address) (*swap.Balances, error)
	PositionFn func(ctx context.Context, account common.Address) (*incentive.Position, error)
}

func (f *fakeAccounts) Quote(from, to token.Symbol, input decimal.Decimal) (*swap.Quote, error) {
	if f.QuoteFn == nil {
		return nil, errNotStubbed
	}
	return f.QuoteFn(from, to, input)
}
func (f *fakeAccounts) Execute(ctx context.Context, from, to token.Symbol, input decimal.Decimal) (*swap.Result, error) {
	if f.ExecuteFn == nil {
		return nil, errNotStubbed
	}
	return f.ExecuteFn(ctx, from, to, input)
}
func (f *fakeAccounts) Balances(ctx context.Context, account common.Address) (*swap.Balances, error) {
	if f.BalancesFn == nil {
		return nil, errNotStubbed
	}
	return f.BalancesFn(ctx, account)
}
func (f *fakeAccounts) Position(ctx context.Context, account common.Address) (*incentive.Position, error) {
	if f.PositionFn == nil {
		return nil, errNotStubbed
	}
	return f.PositionFn(ctx, account)
}

type fakeRuns struct {
	GetFn  func(ctx context.Context, runID string) (*journal.Run, error)
	ListFn func(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error)
}

func (f *fakeRuns) GetByRunID(ctx context.Context, runID string) (*journal.Run, error) {
	if f.GetFn == nil {
		return nil, journal.ErrNotFound
	}
	return f.GetFn(ctx, runID)
}
func (f *fakeRuns) ListByStatus(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error) {
	if f.ListFn == nil {
		return nil, nil
	}
	return f.ListFn(ctx, status, limit)
}

type testServer struct {
	e        *echo.Echo
	funding  *fakeFunding
	apps     *fakeApps
	accounts *fakeAccounts
	runs     *fakeRuns
}

func newTestServer() *testServer {
	s := &testServer{funding: &fakeFunding{}, apps: &fakeApps{}, accounts: &fakeAccounts{}, runs: &fakeRuns{}}
	s.e = echo.New()
	s.e.Validator = NewValidator()
	Register(s.e, Handlers{
		Health:       NewHandler(false),
		Funding:      NewFundingHandler(s.funding, s.funding),
		Applications: NewApplicationHandler(s.apps),
		Accounts:     NewAccountHandler(s.accounts, s.accounts),
		Journal:      NewJournalHandler(s.runs),
	})
	return s
}
