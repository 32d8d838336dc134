// Package swap quotes and executes token swaps through the exchange router.
package swap

import (
	"context"
	"errors"
	"math/big"
	"time"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/token"
	"microlend/internal/usecase/sequence"
	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	Sequence = "swap"

	StepApprove = "approve-router"
	StepSwap    = "swap"

	Deadline = 600 * time.Second
)

var (
	errNoSource    = errors.New("no price source configured")
	errNonPositive = errors.New("price source returned a non-positive price")
)

type Usecase struct {
	feed      *Feed
	tokens    token.Store
	router    token.Router
	addresses token.Addresses
	confirmer ledger.Confirmer
	runner    *sequence.Runner
	caller    common.Address
	now       func() time.Time
}

func NewUsecase(feed *Feed, tokens token.Store, router token.Router, addrs token.Addresses, c ledger.Confirmer, runner *sequence.Runner, caller common.Address) *Usecase {
	return &Usecase{
		feed:      feed,
		tokens:    tokens,
		router:    router,
		addresses: addrs,
		confirmer: c,
		runner:    runner,
		caller:    caller,
		now:       time.Now,
	}
}

type Quote struct {
	From           token.Symbol    `json:"from"`
	To             token.Symbol    `json:"to"`
	Input          decimal.Decimal `json:"input"`
	Estimated      decimal.Decimal `json:"estimated_output"`
	MinimumOutput  decimal.Decimal `json:"minimum_output"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	PriceFallback  bool            `json:"price_fallback"`
}

// Quote prices a swap against the current reference price.
func (u *Usecase) Quote(from, to token.Symbol, input decimal.Decimal) (*Quote, error) {
	ref := u.feed.Current()
	est, err := Estimate(from, to, input, ref.Price)
	if err != nil {
		return nil, err
	}
	return &Quote{
		From:           from,
		To:             to,
		Input:          input,
		Estimated:      est,
		MinimumOutput:  MinimumOutput(est),
		ReferencePrice: ref.Price,
		PriceFallback:  ref.Fallback,
	}, nil
}

type Result struct {
	RunID     string       `json:"run_id"`
	Quote     *Quote       `json:"quote"`
	Deadline  int64        `json:"deadline"`
	ApproveTx *common.Hash `json:"approve_tx,omitempty"`
	SwapTx    *common.Hash `json:"swap_tx"`
}

// Execute swaps input units of from into to. A stable source token is first
// approved to the router; the native coin is sent as value.
func (u *Usecase) Execute(ctx context.Context, from, to token.Symbol, input decimal.Decimal) (*Result, error) {
	if !input.IsPositive() {
		return nil, apperr.Invalid("amount", "must be greater than zero")
	}
	q, err := u.Quote(from, to, input)
	if err != nil {
		return nil, err
	}
	fromAddr, err := u.addresses.Of(from)
	if err != nil {
		return nil, apperr.Invalid("from", err.Error())
	}
	toAddr, err := u.addresses.Of(to)
	if err != nil {
		return nil, apperr.Invalid("to", err.Error())
	}

	amountIn := units.ToWei(input)
	minOut := units.ToWei(q.MinimumOutput)
	deadline := u.now().Add(Deadline).Unix()
	path := []common.Address{fromAddr, toAddr}
	dl := big.NewInt(deadline)

	out, err := u.runner.Execute(ctx, sequence.Sequence{
		Name:   Sequence,
		Caller: u.caller,
		Steps: []sequence.Step{
			sequence.WriteIf(StepApprove, u.confirmer,
				func() bool { return !from.IsNative() },
				func(ctx context.Context) (ledger.Tx, error) {
					return u.tokens.Approve(ctx, fromAddr, u.router.Address(), amountIn)
				}),
			sequence.Write(StepSwap, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				switch {
				case from.IsNative():
					return u.router.SwapExactNativeForTokens(ctx, amountIn, minOut, path, u.caller, dl)
				case to.IsNative():
					return u.router.SwapExactTokensForNative(ctx, amountIn, minOut, path, u.caller, dl)
				default:
					return u.router.SwapExactTokensForTokens(ctx, amountIn, minOut, path, u.caller, dl)
				}
			}, nil),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:     out.RunID,
		Quote:     q,
		Deadline:  deadline,
		ApproveTx: out.Tx(StepApprove),
		SwapTx:    out.Tx(StepSwap),
	}, nil
}

type Balances struct {
	Account   common.Address  `json:"account"`
	Native    decimal.Decimal `json:"celo"`
	StableUSD decimal.Decimal `json:"cusd"`
	StableEUR decimal.Decimal `json:"ceur"`
}

func (u *Usecase) Balances(ctx context.Context, account common.Address) (*Balances, error) {
	var native, usd, eur *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { native, err = u.tokens.NativeBalance(gctx, account); return })
	g.Go(func() (err error) { usd, err = u.tokens.BalanceOf(gctx, u.addresses.StableUSD, account); return })
	g.Go(func() (err error) { eur, err = u.tokens.BalanceOf(gctx, u.addresses.StableEUR, account); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Balances{
		Account:   account,
		Native:    units.FromWei(native),
		StableUSD: units.FromWei(usd),
		StableEUR: units.FromWei(eur),
	}, nil
}
