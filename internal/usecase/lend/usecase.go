// Package lend sequences a contribution to a loan: validate against a fresh
// read, top up the funding token allowance when short, then lend.
package lend

import (
	"context"
	"fmt"
	"math/big"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"
	"microlend/internal/domain/token"
	"microlend/internal/usecase/sequence"
	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	Sequence = "lend"

	StepValidate  = "validate"
	StepAllowance = "read-allowance"
	StepApprove   = "approve-allowance"
	StepLend      = "lend"
)

// LoanReader is the fresh single-loan read the sequence validates against.
type LoanReader interface {
	Get(ctx context.Context, id uint64) (loan.Loan, error)
}

type Usecase struct {
	loans     LoanReader
	registry  loan.Registry
	tokens    token.Store
	confirmer ledger.Confirmer
	runner    *sequence.Runner
	funding   common.Address
	caller    common.Address
}

// NewUsecase: funding is the token loans are denominated in; caller is the
// account whose allowance is checked and who signs the writes.
func NewUsecase(loans LoanReader, registry loan.Registry, tokens token.Store, c ledger.Confirmer, runner *sequence.Runner, funding, caller common.Address) *Usecase {
	return &Usecase{
		loans:     loans,
		registry:  registry,
		tokens:    tokens,
		confirmer: c,
		runner:    runner,
		funding:   funding,
		caller:    caller,
	}
}

type Input struct {
	LoanID uint64
	Amount decimal.Decimal
}

type Result struct {
	RunID      string       `json:"run_id"`
	LoanID     uint64       `json:"loan_id"`
	Amount     string       `json:"amount"`
	ApprovalTx *common.Hash `json:"approval_tx,omitempty"`
	LendTx     *common.Hash `json:"lend_tx"`
}

func (u *Usecase) Lend(ctx context.Context, in Input) (*Result, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Invalid("amount", "must be greater than zero")
	}
	amount := units.ToWei(in.Amount)
	if amount.Sign() <= 0 {
		return nil, apperr.Invalid("amount", "below the smallest unit")
	}

	var allowance *big.Int
	spender := u.registry.Address()

	out, err := u.runner.Execute(ctx, sequence.Sequence{
		Name:    Sequence,
		Caller:  u.caller,
		Subject: func() uint64 { return in.LoanID },
		Steps: []sequence.Step{
			sequence.Read(StepValidate, func(ctx context.Context) error {
				l, err := u.loans.Get(ctx, in.LoanID)
				if err != nil {
					return err
				}
				if !l.Active {
					return apperr.Invalid("loan_id", "loan is not accepting contributions")
				}
				if in.Amount.GreaterThan(l.RemainingCapacity()) {
					return apperr.Invalid("amount", fmt.Sprintf("exceeds remaining capacity %s", l.RemainingCapacity()))
				}
				return nil
			}),
			sequence.Read(StepAllowance, func(ctx context.Context) (err error) {
				allowance, err = u.tokens.Allowance(ctx, u.funding, u.caller, spender)
				return err
			}),
			sequence.WriteIf(StepApprove, u.confirmer,
				func() bool { return allowance.Cmp(amount) < 0 },
				func(ctx context.Context) (ledger.Tx, error) {
					return u.tokens.Approve(ctx, u.funding, spender, amount)
				}),
			sequence.Write(StepLend, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.registry.Lend(ctx, in.LoanID, amount)
			}, nil),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:      out.RunID,
		LoanID:     in.LoanID,
		Amount:     in.Amount.String(),
		ApprovalTx: out.Tx(StepApprove),
		LendTx:     out.Tx(StepLend),
	}, nil
}
