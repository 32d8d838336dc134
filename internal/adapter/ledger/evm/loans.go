package evm

import (
	"context"
	"errors"
	"math/big"

	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"

	"github.com/ethereum/go-ethereum/common"
)

var errNoCreatedEvent = errors.New("receipt has no BorrowerCreated event")

type LoanRegistry struct{ k *contract }

func (c *Client) LoanRegistry(addr common.Address) *LoanRegistry {
	return &LoanRegistry{k: c.at(addr, loanABI)}
}

func (r *LoanRegistry) Address() common.Address { return r.k.address }

func (r *LoanRegistry) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, r.k, "owner")
}

func (r *LoanRegistry) Count(ctx context.Context) (uint64, error) {
	return callCount(ctx, r.k, "borrowerCount")
}

func (r *LoanRegistry) TotalLoansValue(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "totalLoansValue")
}

func (r *LoanRegistry) Name(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getName", idArg(id))
}

func (r *LoanRegistry) Location(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getLocation", idArg(id))
}

func (r *LoanRegistry) Business(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getBusiness", idArg(id))
}

func (r *LoanRegistry) Story(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getStory", idArg(id))
}

func (r *LoanRegistry) Photo(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getPhoto", idArg(id))
}

func (r *LoanRegistry) RequestedAmount(ctx context.Context, id uint64) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "requestedAmounts", idArg(id))
}

func (r *LoanRegistry) FundedAmount(ctx context.Context, id uint64) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "fundedAmounts", idArg(id))
}

func (r *LoanRegistry) IsActive(ctx context.Context, id uint64) (bool, error) {
	return callOne[bool](ctx, r.k, "isActive", idArg(id))
}

func (r *LoanRegistry) TotalLent(ctx context.Context, a common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "totalLent", a)
}

func (r *LoanRegistry) ImpactPoints(ctx context.Context, a common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "impactPoints", a)
}

func (r *LoanRegistry) BadgeLevel(ctx context.Context, a common.Address) (uint8, error) {
	return callOne[uint8](ctx, r.k, "badgeLevel", a)
}

func (r *LoanRegistry) BadgeName(ctx context.Context, level uint8) (string, error) {
	return callOne[string](ctx, r.k, "getBadgeName", level)
}

func (r *LoanRegistry) Lend(ctx context.Context, id uint64, amount *big.Int) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "lend", idArg(id), amount)
}

func (r *LoanRegistry) AddLoan(ctx context.Context, in loan.New) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "addBorrower", in.Name, in.Location, in.Business, in.Story, in.Photo, in.Amount, in.Token)
}

func (r *LoanRegistry) LoanCreated(rcpt ledger.Receipt) (uint64, error) {
	for _, l := range rcpt.Logs {
		if l == nil || l.Address != r.k.address {
			continue
		}
		if len(l.Topics) < 2 || l.Topics[0] != createdID {
			continue
		}
		id := l.Topics[1].Big()
		if !id.IsUint64() || id.Sign() == 0 {
			return 0, errors.New("BorrowerCreated id out of range")
		}
		return id.Uint64(), nil
	}
	return 0, errNoCreatedEvent
}

func idArg(id uint64) *big.Int { return new(big.Int).SetUint64(id) }

func callCount(ctx context.Context, k *contract, method string) (uint64, error) {
	n, err := callOne[*big.Int](ctx, k, method)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, errors.New(method + " out of range")
	}
	return n.Uint64(), nil
}
