package evm

import (
	"context"
	"math/big"

	"microlend/internal/domain/application"
	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
)

type ApplicationRegistry struct{ k *contract }

func (c *Client) ApplicationRegistry(addr common.Address) *ApplicationRegistry {
	return &ApplicationRegistry{k: c.at(addr, appABI)}
}

func (r *ApplicationRegistry) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, r.k, "owner")
}

func (r *ApplicationRegistry) Count(ctx context.Context) (uint64, error) {
	return callCount(ctx, r.k, "applicationCount")
}

func (r *ApplicationRegistry) Applicant(ctx context.Context, id uint64) (common.Address, error) {
	return callOne[common.Address](ctx, r.k, "getApplicant", idArg(id))
}

func (r *ApplicationRegistry) Name(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getName", idArg(id))
}

func (r *ApplicationRegistry) Email(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getEmail", idArg(id))
}

func (r *ApplicationRegistry) Phone(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getPhone", idArg(id))
}

func (r *ApplicationRegistry) Location(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getLocation", idArg(id))
}

func (r *ApplicationRegistry) Business(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getBusiness", idArg(id))
}

func (r *ApplicationRegistry) Story(ctx context.Context, id uint64) (string, error) {
	return callOne[string](ctx, r.k, "getStory", idArg(id))
}

func (r *ApplicationRegistry) Amount(ctx context.Context, id uint64) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "getAmount", idArg(id))
}

func (r *ApplicationRegistry) Timestamp(ctx context.Context, id uint64) (*big.Int, error) {
	return callOne[*big.Int](ctx, r.k, "getTimestamp", idArg(id))
}

func (r *ApplicationRegistry) Status(ctx context.Context, id uint64) (uint8, error) {
	return callOne[uint8](ctx, r.k, "getStatus", idArg(id))
}

func (r *ApplicationRegistry) SubmitPhase1(ctx context.Context, p application.Personal) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "apply1", p.Name, p.Email, p.Phone, p.Location)
}

func (r *ApplicationRegistry) SubmitPhase2(ctx context.Context, business, story string, amount *big.Int) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "apply2", business, story, amount)
}

func (r *ApplicationRegistry) Approve(ctx context.Context, id uint64) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "approveApplication", idArg(id))
}

func (r *ApplicationRegistry) Reject(ctx context.Context, id uint64) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "rejectApplication", idArg(id))
}
