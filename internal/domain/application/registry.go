package application

import (
	"context"
	"math/big"

	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the Application Registry as seen through the ledger gateway.
type Registry interface {
	Owner(ctx context.Context) (common.Address, error)
	Count(ctx context.Context) (uint64, error)

	Applicant(ctx context.Context, id uint64) (common.Address, error)
	Name(ctx context.Context, id uint64) (string, error)
	Email(ctx context.Context, id uint64) (string, error)
	Phone(ctx context.Context, id uint64) (string, error)
	Location(ctx context.Context, id uint64) (string, error)
	Business(ctx context.Context, id uint64) (string, error)
	Story(ctx context.Context, id uint64) (string, error)
	Amount(ctx context.Context, id uint64) (*big.Int, error)
	Timestamp(ctx context.Context, id uint64) (*big.Int, error)
	Status(ctx context.Context, id uint64) (uint8, error)

	SubmitPhase1(ctx context.Context, p Personal) (ledger.Tx, error)
	SubmitPhase2(ctx context.Context, business, story string, amount *big.Int) (ledger.Tx, error)
	Approve(ctx context.Context, id uint64) (ledger.Tx, error)
	Reject(ctx context.Context, id uint64) (ledger.Tx, error)
}
