package loan

import (
	"context"
	"math/big"

	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the Loan Registry as seen through the ledger gateway. Reads
// return the latest confirmed state; writes return once submitted.
type Registry interface {
	Address() common.Address
	Owner(ctx context.Context) (common.Address, error)
	Count(ctx context.Context) (uint64, error)
	TotalLoansValue(ctx context.Context) (*big.Int, error)

	Name(ctx context.Context, id uint64) (string, error)
	Location(ctx context.Context, id uint64) (string, error)
	Business(ctx context.Context, id uint64) (string, error)
	Story(ctx context.Context, id uint64) (string, error)
	Photo(ctx context.Context, id uint64) (string, error)
	RequestedAmount(ctx context.Context, id uint64) (*big.Int, error)
	FundedAmount(ctx context.Context, id uint64) (*big.Int, error)
	IsActive(ctx context.Context, id uint64) (bool, error)

	TotalLent(ctx context.Context, account common.Address) (*big.Int, error)
	ImpactPoints(ctx context.Context, account common.Address) (*big.Int, error)
	BadgeLevel(ctx context.Context, account common.Address) (uint8, error)
	BadgeName(ctx context.Context, level uint8) (string, error)

	Lend(ctx context.Context, id uint64, amount *big.Int) (ledger.Tx, error)
	AddLoan(ctx context.Context, in New) (ledger.Tx, error)
	// LoanCreated extracts the id assigned by a confirmed AddLoan.
	LoanCreated(r ledger.Receipt) (uint64, error)
}
