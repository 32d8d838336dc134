package token

import (
	"context"
	"math/big"

	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
)

// Store is the fungible-token balance store.
type Store interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.Tx, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Router is the external exchange router. A swap confirming below
// amountOutMin is rejected by the router itself.
type Router interface {
	Address() common.Address
	SwapExactNativeForTokens(ctx context.Context, value, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error)
	SwapExactTokensForNative(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error)
	SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error)
}
