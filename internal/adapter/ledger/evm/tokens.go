package evm

import (
	"context"
	"math/big"
	"sync"

	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
)

// TokenStore talks to any ERC-20 contract; contracts are bound lazily.
type TokenStore struct {
	client *Client

	mu    sync.Mutex
	bound map[common.Address]*contract
}

func (c *Client) TokenStore() *TokenStore {
	return &TokenStore{client: c, bound: map[common.Address]*contract{}}
}

func (s *TokenStore) token(addr common.Address) *contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.bound[addr]
	if !ok {
		k = s.client.at(addr, tokenABI)
		s.bound[addr] = k
	}
	return k
}

func (s *TokenStore) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, s.token(token), "allowance", owner, spender)
}

func (s *TokenStore) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.Tx, error) {
	return s.token(token).transact(ctx, nil, "approve", spender, amount)
}

func (s *TokenStore) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, s.token(token), "balanceOf", account)
}

func (s *TokenStore) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := s.client.balances.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, classify("balance", err)
	}
	return bal, nil
}

type Router struct{ k *contract }

func (c *Client) Router(addr common.Address) *Router {
	return &Router{k: c.at(addr, swapABI)}
}

func (r *Router) Address() common.Address { return r.k.address }

func (r *Router) SwapExactNativeForTokens(ctx context.Context, value, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.k.transact(ctx, value, "swapExactETHForTokens", amountOutMin, path, to, deadline)
}

func (r *Router) SwapExactTokensForNative(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "swapExactTokensForETH", amountIn, amountOutMin, path, to, deadline)
}

func (r *Router) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.k.transact(ctx, nil, "swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}
