package ledgerfake

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type allowanceKey struct {
	token, owner, spender common.Address
}

type balanceKey struct {
	token, account common.Address
}

type TokenStore struct {
	chain *Chain
	// Funding is the token Lend draws from.
	Funding common.Address

	mu         sync.Mutex
	allowances map[allowanceKey]*big.Int
	balances   map[balanceKey]*big.Int
	native     map[common.Address]*big.Int
}

func NewTokenStore(c *Chain, funding common.Address) *TokenStore {
	return &TokenStore{
		chain:      c,
		Funding:    funding,
		allowances: map[allowanceKey]*big.Int{},
		balances:   map[balanceKey]*big.Int{},
		native:     map[common.Address]*big.Int{},
	}
}

func (s *TokenStore) SetAllowance(token, owner, spender common.Address, v *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowances[allowanceKey{token, owner, spender}] = v
}

func (s *TokenStore) SetBalance(token, account common.Address, v *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{token, account}] = v
}

func (s *TokenStore) SetNativeBalance(account common.Address, v *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.native[account] = v
}

func (s *TokenStore) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if err := s.chain.failure("token.Allowance"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return orZero(s.allowances[allowanceKey{token, owner, spender}]), nil
}

func (s *TokenStore) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (ledger.Tx, error) {
	owner := s.chain.Sender()
	amt := new(big.Int).Set(amount)
	return s.chain.submit("token.Approve", func() ([]*types.Log, error) {
		s.SetAllowance(token, owner, spender, amt)
		return nil, nil
	})
}

func (s *TokenStore) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	if err := s.chain.failure("token.BalanceOf"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return orZero(s.balances[balanceKey{token, account}]), nil
}

func (s *TokenStore) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := s.chain.failure("token.NativeBalance"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return orZero(s.native[account]), nil
}

// spend consumes allowance of the funding token, as transferFrom would.
func (s *TokenStore) spend(owner, spender common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := allowanceKey{s.Funding, owner, spender}
	cur := orZero(s.allowances[k])
	if cur.Cmp(amount) < 0 {
		return errors.New("insufficient allowance")
	}
	s.allowances[k] = cur.Sub(cur, amount)
	return nil
}

// Swap is one recorded router call.
type Swap struct {
	Method       string
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     *big.Int
}

type Router struct {
	chain *Chain
	addr  common.Address

	mu    sync.Mutex
	swaps []Swap
}

func NewRouter(c *Chain, addr common.Address) *Router {
	return &Router{chain: c, addr: addr}
}

func (r *Router) Address() common.Address { return r.addr }

func (r *Router) Swaps() []Swap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Swap(nil), r.swaps...)
}

func (r *Router) record(method string, in, minOut *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	s := Swap{Method: method, AmountIn: in, AmountOutMin: minOut, Path: append([]common.Address(nil), path...), To: to, Deadline: deadline}
	return r.chain.submit("router."+method, func() ([]*types.Log, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.swaps = append(r.swaps, s)
		return nil, nil
	})
}

func (r *Router) SwapExactNativeForTokens(ctx context.Context, value, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.record("SwapExactNativeForTokens", value, amountOutMin, path, to, deadline)
}

func (r *Router) SwapExactTokensForNative(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.record("SwapExactTokensForNative", amountIn, amountOutMin, path, to, deadline)
}

func (r *Router) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (ledger.Tx, error) {
	return r.record("SwapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}
