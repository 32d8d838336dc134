// Package evm implements the ledger ports against EVM contracts over JSON-RPC.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the RPC surface the adapter needs; *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("rpc endpoint required")
	}
	return ethclient.DialContext(ctx, trimmed)
}

// Signer builds a transactor from a hex private key. An empty key yields nil,
// which puts the client in read-only mode.
func Signer(hexKey string, chainID int64) (*bind.TransactOpts, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	return bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
}

type Client struct {
	caller     bind.ContractCaller
	transactor bind.ContractTransactor
	filterer   bind.ContractFilterer
	balances   interface {
		BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	}
	signer *bind.TransactOpts
}

// NewClient: signer may be nil for a read-only client.
func NewClient(b Backend, signer *bind.TransactOpts) *Client {
	return &Client{caller: b, transactor: b, filterer: b, balances: b, signer: signer}
}

// From is the signing account, or the zero address when read-only.
func (c *Client) From() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.From
}

func (c *Client) ReadOnly() bool { return c.signer == nil }

type contract struct {
	client  *Client
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
}

func (c *Client) at(addr common.Address, parsed abi.ABI) *contract {
	return &contract{
		client:  c,
		address: addr,
		abi:     parsed,
		bound:   bind.NewBoundContract(addr, parsed, c.caller, c.transactor, c.filterer),
	}
}

func (k *contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	opts := &bind.CallOpts{Context: ctx, From: k.client.From()}
	if err := k.bound.Call(opts, &out, method, args...); err != nil {
		return nil, classify(method, err)
	}
	return out, nil
}

// callOne runs a single-output view method and asserts its Go type.
func callOne[T any](ctx context.Context, k *contract, method string, args ...any) (T, error) {
	var zero T
	out, err := k.call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

func (k *contract) transact(ctx context.Context, value *big.Int, method string, args ...any) (ledger.Tx, error) {
	if k.client.signer == nil {
		return ledger.Tx{}, ledger.ErrReadOnly
	}
	opts := *k.client.signer
	opts.Context = ctx
	opts.Value = value
	tx, err := k.bound.Transact(&opts, method, args...)
	if err != nil {
		return ledger.Tx{}, classify(method, err)
	}
	return ledger.Tx{Hash: tx.Hash()}, nil
}

var rejectionMarkers = []string{
	"execution reverted",
	"insufficient funds",
	"nonce too low",
	"replacement transaction underpriced",
	"intrinsic gas too low",
	"gas required exceeds allowance",
}

// classify turns node-side refusals into *apperr.LedgerRejection, keeping
// the revert reason when the node returned one.
func classify(step string, err error) error {
	if err == nil {
		return nil
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if reason, ok := revertReason(de.ErrorData()); ok {
			return &apperr.LedgerRejection{Step: step, Reason: reason, Err: err}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rejectionMarkers {
		if strings.Contains(msg, m) {
			return &apperr.LedgerRejection{Step: step, Reason: err.Error(), Err: err}
		}
	}
	return fmt.Errorf("%s: %w", step, err)
}

func revertReason(data any) (string, bool) {
	s, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}
