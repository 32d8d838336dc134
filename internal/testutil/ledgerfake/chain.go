// Package ledgerfake is an in-memory ledger for usecase tests. Writes are
// queued on submit and applied when the Confirmer confirms them, so a
// rejected confirmation leaves state untouched.
package ledgerfake

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type pendingTx struct {
	op    string
	apply func() ([]*types.Log, error)
}

// Chain is the shared state behind every fake port.
type Chain struct {
	mu       sync.Mutex
	sender   common.Address
	nonce    uint64
	block    uint64
	calls    []string
	failures map[string]error
	pending  map[common.Hash]pendingTx
}

func NewChain(sender common.Address) *Chain {
	return &Chain{
		sender:   sender,
		failures: map[string]error{},
		pending:  map[common.Hash]pendingTx{},
	}
}

// SetSender changes the account that signs subsequent writes.
func (c *Chain) SetSender(a common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sender = a
}

func (c *Chain) Sender() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sender
}

// FailOn injects err for a key. Keys are "<port>.<Method>" for submits,
// "confirm:<port>.<Method>" for confirmations and "<port>.<Method>#<id>"
// for per-record reads.
func (c *Chain) FailOn(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[key] = err
}

func (c *Chain) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, key)
}

// Calls returns the submitted and confirmed writes in order.
func (c *Chain) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *Chain) failure(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[key]
}

func (c *Chain) readFailure(op string, id uint64) error {
	if err := c.failure(op); err != nil {
		return err
	}
	return c.failure(fmt.Sprintf("%s#%d", op, id))
}

func (c *Chain) submit(op string, apply func() ([]*types.Log, error)) (ledger.Tx, error) {
	if err := c.failure(op); err != nil {
		return ledger.Tx{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce++
	var h common.Hash
	binary.BigEndian.PutUint64(h[24:], c.nonce)
	c.pending[h] = pendingTx{op: op, apply: apply}
	c.calls = append(c.calls, op)
	return ledger.Tx{Hash: h}, nil
}

// Confirmer confirms queued writes.
type Confirmer struct{ chain *Chain }

func (c *Chain) Confirmer() *Confirmer { return &Confirmer{chain: c} }

func (f *Confirmer) WaitConfirmed(ctx context.Context, tx ledger.Tx) (ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Receipt{}, err
	}
	c := f.chain
	c.mu.Lock()
	p, ok := c.pending[tx.Hash]
	delete(c.pending, tx.Hash)
	c.mu.Unlock()
	if !ok {
		return ledger.Receipt{}, fmt.Errorf("unknown tx %s", tx.Hash.Hex())
	}
	if err := c.failure("confirm:" + p.op); err != nil {
		return ledger.Receipt{}, &apperr.LedgerRejection{Step: p.op, Reason: err.Error(), TxHash: tx.Hash, Err: err}
	}
	logs, err := p.apply()
	if err != nil {
		return ledger.Receipt{}, &apperr.LedgerRejection{Step: p.op, Reason: err.Error(), TxHash: tx.Hash}
	}
	c.mu.Lock()
	c.block++
	c.calls = append(c.calls, "confirm:"+p.op)
	block := c.block
	c.mu.Unlock()
	return ledger.Receipt{TxHash: tx.Hash, BlockNumber: block, Logs: logs}, nil
}
