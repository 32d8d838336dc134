package evm

import (
	"context"
	"errors"
	"time"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/ledger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ReceiptReader is the subset of the RPC used to confirm transactions.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Confirmer polls for receipts until the transaction is mined or ctx ends.
type Confirmer struct {
	client   ReceiptReader
	interval time.Duration
	log      *zap.Logger
}

func NewConfirmer(client ReceiptReader, interval time.Duration, log *zap.Logger) *Confirmer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Confirmer{client: client, interval: interval, log: log}
}

func (c *Confirmer) WaitConfirmed(ctx context.Context, tx ledger.Tx) (ledger.Receipt, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		rcpt, err := c.client.TransactionReceipt(ctx, tx.Hash)
		switch {
		case err == nil && rcpt != nil:
			if rcpt.Status != types.ReceiptStatusSuccessful {
				return ledger.Receipt{}, &apperr.LedgerRejection{Reason: "transaction reverted", TxHash: tx.Hash}
			}
			out := ledger.Receipt{TxHash: tx.Hash, Logs: rcpt.Logs}
			if rcpt.BlockNumber != nil {
				out.BlockNumber = rcpt.BlockNumber.Uint64()
			}
			return out, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			c.log.Debug("receipt poll failed", zap.String("tx", tx.Hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ledger.Receipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
