// Package ledger holds the primitives shared by every ledger-backed port:
// submitted transactions and their confirmations.
package ledger

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReadOnly is returned by write methods when no signer is configured.
var ErrReadOnly = errors.New("ledger: no signer configured")

// Tx identifies a submitted, not yet confirmed, state-changing call.
type Tx struct {
	Hash common.Hash
}

// Receipt is the durable acceptance of a Tx.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Logs        []*types.Log
}

// Confirmer blocks until a submitted Tx is confirmed or definitively failed.
// Abandoning the wait (ctx done) does not withdraw the Tx.
type Confirmer interface {
	WaitConfirmed(ctx context.Context, tx Tx) (Receipt, error)
}
