package ledger

import (
	"context"
	"time"

	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// Push validates t against the pool's currently held receipts, rejecting
// an already-expired transaction, one whose expiry is further out than
// chain.TxMaxExpiryTime allows, or one whose txid is still live (either
// pending in this pool, or persisted and not yet past its own expiry
// from an earlier flush). On success the resulting receipt is appended
// to the pool and its txid/expiry recorded so later pushes see it.
func (e *Engine) Push(ctx context.Context, t tx.Tx, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := t.Header()
	nowMillis := uint64(now.UnixMilli())
	if h.Expiry <= nowMillis || h.Expiry-nowMillis > uint64(chain.TxMaxExpiryTime.Milliseconds()) {
		return txFail(TxExpired)
	}

	txid := t.TxID(e.chainID)
	if _, dup := e.pendingExp[txid]; dup {
		return txFail(TxDupe)
	}
	if _, dup, err := e.indexer.GetTxExpiry(ctx, txid); err != nil {
		return err
	} else if dup {
		return txFail(TxDupe)
	}

	log, err := e.ExecuteTx(ctx, t, e.receipts)
	if err != nil {
		return err
	}

	e.receipts = append(e.receipts, block.Receipt{Tx: t, Log: log})
	e.pendingExp[txid] = h.Expiry
	return nil
}

// Flush hands back every receipt the pool has accumulated since the last
// flush, clearing it for the next block. Only expired txids are dropped
// from the in-memory expiry set here: a non-expired txid must keep
// failing Push as a duplicate even after its receipt has been sealed
// into a block, until it naturally ages out.
func (e *Engine) Flush(now time.Time) []block.Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.receipts
	e.receipts = nil

	nowMillis := uint64(now.UnixMilli())
	for txid, expiry := range e.pendingExp {
		if expiry <= nowMillis {
			delete(e.pendingExp, txid)
		}
	}
	return out
}

// forgetCommittedReceipt drops r from the pool's held receipts if still
// present there. A block accepted from a peer can carry a transaction this
// node already holds in its own pool; left in place, that stale copy would
// be resealed into a later locally-produced block as a double-spend attempt
// against an already-committed balance change. The txid stays recorded in
// pendingExp so Push still rejects it as a duplicate until it expires.
func (e *Engine) forgetCommittedReceipt(r block.Receipt) {
	txid := r.Tx.TxID(e.chainID)
	for i, pending := range e.receipts {
		if pending.Tx.TxID(e.chainID) == txid {
			e.receipts = append(e.receipts[:i], e.receipts[i+1:]...)
			return
		}
	}
}
