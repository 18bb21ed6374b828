package ledger

import (
	"context"
	"errors"

	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/kvstore"
)

// ErrNotEmpty is returned by Bootstrap when the chain already has blocks.
var ErrNotEmpty = errors.New("ledger: cannot bootstrap a non-empty chain")

// Bootstrap seeds the account state the chain needs before its first block
// can be produced: the eventual owner wallet, and any other accounts a
// deployment wants pre-funded. It writes directly to the indexer, outside
// the ordinary tx pipeline, mirroring how a genesis ledger's account state
// is assembled before any transaction has ever run against it. It must be
// called on a fresh indexer with no committed blocks; the first real block
// is still an ordinary OwnerTx the producer or an operator broadcasts,
// executed and indexed through the normal path.
func (e *Engine) Bootstrap(ctx context.Context, accounts []chain.Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return err
	}
	if height != 0 {
		return ErrNotEmpty
	}

	ops := make([]kvstore.BatchOperation, 0, len(accounts))
	for _, acc := range accounts {
		ops = append(ops, putAccountOp(acc))
	}
	return e.indexer.Commit(ctx, ops)
}
