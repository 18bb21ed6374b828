package ledger

import (
	"context"

	"github.com/godcoin-go/godcoind/internal/block"
)

// GetBlock returns the block stored at height, or ErrBlockNotFound if the
// chain has not reached that height yet.
func (e *Engine) GetBlock(ctx context.Context, height uint64) (block.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getBlock(ctx, height)
}

// ChainHeight returns the height of the current chain tip, 0 for an empty
// chain.
func (e *Engine) ChainHeight(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexer.ChainHeight(ctx)
}
