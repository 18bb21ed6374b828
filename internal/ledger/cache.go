package ledger

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/godcoin-go/godcoind/internal/chain"
)

const defaultAccountCacheSize = 4096

// accountCache fronts the indexer's account family with an LRU, since the
// script VM and fee curve both re-resolve the same handful of hot
// accounts many times within a single block's execution.
type accountCache struct {
	indexer *Indexer
	cache   *lru.Cache[chain.AccountID, chain.Account]
}

func newAccountCache(ix *Indexer) *accountCache {
	c, err := lru.New[chain.AccountID, chain.Account](defaultAccountCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	return &accountCache{indexer: ix, cache: c}
}

func (c *accountCache) get(ctx context.Context, id chain.AccountID) (*chain.Account, bool, error) {
	if acc, ok := c.cache.Get(id); ok {
		return &acc, true, nil
	}
	acc, ok, err := c.indexer.GetAccount(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	c.cache.Add(id, *acc)
	return acc, true, nil
}

// invalidate drops a cached entry, called after a batch commits a new
// version of the account so the cache can't serve the stale one.
func (c *accountCache) invalidate(id chain.AccountID) {
	c.cache.Remove(id)
}
