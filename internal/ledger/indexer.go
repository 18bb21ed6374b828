package ledger

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/kvstore"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// IndexStatus records whether the indexer reflects a fully-applied chain
// or is mid-reindex, persisted so a crash during reindex is detectable on
// the next startup.
type IndexStatus byte

const (
	IndexStatusReady IndexStatus = iota
	IndexStatusReindexing
)

// Indexer is the pebble-backed mirror of chain state: per-account
// balances/scripts/permissions, block byte offsets, the txid-expiry set,
// and a handful of scalar counters. It has no opinion about
// concurrency — callers (the ledger engine) serialize access.
type Indexer struct {
	db kvstore.DB
}

// NewIndexer wraps db for use as the ledger's index.
func NewIndexer(db kvstore.DB) *Indexer {
	return &Indexer{db: db}
}

func (ix *Indexer) GetAccount(ctx context.Context, id chain.AccountID) (*chain.Account, bool, error) {
	val, err := ix.db.Read(ctx, accountKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	acc, err := chain.ReadAccount(codec.NewReader(val))
	if err != nil {
		return nil, false, err
	}
	return &acc, true, nil
}

func (ix *Indexer) GetBlockByteOffset(ctx context.Context, height uint64) (int64, bool, error) {
	val, err := ix.db.Read(ctx, blockBytePosKey(height))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int64(binary.BigEndian.Uint64(val)), true, nil
}

func (ix *Indexer) GetTxExpiry(ctx context.Context, txid crypto.Digest) (uint64, bool, error) {
	val, err := ix.db.Read(ctx, txExpiryKey(txid))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return binary.BigEndian.Uint64(val), true, nil
}

func (ix *Indexer) ChainHeight(ctx context.Context) (uint64, error) {
	val, err := ix.db.Read(ctx, keyChainHeight)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(val), nil
}

func (ix *Indexer) TokenSupply(ctx context.Context) (asset.Asset, error) {
	val, err := ix.db.Read(ctx, keyTokenSupply)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return asset.Zero, nil
	}
	if err != nil {
		return 0, err
	}
	return asset.New(int64(binary.BigEndian.Uint64(val))), nil
}

func (ix *Indexer) OwnerTx(ctx context.Context) (tx.Tx, bool, error) {
	val, err := ix.db.Read(ctx, keyOwnerTx)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return tx.Tx{}, false, nil
	}
	if err != nil {
		return tx.Tx{}, false, err
	}
	t, err := tx.Deserialize(val)
	if err != nil {
		return tx.Tx{}, false, err
	}
	return t, true, nil
}

func (ix *Indexer) Status(ctx context.Context) (IndexStatus, error) {
	val, err := ix.db.Read(ctx, keyIndexStatus)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return IndexStatusReady, nil
	}
	if err != nil {
		return 0, err
	}
	return IndexStatus(val[0]), nil
}

func (ix *Indexer) SetStatus(ctx context.Context, status IndexStatus) error {
	return ix.db.Write(ctx, keyIndexStatus, []byte{byte(status)})
}

// AccountRange iterates every account in increasing AccountID order,
// used to rebuild aggregate state (e.g. conservation checks in tests).
func (ix *Indexer) AccountRange(ctx context.Context, fn func(chain.Account) error) error {
	it, err := ix.db.Iterator(ctx, accountKeyLower, accountKeyUpper)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		acc, err := chain.ReadAccount(codec.NewReader(it.Value()))
		if err != nil {
			return err
		}
		if err := fn(acc); err != nil {
			return err
		}
	}
	return it.Error()
}

// Commit applies a batch of writes atomically.
func (ix *Indexer) Commit(ctx context.Context, ops []kvstore.BatchOperation) error {
	if len(ops) == 0 {
		return nil
	}
	return ix.db.Batch(ctx, ops)
}

// --- batch-operation builders ---

func putAccountOp(a chain.Account) kvstore.BatchOperation {
	w := codec.NewWriter()
	chain.WriteAccount(w, a)
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: accountKey(a.ID), Value: w.Bytes()}
}

func putBlockByteOffsetOp(height uint64, offset int64) kvstore.BatchOperation {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(offset))
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: blockBytePosKey(height), Value: v}
}

func putTxExpiryOp(txid crypto.Digest, expiry uint64) kvstore.BatchOperation {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, expiry)
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: txExpiryKey(txid), Value: v}
}

func deleteTxExpiryOp(txid crypto.Digest) kvstore.BatchOperation {
	return kvstore.BatchOperation{Type: kvstore.BatchDelete, Key: txExpiryKey(txid)}
}

func putChainHeightOp(height uint64) kvstore.BatchOperation {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, height)
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: keyChainHeight, Value: v}
}

func putTokenSupplyOp(supply asset.Asset) kvstore.BatchOperation {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(supply.MinorUnits()))
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: keyTokenSupply, Value: v}
}

func putOwnerTxOp(t tx.Tx) kvstore.BatchOperation {
	return kvstore.BatchOperation{Type: kvstore.BatchPut, Key: keyOwnerTx, Value: t.Serialize()}
}
