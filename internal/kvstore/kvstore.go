// Package kvstore defines the node's storage interface: a flat
// byte-key/byte-value store with batched writes and range iteration,
// backed by pebble. The ledger indexer addresses every persisted family
// (block_byte_pos, accounts, txid_expiry, and the scalar counters) by
// prefixing keys within this one store rather than using separate
// column families.
package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrDBClosed is returned when operating on a closed store.
	ErrDBClosed = errors.New("kvstore: database is closed")
	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("kvstore: key not found")
)

// DB is the storage interface the ledger engine depends on.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Batch(ctx context.Context, ops []BatchOperation) error
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
	Close() error
}

// Iterator traverses a key range in ascending order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOpType discriminates the two operations a batch may contain.
type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is a single step of an atomic batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}
