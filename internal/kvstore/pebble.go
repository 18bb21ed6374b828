package kvstore

import (
	"context"

	"github.com/cockroachdb/pebble"
)

// PebbleDB is the pebble-backed DB implementation used by every node
// process (server, reindex, compare) and by the wallet keystore.
type PebbleDB struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble store at dir.
func Open(dir string) (*PebbleDB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleDB{db: db}, nil
}

// NewPebbleDB wraps an already-open pebble handle, primarily for tests
// that use an in-memory instance.
func NewPebbleDB(db *pebble.DB) *PebbleDB {
	return &PebbleDB{db: db}
}

func (p *PebbleDB) Read(_ context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, ErrDBClosed
	}
	val, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(val))
	copy(out, val)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PebbleDB) Write(_ context.Context, key, value []byte) error {
	if p.db == nil {
		return ErrDBClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleDB) Delete(_ context.Context, key []byte) error {
	if p.db == nil {
		return ErrDBClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleDB) Batch(_ context.Context, ops []BatchOperation) error {
	if p.db == nil {
		return ErrDBClosed
	}
	b := p.db.NewBatch()
	defer b.Close()
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			if err := b.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case BatchDelete:
			if err := b.Delete(op.Key, nil); err != nil {
				return err
			}
		}
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleDB) Iterator(_ context.Context, start, end []byte) (Iterator, error) {
	if p.db == nil {
		return nil, ErrDBClosed
	}
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{it: it}, nil
}

func (p *PebbleDB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// pebbleIterator copies out the key/value of the current position on
// each Next(), since pebble's buffers are only valid until the next
// iterator call.
type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
	key     []byte
	value   []byte
}

func (it *pebbleIterator) Next() bool {
	var ok bool
	if !it.started {
		it.started = true
		ok = it.it.First()
	} else {
		ok = it.it.Next()
	}
	if !ok {
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), it.it.Key()...)
	it.value = append([]byte(nil), it.it.Value()...)
	return true
}

func (it *pebbleIterator) Key() []byte   { return it.key }
func (it *pebbleIterator) Value() []byte { return it.value }
func (it *pebbleIterator) Error() error  { return it.it.Error() }
func (it *pebbleIterator) Close() error  { return it.it.Close() }
