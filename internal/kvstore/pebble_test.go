package kvstore

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *PebbleDB {
	t.Helper()
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	return NewPebbleDB(db)
}

func TestReadWriteDelete(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v1")))
	val, err := db.Read(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, db.Delete(ctx, []byte("k1")))
	_, err = db.Read(ctx, []byte("k1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBatch(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("a"), []byte("1")))
	err := db.Batch(ctx, []BatchOperation{
		{Type: BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: BatchDelete, Key: []byte("a")},
	})
	require.NoError(t, err)

	_, err = db.Read(ctx, []byte("a"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
	val, err := db.Read(ctx, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
}

func TestIteratorRange(t *testing.T) {
	db := openMem(t)
	defer db.Close()
	ctx := context.Background()

	keys := []string{"accounts/1", "accounts/2", "accounts/3", "token_supply"}
	for _, k := range keys {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	it, err := db.Iterator(ctx, []byte("accounts/"), []byte("accounts0"))
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"accounts/1", "accounts/2", "accounts/3"}, got)
}

func TestReadAfterClose(t *testing.T) {
	db := openMem(t)
	require.NoError(t, db.Close())
	_, err := db.Read(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrDBClosed)
}
