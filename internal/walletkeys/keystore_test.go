package walletkeys

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/kvstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { pdb.Close() })
	db := kvstore.NewPebbleDB(pdb)
	s, err := newStore(db)
	require.NoError(t, err)
	return s
}

func TestNewStoreStartsNew(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, StateNew, s.State())
}

func TestSetPasswordThenReopenRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	defer pdb.Close()
	db := kvstore.NewPebbleDB(pdb)

	s1, err := newStore(db)
	require.NoError(t, err)
	require.NoError(t, s1.SetPassword(ctx, []byte("hunter2")))
	assert.Equal(t, StateUnlocked, s1.State())

	s2, err := newStore(db)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, s2.State())

	require.Error(t, s2.Unlock(ctx, []byte("wrong")))
	assert.ErrorIs(t, s2.Unlock(ctx, []byte("wrong")), ErrWrongPassword)

	require.NoError(t, s2.Unlock(ctx, []byte("hunter2")))
	assert.Equal(t, StateUnlocked, s2.State())
}

func TestSetGetDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetPassword(ctx, []byte("pw")))

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	acc := Account{ID: chain.AccountID(7), Keys: []*crypto.Keypair{kp}}
	require.NoError(t, s.SetAccount(ctx, "minter", acc))

	names, err := s.ListAccountNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"minter"}, names)

	got, err := s.GetAccount(ctx, "minter")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	require.Len(t, got.Keys, 1)
	assert.Equal(t, kp.PublicKey, got.Keys[0].PublicKey)

	require.NoError(t, s.DeleteAccount(ctx, "minter"))
	_, err = s.GetAccount(ctx, "minter")
	assert.ErrorIs(t, err, ErrAccountMissing)
}

func TestAccountOperationsRequireUnlocked(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetAccount(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrLocked)
}
