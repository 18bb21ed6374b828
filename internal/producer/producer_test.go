package producer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/blocklog"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/kvstore"
	"github.com/godcoin-go/godcoind/internal/ledger"
	"github.com/godcoin-go/godcoind/internal/tx"
)

var testChainID = []byte("producer-test-chain")

func newTestEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { pdb.Close() })
	db := kvstore.NewPebbleDB(pdb)
	ix := ledger.NewIndexer(db)

	logPath := filepath.Join(t.TempDir(), "blocks.log")
	bl, err := blocklog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { bl.Close() })

	return ledger.New(testChainID, ix, bl)
}

const ownerWallet chain.AccountID = 1

// nearExpiry returns an expiry within chain.TxMaxExpiryTime of now, the
// bound Engine.Push enforces.
func nearExpiry(now time.Time) uint64 {
	return uint64(now.Add(chain.TxMaxExpiryTime / 2).UnixMilli())
}

func TestProducerSealsPendingReceiptsIntoABlock(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Bootstrap(ctx, []chain.Account{{ID: ownerWallet}}))

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	now := time.Unix(0, 0)
	ownerTx := tx.New(&tx.OwnerTx{
		Header: tx.Header{Nonce: 1, Expiry: nearExpiry(now), Fee: asset.Zero},
		Wallet: ownerWallet,
	})
	copy(ownerTx.Variant.(*tx.OwnerTx).Minter[:], kp.PublicKey)

	require.NoError(t, e.Push(ctx, ownerTx, now))

	p := New(e, kp, WithClock(func() time.Time { return now }))
	require.NoError(t, p.tick(ctx))

	head, height, err := e.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
	assert.NotEqual(t, block.ReceiptRoot(nil), head.ReceiptRoot)

	storedOwner, ok, err := e.GetAccount(ctx, ownerWallet, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, asset.Zero, storedOwner.Balance)
}

func TestProducerSkipsEmptyTickWithoutStaleProduction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Bootstrap(ctx, []chain.Account{{ID: ownerWallet}}))

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	now := time.Unix(0, 0)
	p := New(e, kp, WithClock(func() time.Time { return now }))
	require.NoError(t, p.tick(ctx))

	_, height, err := e.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)
}

func TestProducerStaleProductionSealsEmptyBlock(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Bootstrap(ctx, []chain.Account{{ID: ownerWallet}}))

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	now := time.Unix(0, 0)
	p := New(e, kp, WithClock(func() time.Time { return now }), WithStaleProduction(true))
	require.NoError(t, p.tick(ctx))

	_, height, err := e.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
}

func TestProducerSumsFeesIntoRewards(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	require.NoError(t, e.Bootstrap(ctx, []chain.Account{{ID: ownerWallet}}))

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	now := time.Unix(0, 0)
	genesisOwnerTx := tx.New(&tx.OwnerTx{
		Header: tx.Header{Nonce: 1, Expiry: nearExpiry(now), Fee: asset.Zero},
		Wallet: ownerWallet,
	})
	copy(genesisOwnerTx.Variant.(*tx.OwnerTx).Minter[:], kp.PublicKey)

	require.NoError(t, e.Push(ctx, genesisOwnerTx, now))
	p := New(e, kp, WithClock(func() time.Time { return now }))
	require.NoError(t, p.tick(ctx))

	mintTx := tx.New(&tx.MintTx{
		Header: tx.Header{Nonce: 1, Expiry: nearExpiry(now), Fee: asset.Zero},
		To:     ownerWallet,
		Amount: asset.New(1_000000),
	})
	require.NoError(t, e.Push(ctx, mintTx, now))
	require.NoError(t, p.tick(ctx))

	acc, ok, err := e.GetAccount(ctx, ownerWallet, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, asset.New(1_000000), acc.Balance)
}
