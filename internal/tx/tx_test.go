package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

var testChainID = []byte("test-chain-id")

func TestOwnerRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	var minter [32]byte
	copy(minter[:], kp.PublicKey)

	owner := New(&OwnerTx{
		Header: Header{Nonce: 123456789, Expiry: 1230, Fee: asset.New(0)},
		Minter: minter,
		Wallet: 0xFF,
	})
	owner.AppendSign(testChainID, kp)

	encoded := owner.Serialize()
	decoded, err := Deserialize(encoded)
	require.NoError(t, err)

	ot, ok := decoded.Variant.(*OwnerTx)
	require.True(t, ok)
	assert.Equal(t, chain.AccountID(0xFF), ot.Wallet)
	assert.Equal(t, minter, ot.Minter)
	assert.Equal(t, uint32(123456789), ot.Nonce)
	require.Len(t, ot.Signatures, 1)
	assert.Equal(t, owner.TxID(testChainID), decoded.TxID(testChainID))
}

func TestMintRoundTrip(t *testing.T) {
	mint := New(&MintTx{
		Header:         Header{Nonce: 1, Expiry: 2000, Fee: asset.New(0)},
		To:             12345,
		Amount:         asset.New(1000000),
		Attachment:     []byte{1, 2, 3},
		AttachmentName: "abc.pdf",
	})

	decoded, err := Deserialize(mint.Serialize())
	require.NoError(t, err)
	mt := decoded.Variant.(*MintTx)
	assert.Equal(t, chain.AccountID(12345), mt.To)
	assert.Equal(t, asset.New(1000000), mt.Amount)
	assert.Equal(t, "abc.pdf", mt.AttachmentName)
	assert.Equal(t, []byte{1, 2, 3}, mt.Attachment)
}

func TestTransferRoundTrip(t *testing.T) {
	transfer := New(&TransferTx{
		Header: Header{Nonce: 123, Expiry: 1234567890, Fee: asset.New(123000)},
		From:   12345,
		CallFn: 0,
		Args:   []byte{0x00, 0xff, 0x10},
		Amount: asset.New(100456),
		Memo:   []byte("Hello world!"),
	})

	decoded, err := Deserialize(transfer.Serialize())
	require.NoError(t, err)
	tt := decoded.Variant.(*TransferTx)
	assert.Equal(t, chain.AccountID(12345), tt.From)
	assert.Equal(t, asset.New(100456), tt.Amount)
	assert.Equal(t, []byte("Hello world!"), tt.Memo)
}

func TestUpdateAccountRoundTripWithOptionals(t *testing.T) {
	perms := chain.Permissions{Threshold: 1, Keys: [][32]byte{{1}}}
	update := New(&UpdateAccountTx{
		Header:         Header{Nonce: 1, Expiry: 1, Fee: asset.New(0)},
		AccountID:      7,
		HasNewScript:   true,
		NewScript:      []byte{0xAA, 0xBB},
		NewPermissions: &perms,
	})

	decoded, err := Deserialize(update.Serialize())
	require.NoError(t, err)
	ut := decoded.Variant.(*UpdateAccountTx)
	assert.True(t, ut.HasNewScript)
	assert.Equal(t, []byte{0xAA, 0xBB}, ut.NewScript)
	require.NotNil(t, ut.NewPermissions)
	assert.Equal(t, perms, *ut.NewPermissions)
}

func TestUpdateAccountRoundTripWithoutOptionals(t *testing.T) {
	update := New(&UpdateAccountTx{
		Header:    Header{Nonce: 1, Expiry: 1, Fee: asset.New(0)},
		AccountID: 7,
	})

	decoded, err := Deserialize(update.Serialize())
	require.NoError(t, err)
	ut := decoded.Variant.(*UpdateAccountTx)
	assert.False(t, ut.HasNewScript)
	assert.Nil(t, ut.NewPermissions)
}

// TestTxIDStability exercises invariant 2: mutating nonce changes the
// txid, but mutating only signatures does not.
func TestTxIDStability(t *testing.T) {
	base := func() Tx {
		return New(&TransferTx{
			Header: Header{Nonce: 123, Expiry: 1, Fee: asset.New(1000000)},
			From:   100,
			Amount: asset.New(100000),
			Memo:   []byte{1, 2, 3},
		})
	}

	a := base()
	idA := a.TxID(testChainID)

	b := base()
	b.Variant.(*TransferTx).Nonce = 124
	idB := b.TxID(testChainID)
	assert.NotEqual(t, idA, idB)

	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	c := base()
	idBeforeSign := c.TxID(testChainID)
	c.AppendSign(testChainID, kp)
	idAfterSign := c.TxID(testChainID)
	assert.Equal(t, idBeforeSign, idAfterSign)
}

func TestUnknownVersionRejected(t *testing.T) {
	transfer := New(&TransferTx{Header: Header{Nonce: 1}, From: 1})
	encoded := transfer.Serialize()
	encoded[0] = 0xFF // corrupt the version prefix (big-endian high byte)
	_, err := Deserialize(encoded)
	assert.Error(t, err)
}
