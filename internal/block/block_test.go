package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/tx"
)

func sampleReceipt(t *testing.T) Receipt {
	t.Helper()
	transfer := tx.New(&tx.TransferTx{
		Header: tx.Header{Nonce: 1, Expiry: 1, Fee: asset.New(0)},
		From:   1,
		Amount: asset.New(100000),
	})
	return Receipt{
		Tx:  transfer,
		Log: []chain.LogEntry{chain.Transfer(2, asset.New(100000))},
	}
}

func TestBlockRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()

	genesis := Header{Height: 0, Timestamp: 1532992800}
	b := NewChild(genesis, []Receipt{sampleReceipt(t)}, asset.New(0), 1532992900)
	b.Sign(kp)

	encoded := b.Serialize()
	decoded, err := Deserialize(encoded)
	require.NoError(t, err)

	assert.Equal(t, b.Header, decoded.Header)
	assert.True(t, decoded.VerifySignature())
	assert.True(t, decoded.VerifyReceiptRoot())
}

func TestMerkleRootDetectsTamper(t *testing.T) {
	genesis := Header{Height: 0}
	b := NewChild(genesis, nil, asset.New(0), 0)
	assert.True(t, b.VerifyReceiptRoot())

	b.Header.ReceiptRoot[0] ^= 0xFF
	assert.False(t, b.VerifyReceiptRoot())
}

func TestPreviousHashChaining(t *testing.T) {
	genesis := Header{Height: 0}
	block1 := NewChild(genesis, nil, asset.New(0), 0)
	assert.True(t, block1.VerifyPreviousHash(genesis))

	tampered := block1
	tampered.Header.PreviousHash[0] ^= 0xFF
	assert.False(t, tampered.VerifyPreviousHash(genesis))
}

func TestVerifySignatureRejectsWrongKey(t *testing.T) {
	kp, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer kp.Close()
	other, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	defer other.Close()

	genesis := Header{Height: 0}
	b := NewChild(genesis, nil, asset.New(0), 0)
	b.Sign(kp)

	b.Header.Timestamp = 999 // mutate after signing: hash no longer matches
	assert.False(t, b.VerifySignature())

	b2 := NewChild(genesis, nil, asset.New(0), 0)
	b2.Sign(other)
	b2.Signer.PubKey = b.Signer.PubKey // swap in a key that didn't sign this hash
	assert.False(t, b2.VerifySignature())
}
