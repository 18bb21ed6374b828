package chain

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

func asKey(pub ed25519.PublicKey) [32]byte {
	var k [32]byte
	copy(k[:], pub)
	return k
}

func sign(priv ed25519.PrivateKey, msg []byte) [64]byte {
	var s [64]byte
	copy(s[:], ed25519.Sign(priv, msg))
	return s
}

// TestPermissionsThreshold exercises spec scenario S6: threshold=2 over
// three keys.
func TestPermissionsThreshold(t *testing.T) {
	msg := []byte("tx body")
	pub1, priv1 := genKey(t)
	pub2, priv2 := genKey(t)
	pub3, _ := genKey(t)

	perms := Permissions{Threshold: 2, Keys: [][32]byte{asKey(pub1), asKey(pub2), asKey(pub3)}}

	sigs := []SigPair{
		{PubKey: asKey(pub1), Signature: sign(priv1, msg)},
		{PubKey: asKey(pub2), Signature: sign(priv2, msg)},
	}
	assert.True(t, perms.Satisfies(msg, sigs))

	onlyOne := []SigPair{{PubKey: asKey(pub1), Signature: sign(priv1, msg)}}
	assert.False(t, perms.Satisfies(msg, onlyOne))

	duplicate := []SigPair{
		{PubKey: asKey(pub1), Signature: sign(priv1, msg)},
		{PubKey: asKey(pub1), Signature: sign(priv1, msg)},
	}
	assert.False(t, perms.Satisfies(msg, duplicate))
}

func TestPermissionsInvalidSignatureIsHardFailure(t *testing.T) {
	msg := []byte("tx body")
	pub1, priv1 := genKey(t)
	pub2, _ := genKey(t)

	perms := Permissions{Threshold: 1, Keys: [][32]byte{asKey(pub1), asKey(pub2)}}

	badSig := sign(priv1, []byte("wrong message"))
	sigs := []SigPair{{PubKey: asKey(pub1), Signature: badSig}}
	assert.False(t, perms.Satisfies(msg, sigs))
}

func TestImmutablePermissions(t *testing.T) {
	perms := Permissions{Threshold: ImmutableThreshold}
	assert.True(t, perms.Immutable())
	assert.True(t, perms.Valid())
	assert.False(t, perms.Satisfies([]byte("x"), nil))
}
