package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
)

// ErrInvalidSignature names a signature that does not match the message
// under the given public key. Verify reports this as a false result and
// does not return this value.
var ErrInvalidSignature = errors.New("crypto: invalid signature")

// Keypair is an Ed25519 public/private pair. The private seed is held in a
// SecretKey so its memory is zeroised when Close is called.
type Keypair struct {
	PublicKey ed25519.PublicKey
	seed      *SecretKey
}

// GenerateKeypair creates a fresh random Ed25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, err
	}
	return KeypairFromSeed(seed), nil
}

// KeypairFromSeed derives a Keypair from a 32-byte seed. The caller's seed
// slice is copied; the Keypair owns and zeroises its own copy on Close.
func KeypairFromSeed(seed []byte) *Keypair {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{
		PublicKey: pub,
		seed:      NewSecretKeyWithCopy(seed),
	}
}

// Seed returns a copy of the 32-byte private seed this keypair was derived
// from, for callers that must persist or re-export the key (a wallet
// keystore writing an encrypted entry, e.g.).
func (k *Keypair) Seed() []byte {
	return k.seed.Copy()
}

// Sign produces a 64-byte Ed25519 signature over message.
func (k *Keypair) Sign(message []byte) []byte {
	priv := ed25519.NewKeyFromSeed(k.seed.Data())
	return ed25519.Sign(priv, message)
}

// Close zeroises the private seed. The Keypair must not be used afterwards.
func (k *Keypair) Close() {
	k.seed.Close()
}

// Verify reports whether sig is a valid Ed25519 signature over message
// under pub.
func Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, sig)
}
