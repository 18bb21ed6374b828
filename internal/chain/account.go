package chain

import (
	"crypto/ed25519"

	"github.com/godcoin-go/godcoind/internal/asset"
)

// AccountID is the 64-bit opaque identifier for a ledger account.
type AccountID uint64

// SigPair is a public key paired with the signature it produced.
type SigPair struct {
	PubKey    [32]byte
	Signature [64]byte
}

// Permissions is a threshold-multisig predicate: a signature set satisfies
// it iff, iterating Keys in order, at least Threshold of them have a
// matching valid signature among the supplied SigPairs. A key whose
// matching signature fails verification is a hard failure for the whole
// check; a key with no matching signature is simply skipped.
type Permissions struct {
	Threshold uint8
	Keys      [][32]byte
}

// Immutable reports whether this is the sentinel permissions value that
// can never be satisfied or replaced.
func (p Permissions) Immutable() bool {
	return p.Threshold == ImmutableThreshold && len(p.Keys) == 0
}

// Valid reports whether the permissions are well-formed: either the
// immutable sentinel, or threshold <= len(keys) <= MaxPermKeys with a
// non-zero threshold.
func (p Permissions) Valid() bool {
	if p.Immutable() {
		return true
	}
	if len(p.Keys) == 0 || len(p.Keys) > MaxPermKeys {
		return false
	}
	if p.Threshold == 0 || int(p.Threshold) > len(p.Keys) {
		return false
	}
	return true
}

// Satisfies reports whether sigs, verified against message, satisfy this
// permission set. Iteration is outer-loop over Keys (in order) and
// inner-loop over sigs, consuming at most one signature per key, so that
// a duplicated signature can never be counted twice. A present signature
// whose cryptographic verification fails is a hard failure for the whole
// check, distinct from a key that simply has no candidate signature.
func (p Permissions) Satisfies(message []byte, sigs []SigPair) bool {
	if p.Immutable() {
		return false
	}
	matched := 0
	for _, key := range p.Keys {
		for _, sig := range sigs {
			if sig.PubKey != key {
				continue
			}
			if !ed25519.Verify(key[:], message, sig.Signature[:]) {
				return false
			}
			matched++
			break
		}
	}
	return matched >= int(p.Threshold)
}

// Account is the mutable per-identity ledger record.
type Account struct {
	ID          AccountID
	Balance     asset.Asset
	Script      []byte
	Permissions Permissions
	Destroyed   bool
}
