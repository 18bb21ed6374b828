package crypto

import "crypto/sha256"

// Digest is a 32-byte hash as used for txids, block hashes and merkle roots.
type Digest [32]byte

// DoubleSHA256 computes SHA-256(SHA-256(data)), the chain's standard digest.
// Two rounds guard against length-extension attacks on the inner hash.
func DoubleSHA256(data []byte) Digest {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return Digest(second)
}
