package ledger

import (
	"encoding/binary"

	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

// Key prefixes partition the single kvstore keyspace into the families
// spec.md's external-interfaces section names: block_byte_pos, accounts,
// txid_expiry, plus a handful of process-wide scalars.
const (
	prefixAccount      = 'a'
	prefixBlockBytePos = 'b'
	prefixTxExpiry     = 'x'
	prefixScalar       = 's'
)

func accountKey(id chain.AccountID) []byte {
	k := make([]byte, 9)
	k[0] = prefixAccount
	binary.BigEndian.PutUint64(k[1:], uint64(id))
	return k
}

func blockBytePosKey(height uint64) []byte {
	k := make([]byte, 9)
	k[0] = prefixBlockBytePos
	binary.BigEndian.PutUint64(k[1:], height)
	return k
}

func txExpiryKey(txid crypto.Digest) []byte {
	k := make([]byte, 1+len(txid))
	k[0] = prefixTxExpiry
	copy(k[1:], txid[:])
	return k
}

func scalarKey(name string) []byte {
	k := make([]byte, 1+len(name))
	k[0] = prefixScalar
	copy(k[1:], name)
	return k
}

var (
	keyChainHeight = scalarKey("chain_height")
	keyTokenSupply = scalarKey("token_supply")
	keyOwnerTx     = scalarKey("owner_tx")
	keyIndexStatus = scalarKey("index_status")
)

// accountKeyLower / accountKeyUpper bound range scans of the accounts
// family (used by Indexer.AccountRange).
var (
	accountKeyLower = []byte{prefixAccount}
	accountKeyUpper = []byte{prefixAccount + 1}
)
