// Package chain holds the core domain types shared by the script VM, the
// transaction model and the ledger engine: account identifiers, signature
// pairs, permission predicates and the account record itself. It has no
// dependency on storage, codec framing, or the VM — those import chain,
// not the other way around.
package chain

import (
	"time"

	"github.com/godcoin-go/godcoind/internal/asset"
)

// BaseFee is the floor fee the network/address fee curves scale from.
var BaseFee = asset.New(1000) // 0.01000

// MaxPermKeys bounds the number of public keys an account's Permissions
// may list.
const MaxPermKeys = 8

// ImmutableThreshold is the sentinel Permissions.Threshold value that,
// paired with an empty key list, marks an account that can never be
// updated.
const ImmutableThreshold = 255

// MaxTxSignatures bounds the number of signatures a transaction may carry.
const MaxTxSignatures = 8

// MaxScriptByteSize bounds the serialized size of an account's Script.
const MaxScriptByteSize = 2048

// MaxMemoByteSize bounds the serialized size of a transaction's memo field.
const MaxMemoByteSize = 1024

// AccCreateFeeMult is the multiplier applied to the owner's total fee to
// derive the minimum fee for CreateAccount/UpdateAccount.
const AccCreateFeeMult = 10

// AccCreateMinBalMult is the multiplier applied to a CreateAccount's fee to
// derive the minimum required initial balance.
const AccCreateMinBalMult = 2

// NetMult is the base of the network fee curve.
const NetMult = 2

// NetMultAsset is NetMult expressed as a fixed-point Asset, since the
// fee curve's exponentiation runs through Asset.Pow's checked,
// scale-preserving arithmetic rather than plain integer powers.
var NetMultAsset = asset.New(NetMult * asset.Scale)

// NetworkFeeAvgWindow is the number of trailing blocks (aligned to a
// 5-block boundary) averaged to compute the network fee exponent.
const NetworkFeeAvgWindow = 20

// AddressFeeMult is the base of the per-address fee curve.
const AddressFeeMult = 3

// AddrMultAsset is AddressFeeMult expressed as a fixed-point Asset.
var AddrMultAsset = asset.New(AddressFeeMult * asset.Scale)

// FeeResetWindow is the number of trailing blocks examined for an
// address's originating-transfer count, and the gap after which that
// count resets to zero.
const FeeResetWindow = 5

// TxMaxExpiryTime bounds how far in the future a transaction's expiry may
// be set, and how long a txid is retained in the expiry index afterward.
const TxMaxExpiryTime = 90 * time.Second

// BlockProdTime is the fixed interval between produced blocks.
const BlockProdTime = 3 * time.Second
