package tx

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// OwnerTx rotates the chain's minter key and/or owner wallet. Fee must be
// zero and it must satisfy the current owner account's permissions.
type OwnerTx struct {
	Header
	Minter [32]byte        // public key that signs future blocks
	Wallet chain.AccountID // wallet credited with block rewards
}

func (t *OwnerTx) Type() Type         { return TypeOwner }
func (t *OwnerTx) header() *Header    { return &t.Header }
func (t *OwnerTx) serializeBody(w *codec.Writer) {
	w.WriteRaw(t.Minter[:])
	chain.WriteAccountID(w, t.Wallet)
}

func deserializeOwnerBody(r *codec.Reader, h Header) (Variant, error) {
	minter, err := r.ReadRaw(32)
	if err != nil {
		return nil, ErrDecode
	}
	wallet, err := chain.ReadAccountID(r)
	if err != nil {
		return nil, ErrDecode
	}
	t := &OwnerTx{Header: h, Wallet: wallet}
	copy(t.Minter[:], minter)
	return t, nil
}
