package tx

import (
	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// MintTx credits amount to an account and increases token_supply. Fee
// must be zero and it is permissions-bound to the current owner.
type MintTx struct {
	Header
	To             chain.AccountID
	Amount         asset.Asset
	Attachment     []byte
	AttachmentName string
}

func (t *MintTx) Type() Type      { return TypeMint }
func (t *MintTx) header() *Header { return &t.Header }
func (t *MintTx) serializeBody(w *codec.Writer) {
	chain.WriteAccountID(w, t.To)
	w.WriteInt64(t.Amount.MinorUnits())
	w.WriteBytes(t.Attachment)
	w.WriteBytes([]byte(t.AttachmentName))
}

func deserializeMintBody(r *codec.Reader, h Header) (Variant, error) {
	to, err := chain.ReadAccountID(r)
	if err != nil {
		return nil, ErrDecode
	}
	amountRaw, err := r.ReadInt64()
	if err != nil {
		return nil, ErrDecode
	}
	attachment, err := r.ReadBytes()
	if err != nil {
		return nil, ErrDecode
	}
	name, err := r.ReadBytes()
	if err != nil {
		return nil, ErrDecode
	}
	return &MintTx{
		Header:         h,
		To:             to,
		Amount:         asset.New(amountRaw),
		Attachment:     attachment,
		AttachmentName: string(name),
	}, nil
}
