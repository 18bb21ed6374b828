package tx

import (
	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// TransferTx debits from.balance by fee+amount, invokes from.script's
// call_fn with args, and applies the resulting effect log.
type TransferTx struct {
	Header
	From   chain.AccountID
	CallFn uint8
	Args   []byte
	Amount asset.Asset
	Memo   []byte
}

func (t *TransferTx) Type() Type      { return TypeTransfer }
func (t *TransferTx) header() *Header { return &t.Header }
func (t *TransferTx) serializeBody(w *codec.Writer) {
	chain.WriteAccountID(w, t.From)
	w.WriteUint8(t.CallFn)
	w.WriteBytes(t.Args)
	w.WriteInt64(t.Amount.MinorUnits())
	w.WriteBytes(t.Memo)
}

func deserializeTransferBody(r *codec.Reader, h Header) (Variant, error) {
	from, err := chain.ReadAccountID(r)
	if err != nil {
		return nil, ErrDecode
	}
	callFn, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	args, err := r.ReadBytes()
	if err != nil {
		return nil, ErrDecode
	}
	amountRaw, err := r.ReadInt64()
	if err != nil {
		return nil, ErrDecode
	}
	memo, err := r.ReadBytes()
	if err != nil {
		return nil, ErrDecode
	}
	return &TransferTx{
		Header: h,
		From:   from,
		CallFn: callFn,
		Args:   args,
		Amount: asset.New(amountRaw),
		Memo:   memo,
	}, nil
}
