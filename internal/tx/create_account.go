package tx

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// CreateAccountTx registers a new account. Fee and initial balance floors
// are enforced by the ledger engine, not here.
type CreateAccountTx struct {
	Header
	Creator chain.AccountID
	Account chain.Account
}

func (t *CreateAccountTx) Type() Type      { return TypeCreateAccount }
func (t *CreateAccountTx) header() *Header { return &t.Header }
func (t *CreateAccountTx) serializeBody(w *codec.Writer) {
	chain.WriteAccountID(w, t.Creator)
	chain.WriteAccount(w, t.Account)
}

func deserializeCreateAccountBody(r *codec.Reader, h Header) (Variant, error) {
	creator, err := chain.ReadAccountID(r)
	if err != nil {
		return nil, ErrDecode
	}
	acc, err := chain.ReadAccount(r)
	if err != nil {
		return nil, ErrDecode
	}
	return &CreateAccountTx{Header: h, Creator: creator, Account: acc}, nil
}
