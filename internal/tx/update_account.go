package tx

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// UpdateAccountTx optionally replaces an existing non-destroyed account's
// script and/or permissions. HasNewScript false, or a nil NewPermissions,
// means "leave unchanged".
type UpdateAccountTx struct {
	Header
	AccountID      chain.AccountID
	NewScript      []byte
	HasNewScript   bool
	NewPermissions *chain.Permissions
}

func (t *UpdateAccountTx) Type() Type      { return TypeUpdateAccount }
func (t *UpdateAccountTx) header() *Header { return &t.Header }
func (t *UpdateAccountTx) serializeBody(w *codec.Writer) {
	chain.WriteAccountID(w, t.AccountID)
	if t.HasNewScript {
		w.WriteUint8(1)
		w.WriteBytes(t.NewScript)
	} else {
		w.WriteUint8(0)
	}
	if t.NewPermissions != nil {
		w.WriteUint8(1)
		chain.WritePermissions(w, *t.NewPermissions)
	} else {
		w.WriteUint8(0)
	}
}

func deserializeUpdateAccountBody(r *codec.Reader, h Header) (Variant, error) {
	accID, err := chain.ReadAccountID(r)
	if err != nil {
		return nil, ErrDecode
	}
	t := &UpdateAccountTx{Header: h, AccountID: accID}

	hasScript, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	switch hasScript {
	case 1:
		script, err := r.ReadBytes()
		if err != nil {
			return nil, ErrDecode
		}
		t.HasNewScript = true
		t.NewScript = script
	case 0:
	default:
		return nil, ErrDecode
	}

	hasPerms, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	switch hasPerms {
	case 1:
		perms, err := chain.ReadPermissions(r)
		if err != nil {
			return nil, ErrDecode
		}
		t.NewPermissions = &perms
	case 0:
	default:
		return nil, ErrDecode
	}

	return t, nil
}
