package ledger

import (
	"context"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// AccountInfo bundles an account with the two fee quotes a wallet needs
// to build a valid transfer from it.
type AccountInfo struct {
	Account chain.Account
	NetFee  asset.Asset
	AddrFee asset.Asset
}

// GetAccount returns the effective state of id after applying pending's
// effects on top of the indexed state. It returns ok=false both when id
// is unknown and when a receipt in pending destroys it — a destroyed
// account is not a valid target for anything downstream.
func (e *Engine) GetAccount(ctx context.Context, id chain.AccountID, pending []block.Receipt) (*chain.Account, bool, error) {
	base, ok, err := e.cache.get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	var acc chain.Account
	if ok {
		acc = *base
	} else {
		acc = chain.Account{ID: id}
	}
	existed := ok

	for _, r := range pending {
		if err := applyPendingEffect(&acc, &existed, id, r); err != nil {
			return nil, false, err
		}
	}
	if !existed || acc.Destroyed {
		return nil, false, nil
	}
	return &acc, true, nil
}

// GetAccountInfo is GetAccount plus the fee quotes the spec groups
// alongside it.
func (e *Engine) GetAccountInfo(ctx context.Context, id chain.AccountID, pending []block.Receipt) (*AccountInfo, bool, error) {
	acc, ok, err := e.GetAccount(ctx, id, pending)
	if err != nil || !ok {
		return nil, ok, err
	}
	net, err := e.GetNetworkFee(ctx)
	if err != nil {
		return nil, false, err
	}
	addr, err := e.GetAddressFee(ctx, id, pending)
	if err != nil {
		return nil, false, err
	}
	return &AccountInfo{Account: *acc, NetFee: net, AddrFee: addr}, true, nil
}

// applyPendingEffect mutates acc/existed in place for the subset of r's
// effects that touch id, mirroring the index-time rules of indexBlock
// exactly — every receipt's effects are single-account local, so no
// cross-account map is needed for a single id's view.
func applyPendingEffect(acc *chain.Account, existed *bool, id chain.AccountID, r block.Receipt) error {
	fee := r.Tx.Header().Fee

	switch v := r.Tx.Variant.(type) {
	case *tx.MintTx:
		if v.To == id && *existed {
			bal, err := acc.Balance.Add(v.Amount)
			if err != nil {
				return err
			}
			acc.Balance = bal
		}
	case *tx.CreateAccountTx:
		if v.Creator == id && *existed {
			debit, err := fee.Add(v.Account.Balance)
			if err != nil {
				return err
			}
			bal, err := acc.Balance.Sub(debit)
			if err != nil {
				return err
			}
			acc.Balance = bal
		}
		if v.Account.ID == id {
			*acc = v.Account
			*existed = true
		}
	case *tx.UpdateAccountTx:
		if v.AccountID == id && *existed {
			bal, err := acc.Balance.Sub(fee)
			if err != nil {
				return err
			}
			acc.Balance = bal
			if v.HasNewScript {
				acc.Script = v.NewScript
			}
			if v.NewPermissions != nil {
				acc.Permissions = *v.NewPermissions
			}
		}
	case *tx.TransferTx:
		if v.From == id && *existed {
			debit, err := fee.Add(v.Amount)
			if err != nil {
				return err
			}
			bal, err := acc.Balance.Sub(debit)
			if err != nil {
				return err
			}
			acc.Balance = bal
		}
		if *existed {
			for _, le := range r.Log {
				if le.Account != id {
					continue
				}
				switch le.Kind {
				case chain.LogEntryTransfer:
					bal, err := acc.Balance.Add(le.Amount)
					if err != nil {
						return err
					}
					acc.Balance = bal
				case chain.LogEntryDestroy:
					acc.Destroyed = true
				}
			}
		}
	}
	return nil
}
