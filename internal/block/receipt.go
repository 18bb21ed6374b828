// Package block implements the v0 block header and body: a receipt
// root merkle over executed transactions, block signing/verification,
// and the previous-hash chain linking one block to the next.
package block

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// Receipt is an executed transaction paired with the effect log its
// script produced.
type Receipt struct {
	Tx  tx.Tx
	Log []chain.LogEntry
}

func writeReceipt(w *codec.Writer, r Receipt) {
	txBytes := r.Tx.Serialize()
	w.WriteRaw(txBytes)
	w.WriteUint16(uint16(len(r.Log)))
	for _, e := range r.Log {
		chain.WriteLogEntry(w, e)
	}
}

func readReceipt(r *codec.Reader) (Receipt, error) {
	t, err := tx.DeserializeFrom(r)
	if err != nil {
		return Receipt{}, err
	}
	nLog, err := r.ReadUint16()
	if err != nil {
		return Receipt{}, err
	}
	log := make([]chain.LogEntry, nLog)
	for i := range log {
		e, err := chain.ReadLogEntry(r)
		if err != nil {
			return Receipt{}, err
		}
		log[i] = e
	}
	return Receipt{Tx: t, Log: log}, nil
}

// SerializeReceipts concatenates the canonical encoding of each receipt,
// the preimage hashed into a block's receipt_root.
func SerializeReceipts(receipts []Receipt) []byte {
	w := codec.NewWriter()
	for _, r := range receipts {
		writeReceipt(w, r)
	}
	return w.Bytes()
}

// TouchedAccounts returns, in no particular order and with duplicates
// possible, every account id a block's receipts read or wrote. Used to
// match a block against a client's subscription filter without the
// caller needing to know each transaction variant's field layout.
func TouchedAccounts(receipts []Receipt) []chain.AccountID {
	var ids []chain.AccountID
	for _, r := range receipts {
		switch v := r.Tx.Variant.(type) {
		case *tx.MintTx:
			ids = append(ids, v.To)
		case *tx.CreateAccountTx:
			ids = append(ids, v.Creator, v.Account.ID)
		case *tx.UpdateAccountTx:
			ids = append(ids, v.AccountID)
		case *tx.TransferTx:
			ids = append(ids, v.From)
			for _, le := range r.Log {
				ids = append(ids, le.Account)
			}
		}
	}
	return ids
}
