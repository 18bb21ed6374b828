package chain

import (
	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// WriteAccountID writes an AccountID as a big-endian u64.
func WriteAccountID(w *codec.Writer, id AccountID) {
	w.WriteUint64(uint64(id))
}

// ReadAccountID reads an AccountID.
func ReadAccountID(r *codec.Reader) (AccountID, error) {
	v, err := r.ReadUint64()
	return AccountID(v), err
}

// WriteSigPair writes "pubkey‖signature(64)".
func WriteSigPair(w *codec.Writer, sp SigPair) {
	w.WriteRaw(sp.PubKey[:])
	w.WriteRaw(sp.Signature[:])
}

// ReadSigPair reads a SigPair.
func ReadSigPair(r *codec.Reader) (SigPair, error) {
	var sp SigPair
	pub, err := r.ReadRaw(32)
	if err != nil {
		return sp, err
	}
	sig, err := r.ReadRaw(64)
	if err != nil {
		return sp, err
	}
	copy(sp.PubKey[:], pub)
	copy(sp.Signature[:], sig)
	return sp, nil
}

// WritePermissions writes "[threshold:u8][n_keys:u8][key:32]{n}".
func WritePermissions(w *codec.Writer, p Permissions) {
	w.WriteUint8(p.Threshold)
	w.WriteUint8(uint8(len(p.Keys)))
	for _, k := range p.Keys {
		w.WriteRaw(k[:])
	}
}

// ReadPermissions reads a Permissions value.
func ReadPermissions(r *codec.Reader) (Permissions, error) {
	var p Permissions
	threshold, err := r.ReadUint8()
	if err != nil {
		return p, err
	}
	n, err := r.ReadUint8()
	if err != nil {
		return p, err
	}
	p.Threshold = threshold
	p.Keys = make([][32]byte, n)
	for i := range p.Keys {
		k, err := r.ReadRaw(32)
		if err != nil {
			return p, err
		}
		copy(p.Keys[i][:], k)
	}
	return p, nil
}

// WriteAccount writes the canonical encoding of an Account record, used
// by the indexer's persisted `accounts` family.
func WriteAccount(w *codec.Writer, a Account) {
	WriteAccountID(w, a.ID)
	w.WriteInt64(a.Balance.MinorUnits())
	w.WriteBytes(a.Script)
	WritePermissions(w, a.Permissions)
	w.WriteBool(a.Destroyed)
}

// ReadAccount reads an Account record.
func ReadAccount(r *codec.Reader) (Account, error) {
	var a Account
	id, err := ReadAccountID(r)
	if err != nil {
		return a, err
	}
	balance, err := r.ReadInt64()
	if err != nil {
		return a, err
	}
	script, err := r.ReadBytes()
	if err != nil {
		return a, err
	}
	perms, err := ReadPermissions(r)
	if err != nil {
		return a, err
	}
	destroyed, err := r.ReadBool()
	if err != nil {
		return a, err
	}
	a.ID = id
	a.Balance = asset.New(balance)
	a.Script = script
	a.Permissions = perms
	a.Destroyed = destroyed
	return a, nil
}

// WriteLogEntry writes a tagged LogEntry: [kind:u8][account:u64][amount:i64 if Transfer].
func WriteLogEntry(w *codec.Writer, e LogEntry) {
	w.WriteUint8(uint8(e.Kind))
	WriteAccountID(w, e.Account)
	if e.Kind == LogEntryTransfer {
		w.WriteInt64(e.Amount.MinorUnits())
	}
}

// ReadLogEntry reads a LogEntry.
func ReadLogEntry(r *codec.Reader) (LogEntry, error) {
	var e LogEntry
	kind, err := r.ReadUint8()
	if err != nil {
		return e, err
	}
	acc, err := ReadAccountID(r)
	if err != nil {
		return e, err
	}
	e.Kind = LogEntryKind(kind)
	e.Account = acc
	if e.Kind == LogEntryTransfer {
		amt, err := r.ReadInt64()
		if err != nil {
			return e, err
		}
		e.Amount = asset.New(amt)
	}
	return e, nil
}
