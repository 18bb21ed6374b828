// Package tx implements the chain's transaction envelope: a versioned,
// closed sum type over five variants (Owner, Mint, CreateAccount,
// UpdateAccount, Transfer) sharing a common header of nonce/expiry/fee/
// signatures. A transaction's identifier is DoubleSHA256 of a chain-id
// prefix concatenated with its signature-less canonical encoding, so
// mutating only the signature set never changes the id.
package tx

import (
	"errors"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

// version is the outermost envelope version. Unknown versions are
// rejected outright rather than partially decoded.
const version uint16 = 0

var (
	ErrUnknownVersion = errors.New("tx: unknown envelope version")
	ErrUnknownType    = errors.New("tx: unknown transaction type")
	ErrDecode         = errors.New("tx: malformed encoding")
)

// Type discriminates the five transaction variants.
type Type uint8

const (
	TypeOwner Type = iota
	TypeMint
	TypeCreateAccount
	TypeUpdateAccount
	TypeTransfer
)

// Header carries the fields common to every variant.
type Header struct {
	Nonce      uint32
	Expiry     uint64 // unix milliseconds
	Fee        asset.Asset
	Signatures []chain.SigPair
}

// Variant is implemented by each of the five transaction bodies. The two
// unexported methods confine implementations to this package, since the
// envelope logic below assumes exactly these five.
type Variant interface {
	Type() Type
	header() *Header
	serializeBody(w *codec.Writer)
}

// Tx is the signed, self-identifying transaction envelope.
type Tx struct {
	Variant Variant
}

// New wraps a variant in an envelope.
func New(v Variant) Tx {
	return Tx{Variant: v}
}

// Header returns the common fields of the wrapped variant.
func (t Tx) Header() *Header {
	return t.Variant.header()
}

func (t Tx) serializeWithoutSigs(w *codec.Writer) {
	w.WriteUint16(version)
	w.WriteUint8(uint8(t.Variant.Type()))
	h := t.Variant.header()
	w.WriteUint32(h.Nonce)
	w.WriteUint64(h.Expiry)
	w.WriteInt64(h.Fee.MinorUnits())
	t.Variant.serializeBody(w)
}

// SerializeWithoutSigs returns the canonical encoding hashed into the
// transaction id: the signature list is deliberately excluded so that
// appending or replacing signatures never changes TxID.
func (t Tx) SerializeWithoutSigs() []byte {
	w := codec.NewWriter()
	t.serializeWithoutSigs(w)
	return w.Bytes()
}

// Serialize returns the full wire encoding, signatures included.
func (t Tx) Serialize() []byte {
	w := codec.NewWriter()
	t.serializeWithoutSigs(w)
	sigs := t.Variant.header().Signatures
	w.WriteUint8(uint8(len(sigs)))
	for _, sp := range sigs {
		chain.WriteSigPair(w, sp)
	}
	return w.Bytes()
}

// TxID computes DoubleSHA256(chainID ‖ serialize_without_sigs(tx)).
func (t Tx) TxID(chainID []byte) crypto.Digest {
	payload := make([]byte, 0, len(chainID)+256)
	payload = append(payload, chainID...)
	payload = append(payload, t.SerializeWithoutSigs()...)
	return crypto.DoubleSHA256(payload)
}

// Sign produces a SigPair over this transaction's id without appending it.
func (t Tx) Sign(chainID []byte, kp *crypto.Keypair) chain.SigPair {
	id := t.TxID(chainID)
	var sp chain.SigPair
	copy(sp.PubKey[:], kp.PublicKey)
	copy(sp.Signature[:], kp.Sign(id[:]))
	return sp
}

// AppendSign signs and appends the resulting SigPair to the header.
func (t Tx) AppendSign(chainID []byte, kp *crypto.Keypair) {
	sp := t.Sign(chainID, kp)
	h := t.Variant.header()
	h.Signatures = append(h.Signatures, sp)
}

// Deserialize decodes a full wire-format transaction, including
// signatures, requiring the input to be fully consumed.
func Deserialize(data []byte) (Tx, error) {
	r := codec.NewReader(data)
	t, err := DeserializeFrom(r)
	if err != nil {
		return Tx{}, err
	}
	if err := r.Finish(); err != nil {
		return Tx{}, ErrDecode
	}
	return t, nil
}

// DeserializeFrom decodes one transaction from r without requiring r to
// be exhausted afterward, so a transaction can be embedded inside a
// larger framed structure (a block's receipt list) that keeps reading
// past it.
func DeserializeFrom(r *codec.Reader) (Tx, error) {
	ver, err := r.ReadUint16()
	if err != nil {
		return Tx{}, ErrDecode
	}
	if ver != version {
		return Tx{}, ErrUnknownVersion
	}
	typeByte, err := r.ReadUint8()
	if err != nil {
		return Tx{}, ErrDecode
	}
	nonce, err := r.ReadUint32()
	if err != nil {
		return Tx{}, ErrDecode
	}
	expiry, err := r.ReadUint64()
	if err != nil {
		return Tx{}, ErrDecode
	}
	feeRaw, err := r.ReadInt64()
	if err != nil {
		return Tx{}, ErrDecode
	}
	h := Header{Nonce: nonce, Expiry: expiry, Fee: asset.New(feeRaw)}

	var v Variant
	switch Type(typeByte) {
	case TypeOwner:
		v, err = deserializeOwnerBody(r, h)
	case TypeMint:
		v, err = deserializeMintBody(r, h)
	case TypeCreateAccount:
		v, err = deserializeCreateAccountBody(r, h)
	case TypeUpdateAccount:
		v, err = deserializeUpdateAccountBody(r, h)
	case TypeTransfer:
		v, err = deserializeTransferBody(r, h)
	default:
		return Tx{}, ErrUnknownType
	}
	if err != nil {
		return Tx{}, err
	}

	nSigs, err := r.ReadUint8()
	if err != nil {
		return Tx{}, ErrDecode
	}
	sigs := make([]chain.SigPair, nSigs)
	for i := range sigs {
		sp, err := chain.ReadSigPair(r)
		if err != nil {
			return Tx{}, ErrDecode
		}
		sigs[i] = sp
	}
	v.header().Signatures = sigs
	return Tx{Variant: v}, nil
}
