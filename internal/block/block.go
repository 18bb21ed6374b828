package block

import (
	"errors"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

const version uint16 = 0

var (
	ErrUnknownVersion = errors.New("block: unknown version")
	ErrDecode         = errors.New("block: malformed encoding")
	ErrUnsigned       = errors.New("block: cannot serialize an unsigned block")
)

// Header is the hashed portion of a block: everything invariant 3's
// signature covers. The signer and receipt list ride alongside it in the
// full block encoding but are not part of the hash preimage.
type Header struct {
	PreviousHash crypto.Digest
	Height       uint64
	Timestamp    uint64
	ReceiptRoot  crypto.Digest
	Rewards      asset.Asset
}

func (h Header) serialize(w *codec.Writer) {
	w.WriteUint16(version)
	w.WriteRaw(h.PreviousHash[:])
	w.WriteUint64(h.Height)
	w.WriteUint64(h.Timestamp)
	w.WriteRaw(h.ReceiptRoot[:])
	w.WriteInt64(h.Rewards.MinorUnits())
}

// Serialize returns the canonical header encoding hashed for
// previous-hash chaining and block signing.
func (h Header) Serialize() []byte {
	w := codec.NewWriter()
	h.serialize(w)
	return w.Bytes()
}

// Hash is DoubleSHA256(serialize_header(h)).
func (h Header) Hash() crypto.Digest {
	return crypto.DoubleSHA256(h.Serialize())
}

// DeserializeHeader decodes a bare header encoding produced by
// Header.Serialize, requiring the input to be fully consumed.
func DeserializeHeader(data []byte) (Header, error) {
	r := codec.NewReader(data)
	h, err := deserializeHeader(r)
	if err != nil {
		return Header{}, err
	}
	if err := r.Finish(); err != nil {
		return Header{}, ErrDecode
	}
	return h, nil
}

func deserializeHeader(r *codec.Reader) (Header, error) {
	var h Header
	ver, err := r.ReadUint16()
	if err != nil {
		return h, ErrDecode
	}
	if ver != version {
		return h, ErrUnknownVersion
	}
	prev, err := r.ReadRaw(32)
	if err != nil {
		return h, ErrDecode
	}
	height, err := r.ReadUint64()
	if err != nil {
		return h, ErrDecode
	}
	ts, err := r.ReadUint64()
	if err != nil {
		return h, ErrDecode
	}
	root, err := r.ReadRaw(32)
	if err != nil {
		return h, ErrDecode
	}
	rewardsRaw, err := r.ReadInt64()
	if err != nil {
		return h, ErrDecode
	}
	copy(h.PreviousHash[:], prev)
	h.Height = height
	h.Timestamp = ts
	copy(h.ReceiptRoot[:], root)
	h.Rewards = asset.New(rewardsRaw)
	return h, nil
}

// Block is a v0 block: a hashed header, the SigPair produced by the
// minter over that header's hash, and the ordered receipts it commits to.
type Block struct {
	Header   Header
	Signer   *chain.SigPair
	Receipts []Receipt
}

// ReceiptRoot computes DoubleSHA256(concat serialize(r) for r in receipts).
func ReceiptRoot(receipts []Receipt) crypto.Digest {
	return crypto.DoubleSHA256(SerializeReceipts(receipts))
}

// NewChild builds the next block on top of prev, with a freshly computed
// receipt root, previous-hash link and the given rewards (sum of receipt
// fees). The caller still must sign the result before it can be serialized.
func NewChild(prev Header, receipts []Receipt, rewards asset.Asset, timestamp uint64) Block {
	return Block{
		Header: Header{
			PreviousHash: prev.Hash(),
			Height:       prev.Height + 1,
			Timestamp:    timestamp,
			ReceiptRoot:  ReceiptRoot(receipts),
			Rewards:      rewards,
		},
		Receipts: receipts,
	}
}

// Sign computes the header hash and signs it with kp, setting Signer.
func (b *Block) Sign(kp *crypto.Keypair) {
	hash := b.Header.Hash()
	var sp chain.SigPair
	copy(sp.PubKey[:], kp.PublicKey)
	copy(sp.Signature[:], kp.Sign(hash[:]))
	b.Signer = &sp
}

// VerifySignature reports whether Signer is a valid signature over the
// header hash from the public key it carries. Callers are responsible
// for checking that key against the current owner's minter key
// separately (invariant 3's identity requirement).
func (b Block) VerifySignature() bool {
	if b.Signer == nil {
		return false
	}
	hash := b.Header.Hash()
	return crypto.Verify(b.Signer.PubKey[:], hash[:], b.Signer.Signature[:])
}

// VerifyReceiptRoot reports whether Header.ReceiptRoot matches Receipts.
func (b Block) VerifyReceiptRoot() bool {
	return b.Header.ReceiptRoot == ReceiptRoot(b.Receipts)
}

// VerifyPreviousHash reports whether Header.PreviousHash chains from prev.
func (b Block) VerifyPreviousHash(prev Header) bool {
	return b.Header.PreviousHash == prev.Hash()
}

// Serialize returns the full wire encoding: header ‖ signer ‖ n_receipts
// ‖ receipts. Panics on an unsigned block, since an unsigned block is
// never a value any caller should be persisting or transmitting.
func (b Block) Serialize() []byte {
	if b.Signer == nil {
		panic(ErrUnsigned)
	}
	w := codec.NewWriter()
	b.Header.serialize(w)
	chain.WriteSigPair(w, *b.Signer)
	w.WriteUint32(uint32(len(b.Receipts)))
	for _, r := range b.Receipts {
		writeReceipt(w, r)
	}
	return w.Bytes()
}

// Deserialize decodes a full block, requiring the input to be fully
// consumed.
func Deserialize(data []byte) (Block, error) {
	r := codec.NewReader(data)
	b, err := DeserializeFrom(r)
	if err != nil {
		return Block{}, err
	}
	if err := r.Finish(); err != nil {
		return Block{}, ErrDecode
	}
	return b, nil
}

// DeserializeFrom decodes one block from r without requiring r to be
// exhausted afterward, so the block log can read frames back-to-back.
func DeserializeFrom(r *codec.Reader) (Block, error) {
	h, err := deserializeHeader(r)
	if err != nil {
		return Block{}, err
	}
	sp, err := chain.ReadSigPair(r)
	if err != nil {
		return Block{}, ErrDecode
	}
	n, err := r.ReadUint32()
	if err != nil {
		return Block{}, ErrDecode
	}
	receipts := make([]Receipt, n)
	for i := range receipts {
		rcpt, err := readReceipt(r)
		if err != nil {
			return Block{}, err
		}
		receipts[i] = rcpt
	}
	return Block{Header: h, Signer: &sp, Receipts: receipts}, nil
}
