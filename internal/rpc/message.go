// Package rpc implements the node's client-facing wire protocol: a framed
// binary message exchanged over a websocket connection, carrying tx
// broadcasts, block/account queries and block-header subscriptions.
package rpc

import (
	"errors"
	"math"

	"github.com/godcoin-go/godcoind/internal/codec"
)

// ErrDecode is returned for any malformed message body.
var ErrDecode = errors.New("rpc: malformed message")

// ServerID is the request id reserved for server-initiated messages:
// subscription pushes and pings have no originating request to echo.
const ServerID uint32 = math.MaxUint32

// BodyType discriminates the five message bodies sharing the envelope.
type BodyType uint8

const (
	BodyError BodyType = iota
	BodyRequest
	BodyResponse
	BodyPing
	BodyPong
)

// Message is one framed envelope: "u32 id ‖ u8 body_type ‖ body".
type Message struct {
	ID   uint32
	Body Body
}

// Body is implemented by every message payload.
type Body interface {
	bodyType() BodyType
	serialize(w *codec.Writer)
}

// Serialize returns the full wire encoding of m.
func (m Message) Serialize() []byte {
	w := codec.NewWriter()
	w.WriteUint32(m.ID)
	w.WriteUint8(uint8(m.Body.bodyType()))
	m.Body.serialize(w)
	return w.Bytes()
}

// Deserialize decodes one framed message, requiring the input to be fully
// consumed.
func Deserialize(data []byte) (Message, error) {
	r := codec.NewReader(data)
	id, err := r.ReadUint32()
	if err != nil {
		return Message{}, ErrDecode
	}
	bt, err := r.ReadUint8()
	if err != nil {
		return Message{}, ErrDecode
	}

	var body Body
	switch BodyType(bt) {
	case BodyError:
		body, err = deserializeErrorBody(r)
	case BodyRequest:
		body, err = deserializeRequest(r)
	case BodyResponse:
		body, err = deserializeResponse(r)
	case BodyPing:
		body, err = deserializePing(r)
	case BodyPong:
		body, err = deserializePong(r)
	default:
		return Message{}, ErrDecode
	}
	if err != nil {
		return Message{}, err
	}
	if err := r.Finish(); err != nil {
		return Message{}, ErrDecode
	}
	return Message{ID: id, Body: body}, nil
}

// Ping carries a client-chosen nonce the peer must echo back in a Pong.
type Ping struct{ Nonce uint64 }

func (Ping) bodyType() BodyType             { return BodyPing }
func (p Ping) serialize(w *codec.Writer)    { w.WriteUint64(p.Nonce) }
func deserializePing(r *codec.Reader) (Body, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, ErrDecode
	}
	return Ping{Nonce: n}, nil
}

// Pong echoes the nonce of the Ping it answers.
type Pong struct{ Nonce uint64 }

func (Pong) bodyType() BodyType          { return BodyPong }
func (p Pong) serialize(w *codec.Writer) { w.WriteUint64(p.Nonce) }
func deserializePong(r *codec.Reader) (Body, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, ErrDecode
	}
	return Pong{Nonce: n}, nil
}

// ErrorBody reports a request failure: a kind tag a client can switch on,
// plus a human-readable detail string for logging.
type ErrorBody struct {
	Kind   ErrorKind
	Detail string
}

func (ErrorBody) bodyType() BodyType { return BodyError }

func (e ErrorBody) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(e.Kind))
	w.WriteBytes([]byte(e.Detail))
}

func deserializeErrorBody(r *codec.Reader) (Body, error) {
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	detail, err := r.ReadBytes()
	if err != nil {
		return nil, ErrDecode
	}
	return ErrorBody{Kind: ErrorKind(kind), Detail: string(detail)}, nil
}

// ErrorKind mirrors the ledger's tx/block error taxonomy plus the
// transport-level failures the ledger has no concept of.
type ErrorKind uint8

const (
	ErrKindDecode ErrorKind = iota
	ErrKindNotFound
	ErrKindTx
	ErrKindBlock
	ErrKindInternal
)
