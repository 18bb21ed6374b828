package rpc

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// RequestType discriminates the ten request variants.
type RequestType uint8

const (
	ReqBroadcast RequestType = iota
	ReqSetBlockFilter
	ReqClearBlockFilter
	ReqSubscribe
	ReqUnsubscribe
	ReqGetProperties
	ReqGetBlock
	ReqGetFullBlock
	ReqGetBlockRange
	ReqGetAccountInfo
)

// Request is implemented by each of the ten request bodies.
type Request interface {
	Body
	requestType() RequestType
}

func (BroadcastRequest) bodyType() BodyType       { return BodyRequest }
func (SetBlockFilterRequest) bodyType() BodyType  { return BodyRequest }
func (ClearBlockFilterRequest) bodyType() BodyType { return BodyRequest }
func (SubscribeRequest) bodyType() BodyType       { return BodyRequest }
func (UnsubscribeRequest) bodyType() BodyType     { return BodyRequest }
func (GetPropertiesRequest) bodyType() BodyType   { return BodyRequest }
func (GetBlockRequest) bodyType() BodyType        { return BodyRequest }
func (GetFullBlockRequest) bodyType() BodyType    { return BodyRequest }
func (GetBlockRangeRequest) bodyType() BodyType   { return BodyRequest }
func (GetAccountInfoRequest) bodyType() BodyType  { return BodyRequest }

func (BroadcastRequest) requestType() RequestType        { return ReqBroadcast }
func (SetBlockFilterRequest) requestType() RequestType    { return ReqSetBlockFilter }
func (ClearBlockFilterRequest) requestType() RequestType  { return ReqClearBlockFilter }
func (SubscribeRequest) requestType() RequestType         { return ReqSubscribe }
func (UnsubscribeRequest) requestType() RequestType       { return ReqUnsubscribe }
func (GetPropertiesRequest) requestType() RequestType     { return ReqGetProperties }
func (GetBlockRequest) requestType() RequestType          { return ReqGetBlock }
func (GetFullBlockRequest) requestType() RequestType      { return ReqGetFullBlock }
func (GetBlockRangeRequest) requestType() RequestType     { return ReqGetBlockRange }
func (GetAccountInfoRequest) requestType() RequestType    { return ReqGetAccountInfo }

// BroadcastRequest submits a signed transaction for inclusion in a future
// block.
type BroadcastRequest struct{ Tx tx.Tx }

func (req BroadcastRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqBroadcast))
	w.WriteBytes(req.Tx.Serialize())
}

// SetBlockFilterRequest narrows a connection's block-header subscription
// to blocks that touch one of Accounts. An empty filter after
// ClearBlockFilter means every block matches.
type SetBlockFilterRequest struct{ Accounts []chain.AccountID }

func (req SetBlockFilterRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqSetBlockFilter))
	w.WriteUint32(uint32(len(req.Accounts)))
	for _, a := range req.Accounts {
		chain.WriteAccountID(w, a)
	}
}

// ClearBlockFilterRequest removes any previously set account filter.
type ClearBlockFilterRequest struct{}

func (req ClearBlockFilterRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqClearBlockFilter))
}

// SubscribeRequest opts a connection into block-header push notifications.
type SubscribeRequest struct{}

func (req SubscribeRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqSubscribe))
}

// UnsubscribeRequest opts a connection out of block-header push
// notifications.
type UnsubscribeRequest struct{}

func (req UnsubscribeRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqUnsubscribe))
}

// GetPropertiesRequest asks for the chain's current tip height and network
// fee.
type GetPropertiesRequest struct{}

func (req GetPropertiesRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqGetProperties))
}

// GetBlockRequest asks for the header of the block at Height.
type GetBlockRequest struct{ Height uint64 }

func (req GetBlockRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqGetBlock))
	w.WriteUint64(req.Height)
}

// GetFullBlockRequest asks for the header and every receipt of the block
// at Height.
type GetFullBlockRequest struct{ Height uint64 }

func (req GetFullBlockRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqGetFullBlock))
	w.WriteUint64(req.Height)
}

// GetBlockRangeRequest asks for one GetBlock response per height in
// [Lo, Hi], inclusive, followed by a BlockRangeEnd response sharing the
// same request id.
type GetBlockRangeRequest struct{ Lo, Hi uint64 }

func (req GetBlockRangeRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqGetBlockRange))
	w.WriteUint64(req.Lo)
	w.WriteUint64(req.Hi)
}

// GetAccountInfoRequest asks for an account's current state plus the fee
// quotes a wallet needs to build a transfer from it.
type GetAccountInfoRequest struct{ Account chain.AccountID }

func (req GetAccountInfoRequest) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(ReqGetAccountInfo))
	chain.WriteAccountID(w, req.Account)
}

func deserializeRequest(r *codec.Reader) (Body, error) {
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	switch RequestType(kind) {
	case ReqBroadcast:
		raw, err := r.ReadBytes()
		if err != nil {
			return nil, ErrDecode
		}
		t, err := tx.Deserialize(raw)
		if err != nil {
			return nil, err
		}
		return BroadcastRequest{Tx: t}, nil

	case ReqSetBlockFilter:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, ErrDecode
		}
		accounts := make([]chain.AccountID, n)
		for i := range accounts {
			id, err := chain.ReadAccountID(r)
			if err != nil {
				return nil, ErrDecode
			}
			accounts[i] = id
		}
		return SetBlockFilterRequest{Accounts: accounts}, nil

	case ReqClearBlockFilter:
		return ClearBlockFilterRequest{}, nil

	case ReqSubscribe:
		return SubscribeRequest{}, nil

	case ReqUnsubscribe:
		return UnsubscribeRequest{}, nil

	case ReqGetProperties:
		return GetPropertiesRequest{}, nil

	case ReqGetBlock:
		h, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		return GetBlockRequest{Height: h}, nil

	case ReqGetFullBlock:
		h, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		return GetFullBlockRequest{Height: h}, nil

	case ReqGetBlockRange:
		lo, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		hi, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		return GetBlockRangeRequest{Lo: lo, Hi: hi}, nil

	case ReqGetAccountInfo:
		id, err := chain.ReadAccountID(r)
		if err != nil {
			return nil, ErrDecode
		}
		return GetAccountInfoRequest{Account: id}, nil

	default:
		return nil, ErrDecode
	}
}
