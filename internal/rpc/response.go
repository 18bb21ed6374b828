package rpc

import (
	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// ResponseType discriminates the response variants.
type ResponseType uint8

const (
	RespBroadcast ResponseType = iota
	RespAck
	RespProperties
	RespBlock
	RespFullBlock
	RespBlockRangeEnd
	RespAccountInfo
)

// Response is implemented by each response body.
type Response interface {
	Body
	responseType() ResponseType
}

func (BroadcastResponse) bodyType() BodyType   { return BodyResponse }
func (AckResponse) bodyType() BodyType         { return BodyResponse }
func (PropertiesResponse) bodyType() BodyType  { return BodyResponse }
func (BlockResponse) bodyType() BodyType       { return BodyResponse }
func (FullBlockResponse) bodyType() BodyType   { return BodyResponse }
func (BlockRangeEndResponse) bodyType() BodyType { return BodyResponse }
func (AccountInfoResponse) bodyType() BodyType { return BodyResponse }

func (BroadcastResponse) responseType() ResponseType   { return RespBroadcast }
func (AckResponse) responseType() ResponseType         { return RespAck }
func (PropertiesResponse) responseType() ResponseType  { return RespProperties }
func (BlockResponse) responseType() ResponseType       { return RespBlock }
func (FullBlockResponse) responseType() ResponseType   { return RespFullBlock }
func (BlockRangeEndResponse) responseType() ResponseType { return RespBlockRangeEnd }
func (AccountInfoResponse) responseType() ResponseType { return RespAccountInfo }

// BroadcastResponse confirms a transaction was accepted into the pool,
// reporting the txid it was assigned.
type BroadcastResponse struct{ TxID [32]byte }

func (resp BroadcastResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespBroadcast))
	w.WriteRaw(resp.TxID[:])
}

// AckResponse answers requests with no payload of their own
// (SetBlockFilter, ClearBlockFilter, Subscribe, Unsubscribe).
type AckResponse struct{}

func (resp AckResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespAck))
}

// PropertiesResponse answers GetProperties.
type PropertiesResponse struct {
	Height  uint64
	NetFee  asset.Asset
	ChainID []byte
}

func (resp PropertiesResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespProperties))
	w.WriteUint64(resp.Height)
	w.WriteInt64(resp.NetFee.MinorUnits())
	w.WriteBytes(resp.ChainID)
}

// BlockResponse answers GetBlock with the header alone. It also answers
// each height of a GetBlockRange stream.
type BlockResponse struct{ Header block.Header }

func (resp BlockResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespBlock))
	w.WriteBytes(resp.Header.Serialize())
}

// FullBlockResponse answers GetFullBlock with the header, signer and every
// receipt.
type FullBlockResponse struct{ Block block.Block }

func (resp FullBlockResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespFullBlock))
	w.WriteBytes(resp.Block.Serialize())
}

// BlockRangeEndResponse terminates a GetBlockRange stream, reporting the
// last height actually sent (Hi clamped to the chain's tip).
type BlockRangeEndResponse struct{ LastHeight uint64 }

func (resp BlockRangeEndResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespBlockRangeEnd))
	w.WriteUint64(resp.LastHeight)
}

// AccountInfoResponse answers GetAccountInfo.
type AccountInfoResponse struct {
	Account chain.Account
	NetFee  asset.Asset
	AddrFee asset.Asset
}

func (resp AccountInfoResponse) serialize(w *codec.Writer) {
	w.WriteUint8(uint8(RespAccountInfo))
	chain.WriteAccount(w, resp.Account)
	w.WriteInt64(resp.NetFee.MinorUnits())
	w.WriteInt64(resp.AddrFee.MinorUnits())
}

func deserializeResponse(r *codec.Reader) (Body, error) {
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, ErrDecode
	}
	switch ResponseType(kind) {
	case RespBroadcast:
		raw, err := r.ReadRaw(32)
		if err != nil {
			return nil, ErrDecode
		}
		var id [32]byte
		copy(id[:], raw)
		return BroadcastResponse{TxID: id}, nil

	case RespAck:
		return AckResponse{}, nil

	case RespProperties:
		height, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		feeRaw, err := r.ReadInt64()
		if err != nil {
			return nil, ErrDecode
		}
		chainID, err := r.ReadBytes()
		if err != nil {
			return nil, ErrDecode
		}
		return PropertiesResponse{Height: height, NetFee: asset.New(feeRaw), ChainID: chainID}, nil

	case RespBlock:
		raw, err := r.ReadBytes()
		if err != nil {
			return nil, ErrDecode
		}
		hdr, err := block.DeserializeHeader(raw)
		if err != nil {
			return nil, err
		}
		return BlockResponse{Header: hdr}, nil

	case RespFullBlock:
		raw, err := r.ReadBytes()
		if err != nil {
			return nil, ErrDecode
		}
		blk, err := block.Deserialize(raw)
		if err != nil {
			return nil, err
		}
		return FullBlockResponse{Block: blk}, nil

	case RespBlockRangeEnd:
		last, err := r.ReadUint64()
		if err != nil {
			return nil, ErrDecode
		}
		return BlockRangeEndResponse{LastHeight: last}, nil

	case RespAccountInfo:
		acc, err := chain.ReadAccount(r)
		if err != nil {
			return nil, ErrDecode
		}
		netRaw, err := r.ReadInt64()
		if err != nil {
			return nil, ErrDecode
		}
		addrRaw, err := r.ReadInt64()
		if err != nil {
			return nil, ErrDecode
		}
		return AccountInfoResponse{Account: acc, NetFee: asset.New(netRaw), AddrFee: asset.New(addrRaw)}, nil

	default:
		return nil, ErrDecode
	}
}
