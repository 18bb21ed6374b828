package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/tx"
)

func roundtrip(t *testing.T, id uint32, body Body) Message {
	t.Helper()
	data := Message{ID: id, Body: body}.Serialize()
	msg, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, id, msg.ID)
	return msg
}

func TestPingPongRoundtrip(t *testing.T) {
	msg := roundtrip(t, 7, Ping{Nonce: 42})
	assert.Equal(t, Ping{Nonce: 42}, msg.Body)

	msg = roundtrip(t, ServerID, Pong{Nonce: 42})
	assert.Equal(t, Pong{Nonce: 42}, msg.Body)
}

func TestErrorBodyRoundtrip(t *testing.T) {
	msg := roundtrip(t, 3, ErrorBody{Kind: ErrKindNotFound, Detail: "no such block"})
	assert.Equal(t, ErrorBody{Kind: ErrKindNotFound, Detail: "no such block"}, msg.Body)
}

func TestBroadcastRequestRoundtrip(t *testing.T) {
	mintTx := tx.New(&tx.MintTx{
		Header: tx.Header{Nonce: 1, Expiry: 1000, Fee: asset.Zero},
		To:     chain.AccountID(1),
		Amount: asset.New(100),
	})
	msg := roundtrip(t, 1, BroadcastRequest{Tx: mintTx})
	req, ok := msg.Body.(BroadcastRequest)
	require.True(t, ok)
	assert.Equal(t, mintTx.Serialize(), req.Tx.Serialize())
}

func TestSetBlockFilterRequestRoundtrip(t *testing.T) {
	msg := roundtrip(t, 2, SetBlockFilterRequest{Accounts: []chain.AccountID{1, 2, 3}})
	req, ok := msg.Body.(SetBlockFilterRequest)
	require.True(t, ok)
	assert.Equal(t, []chain.AccountID{1, 2, 3}, req.Accounts)
}

func TestGetBlockRangeRequestRoundtrip(t *testing.T) {
	msg := roundtrip(t, 4, GetBlockRangeRequest{Lo: 5, Hi: 10})
	req, ok := msg.Body.(GetBlockRangeRequest)
	require.True(t, ok)
	assert.Equal(t, uint64(5), req.Lo)
	assert.Equal(t, uint64(10), req.Hi)
}

func TestGetAccountInfoRequestRoundtrip(t *testing.T) {
	msg := roundtrip(t, 5, GetAccountInfoRequest{Account: chain.AccountID(99)})
	req, ok := msg.Body.(GetAccountInfoRequest)
	require.True(t, ok)
	assert.Equal(t, chain.AccountID(99), req.Account)
}

func TestPropertiesResponseRoundtrip(t *testing.T) {
	msg := roundtrip(t, 6, PropertiesResponse{Height: 42, NetFee: asset.New(500), ChainID: []byte("test-chain")})
	resp, ok := msg.Body.(PropertiesResponse)
	require.True(t, ok)
	assert.Equal(t, uint64(42), resp.Height)
	assert.Equal(t, asset.New(500), resp.NetFee)
	assert.Equal(t, []byte("test-chain"), resp.ChainID)
}

func TestBlockResponseRoundtrip(t *testing.T) {
	hdr := block.Header{Height: 1, Timestamp: 12345}
	msg := roundtrip(t, 8, BlockResponse{Header: hdr})
	resp, ok := msg.Body.(BlockResponse)
	require.True(t, ok)
	assert.Equal(t, hdr, resp.Header)
}

func TestAccountInfoResponseRoundtrip(t *testing.T) {
	acc := chain.Account{
		ID:          chain.AccountID(7),
		Balance:     asset.New(1000),
		Permissions: chain.Permissions{Threshold: 1, Keys: [][32]byte{{1}}},
	}
	msg := roundtrip(t, 9, AccountInfoResponse{Account: acc, NetFee: asset.New(10), AddrFee: asset.New(5)})
	resp, ok := msg.Body.(AccountInfoResponse)
	require.True(t, ok)
	assert.Equal(t, acc.ID, resp.Account.ID)
	assert.Equal(t, acc.Balance, resp.Account.Balance)
	assert.Equal(t, acc.Permissions, resp.Account.Permissions)
}

func TestDeserializeRejectsTrailingBytes(t *testing.T) {
	data := Message{ID: 1, Body: AckResponse{}}.Serialize()
	data = append(data, 0xff)
	_, err := Deserialize(data)
	assert.ErrorIs(t, err, ErrDecode)
}
