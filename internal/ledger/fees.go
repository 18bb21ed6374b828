package ledger

import (
	"context"
	"errors"
	"math"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// ErrFeeCurveOverflow is the Go rendering of the reference engine's
// `u16` exponent overflow: the fee curve's exponent no longer fits a
// u16, so no fee can be quoted.
var ErrFeeCurveOverflow = errors.New("ledger: fee curve exponent overflow")

func transferFrom(r block.Receipt, addr chain.AccountID) bool {
	t, ok := r.Tx.Variant.(*tx.TransferTx)
	return ok && t.From == addr
}

// GetNetworkFee is base_fee × NET_MULT^N, N clamped to [1, 65535] and
// computed from the mean receipt count of the NETWORK_FEE_AVG_WINDOW
// blocks ending at the last height divisible by 5. The fee adjusts only
// every 5 blocks so users have a stable window to confirm a quoted fee.
func (e *Engine) GetNetworkFee(ctx context.Context) (asset.Asset, error) {
	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return 0, err
	}
	maxHeight := height - (height % 5)
	count := uint64(1)
	if maxHeight > 0 {
		minHeight := uint64(1)
		if maxHeight > chain.NetworkFeeAvgWindow {
			minHeight = maxHeight - chain.NetworkFeeAvgWindow
		}
		for h := minHeight; h <= maxHeight; h++ {
			blk, err := e.getBlock(ctx, h)
			if err != nil {
				return 0, err
			}
			count += uint64(len(blk.Receipts))
		}
	}
	count /= chain.NetworkFeeAvgWindow
	if count < 1 {
		count = 1
	}
	if count > math.MaxUint16 {
		return 0, ErrFeeCurveOverflow
	}

	mult, err := chain.NetMultAsset.Pow(uint16(count))
	if err != nil {
		return 0, err
	}
	return chain.BaseFee.Mul(mult)
}

// GetAddressFee is base_fee × ADDR_MULT^C, C counting transfer txs
// originating from addr in pending plus the trailing committed blocks,
// stopping once FEE_RESET_WINDOW consecutive committed blocks in a row
// carry no match from addr.
func (e *Engine) GetAddressFee(ctx context.Context, addr chain.AccountID, pending []block.Receipt) (asset.Asset, error) {
	count := uint64(1)
	for _, r := range pending {
		if transferFrom(r, addr) {
			count++
		}
	}

	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return 0, err
	}
	delta := 0
	for h := height; h >= 1; h-- {
		blk, err := e.getBlock(ctx, h)
		if err != nil {
			return 0, err
		}
		matched := false
		for _, r := range blk.Receipts {
			if transferFrom(r, addr) {
				count++
				matched = true
			}
		}
		if matched {
			delta = 0
		} else {
			delta++
			if delta == chain.FeeResetWindow {
				break
			}
		}
	}

	if count > math.MaxUint16 {
		return 0, ErrFeeCurveOverflow
	}
	mult, err := chain.AddrMultAsset.Pow(uint16(count))
	if err != nil {
		return 0, err
	}
	return chain.BaseFee.Mul(mult)
}

// TotalFee is the minimum fee a transfer from addr must carry:
// net_fee + addr_fee.
func (e *Engine) TotalFee(ctx context.Context, addr chain.AccountID, pending []block.Receipt) (asset.Asset, error) {
	net, err := e.GetNetworkFee(ctx)
	if err != nil {
		return 0, err
	}
	per, err := e.GetAddressFee(ctx, addr, pending)
	if err != nil {
		return 0, err
	}
	return net.Add(per)
}

func (e *Engine) getBlock(ctx context.Context, height uint64) (block.Block, error) {
	offset, ok, err := e.indexer.GetBlockByteOffset(ctx, height)
	if err != nil {
		return block.Block{}, err
	}
	if !ok {
		return block.Block{}, ErrBlockNotFound
	}
	raw, err := e.log.ReadAt(offset)
	if err != nil {
		return block.Block{}, err
	}
	return block.Deserialize(raw)
}
