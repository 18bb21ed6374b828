// Package ledger implements the state engine: the ledger's account
// indexer, the script-backed transaction executor, block verification
// and insertion, and the pending-transaction receipt pool. A single
// Engine value owns all three and serializes access to them behind one
// mutex, per the concurrency model of a cooperative single-producer
// node.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/blocklog"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/kvstore"
	"github.com/godcoin-go/godcoind/internal/script"
	"github.com/godcoin-go/godcoind/internal/tx"
)

// Engine is the node's ledger: the pebble-backed indexer, the append
// log it mirrors, and the in-memory receipt pool, all behind one mutex
// held for the duration of each top-level operation (Push, Flush,
// InsertBlock, the indexer getters).
type Engine struct {
	mu sync.Mutex

	chainID []byte
	indexer *Indexer
	cache   *accountCache
	log     *blocklog.Log

	receipts   []block.Receipt
	pendingExp map[[32]byte]uint64
}

// New builds an Engine over an already-open indexer and block log.
func New(chainID []byte, indexer *Indexer, log *blocklog.Log) *Engine {
	return &Engine{
		chainID:    chainID,
		indexer:    indexer,
		cache:      newAccountCache(indexer),
		log:        log,
		pendingExp: make(map[[32]byte]uint64),
	}
}

func (e *Engine) Lock()   { e.mu.Lock() }
func (e *Engine) Unlock() { e.mu.Unlock() }

// ChainID returns the chain-id prefix this engine mixes into every tx and
// block signature digest.
func (e *Engine) ChainID() []byte { return e.chainID }

type lookupAdapter struct {
	ctx     context.Context
	e       *Engine
	pending []block.Receipt
}

func (l lookupAdapter) Account(id chain.AccountID) (*chain.Account, bool) {
	acc, ok, err := l.e.GetAccount(l.ctx, id, l.pending)
	if err != nil {
		return nil, false
	}
	return acc, ok
}

func (e *Engine) evalOwnerGated(ctx context.Context, t tx.Tx, pending []block.Receipt) ([]chain.LogEntry, error) {
	ownerTx, hasOwner, err := e.indexer.OwnerTx(ctx)
	if err != nil {
		return nil, err
	}
	if !hasOwner {
		// Genesis bootstrap: with no OwnerTx committed there is no owner
		// script to check against, so every owner-gated tx (the very
		// first OwnerTx included) is accepted without script evaluation.
		return []chain.LogEntry{}, nil
	}
	ownerVariant := ownerTx.Variant.(*tx.OwnerTx)
	ownerAcc, ok, err := e.GetAccount(ctx, ownerVariant.Wallet, pending)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, txFail(AccountNotFound)
	}

	res, everr := script.Eval(script.Input{
		Script:      ownerAcc.Script,
		CallFn:      0,
		IsTransfer:  false,
		SignMessage: e.signMessage(t),
		Signatures:  t.Header().Signatures,
		Lookup:      lookupAdapter{ctx: ctx, e: e, pending: pending},
	})
	if everr != nil {
		return nil, scriptErr(everr)
	}
	return res.Log, nil
}

func (e *Engine) signMessage(t tx.Tx) []byte {
	id := t.TxID(e.chainID)
	return id[:]
}

func scriptErr(err error) error {
	if ee, ok := err.(*script.EvalError); ok {
		return txFailScript(ee)
	}
	return err
}

// ExecuteTx shape-checks t, enforces its variant's fee discipline, runs
// the script VM, and returns the resulting effect log. pending is the
// sequence of receipts already accepted ahead of t (the pool's current
// contents, or the receipts preceding t within a block being verified).
func (e *Engine) ExecuteTx(ctx context.Context, t tx.Tx, pending []block.Receipt) ([]chain.LogEntry, error) {
	h := t.Header()
	if len(h.Signatures) > chain.MaxTxSignatures {
		return nil, txFail(TooManySignatures)
	}

	switch v := t.Variant.(type) {
	case *tx.OwnerTx:
		if h.Fee != asset.Zero {
			return nil, txFail(InvalidFeeAmount)
		}
		return e.evalOwnerGated(ctx, t, pending)

	case *tx.MintTx:
		if h.Fee != asset.Zero {
			return nil, txFail(InvalidFeeAmount)
		}
		if v.Amount.Negative() {
			return nil, txFail(InvalidAmount)
		}
		return e.evalOwnerGated(ctx, t, pending)

	case *tx.CreateAccountTx:
		if len(v.Account.Script) > chain.MaxScriptByteSize {
			return nil, txFail(TxTooLarge)
		}
		if _, ok, err := e.GetAccount(ctx, v.Account.ID, pending); err != nil {
			return nil, err
		} else if ok {
			return nil, txFail(AccountAlreadyExists)
		}
		minFee, err := e.ownerAccCreateFee(ctx, pending)
		if err != nil {
			return nil, err
		}
		if h.Fee.Cmp(minFee) < 0 {
			return nil, txFail(InvalidFeeAmount)
		}
		minBal, err := h.Fee.Mul(asset.New(chain.AccCreateMinBalMult * asset.Scale))
		if err != nil {
			return nil, err
		}
		if v.Account.Balance.Cmp(minBal) < 0 {
			return nil, txFail(InvalidAmount)
		}
		creator, ok, err := e.GetAccount(ctx, v.Creator, pending)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, txFail(AccountNotFound)
		}
		debit, err := h.Fee.Add(v.Account.Balance)
		if err != nil {
			return nil, txFail(Arithmetic)
		}
		if creator.Balance.Cmp(debit) < 0 {
			return nil, txFail(InvalidAmount)
		}
		return e.evalOwnerGated(ctx, t, pending)

	case *tx.UpdateAccountTx:
		if v.HasNewScript && len(v.NewScript) > chain.MaxScriptByteSize {
			return nil, txFail(TxTooLarge)
		}
		target, ok, err := e.GetAccount(ctx, v.AccountID, pending)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, txFail(AccountNotFound)
		}
		if target.Permissions.Immutable() {
			return nil, txFail(InvalidAccountPermissions)
		}
		minFee, err := e.ownerAccCreateFee(ctx, pending)
		if err != nil {
			return nil, err
		}
		if h.Fee.Cmp(minFee) < 0 {
			return nil, txFail(InvalidFeeAmount)
		}
		if target.Balance.Cmp(h.Fee) < 0 {
			return nil, txFail(InvalidAmount)
		}
		return e.evalOwnerGated(ctx, t, pending)

	case *tx.TransferTx:
		if len(v.Memo) > chain.MaxMemoByteSize {
			return nil, txFail(TxTooLarge)
		}
		if v.Amount.Negative() {
			return nil, txFail(InvalidAmount)
		}
		fromAcc, ok, err := e.GetAccount(ctx, v.From, pending)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, txFail(AccountNotFound)
		}
		totalFee, err := e.TotalFee(ctx, v.From, pending)
		if err != nil {
			return nil, err
		}
		if h.Fee.Cmp(totalFee) < 0 {
			return nil, txFail(InvalidFeeAmount)
		}
		debit, err := h.Fee.Add(v.Amount)
		if err != nil {
			return nil, txFail(Arithmetic)
		}
		if fromAcc.Balance.Cmp(debit) < 0 {
			return nil, txFail(InvalidAmount)
		}

		res, everr := script.Eval(script.Input{
			Script:      fromAcc.Script,
			CallFn:      v.CallFn,
			Args:        v.Args,
			IsTransfer:  true,
			From:        v.From,
			TotalAmt:    v.Amount,
			SignMessage: e.signMessage(t),
			Signatures:  h.Signatures,
			Lookup:      lookupAdapter{ctx: ctx, e: e, pending: pending},
		})
		if everr != nil {
			return nil, scriptErr(everr)
		}
		return res.Log, nil

	default:
		return nil, txFail(TxProhibited)
	}
}

// ownerAccCreateFee is the fee floor shared by CreateAccount/
// UpdateAccount: the owner wallet's own total fee, scaled up.
func (e *Engine) ownerAccCreateFee(ctx context.Context, pending []block.Receipt) (asset.Asset, error) {
	ownerTx, hasOwner, err := e.indexer.OwnerTx(ctx)
	if err != nil {
		return 0, err
	}
	if !hasOwner {
		return 0, nil
	}
	ownerVariant := ownerTx.Variant.(*tx.OwnerTx)
	ownerFee, err := e.TotalFee(ctx, ownerVariant.Wallet, pending)
	if err != nil {
		return 0, err
	}
	return ownerFee.Mul(asset.New(chain.AccCreateFeeMult * asset.Scale))
}

func logsEqual(a, b []chain.LogEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// VerifyBlock checks height, receipt root, previous-hash chaining,
// signer identity and signature, then re-executes each receipt's
// transaction against the receipts preceding it in the block, comparing
// the recomputed effect log against the one the block carries.
func (e *Engine) VerifyBlock(ctx context.Context, blk block.Block, prev block.Header) error {
	if prev.Height+1 != blk.Header.Height {
		return blockFail(InvalidBlockHeight)
	}
	if !blk.VerifyReceiptRoot() {
		return blockFail(InvalidReceiptRoot)
	}
	if !blk.VerifyPreviousHash(prev) {
		return blockFail(InvalidPrevHash)
	}

	ownerTx, hasOwner, err := e.indexer.OwnerTx(ctx)
	if err != nil {
		return err
	}
	if hasOwner {
		ownerVariant := ownerTx.Variant.(*tx.OwnerTx)
		if blk.Signer == nil || blk.Signer.PubKey != ownerVariant.Minter {
			return blockFail(InvalidSignature)
		}
	}
	if !blk.VerifySignature() {
		return blockFail(InvalidSignature)
	}

	var pending []block.Receipt
	for _, r := range blk.Receipts {
		log, err := e.ExecuteTx(ctx, r.Tx, pending)
		if err != nil {
			return blockFailTx(err)
		}
		if !logsEqual(log, r.Log) {
			return blockFailTx(txFail(ScriptEval))
		}
		pending = append(pending, r)
	}
	return nil
}

// InsertBlock verifies blk against the current chain head, indexes it
// and appends it to the log, all as one committed write: the log append
// happens first so a crash between the two steps leaves only an orphan
// frame reindex can trim, never a dangling index update with no backing
// frame.
func (e *Engine) InsertBlock(ctx context.Context, blk block.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return err
	}
	prevHeader := block.Header{}
	if height > 0 {
		prevBlk, err := e.getBlock(ctx, height)
		if err != nil {
			return err
		}
		prevHeader = prevBlk.Header
	}

	if err := e.VerifyBlock(ctx, blk, prevHeader); err != nil {
		return err
	}

	ops, err := e.indexBlock(ctx, blk)
	if err != nil {
		return err
	}

	offset, err := e.log.Append(blk.Serialize())
	if err != nil {
		return err
	}
	ops = append(ops, putBlockByteOffsetOp(blk.Header.Height, offset), putChainHeightOp(blk.Header.Height))

	if err := e.indexer.Commit(ctx, ops); err != nil {
		return err
	}

	for _, r := range blk.Receipts {
		e.forgetCommittedReceipt(r)
	}
	e.invalidateTouched(blk)
	return nil
}

// indexBlock computes the batch of writes a block's receipts produce,
// following spec's per-variant indexing rules exactly, plus the reward
// credit to the owner wallet after every receipt has applied.
func (e *Engine) indexBlock(ctx context.Context, blk block.Block) ([]kvstore.BatchOperation, error) {
	touched := map[chain.AccountID]*chain.Account{}
	var newOwnerTx *tx.Tx
	supplyDelta := asset.Zero

	load := func(id chain.AccountID) (*chain.Account, error) {
		if acc, ok := touched[id]; ok {
			return acc, nil
		}
		acc, ok, err := e.cache.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		cp := *acc
		touched[id] = &cp
		return &cp, nil
	}

	var ops []kvstore.BatchOperation
	for _, r := range blk.Receipts {
		fee := r.Tx.Header().Fee
		switch v := r.Tx.Variant.(type) {
		case *tx.OwnerTx:
			t := r.Tx
			newOwnerTx = &t

		case *tx.MintTx:
			acc, err := load(v.To)
			if err != nil {
				return nil, err
			}
			if acc == nil {
				return nil, fmt.Errorf("ledger: mint target %d missing at index time", v.To)
			}
			bal, err := acc.Balance.Add(v.Amount)
			if err != nil {
				return nil, err
			}
			acc.Balance = bal
			supply, err := supplyDelta.Add(v.Amount)
			if err != nil {
				return nil, err
			}
			supplyDelta = supply

		case *tx.CreateAccountTx:
			creator, err := load(v.Creator)
			if err != nil {
				return nil, err
			}
			if creator == nil {
				return nil, fmt.Errorf("ledger: create-account creator %d missing at index time", v.Creator)
			}
			debit, err := fee.Add(v.Account.Balance)
			if err != nil {
				return nil, err
			}
			bal, err := creator.Balance.Sub(debit)
			if err != nil {
				return nil, err
			}
			creator.Balance = bal
			newAcc := v.Account
			touched[v.Account.ID] = &newAcc

		case *tx.UpdateAccountTx:
			acc, err := load(v.AccountID)
			if err != nil {
				return nil, err
			}
			if acc == nil {
				return nil, fmt.Errorf("ledger: update-account target %d missing at index time", v.AccountID)
			}
			bal, err := acc.Balance.Sub(fee)
			if err != nil {
				return nil, err
			}
			acc.Balance = bal
			if v.HasNewScript {
				acc.Script = v.NewScript
			}
			if v.NewPermissions != nil {
				acc.Permissions = *v.NewPermissions
			}

		case *tx.TransferTx:
			from, err := load(v.From)
			if err != nil {
				return nil, err
			}
			if from == nil {
				return nil, fmt.Errorf("ledger: transfer source %d missing at index time", v.From)
			}
			debit, err := fee.Add(v.Amount)
			if err != nil {
				return nil, err
			}
			bal, err := from.Balance.Sub(debit)
			if err != nil {
				return nil, err
			}
			from.Balance = bal

			for _, le := range r.Log {
				acc, err := load(le.Account)
				if err != nil {
					return nil, err
				}
				if acc == nil {
					return nil, fmt.Errorf("ledger: log entry references missing account %d", le.Account)
				}
				switch le.Kind {
				case chain.LogEntryTransfer:
					bal, err := acc.Balance.Add(le.Amount)
					if err != nil {
						return nil, err
					}
					acc.Balance = bal
				case chain.LogEntryDestroy:
					acc.Destroyed = true
				}
			}
		}

		txid := r.Tx.TxID(e.chainID)
		ops = append(ops, putTxExpiryOp(txid, r.Tx.Header().Expiry))
	}

	ownerTxVal := newOwnerTx
	if ownerTxVal == nil {
		ot, ok, err := e.indexer.OwnerTx(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			ownerTxVal = &ot
		}
	}
	if ownerTxVal != nil {
		ownerVariant := ownerTxVal.Variant.(*tx.OwnerTx)
		walletAcc, err := load(ownerVariant.Wallet)
		if err != nil {
			return nil, err
		}
		if walletAcc == nil {
			// The engine never panics on input data; this is instead a
			// violated internal invariant (the chain's own owner wallet
			// must always exist once an OwnerTx has been accepted).
			panic("ledger: reward credit to a non-existent owner wallet")
		}
		bal, err := walletAcc.Balance.Add(blk.Header.Rewards)
		if err != nil {
			return nil, err
		}
		walletAcc.Balance = bal
	}

	for _, acc := range touched {
		ops = append(ops, putAccountOp(*acc))
	}
	if newOwnerTx != nil {
		ops = append(ops, putOwnerTxOp(*newOwnerTx))
	}
	if supplyDelta != asset.Zero {
		supply, err := e.indexer.TokenSupply(ctx)
		if err != nil {
			return nil, err
		}
		newSupply, err := supply.Add(supplyDelta)
		if err != nil {
			return nil, err
		}
		ops = append(ops, putTokenSupplyOp(newSupply))
	}
	return ops, nil
}

func (e *Engine) invalidateTouched(blk block.Block) {
	for _, r := range blk.Receipts {
		switch v := r.Tx.Variant.(type) {
		case *tx.MintTx:
			e.cache.invalidate(v.To)
		case *tx.CreateAccountTx:
			e.cache.invalidate(v.Creator)
			e.cache.invalidate(v.Account.ID)
		case *tx.UpdateAccountTx:
			e.cache.invalidate(v.AccountID)
		case *tx.TransferTx:
			e.cache.invalidate(v.From)
			for _, le := range r.Log {
				e.cache.invalidate(le.Account)
			}
		}
	}
	if ot, ok, _ := e.indexer.OwnerTx(context.Background()); ok {
		e.cache.invalidate(ot.Variant.(*tx.OwnerTx).Wallet)
	}
}

// Head returns the header of the current chain tip and its height. Height
// 0 reports the virtual pre-genesis header (the zero Header value), never
// itself stored, used only as the previous-hash anchor for the first
// block.
func (e *Engine) Head(ctx context.Context) (block.Header, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return block.Header{}, 0, err
	}
	if height == 0 {
		return block.Header{}, 0, nil
	}
	blk, err := e.getBlock(ctx, height)
	if err != nil {
		return block.Header{}, 0, err
	}
	return blk.Header, height, nil
}

// Reindex rebuilds the indexer from the block log from scratch: the
// caller is responsible for having cleared prior index state (a fresh
// indexer over an empty pebble directory, typically). Blocks are
// replayed in log order through the same indexBlock path InsertBlock
// uses, each committed in its own batch.
func (e *Engine) Reindex(ctx context.Context, autoTrim bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.indexer.SetStatus(ctx, IndexStatusReindexing); err != nil {
		return err
	}

	err := e.log.Reindex(autoTrim, func(offset int64, body []byte) (uint64, error) {
		blk, err := block.Deserialize(body)
		if err != nil {
			return 0, err
		}
		ops, err := e.indexBlock(ctx, blk)
		if err != nil {
			return 0, err
		}
		ops = append(ops, putBlockByteOffsetOp(blk.Header.Height, offset), putChainHeightOp(blk.Header.Height))
		if err := e.indexer.Commit(ctx, ops); err != nil {
			return 0, err
		}
		e.cache = newAccountCache(e.indexer)
		return blk.Header.Height, nil
	})
	if err != nil {
		return err
	}

	if err := e.rebuildExpiryIndex(ctx); err != nil {
		return err
	}
	return e.indexer.SetStatus(ctx, IndexStatusReady)
}

// rebuildExpiryIndex scans committed blocks in reverse from the chain
// head until it finds one older than TX_MAX_EXPIRY_TIME, reseeding the
// in-memory pending-expiry set used by Push's dedup check. The persisted
// txid_expiry family is already correct as of the forward indexBlock
// pass above; this only refreshes the pool's own view.
func (e *Engine) rebuildExpiryIndex(ctx context.Context) error {
	e.pendingExp = make(map[[32]byte]uint64)
	height, err := e.indexer.ChainHeight(ctx)
	if err != nil {
		return err
	}
	if height == 0 {
		return nil
	}

	head, err := e.getBlock(ctx, height)
	if err != nil {
		return err
	}
	cutoff := uint64(chain.TxMaxExpiryTime.Milliseconds())

	for h := height; h >= 1; h-- {
		blk, err := e.getBlock(ctx, h)
		if err != nil {
			return err
		}
		if head.Header.Timestamp-blk.Header.Timestamp > cutoff {
			break
		}
		for _, r := range blk.Receipts {
			txid := r.Tx.TxID(e.chainID)
			e.pendingExp[txid] = r.Tx.Header().Expiry
		}
		if h == 1 {
			break
		}
	}
	return nil
}
