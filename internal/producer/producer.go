// Package producer implements the node's single block producer: a
// fixed-interval timer that drains the ledger pool, seals the drained
// receipts into a signed child block, and inserts it into the ledger.
package producer

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

// Engine is the subset of *ledger.Engine the producer drives, narrowed to
// an interface so tests can drive production against a fake without a
// real pebble/blocklog backing.
type Engine interface {
	Head(ctx context.Context) (block.Header, uint64, error)
	Flush(now time.Time) []block.Receipt
	InsertBlock(ctx context.Context, blk block.Block) error
}

// Producer is the node's sole block sealer. It runs as a single periodic
// task; every tick acquires the ledger's mutex synchronously through
// Flush and InsertBlock and releases it well before the next tick. A
// weight-1 semaphore guards against a slow tick still running when the
// next one fires: rather than queue behind it, the new tick is skipped.
type Producer struct {
	engine          Engine
	minter          *crypto.Keypair
	interval        time.Duration
	staleProduction bool

	now     func() time.Time
	onBlock func(block.Block)
	sem     *semaphore.Weighted
}

// Option configures a Producer.
type Option func(*Producer)

// WithInterval overrides the default BLOCK_PROD_TIME tick interval.
func WithInterval(d time.Duration) Option {
	return func(p *Producer) { p.interval = d }
}

// WithStaleProduction controls whether an empty block is sealed when the
// pool is empty at tick time.
func WithStaleProduction(stale bool) Option {
	return func(p *Producer) { p.staleProduction = stale }
}

// WithClock overrides the producer's time source; used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Producer) { p.now = now }
}

// WithOnBlock registers a callback invoked with every block this producer
// successfully inserts, after InsertBlock returns. Used to push the new
// header to subscribed RPC clients without the producer depending on the
// rpc package directly.
func WithOnBlock(fn func(block.Block)) Option {
	return func(p *Producer) { p.onBlock = fn }
}

// New builds a Producer over engine, signing sealed blocks with minter.
func New(engine Engine, minter *crypto.Keypair, opts ...Option) *Producer {
	p := &Producer{
		engine:   engine,
		minter:   minter,
		interval: chain.BlockProdTime,
		now:      time.Now,
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ticks at the producer's interval until ctx is cancelled, sealing at
// most one block per tick. A tick runs in its own goroutine behind the
// weight-1 semaphore; if the previous tick has not released it by the
// next firing, that tick is skipped rather than queued, so a momentarily
// slow tick never backs up a run of deferred ones. Cancelling ctx mid-tick
// aborts that tick but never a partially committed block: InsertBlock's
// index commit is atomic at batch granularity regardless of how Run exits.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	errCh := make(chan error, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-ticker.C:
			if !p.sem.TryAcquire(1) {
				log.Printf("producer: tick skipped, previous tick still running")
				continue
			}
			go func() {
				defer p.sem.Release(1)
				if err := p.tick(ctx); err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
			}()
		}
	}
}

// tick drains the pool and, if it is non-empty or stale production is
// enabled, seals and inserts exactly one block on top of the current head.
func (p *Producer) tick(ctx context.Context) error {
	now := p.now()
	receipts := p.engine.Flush(now)
	if len(receipts) == 0 && !p.staleProduction {
		return nil
	}

	rewards := asset.Zero
	for _, r := range receipts {
		sum, err := rewards.Add(r.Tx.Header().Fee)
		if err != nil {
			return fmt.Errorf("producer: reward sum overflow: %w", err)
		}
		rewards = sum
	}

	prevHeader, _, err := p.engine.Head(ctx)
	if err != nil {
		return fmt.Errorf("producer: read chain head: %w", err)
	}

	blk := block.NewChild(prevHeader, receipts, rewards, uint64(now.UnixMilli()))
	blk.Sign(p.minter)

	if err := p.engine.InsertBlock(ctx, blk); err != nil {
		// The producer signed this block against its own ledger state;
		// a rejection here means the producer and engine have diverged
		// and cannot continue producing safely.
		return fmt.Errorf("producer: fatal: insert own sealed block: %w", err)
	}

	log.Printf("producer: sealed block %d (%d receipts)", blk.Header.Height, len(receipts))
	if p.onBlock != nil {
		p.onBlock(blk)
	}
	return nil
}
