package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/godcoin-go/godcoind/internal/block"
	"github.com/godcoin-go/godcoind/internal/blocklog"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/config"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/kvstore"
	"github.com/godcoin-go/godcoind/internal/ledger"
	"github.com/godcoin-go/godcoind/internal/producer"
	"github.com/godcoin-go/godcoind/internal/rpc"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the node: ledger engine, optional block producer, RPC server",
	Long: `server loads configuration, opens the pebble index and block log
under data_dir, optionally starts this node's own block producer, and
serves the client-facing RPC protocol over websocket.`,
	Run: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.Run = runServer
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("server: load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("server: create data dir: %v", err)
	}

	pdb, err := kvstore.Open(filepath.Join(cfg.DataDir, "index"))
	if err != nil {
		log.Fatalf("server: open index: %v", err)
	}
	indexer := ledger.NewIndexer(pdb)

	blockLog, err := blocklog.Open(filepath.Join(cfg.DataDir, "blocks.log"))
	if err != nil {
		log.Fatalf("server: open block log: %v", err)
	}

	engine := ledger.New([]byte(cfg.ChainID), indexer, blockLog)

	ctx := context.Background()
	height, err := engine.ChainHeight(ctx)
	if err != nil {
		log.Fatalf("server: read chain height: %v", err)
	}
	if height == 0 {
		owner := chain.Account{
			ID:          chain.AccountID(cfg.Genesis.OwnerWallet),
			Permissions: chain.Permissions{Threshold: chain.ImmutableThreshold},
		}
		if err := engine.Bootstrap(ctx, []chain.Account{owner}); err != nil {
			log.Fatalf("server: bootstrap genesis: %v", err)
		}
		log.Printf("server: seeded genesis owner wallet %d", cfg.Genesis.OwnerWallet)
	}

	rpcServer := rpc.NewServer(engine)

	if cfg.Producer.Enabled {
		minter, err := loadMinterKey(cfg.Producer.MinterKeyFile)
		if err != nil {
			log.Fatalf("server: load minter key: %v", err)
		}
		prod := producer.New(engine, minter,
			producer.WithInterval(cfg.Producer.BlockProdTime),
			producer.WithStaleProduction(cfg.Producer.StaleProduction),
			producer.WithOnBlock(func(blk block.Block) {
				rpcServer.Notify(blk, block.TouchedAccounts(blk.Receipts))
			}),
		)
		go func() {
			if err := prod.Run(ctx); err != nil {
				log.Printf("server: producer stopped: %v", err)
			}
		}()
		log.Printf("server: producing blocks every %s", cfg.Producer.BlockProdTime)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", rpcServer)
	mux.HandleFunc("/health", rpcServer.HealthHandler())

	log.Printf("server: chain_id=%s listening on %s", cfg.ChainID, cfg.Server.ListenAddr)
	if err := http.ListenAndServe(cfg.Server.ListenAddr, mux); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// loadMinterKey reads a WIF-encoded private key seed from path and derives
// its keypair. The file holds a single address-encoded line, mirroring
// how EncodePrivateKeyAddress renders a seed for operator handling.
func loadMinterKey(path string) (*crypto.Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	seed, err := crypto.DecodePrivateKeyAddress(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode minter key: %w", err)
	}
	return crypto.KeypairFromSeed(seed), nil
}
