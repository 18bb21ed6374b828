package cli

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/godcoin-go/godcoind/internal/blocklog"
	"github.com/godcoin-go/godcoind/internal/config"
	"github.com/godcoin-go/godcoind/internal/kvstore"
	"github.com/godcoin-go/godcoind/internal/ledger"
)

var reindexAutoTrim bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from the block log",
	Long: `reindex discards the pebble index under data_dir and re-indexes every
block in blocks.log in log order, rebuilding account state, fee history
and the expiry index from scratch. Use this after index corruption or an
index-format change. The block log is left unchanged unless --auto-trim
is given, in which case it is truncated at the first corrupt frame.`,
	Run: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().BoolVar(&reindexAutoTrim, "auto-trim", false, "truncate the block log at the first corrupt frame instead of failing")
}

func runReindex(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("reindex: load config: %v", err)
	}

	indexDir := filepath.Join(cfg.DataDir, "index")
	if err := os.RemoveAll(indexDir); err != nil {
		log.Fatalf("reindex: clear index dir: %v", err)
	}

	pdb, err := kvstore.Open(indexDir)
	if err != nil {
		log.Fatalf("reindex: open index: %v", err)
	}
	indexer := ledger.NewIndexer(pdb)

	blockLog, err := blocklog.Open(filepath.Join(cfg.DataDir, "blocks.log"))
	if err != nil {
		log.Fatalf("reindex: open block log: %v", err)
	}

	engine := ledger.New([]byte(cfg.ChainID), indexer, blockLog)
	if err := engine.Reindex(context.Background(), reindexAutoTrim); err != nil {
		log.Fatalf("reindex: %v", err)
	}

	log.Println("reindex: complete")
}
