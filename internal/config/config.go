// Package config loads the node's runtime configuration from built-in
// defaults, a TOML file and environment variables, each later layer
// overriding the earlier ones (environment variables win), following the same viper-based layering the teacher uses for its own
// configuration.
package config

import (
	"fmt"
	"time"

	"github.com/godcoin-go/godcoind/internal/chain"
)

// Config is the node's complete runtime configuration.
type Config struct {
	// DataDir holds the pebble index directory and the block log file.
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`

	// ChainID is mixed into every transaction and block signature digest,
	// scoping signatures to this deployment.
	ChainID string `toml:"chain_id" mapstructure:"chain_id"`

	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Producer ProducerConfig `toml:"producer" mapstructure:"producer"`
	Genesis  GenesisConfig  `toml:"genesis" mapstructure:"genesis"`

	// path this Config was loaded from, kept for diagnostics/reload.
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig is the client-facing RPC listener.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr" mapstructure:"listen_addr"`
}

// ProducerConfig controls the node's own block-sealing loop. MinterKeyFile
// is left empty for a non-producing (follower) node.
type ProducerConfig struct {
	Enabled         bool          `toml:"enabled" mapstructure:"enabled"`
	MinterKeyFile   string        `toml:"minter_key_file" mapstructure:"minter_key_file"`
	BlockProdTime   time.Duration `toml:"block_prod_time" mapstructure:"block_prod_time"`
	StaleProduction bool          `toml:"stale_production" mapstructure:"stale_production"`
}

// GenesisConfig describes the account state to seed on an empty chain.
type GenesisConfig struct {
	OwnerWallet uint64 `toml:"owner_wallet" mapstructure:"owner_wallet"`
}

// GetConfigPath returns the file Config was loaded from, or "" if it was
// built entirely from defaults/environment.
func (c *Config) GetConfigPath() string { return c.configPath }

// Validate checks the subset of fields that have no safe default.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must be set")
	}
	if c.ChainID == "" {
		return fmt.Errorf("config: chain_id must be set")
	}
	if c.Producer.Enabled && c.Producer.MinterKeyFile == "" {
		return fmt.Errorf("config: producer.minter_key_file must be set when producer.enabled is true")
	}
	if c.Producer.BlockProdTime <= 0 {
		c.Producer.BlockProdTime = chain.BlockProdTime
	}
	return nil
}
