package config

import "github.com/spf13/viper"

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("chain_id", "godcoin-dev")

	v.SetDefault("server.listen_addr", "127.0.0.1:7777")

	v.SetDefault("producer.enabled", false)
	v.SetDefault("producer.block_prod_time", "3s")
	v.SetDefault("producer.stale_production", false)

	v.SetDefault("genesis.owner_wallet", 1)
}
