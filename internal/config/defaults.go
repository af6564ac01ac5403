package config

import "github.com/spf13/viper"

// setDefaults seeds viper with the built-in configuration. The market
// defaults describe a 3-decimal fixed point (base unit 1000) with the
// historical 25/75 serper/settpay split.
func setDefaults(v *viper.Viper) {
	// Market
	v.SetDefault("market.native_asset", "DNAR")
	v.SetDefault("market.base_unit", uint64(1000))
	v.SetDefault("market.serp_quote_multiple", uint64(2))
	v.SetDefault("market.serper_ratio", uint64(250))
	v.SetDefault("market.settpay_ratio", uint64(750))
	v.SetDefault("market.treasury_account", "settpay")
	v.SetDefault("market.serper_account", "serper")
	v.SetDefault("market.settlement_policy", "quoted-divide")

	// Database
	v.SetDefault("database.backend", "memory")
	v.SetDefault("database.path", "serpd-data")

	// Server
	v.SetDefault("server.listen", "127.0.0.1:8258")

	// Logging
	v.SetDefault("log.level", "info")
}
