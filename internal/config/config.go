package config

import (
	"github.com/setlabs/serpd/internal/core/serp"
	"github.com/setlabs/serpd/internal/core/types"
)

// Config is the complete serpd configuration, loaded once at startup
// and immutable afterwards.
type Config struct {
	Market   MarketConfig   `toml:"market" mapstructure:"market"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`

	configPath string `toml:"-" mapstructure:"-"`
}

// MarketConfig carries the monetary-policy constants. Ratios are
// fixed-point fractions of BaseUnit; the loader refuses ratios that do
// not sum to one whole.
type MarketConfig struct {
	NativeAsset       string `toml:"native_asset" mapstructure:"native_asset"`
	BaseUnit          uint64 `toml:"base_unit" mapstructure:"base_unit"`
	SerpQuoteMultiple uint64 `toml:"serp_quote_multiple" mapstructure:"serp_quote_multiple"`
	SerperRatio       uint64 `toml:"serper_ratio" mapstructure:"serper_ratio"`
	SettPayRatio      uint64 `toml:"settpay_ratio" mapstructure:"settpay_ratio"`
	TreasuryAccount   string `toml:"treasury_account" mapstructure:"treasury_account"`
	SerperAccount     string `toml:"serper_account" mapstructure:"serper_account"`
	SettlementPolicy  string `toml:"settlement_policy" mapstructure:"settlement_policy"`

	// MinBalances maps asset ids to the balance below which accounts
	// are not allowed to drop on credit; absent assets have none.
	MinBalances map[string]uint64 `toml:"min_balances" mapstructure:"min_balances"`
}

// DatabaseConfig selects the balance-store backend.
type DatabaseConfig struct {
	// Backend is "memory" or "pebble".
	Backend string `toml:"backend" mapstructure:"backend"`
	// Path is the pebble database directory.
	Path string `toml:"path" mapstructure:"path"`
}

// ServerConfig configures the JSON-RPC listener.
type ServerConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// Params converts the market section into serp.Params.
func (m MarketConfig) Params() serp.Params {
	return serp.Params{
		NativeAsset:       types.AssetID(m.NativeAsset),
		BaseUnit:          m.BaseUnit,
		SerpQuoteMultiple: m.SerpQuoteMultiple,
		SerperRatio:       m.SerperRatio,
		SettPayRatio:      m.SettPayRatio,
		Treasury:          types.AccountID(m.TreasuryAccount),
		Serper:            types.AccountID(m.SerperAccount),
		Policy:            serp.SettlementPolicy(m.SettlementPolicy),
	}
}

// MinBalanceMap converts the configured minimum balances to ledger types.
func (m MarketConfig) MinBalanceMap() map[types.AssetID]types.Balance {
	out := make(map[types.AssetID]types.Balance, len(m.MinBalances))
	for asset, min := range m.MinBalances {
		out[types.AssetID(asset)] = min
	}
	return out
}

// ConfigPath returns the path the configuration was loaded from, if any.
func (c *Config) ConfigPath() string { return c.configPath }
