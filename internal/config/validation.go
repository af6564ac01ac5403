package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ValidateConfig performs comprehensive validation on the complete
// configuration. An invalid deployment refuses to start.
func ValidateConfig(config *Config) error {
	if err := validateMarket(&config.Market); err != nil {
		return fmt.Errorf("market config validation failed: %w", err)
	}
	if err := validateDatabase(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := validateServer(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateLog(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

func validateMarket(m *MarketConfig) error {
	// serp.Params.Validate covers base unit, ratio sum, accounts and
	// the settlement policy.
	if err := m.Params().Validate(); err != nil {
		return err
	}
	for asset := range m.MinBalances {
		if asset == "" {
			return fmt.Errorf("min_balances contains an empty asset id")
		}
	}
	return nil
}

func validateDatabase(d *DatabaseConfig) error {
	switch d.Backend {
	case "memory":
		return nil
	case "pebble":
		if d.Path == "" {
			return fmt.Errorf("pebble backend requires a database path")
		}
		return nil
	default:
		return fmt.Errorf("unknown database backend %q (want memory or pebble)", d.Backend)
	}
}

func validateServer(s *ServerConfig) error {
	if s.Listen == "" {
		return fmt.Errorf("server listen address must be set")
	}
	return nil
}

func validateLog(l *LogConfig) error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return nil
}
