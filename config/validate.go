package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxSimulationLength caps generated puzzles so a typo cannot exhaust memory.
var MaxSimulationLength = 1 << 20

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	switch cfg.Backend {
	case BackendRPC:
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc_url required for the rpc backend")
		}
		parsed, err := url.Parse(cfg.RPCURL)
		if err != nil || parsed.Scheme == "" {
			return fmt.Errorf("rpc_url %q is not a valid URL", cfg.RPCURL)
		}
		if cfg.Contract == "" {
			return fmt.Errorf("contract required for the rpc backend")
		}
	case BackendMemory:
	case BackendLevelDB:
		if strings.TrimSpace(cfg.LevelDBPath) == "" {
			return fmt.Errorf("leveldb_path required for the leveldb backend")
		}
	default:
		return fmt.Errorf("backend %q not supported", cfg.Backend)
	}
	if cfg.Contract != "" {
		if !common.IsHexAddress(cfg.Contract) {
			return fmt.Errorf("contract %q is not a hex address", cfg.Contract)
		}
		if (common.HexToAddress(cfg.Contract) == common.Address{}) {
			return fmt.Errorf("contract must not be the zero address")
		}
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if cfg.RateBurst < 0 {
		return fmt.Errorf("rate_burst must not be negative")
	}
	if cfg.RequestTimeout.Duration < 0 || cfg.SolveTimeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if length, _ := cfg.Simulation.Params(); length < 0 || length > MaxSimulationLength {
		return fmt.Errorf("simulation.length must be between 0 and %d", MaxSimulationLength)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "json", "text", "auto":
	default:
		return fmt.Errorf("log.format %q must be json, text or auto", cfg.Log.Format)
	}
	return nil
}
