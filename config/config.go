package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"gatelock/ledger"
	"gatelock/storage"
)

// Storage backends understood by the solver.
const (
	BackendRPC     = "rpc"
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
)

// Environment variables that override file settings.
const (
	EnvRPCURL   = "GATELOCK_RPC_URL"
	EnvContract = "GATELOCK_CONTRACT"
	EnvName     = "GATELOCK_ENV"
)

const (
	defaultRPCURL         = "http://127.0.0.1:8545"
	defaultRequestTimeout = 15 * time.Second
	defaultSolveTimeout   = 2 * time.Minute
	defaultSimulationLen  = 16
	defaultSimulationSeed = 1
	defaultMetricsJob     = "gatelock"
)

// Config captures the runtime configuration of the gatelock solver.
type Config struct {
	RPCURL         string           `yaml:"rpc_url" toml:"rpc_url"`
	Contract       string           `yaml:"contract" toml:"contract"`
	Backend        string           `yaml:"backend" toml:"backend"`
	LevelDBPath    string           `yaml:"leveldb_path" toml:"leveldb_path"`
	AdminMethod    string           `yaml:"admin_method" toml:"admin_method"`
	LengthSlot     *uint64          `yaml:"length_slot" toml:"length_slot"`
	ValueMapSlot   *uint64          `yaml:"value_map_slot" toml:"value_map_slot"`
	RequestTimeout Duration         `yaml:"request_timeout" toml:"request_timeout"`
	SolveTimeout   Duration         `yaml:"solve_timeout" toml:"solve_timeout"`
	RateLimit      float64          `yaml:"rate_limit" toml:"rate_limit"`
	RateBurst      int              `yaml:"rate_burst" toml:"rate_burst"`
	Environment    string           `yaml:"env" toml:"env"`
	Solver         SolverConfig     `yaml:"solver" toml:"solver"`
	Simulation     SimulationConfig `yaml:"simulation" toml:"simulation"`
	Log            LogConfig        `yaml:"log" toml:"log"`
	Telemetry      TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`
	Metrics        MetricsConfig    `yaml:"metrics" toml:"metrics"`
}

// Load reads the configuration at path. YAML is used for .yaml and .yml
// files and TOML for everything else. A missing file is created with
// defaults pointing at a local anvil node.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		RPCURL:   defaultRPCURL,
		Contract: ledger.DefaultAddress.Hex(),
		Backend:  BackendRPC,
	}
	applyDefaults(cfg)
	return cfg
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decodeFile(path string, cfg *Config) error {
	if isYAML(path) {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode config: %w", err)
		}
		return nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("decode config: unknown key %s", undecoded[0].String())
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvRPCURL)); v != "" {
		cfg.RPCURL = v
	}
	if v := strings.TrimSpace(getenv(EnvContract)); v != "" {
		cfg.Contract = v
	}
	if v := strings.TrimSpace(getenv(EnvName)); v != "" {
		cfg.Environment = v
	}
}

func applyDefaults(cfg *Config) {
	cfg.RPCURL = strings.TrimSpace(cfg.RPCURL)
	cfg.Contract = strings.TrimSpace(cfg.Contract)
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = BackendRPC
	}
	if strings.TrimSpace(cfg.AdminMethod) == "" {
		cfg.AdminMethod = storage.DefaultAdminMethod
	}
	if cfg.LengthSlot == nil {
		slot := uint64(ledger.DefaultLengthSlot)
		cfg.LengthSlot = &slot
	}
	if cfg.ValueMapSlot == nil {
		slot := uint64(ledger.DefaultValueMapSlot)
		cfg.ValueMapSlot = &slot
	}
	if cfg.RequestTimeout.Duration == 0 {
		cfg.RequestTimeout.Duration = defaultRequestTimeout
	}
	if cfg.SolveTimeout.Duration == 0 {
		cfg.SolveTimeout.Duration = defaultSolveTimeout
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}
	if cfg.Simulation.Length == nil {
		length := defaultSimulationLen
		cfg.Simulation.Length = &length
	}
	if cfg.Simulation.Seed == nil {
		seed := int64(defaultSimulationSeed)
		cfg.Simulation.Seed = &seed
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = defaultMetricsJob
	}
}

// ContractAddress returns the configured contract. Validate guarantees it is
// well formed for the rpc backend; simulated backends fall back to the
// default address.
func (c *Config) ContractAddress() common.Address {
	if c == nil || !common.IsHexAddress(c.Contract) {
		return ledger.DefaultAddress
	}
	return common.HexToAddress(c.Contract)
}

// Layout returns the storage layout described by the slot settings.
func (c *Config) Layout() ledger.Layout {
	layout := ledger.DefaultLayout()
	if c == nil {
		return layout
	}
	if c.LengthSlot != nil {
		layout.LengthSlot = uint256.NewInt(*c.LengthSlot)
	}
	if c.ValueMapSlot != nil {
		layout.ValueMapSlot = uint256.NewInt(*c.ValueMapSlot)
	}
	return layout
}

// DialConfig translates the rpc backend settings for ledger.Dial.
func (c *Config) DialConfig() ledger.DialConfig {
	return ledger.DialConfig{
		RPCURL:      c.RPCURL,
		Contract:    c.ContractAddress(),
		AdminMethod: c.AdminMethod,
		Layout:      c.Layout(),
		RateLimit:   c.RateLimit,
		RateBurst:   c.RateBurst,

		RequestTimeout: c.RequestTimeout.Duration,
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return toml.NewEncoder(f).Encode(cfg)
}
