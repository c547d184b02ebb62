package configloader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                   string `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds    int    `yaml:"writeTimeoutSeconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdownTimeoutSeconds"`
	MaxBatchSize           int    `yaml:"maxBatchSize"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ExplorerConfig holds settings shared by all Etherscan-compatible explorer clients.
type ExplorerConfig struct {
	APIKey               string  `yaml:"apiKey"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimit            float64 `yaml:"rateLimit"` // requests per second per chain
	BurstLimit           int     `yaml:"burstLimit"`
	TransactionLimit     int     `yaml:"transactionLimit"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// TokenPriceServiceConfig holds configuration for the TokenPriceService.
type TokenPriceServiceConfig struct {
	Enabled                  *bool `yaml:"enabled"`
	MaxTokensPerBatchRequest int   `yaml:"maxTokensPerBatchRequest"`
	CacheTTLMinutes          int   `yaml:"cacheTTLMinutes"`
}

// IsEnabled reports whether USD pricing is turned on. Pricing is on unless disabled explicitly.
func (c TokenPriceServiceConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// NetworkOverride replaces endpoint settings of a built-in network definition.
type NetworkOverride struct {
	ChainID         uint64   `yaml:"chainId"`
	PrimaryRPCURL   string   `yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string `yaml:"fallbackRpcUrls"`
	ExplorerAPIURL  string   `yaml:"explorerApiUrl"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines    int `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds    int `yaml:"rpc_call_timeout_seconds"`
	ChainFetchTimeoutSeconds int `yaml:"chain_fetch_timeout_seconds"`
}

// ProtocolConfig toggles a lending protocol adapter.
type ProtocolConfig struct {
	Enabled         *bool `yaml:"enabled"`
	FallbackOnError bool  `yaml:"fallbackOnError"`
}

// IsEnabled reports whether the adapter should be wired. Adapters are on unless disabled explicitly.
func (c ProtocolConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ProtocolsConfig groups the per-protocol settings.
type ProtocolsConfig struct {
	Aave   ProtocolConfig `yaml:"aave"`
	Morpho ProtocolConfig `yaml:"morpho"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server          ServerConfig            `yaml:"server"`
	Logging         LoggingConfig           `yaml:"logging"`
	Explorer        ExplorerConfig          `yaml:"explorer"`
	DEXScreener     DEXScreenerConfig       `yaml:"dexScreener"`
	TokenPriceSvc   TokenPriceServiceConfig `yaml:"tokenPriceService"`
	Performance     PerformanceConfig       `yaml:"performance"`
	TrackedChainIDs []uint64                `yaml:"trackedChainIds"`
	Networks        []NetworkOverride       `yaml:"networks"`
	Protocols       ProtocolsConfig         `yaml:"protocols"`
}

// DefaultTrackedChainIDs is used when trackedChainIds is empty.
var DefaultTrackedChainIDs = []uint64{1, 137, 42161, 10, 8453}

// Load reads the YAML configuration file from the given path and unmarshals it.
// A missing file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("EXPLORER_API_KEY")); v != "" {
		cfg.Explorer.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("SERVER_PORT")); v != "" {
		cfg.Server.Port = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 120
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	if cfg.Server.MaxBatchSize <= 0 {
		cfg.Server.MaxBatchSize = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Explorer.RequestTimeoutMillis <= 0 {
		cfg.Explorer.RequestTimeoutMillis = 15000
	}
	if cfg.Explorer.RateLimit <= 0 {
		cfg.Explorer.RateLimit = 5 // public Blockscout limit
	}
	if cfg.Explorer.BurstLimit <= 0 {
		cfg.Explorer.BurstLimit = 5
	}
	if cfg.Explorer.TransactionLimit <= 0 {
		cfg.Explorer.TransactionLimit = 100
	}

	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
	}
	if cfg.DEXScreener.RequestTimeoutMillis <= 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}
	if cfg.TokenPriceSvc.MaxTokensPerBatchRequest <= 0 {
		cfg.TokenPriceSvc.MaxTokensPerBatchRequest = 30 // DEXScreener limit
	}
	if cfg.TokenPriceSvc.CacheTTLMinutes <= 0 {
		cfg.TokenPriceSvc.CacheTTLMinutes = 5
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}
	if cfg.Performance.ChainFetchTimeoutSeconds <= 0 {
		cfg.Performance.ChainFetchTimeoutSeconds = 30
	}

	if len(cfg.TrackedChainIDs) == 0 {
		cfg.TrackedChainIDs = append([]uint64(nil), DefaultTrackedChainIDs...)
	}
}

func (c *Config) validate() error {
	seen := make(map[uint64]struct{}, len(c.TrackedChainIDs))
	for _, id := range c.TrackedChainIDs {
		if id == 0 {
			return fmt.Errorf("trackedChainIds contains 0")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("trackedChainIds contains duplicate %d", id)
		}
		seen[id] = struct{}{}
	}
	for i, n := range c.Networks {
		if n.ChainID == 0 {
			return fmt.Errorf("networks[%d]: chainId is required", i)
		}
	}
	return nil
}

// NetworkOverrideFor returns the override for chainID, if any.
func (c *Config) NetworkOverrideFor(chainID uint64) (NetworkOverride, bool) {
	for _, n := range c.Networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return NetworkOverride{}, false
}
