package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Registry defaults point at the public Cosmos chain registry.
const (
	defaultMainnetURL = "https://raw.githubusercontent.com/cosmos/chain-registry/master"
	defaultTestnetURL = "https://raw.githubusercontent.com/cosmos/chain-registry/master/testnets"
)

// defaultBlacklist lists servers that have given consistent error
// responses; they are skipped during upgrade queries.
var defaultBlacklist = []string{
	"https://stride.api.bccnodes.com:443",
	"https://api.omniflix.nodestake.top",
	"https://cosmos-lcd.quickapi.com:443",
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a usable configuration without a config file.
func Default() *AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Registry.MainnetURL == "" {
		cfg.Registry.MainnetURL = defaultMainnetURL
	}
	if cfg.Registry.TestnetURL == "" {
		cfg.Registry.TestnetURL = defaultTestnetURL
	}
	if cfg.Registry.Timeout == 0 {
		cfg.Registry.Timeout = 10 * time.Second
	}
	if cfg.Registry.CacheTTL == 0 {
		cfg.Registry.CacheTTL = 15 * time.Minute
	}
	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout = 3 * time.Second
	}
	if cfg.Probe.MaxWorkers == 0 {
		cfg.Probe.MaxWorkers = 10
	}
	if cfg.Probe.MaxHealthy == 0 {
		cfg.Probe.MaxHealthy = 5
	}
	if cfg.Query.Timeout == 0 {
		cfg.Query.Timeout = 3 * time.Second
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = append([]string(nil), defaultBlacklist...)
	}
}
