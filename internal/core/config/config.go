package config

import (
	redisclient "github.com/cosmoswatch/upgradewatch/internal/infra/redis"
	"github.com/cosmoswatch/upgradewatch/internal/probe"
	"github.com/cosmoswatch/upgradewatch/internal/registry"
	"github.com/cosmoswatch/upgradewatch/internal/upgrade"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Registry  registry.Config    `yaml:"registry"`
	Probe     probe.Config       `yaml:"probe"`
	Query     upgrade.Config     `yaml:"query"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
	Blacklist []string           `yaml:"blacklist"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
