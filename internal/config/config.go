// Package config loads ticketdb's runtime settings: buffer pool sizing,
// B+ tree fanout, and the data directory every storage file lives under.
// Values come from an optional YAML file plus TICKETDB_-prefixed
// environment variables, layered through viper the way the rest of the
// example pack's config loaders do.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every tunable the substrate and domain packages need at
// startup.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	// BufferPoolSize is the number of 4KB frames each table/index's
	// buffer pool keeps resident, independently per flat file.
	BufferPoolSize int `mapstructure:"buffer_pool_size"`

	// ReplacerK is the K in the LRU-K replacement policy.
	ReplacerK int `mapstructure:"replacer_k"`

	// LeafMaxSize and InternalMaxSize bound the fanout of every B+ tree
	// index opened by the domain packages.
	LeafMaxSize     int `mapstructure:"leaf_max_size"`
	InternalMaxSize int `mapstructure:"internal_max_size"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		DataDir:         "./data",
		BufferPoolSize:  256,
		ReplacerK:       2,
		LeafMaxSize:     14,
		InternalMaxSize: 56,
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults for anything unset, and allows TICKETDB_-prefixed environment
// variables to override individual keys. An empty path loads defaults
// plus environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("TICKETDB")
	v.AutomaticEnv()
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("buffer_pool_size", cfg.BufferPoolSize)
	v.SetDefault("replacer_k", cfg.ReplacerK)
	v.SetDefault("leaf_max_size", cfg.LeafMaxSize)
	v.SetDefault("internal_max_size", cfg.InternalMaxSize)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ticketdb: read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("ticketdb: unmarshal config: %w", err)
	}
	return cfg, nil
}
