package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

/*
Config carries the tunables the append tree and query driver need: tree
dimensioning, the query driver's batch size, and the registry's lock-shard
count. It is loaded from a file plus environment overrides, in the same
mapstructure-tagged-struct style used elsewhere in this codebase.
*/

////////////////////////////////////////////////////////////////////////////////

// Config is the top-level configuration for a column store instance.
type Config struct {
	Tree     TreeConfig     `mapstructure:"tree"`
	Query    QueryConfig    `mapstructure:"query"`
	Registry RegistryConfig `mapstructure:"registry"`
}

// TreeConfig dimensions the append tree.
type TreeConfig struct {
	// LeafCapacityBytes is the in-memory byte size at which level 0 seals
	// into a leaf block.
	LeafCapacityBytes uint64 `mapstructure:"leaf_capacity_bytes"`
	// Fanout is the number of child addresses an inner node holds before
	// it seals.
	Fanout int `mapstructure:"fanout"`
	// CacheBytes bounds the blockstore.CachedStore decorator in front of
	// the block store adapter.
	CacheBytes uint64 `mapstructure:"cache_bytes"`
}

// QueryConfig tunes the query driver.
type QueryConfig struct {
	// BatchSize is the number of samples read per Consumer.Put batch.
	BatchSize int `mapstructure:"batch_size"`
}

// RegistryConfig tunes the column store registry.
type RegistryConfig struct {
	// LockShardCount is the number of sync.RWMutex shards the table lock
	// is split across, indexed by hash(ParamId) % LockShardCount.
	LockShardCount int `mapstructure:"lock_shard_count"`
}

// Load reads configuration from path, applying defaults first and then
// environment overrides under the COLTREE_ prefix.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("coltree")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is supplied:
// sensible defaults for embedded/test use.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config failed to unmarshal: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tree.leaf_capacity_bytes", 64*1024)
	v.SetDefault("tree.fanout", 32)
	v.SetDefault("tree.cache_bytes", 16*1024*1024)
	v.SetDefault("query.batch_size", 4096)
	v.SetDefault("registry.lock_shard_count", 32)
}

// Validate rejects configurations that would make the tree or driver
// unable to make progress.
func (c Config) Validate() error {
	if c.Tree.LeafCapacityBytes == 0 {
		return fmt.Errorf("tree.leaf_capacity_bytes must be nonzero")
	}
	if c.Tree.Fanout < 2 {
		return fmt.Errorf("tree.fanout must be at least 2")
	}
	if c.Query.BatchSize <= 0 {
		return fmt.Errorf("query.batch_size must be positive")
	}
	if c.Registry.LockShardCount <= 0 {
		return fmt.Errorf("registry.lock_shard_count must be positive")
	}
	return nil
}
