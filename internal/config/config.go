// Package config loads sizecache settings from defaults, an optional config
// file and SIZECACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IvanBrykalov/sizecache/internal/logging"
	"github.com/spf13/viper"
)

type Config struct {
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Bench   BenchConfig   `mapstructure:"bench" yaml:"bench"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

type CacheConfig struct {
	// MaxSize is the capacity ceiling in size units.
	MaxSize int64 `mapstructure:"max_size" yaml:"max_size"`
	// Shards: 0 = auto, 1 = a single global LRU.
	Shards int `mapstructure:"shards" yaml:"shards"`
	// UnitsPerEntry is the weight of one cached file-metadata entry.
	UnitsPerEntry int64 `mapstructure:"units_per_entry" yaml:"units_per_entry"`
	// Strict panics on broken cache invariants instead of logging them.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

type MetricsConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	Subsystem string `mapstructure:"subsystem" yaml:"subsystem"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type BenchConfig struct {
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	Duration    time.Duration `mapstructure:"duration" yaml:"duration"`
	ReadPct     int           `mapstructure:"read_pct" yaml:"read_pct"`
	Keys        int           `mapstructure:"keys" yaml:"keys"`
	ZipfS       float64       `mapstructure:"zipf_s" yaml:"zipf_s"`
	ZipfV       float64       `mapstructure:"zipf_v" yaml:"zipf_v"`
	Seed        int64         `mapstructure:"seed" yaml:"seed"`
	Preload     int           `mapstructure:"preload" yaml:"preload"`
	MaxItemSize int64         `mapstructure:"max_item_size" yaml:"max_item_size"`
	PprofAddr   string        `mapstructure:"pprof_addr" yaml:"pprof_addr"`
}

// envKeys are bound explicitly so Unmarshal sees them even without a file.
var envKeys = []string{
	"cache.max_size",
	"cache.shards",
	"cache.units_per_entry",
	"cache.strict",
	"metrics.addr",
	"metrics.namespace",
	"metrics.subsystem",
	"log.level",
	"bench.workers",
	"bench.duration",
	"bench.read_pct",
	"bench.keys",
	"bench.zipf_s",
	"bench.zipf_v",
	"bench.seed",
	"bench.preload",
	"bench.max_item_size",
	"bench.pprof_addr",
}

// Load reads configuration. With an explicit path the file must exist;
// otherwise sizecache.{yaml,toml,json} is looked up in the working directory
// and $HOME/.sizecache, and missing files fall back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sizecache")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sizecache")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.max_size", 10_000)
	v.SetDefault("cache.shards", 1)
	v.SetDefault("cache.units_per_entry", 1)
	v.SetDefault("cache.strict", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "sizecache")
	v.SetDefault("metrics.subsystem", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("bench.workers", 0)
	v.SetDefault("bench.duration", 10*time.Second)
	v.SetDefault("bench.read_pct", 80)
	v.SetDefault("bench.keys", 1_000_000)
	v.SetDefault("bench.zipf_s", 1.1)
	v.SetDefault("bench.zipf_v", 1.0)
	v.SetDefault("bench.seed", 0)
	v.SetDefault("bench.preload", 0)
	v.SetDefault("bench.max_item_size", 1)
	v.SetDefault("bench.pprof_addr", "")
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("SIZECACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			logging.Warn("failed to bind env var", "key", k, "err", err)
		}
	}
}

func (c *Config) Validate() error {
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache.max_size must be >= 0: %d", c.Cache.MaxSize)
	}
	if c.Cache.Shards < 0 {
		return fmt.Errorf("cache.shards must be >= 0: %d", c.Cache.Shards)
	}
	if c.Cache.UnitsPerEntry < 0 {
		return fmt.Errorf("cache.units_per_entry must be >= 0: %d", c.Cache.UnitsPerEntry)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Bench.ReadPct < 0 || c.Bench.ReadPct > 100 {
		return fmt.Errorf("bench.read_pct must be in [0,100]: %d", c.Bench.ReadPct)
	}
	if c.Bench.Keys <= 0 {
		return fmt.Errorf("bench.keys must be positive: %d", c.Bench.Keys)
	}
	if c.Bench.ZipfS <= 1 {
		return fmt.Errorf("bench.zipf_s must be > 1: %v", c.Bench.ZipfS)
	}
	if c.Bench.ZipfV < 1 {
		return fmt.Errorf("bench.zipf_v must be >= 1: %v", c.Bench.ZipfV)
	}
	if c.Bench.MaxItemSize < 1 {
		return fmt.Errorf("bench.max_item_size must be >= 1: %d", c.Bench.MaxItemSize)
	}
	return nil
}
