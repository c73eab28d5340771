package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"buildwatch/internal/models"
	"buildwatch/internal/storage"
)

const (
	// EnvConfigPath names the environment variable holding the config file path.
	EnvConfigPath = "BUILDWATCH_CONFIG"

	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	defaultInterval = 300
)

// Config represents configuration data for the dashboard service.
type Config struct {
	IntervalSeconds int               `yaml:"interval_seconds"`
	DataDirectory   string            `yaml:"data_directory"`
	ListenAddr      string            `yaml:"listen_addr"`
	LogLevel        string            `yaml:"log_level"`
	LogFormat       string            `yaml:"log_format"`
	Store           Store             `yaml:"store"`
	Cache           Cache             `yaml:"cache"`
	Fetch           Fetch             `yaml:"fetch"`
	Pipelines       []models.Pipeline `yaml:"pipelines"`
}

// Store selects where build history is persisted.
type Store struct {
	Backend string `yaml:"backend"`
	Redis   Redis  `yaml:"redis"`
}

// Cache selects where finished build details are memoized.
type Cache struct {
	Backend string `yaml:"backend"`
}

// Redis holds connection settings shared by the store and cache.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Fetch tunes requests to the CI server.
type Fetch struct {
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	Retries            int  `yaml:"retries"`
	Concurrency        int  `yaml:"concurrency"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds: defaultInterval,
		DataDirectory:   filepath.Join(".dist", "data"),
		ListenAddr:      ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		Store: Store{
			Backend: BackendFile,
			Redis:   Redis{Addr: "localhost:6379"},
		},
		Cache: Cache{Backend: BackendMemory},
		Fetch: Fetch{
			TimeoutSeconds: 30,
			Retries:        3,
			Concurrency:    1,
		},
	}
}

// Interval returns the refresh interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout returns the per-request upstream timeout.
func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// Pipeline looks up a configured pipeline by id.
func (c Config) Pipeline(id string) (models.Pipeline, bool) {
	for _, p := range c.Pipelines {
		if p.ID == id {
			return p, true
		}
	}
	return models.Pipeline{}, false
}

// ResolvePath picks the config path from the flag value or the environment.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads configuration from yaml file. Missing files fall back to defaults,
// which define no pipelines and therefore fail validation.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	defaults := DefaultConfig()
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = defaultInterval
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = defaults.DataDirectory
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaults.ListenAddr
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = BackendMemory
	}
	if cfg.Fetch.TimeoutSeconds <= 0 {
		cfg.Fetch.TimeoutSeconds = defaults.Fetch.TimeoutSeconds
	}
	if cfg.Fetch.Retries < 0 {
		cfg.Fetch.Retries = 0
	}
	if cfg.Fetch.Concurrency <= 0 {
		cfg.Fetch.Concurrency = 1
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks pipelines and backend selection.
func (c Config) Validate() error {
	if len(c.Pipelines) == 0 {
		return errors.New("configuration must define at least one pipeline")
	}
	seen := make(map[string]struct{}, len(c.Pipelines))
	for i, p := range c.Pipelines {
		if p.ID == "" {
			return fmt.Errorf("pipeline %d is missing id", i)
		}
		if err := storage.ValidatePipelineID(p.ID); err != nil {
			return fmt.Errorf("pipeline %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("pipeline id %s is defined twice", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.URL == "" {
			return fmt.Errorf("pipeline %s url is required", p.ID)
		}
	}

	switch c.Store.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if (c.Store.Backend == BackendRedis || c.Cache.Backend == BackendRedis) && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr is required for the redis backend")
	}
	return nil
}
