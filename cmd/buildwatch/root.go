package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"buildwatch/internal/cache"
	"buildwatch/internal/config"
	"buildwatch/internal/jenkins"
	"buildwatch/internal/monitor"
	"buildwatch/internal/storage"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "buildwatch",
		Short:         "Track CI pipeline build history and health over time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (YAML), defaults to $"+config.EnvConfigPath)

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRefreshCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	return cmd
}

// loadConfig reads the configuration and applies its logging settings.
func (o *rootOptions) loadConfig() (config.Config, error) {
	path := config.ResolvePath(o.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return config.Config{}, err
	}
	log.Info().Str("config", path).Int("pipelines", len(cfg.Pipelines)).Msg("Loaded configuration")
	return cfg, nil
}

func setupLogging(level, format string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}

// components are the pieces every command shares, built from one config.
type components struct {
	store   storage.BuildStore
	monitor *monitor.Monitor
	redis   *redis.Client
}

func (c *components) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing redis client failed")
		}
	}
}

func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	c := &components{}

	if cfg.Store.Backend == config.BackendRedis || cfg.Cache.Backend == config.BackendRedis {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := c.redis.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Store.Redis.Addr).Msg("Redis not reachable yet")
		}
		cancel()
	}

	switch cfg.Store.Backend {
	case config.BackendRedis:
		c.store = storage.NewRedisStore(c.redis, cfg.Store.Redis.KeyPrefix)
	default:
		fileStore, err := storage.NewFileStore(cfg.DataDirectory)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("initialise storage: %w", err)
		}
		c.store = fileStore
	}

	var detailCache cache.DetailCache
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		detailCache = cache.NewRedis(c.redis, cfg.Store.Redis.KeyPrefix)
	default:
		detailCache = cache.NewMemory()
	}

	client := jenkins.NewClient(jenkins.Options{
		Timeout:            cfg.Fetch.Timeout(),
		Retries:            cfg.Fetch.Retries,
		InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
	})
	refresher := monitor.NewRefresher(client, c.store, detailCache)
	c.monitor = monitor.New(cfg.Interval(), cfg.Fetch.Concurrency, cfg.Pipelines, refresher, c.store)
	return c, nil
}
