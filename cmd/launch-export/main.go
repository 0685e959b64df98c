// Command launch-export downloads every RocketLaunch.Live endpoint into a CSV
// file and merges the CSV files of the output directory into a daily workbook.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/launch-export/pkg/cache"
	"github.com/Sternrassler/launch-export/pkg/client"
	"github.com/Sternrassler/launch-export/pkg/config"
	"github.com/Sternrassler/launch-export/pkg/export"
	"github.com/Sternrassler/launch-export/pkg/logging"
	"github.com/Sternrassler/launch-export/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatal().Err(err).Msg("Export failed")
	}
}

// run exports every endpoint and merges the result.
func run(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger("main")

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Warn().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	clientCfg := cfg.ClientConfig()
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable - page cache disabled")
		} else {
			defer redisClient.Close()
			clientCfg.Cache = cache.NewManager(redisClient, cfg.CacheTTL)
			logger.Info().Str("redis", cfg.RedisURL).Dur("ttl", cfg.CacheTTL).Msg("Page cache enabled")
		}
	}

	apiClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	exporter, err := export.New(apiClient, export.Config{
		OutputDir:  cfg.OutputDir,
		Pagination: cfg.PaginationConfig(),
	})
	if err != nil {
		return err
	}

	summary, err := exporter.Run(ctx)
	if err != nil {
		return err
	}
	for _, ep := range summary.Endpoints {
		if ep.Err != nil {
			logger.Warn().Str("endpoint", ep.Endpoint).Err(ep.Err).Msg("Endpoint missing from export")
		}
	}

	result, err := exporter.Merge()
	if err != nil {
		return fmt.Errorf("merge workbook: %w", err)
	}

	logger.Info().
		Str("workbook", result.Path).
		Int("sheets", len(result.Sheets)).
		Dur("duration", summary.Duration).
		Msg("Done")

	return nil
}

// connectRedis accepts a host:port address or a redis:// URL.
func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	redisClient := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return redisClient, nil
}
