package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/shared/config"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// NewClient connects to the panel's primary Redis and pings it.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.GetAddr(), err)
	}
	return client, nil
}

// NewDirectClient connects to the unprefixed counter connection. It returns
// nil when the connection is disabled. A failed ping is not fatal since the
// direct source is optional.
func NewDirectClient(cfg *config.DirectRedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Source names recorded in logs and ledger rows.
const (
	SourcePrefixed = "prefixed"
	SourceDirect   = "direct"
)

// CounterSources builds the ordered source list: the prefixed primary
// connection, then the direct one when configured.
func CounterSources(primary redis.UniversalClient, direct *redis.Client, prefix string, log logger.Interface) []traffic.CounterSource {
	sources := []traffic.CounterSource{
		NewRedisCounterSource(primary, SourcePrefixed, prefix, false, log),
	}
	if direct != nil {
		sources = append(sources, NewRedisCounterSource(direct, SourceDirect, "", true, log))
	}
	return sources
}
