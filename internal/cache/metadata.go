// Package cache provides a Redis read-through layer over slow RPC lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/config"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/subgraph"
)

const metadataKeyPrefix = "token:metadata:"

// TokenMetadataCache fronts a TokenMetadataSource with Redis. Cache
// failures fall through to the source; only the source's own errors
// propagate.
type TokenMetadataCache struct {
	source subgraph.TokenMetadataSource
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewTokenMetadataCache(cfg *config.RedisConfig, source subgraph.TokenMetadataSource, logger zerolog.Logger) *TokenMetadataCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &TokenMetadataCache{
		source: source,
		client: client,
		ttl:    cfg.TTL,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *TokenMetadataCache) Close() error {
	return c.client.Close()
}

func (c *TokenMetadataCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (c *TokenMetadataCache) TokenMetadata(ctx context.Context, address string) (*subgraph.TokenMetadata, error) {
	key := metadataKeyPrefix + address

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var meta subgraph.TokenMetadata
		if err := json.Unmarshal(raw, &meta); err == nil {
			return &meta, nil
		}
		// corrupt entry, refetch
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("token", address).Msg("Redis read failed, falling back to source")
	}

	meta, err := c.source.TokenMetadata(ctx, address)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(meta); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("token", address).Msg("Redis write failed")
		}
	}
	return meta, nil
}
