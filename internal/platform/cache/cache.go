// Package cache connects to the Redis (or Dragonfly) instance that server
// replicas share. The content manifest lives there so one catalog refresh
// reaches every replica.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-finlit/internal/platform/config"
)

const clientName = "finlit"

// Cache is the shared Redis client plus the manifest lifetime it was
// configured with.
type Cache struct {
	Client      *redis.Client
	manifestTTL time.Duration
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// clientOptions builds client options for the finlit server. Timeouts are
// kept well below the content fetch timeout so a slow cache degrades to a
// miss instead of delaying the request.
func clientOptions(cfg config.CacheConfig) (*redis.Options, error) {
	opts, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.ClientName = clientName
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	return opts, nil
}

// New connects to the shared cache and verifies it with a ping.
func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	slog.Info("cache connected", "addr", opts.Addr, "db", opts.DB, "manifest_ttl", cfg.ManifestTTL)
	return &Cache{Client: client, manifestTTL: cfg.ManifestTTL}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// Manifests returns the manifest cache stored under DefaultManifestKey with
// the configured TTL.
func (c *Cache) Manifests() *ManifestCache {
	return NewManifestCache(c.Client, DefaultManifestKey, c.manifestTTL)
}

// HealthCheck is the /readyz probe for the cache.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}
