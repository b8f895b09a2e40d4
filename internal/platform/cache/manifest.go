package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

// DefaultManifestKey is the key the shared manifest is stored under.
const DefaultManifestKey = "finlit:manifest"

// ManifestCache stores the content manifest in Redis so every server
// instance shares one fetched copy. It implements catalog.ManifestCache.
// Redis failures are logged and treated as cache misses.
type ManifestCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewManifestCache creates a manifest cache. A zero ttl keeps the manifest
// until Clear is called.
func NewManifestCache(client *redis.Client, key string, ttl time.Duration) *ManifestCache {
	if key == "" {
		key = DefaultManifestKey
	}
	return &ManifestCache{client: client, key: key, ttl: ttl}
}

func (c *ManifestCache) Get(ctx context.Context) (catalog.Manifest, bool) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("manifest cache read failed", "key", c.key, "error", err)
		}
		return catalog.Manifest{}, false
	}

	var m catalog.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("manifest cache entry is corrupt", "key", c.key, "error", err)
		return catalog.Manifest{}, false
	}
	return m, true
}

func (c *ManifestCache) Set(ctx context.Context, m catalog.Manifest) {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Warn("manifest cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		slog.Warn("manifest cache write failed", "key", c.key, "error", err)
	}
}

func (c *ManifestCache) Clear(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		slog.Warn("manifest cache clear failed", "key", c.key, "error", err)
	}
}
