package catalog

import (
	"context"
	"sync"
)

// ManifestCache stores the most recently fetched manifest.
type ManifestCache interface {
	Get(ctx context.Context) (Manifest, bool)
	Set(ctx context.Context, m Manifest)
	Clear(ctx context.Context)
}

// MemoryCache keeps the manifest in process memory for the lifetime of the
// loader that owns it.
type MemoryCache struct {
	manifest *Manifest
	mu       sync.RWMutex
}

// NewMemoryCache creates an empty in-memory manifest cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context) (Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manifest == nil {
		return Manifest{}, false
	}
	return *c.manifest, true
}

func (c *MemoryCache) Set(_ context.Context, m Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest = &m
}

func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest = nil
}
