package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
	"github.com/p-n-ai/pai-finlit/internal/platform/config"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, config.CacheConfig{Enabled: true, URL: "redis://localhost:59999", ManifestTTL: time.Minute})
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions(config.CacheConfig{URL: "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("clientOptions() error = %v", err)
	}
	if opts.ClientName != "finlit" {
		t.Errorf("ClientName = %q, want finlit", opts.ClientName)
	}
	if opts.DB != 2 {
		t.Errorf("DB = %d, want 2", opts.DB)
	}
	if opts.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", opts.ReadTimeout)
	}

	if _, err := clientOptions(config.CacheConfig{}); err == nil {
		t.Error("clientOptions() should reject an empty URL")
	}
}

func TestCache_Manifests_UsesConfiguredTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	c := &Cache{Client: client, manifestTTL: 90 * time.Second}
	m := c.Manifests()
	if m.ttl != 90*time.Second || m.key != DefaultManifestKey {
		t.Errorf("Manifests() = key %q ttl %v", m.key, m.ttl)
	}
}

func TestManifestCache_UnreachableIsMiss(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	opts, err := ParseURL("redis://localhost:59999")
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	opts.MaxRetries = -1
	client := redis.NewClient(opts)
	defer client.Close()

	c := NewManifestCache(client, "", time.Minute)
	ctx := t.Context()

	c.Set(ctx, catalog.Manifest{Version: "1"})
	if _, ok := c.Get(ctx); ok {
		t.Fatal("Get() should miss when the cache is unreachable")
	}
	c.Clear(ctx)
}

func TestNewManifestCache_DefaultKey(t *testing.T) {
	c := NewManifestCache(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), "", 0)
	if c.key != DefaultManifestKey {
		t.Errorf("key = %q, want %q", c.key, DefaultManifestKey)
	}
}

var _ catalog.ManifestCache = (*ManifestCache)(nil)
