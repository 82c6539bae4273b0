package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/infrastructure/cache"
	"github.com/jhoicas/inventrack/pkg/config"
)

// Requiere Redis; se omite si no responde en REDIS_ADDR (por defecto localhost:6379).
func newTestCache(t *testing.T) *cache.RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := cache.NewClient(ctx, config.CacheConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("Redis no disponible en %s: %v", addr, err)
	}
	c := cache.New(client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := "test:" + t.Name()

	var got payload
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, payload{Name: "bodega", Count: 3}))
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "bodega", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, key, "test:inexistente"))
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Delete(ctx))
}

func TestNewClient_SinServidor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := cache.NewClient(ctx, config.CacheConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
