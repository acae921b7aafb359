package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/miller/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_DisabledIsNoop(t *testing.T) {
	cache := NewCache(Disabled(), "miller")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1.5, TTLDaily))

	var got float64
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestAggregateKey(t *testing.T) {
	key := AggregateKey("avg_roc", time.Date(2020, 12, 31, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "aggregate:avg_roc:2020-12-31", key)
}
