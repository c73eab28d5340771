package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildwatch/internal/models"
)

func caches(t *testing.T) map[string]DetailCache {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]DetailCache{
		"memory": NewMemory(),
		"redis":  NewRedis(client, "test:"),
	}
}

func TestDetailCache(t *testing.T) {

	ctx := context.Background()
	url := "https://ci.example.com/job/churro/7/"
	build := models.Build{Number: 7, URL: url, Result: models.ResultSuccess, Duration: 1500}

	for name, c := range caches(t) {
		c := c

		t.Run(name+"/MissReturnsFalse", func(t *testing.T) {

			// act
			_, ok, err := c.Get(ctx, "https://ci.example.com/job/churro/unknown/")

			assert.NoError(t, err)
			assert.False(t, ok)
		})

		t.Run(name+"/SetIfAbsentStoresOnce", func(t *testing.T) {

			stored, err := c.SetIfAbsent(ctx, url, build)
			require.NoError(t, err)
			assert.True(t, stored)

			// act
			stored, err = c.SetIfAbsent(ctx, url, models.Build{Number: 7, Result: models.ResultFailure})

			require.NoError(t, err)
			assert.False(t, stored)
			got, ok, err := c.Get(ctx, url)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, build, got)
		})
	}
}

func TestRedisEntriesDoNotExpire(t *testing.T) {

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	c := NewRedis(client, "")

	// act
	_, err := c.SetIfAbsent(context.Background(), "u", models.Build{Number: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(0), int64(server.TTL("detail:u")))
}
