package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildwatch/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisStore(t *testing.T) {

	ctx := context.Background()

	t.Run("LoadReturnsEmptyCollectionForUnknownPipeline", func(t *testing.T) {

		_, client := newTestRedis(t)
		store := NewRedisStore(client, "")

		// act
		builds, err := store.Load(ctx, "churro")

		assert.NoError(t, err)
		assert.Empty(t, builds)
	})

	t.Run("RoundTripsAllFieldsInOrder", func(t *testing.T) {

		_, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		want := sampleBuilds()
		require.NoError(t, store.ReplaceAll(ctx, "churro", want))

		// act
		got, err := store.Load(ctx, "churro")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("StoresOneListElementPerBuildUnderPrefixedKey", func(t *testing.T) {

		server, client := newTestRedis(t)
		store := NewRedisStore(client, "buildwatch:")

		// act
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		items, err := server.List("buildwatch:churro:builds")
		require.NoError(t, err)
		assert.Equal(t, 3, len(items))
	})

	t.Run("ReplaceAllOverwritesWholeCollection", func(t *testing.T) {

		_, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		// act
		err := store.ReplaceAll(ctx, "churro", models.BuildCollection{{Number: 42}})

		require.NoError(t, err)
		got, err := store.Load(ctx, "churro")
		require.NoError(t, err)
		assert.Equal(t, []int{42}, got.Numbers())
	})

	t.Run("ReplaceAllWithEmptyCollectionClearsPipeline", func(t *testing.T) {

		server, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		require.NoError(t, store.ReplaceAll(ctx, "churro", sampleBuilds()))

		// act
		err := store.ReplaceAll(ctx, "churro", nil)

		require.NoError(t, err)
		assert.False(t, server.Exists("churro:builds"))
	})

	t.Run("LoadOrdersBuildsByNumber", func(t *testing.T) {

		server, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		_, err := server.RPush("churro:builds", `{"number":13}`, `{"number":11}`, `{"number":12}`)
		require.NoError(t, err)

		// act
		builds, err := store.Load(ctx, "churro")

		require.NoError(t, err)
		assert.Equal(t, []int{11, 12, 13}, builds.Numbers())
	})

	t.Run("ReturnsErrorForMalformedElement", func(t *testing.T) {

		server, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		_, err := server.Push("churro:builds", `{"number":1}`, "{broken")
		require.NoError(t, err)

		// act
		_, err = store.Load(ctx, "churro")

		assert.Error(t, err)
	})

	t.Run("ReturnsErrorWhenServerIsDown", func(t *testing.T) {

		server, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		server.Close()

		// act
		_, err := store.Load(ctx, "churro")

		assert.Error(t, err)
	})
}
