package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"buildwatch/internal/models"
)

// RedisStore keeps the builds of each pipeline in a Redis list of JSON documents.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on client. Keys are "<prefix><pipeline>:builds".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Load returns the stored builds of a pipeline ordered by number, or an empty collection.
func (s *RedisStore) Load(ctx context.Context, pipelineID string) (models.BuildCollection, error) {
	if err := ValidatePipelineID(pipelineID); err != nil {
		return nil, err
	}
	items, err := s.client.LRange(ctx, s.key(pipelineID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read builds of %s: %w", pipelineID, err)
	}

	builds := make(models.BuildCollection, 0, len(items))
	for i, item := range items {
		var b models.Build
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, fmt.Errorf("parse build %d of %s: %w", i, pipelineID, err)
		}
		builds = append(builds, b)
	}
	return builds.Sorted(), nil
}

// ReplaceAll clears the list and appends every build inside one MULTI/EXEC
// transaction, so LRANGE never sees a half-written list.
func (s *RedisStore) ReplaceAll(ctx context.Context, pipelineID string, builds models.BuildCollection) error {
	if err := ValidatePipelineID(pipelineID); err != nil {
		return err
	}
	values := make([]interface{}, 0, len(builds))
	for _, b := range builds {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode build %d of %s: %w", b.Number, pipelineID, err)
		}
		values = append(values, string(data))
	}

	key := s.key(pipelineID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace builds of %s: %w", pipelineID, err)
	}
	return nil
}

func (s *RedisStore) key(pipelineID string) string {
	return s.prefix + pipelineID + ":builds"
}
