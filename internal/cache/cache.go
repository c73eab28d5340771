// Package cache memoizes upstream build details by URL. Only finished builds are
// cached; their details no longer change, so entries never expire.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"buildwatch/internal/models"
)

// DetailCache stores build details keyed by their detail URL.
type DetailCache interface {
	Get(ctx context.Context, key string) (models.Build, bool, error)
	// SetIfAbsent stores b without expiry unless key is already present.
	// It reports whether b was stored.
	SetIfAbsent(ctx context.Context, key string, b models.Build) (bool, error)
}

// Memory is an in-process DetailCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.Build
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]models.Build)}
}

// Get returns the cached build stored under key.
func (m *Memory) Get(_ context.Context, key string) (models.Build, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.entries[key]
	return b, ok, nil
}

// SetIfAbsent stores b under key unless an entry already exists.
func (m *Memory) SetIfAbsent(_ context.Context, key string, b models.Build) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = b
	return true, nil
}

// Len returns the number of cached builds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Redis is a DetailCache shared through Redis, so cached details survive restarts.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a cache storing entries under "<prefix>detail:<url>".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Get reads and decodes the build cached under key.
func (r *Redis) Get(ctx context.Context, key string) (models.Build, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return models.Build{}, false, nil
	}
	if err != nil {
		return models.Build{}, false, fmt.Errorf("get cached detail %s: %w", key, err)
	}
	var b models.Build
	if err := json.Unmarshal(data, &b); err != nil {
		return models.Build{}, false, fmt.Errorf("parse cached detail %s: %w", key, err)
	}
	return b, true, nil
}

// SetIfAbsent stores b under key with SETNX and no expiry.
func (r *Redis) SetIfAbsent(ctx context.Context, key string, b models.Build) (bool, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return false, fmt.Errorf("encode detail %s: %w", key, err)
	}
	stored, err := r.client.SetNX(ctx, r.key(key), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("cache detail %s: %w", key, err)
	}
	return stored, nil
}

func (r *Redis) key(url string) string {
	return r.prefix + "detail:" + url
}
