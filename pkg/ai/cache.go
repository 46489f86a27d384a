package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"marginalia/pkg/logger"
)

// ResponseCache stores generated completions keyed by the exact prompt and
// model. Get returns ("", false) on a miss; storage failures are logged by
// implementations and never surfaced to callers, a cold cache only costs
// money.
type ResponseCache interface {
	Get(ctx context.Context, prompt, model string) (string, bool)
	Set(ctx context.Context, prompt, model, response string)
}

// cacheKey derives a stable key from the prompt and model.
func cacheKey(prompt, model string) string {
	sum := sha256.Sum256([]byte(prompt + "\x00" + model))
	return hex.EncodeToString(sum[:])
}

// RedisCache backs ResponseCache with a Redis instance. Entries expire
// server-side via TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type NewRedisCacheParams struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(params NewRedisCacheParams) *RedisCache {
	return &RedisCache{
		client: params.Client,
		ttl:    params.TTL,
		prefix: "ai:response:",
	}
}

func (c *RedisCache) Get(ctx context.Context, prompt, model string) (string, bool) {
	val, err := c.client.Get(ctx, c.prefix+cacheKey(prompt, model)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("redis cache read failed", "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, prompt, model, response string) {
	if err := c.client.Set(ctx, c.prefix+cacheKey(prompt, model), response, c.ttl).Err(); err != nil {
		logger.Warn("redis cache write failed", "error", err)
	}
}

// FileCache stores responses as JSON files under a directory. Expiry is
// checked at read time against the entry's stored timestamp.
type FileCache struct {
	dir string
	ttl time.Duration
}

type fileCacheEntry struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
}

type NewFileCacheParams struct {
	Dir string
	TTL time.Duration
}

func NewFileCache(params NewFileCacheParams) (*FileCache, error) {
	if err := os.MkdirAll(params.Dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: params.Dir, ttl: params.TTL}, nil
}

func (c *FileCache) path(prompt, model string) string {
	return filepath.Join(c.dir, cacheKey(prompt, model)+".json")
}

func (c *FileCache) Get(_ context.Context, prompt, model string) (string, bool) {
	data, err := os.ReadFile(c.path(prompt, model))
	if err != nil {
		return "", false
	}

	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("discarding unreadable cache entry", "error", err)
		_ = os.Remove(c.path(prompt, model))
		return "", false
	}

	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		_ = os.Remove(c.path(prompt, model))
		return "", false
	}
	return entry.Response, true
}

func (c *FileCache) Set(_ context.Context, prompt, model, response string) {
	data, err := json.Marshal(fileCacheEntry{
		Response:  response,
		Timestamp: time.Now(),
		Model:     model,
	})
	if err != nil {
		logger.Warn("file cache write failed", "error", err)
		return
	}
	if err := os.WriteFile(c.path(prompt, model), data, 0o644); err != nil {
		logger.Warn("file cache write failed", "error", err)
	}
}

// MemoryCache is a process-local ResponseCache. Used when no cache backend
// is configured and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	response string
	storedAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, prompt, model string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(prompt, model)]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, cacheKey(prompt, model))
		c.mu.Unlock()
		return "", false
	}
	return entry.response, true
}

func (c *MemoryCache) Set(_ context.Context, prompt, model, response string) {
	c.mu.Lock()
	c.entries[cacheKey(prompt, model)] = memoryCacheEntry{response: response, storedAt: time.Now()}
	c.mu.Unlock()
}
