package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
)

// redisKeyPrefix namespaces cached column lists in a shared Redis.
const redisKeyPrefix = "ekaya-record:columns:"

// Cache keeps column metadata process-wide in front of another Introspector,
// optionally shared between processes through Redis. Empty results are never
// cached so a table created later is picked up on the next lookup.
type Cache struct {
	next   Introspector
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	columns   []datasource.ColumnMetadata
	expiresAt time.Time
}

// NewCache wraps next. A nil client keeps the cache in memory only. A ttl of
// zero or less never expires entries.
func NewCache(next Introspector, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:    next,
		redis:   client,
		ttl:     ttl,
		logger:  logger.Named("catalog_cache"),
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// cacheKey joins schema and table with NUL, which neither quoted nor
// unquoted identifiers can contain, so "a.b"+"c" and "a"+"b.c" stay distinct.
func cacheKey(schema, table string) string {
	return schema + "\x00" + table
}

// Columns returns cached columns for schema.table, loading them on a miss.
func (c *Cache) Columns(ctx context.Context, schema, table string) ([]datasource.ColumnMetadata, error) {
	key := cacheKey(schema, table)

	if columns, ok := c.getLocal(key); ok {
		return columns, nil
	}

	if columns, ok := c.getShared(ctx, key); ok {
		c.setLocal(key, columns)
		return cloneColumns(columns), nil
	}

	columns, err := c.next.Columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return columns, nil
	}

	c.setLocal(key, columns)
	c.setShared(ctx, key, columns)
	return cloneColumns(columns), nil
}

// Invalidate drops schema.table so the next lookup reloads it.
func (c *Cache) Invalidate(ctx context.Context, schema, table string) error {
	key := cacheKey(schema, table)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// InvalidateAll drops every cached table.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()

	if c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached tables: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached tables: %w", err)
	}
	return nil
}

// Len returns the number of tables held in memory, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) getLocal(key string) ([]datasource.ColumnMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		return nil, false
	}
	return cloneColumns(entry.columns), true
}

func (c *Cache) setLocal(key string, columns []datasource.ColumnMetadata) {
	entry := &cacheEntry{columns: cloneColumns(columns)}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// getShared reads from Redis. Redis failures degrade to a miss.
func (c *Cache) getShared(ctx context.Context, key string) ([]datasource.ColumnMetadata, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to read cached columns from Redis",
			zap.String("table", key),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, false
	}

	var columns []datasource.ColumnMetadata
	if err := json.Unmarshal(data, &columns); err != nil {
		c.logger.Warn("Discarding malformed cached columns",
			zap.String("table", key),
			zap.Error(err),
		)
		return nil, false
	}
	if len(columns) == 0 {
		return nil, false
	}
	return columns, true
}

func (c *Cache) setShared(ctx context.Context, key string, columns []datasource.ColumnMetadata) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(columns)
	if err != nil {
		c.logger.Warn("Failed to encode columns for Redis", zap.String("table", key), zap.Error(err))
		return
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.redis.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		c.logger.Warn("Failed to write cached columns to Redis",
			zap.String("table", key),
			zap.String("error", logging.SanitizeError(err)),
		)
	}
}

func cloneColumns(in []datasource.ColumnMetadata) []datasource.ColumnMetadata {
	if in == nil {
		return nil
	}
	out := make([]datasource.ColumnMetadata, len(in))
	copy(out, in)
	return out
}

// Ensure Cache implements Introspector at compile time.
var _ Introspector = (*Cache)(nil)
