// Package cache stores report snapshots in redis, keyed per tenant, so the
// funnel and dashboard do not rescan every lead on each request.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "reports"
	generationKey = "gen"
)

// Cache is a JSON snapshot cache. A nil *Cache is a valid, always-missing cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Open connects to redisURL and verifies the connection.
func Open(ctx context.Context, redisURL string, tlsInsecure bool, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl), nil
}

// Key builds the cache key for a tenant's report.
func Key(tenantID uuid.UUID, report string, parts ...string) string {
	segments := append([]string{keyPrefix, tenantID.String(), report}, parts...)
	return strings.Join(segments, ":")
}

// Get decodes the snapshot at key into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Set stores value at key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// SnapshotKey returns the key for a tenant's report under the current cache
// generation. Read it before loading the report: a snapshot stored under a
// key taken before an invalidation is never served afterwards.
func (c *Cache) SnapshotKey(ctx context.Context, tenantID uuid.UUID, report string, parts ...string) (string, error) {
	if c == nil {
		return Key(tenantID, report, parts...), nil
	}
	gens, err := c.client.MGet(ctx, globalGenKey(), tenantGenKey(tenantID)).Result()
	if err != nil {
		return "", err
	}
	global, err := parseGeneration(gens[0])
	if err != nil {
		return "", err
	}
	tenant, err := parseGeneration(gens[1])
	if err != nil {
		return "", err
	}
	gen := "g" + strconv.FormatInt(global, 10) + "." + strconv.FormatInt(tenant, 10)
	return Key(tenantID, report, append(append([]string(nil), parts...), gen)...), nil
}

// InvalidateTenant moves tenantID to a new generation and drops the
// snapshots cached for it.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, tenantGenKey(tenantID)).Err(); err != nil {
		return err
	}
	return c.deleteMatching(ctx, Key(tenantID, "*", "*"))
}

// InvalidateAll moves every tenant to a new generation and drops every
// report snapshot.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, globalGenKey()).Err(); err != nil {
		return err
	}
	return c.deleteMatching(ctx, keyPrefix+":*:*:*")
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func globalGenKey() string {
	return keyPrefix + ":" + generationKey
}

func tenantGenKey(tenantID uuid.UUID) string {
	return keyPrefix + ":" + tenantID.String() + ":" + generationKey
}

func parseGeneration(v any) (int64, error) {
	switch raw := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse cache generation %q: %w", raw, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected cache generation %T", v)
	}
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
