package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"clinid/internal/identity/models"
)

const redisKeyPrefix = "resolution:"

// Redis is the distributed implementation for deployments where multiple
// engine instances share resolution state. TTL enforcement is delegated to
// Redis key expiry; corrupt payloads and connectivity errors downgrade to
// misses per the cache error contract.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis constructs a Redis-backed resolution cache. The client lifecycle
// is managed by the caller.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, t models.IdentifierType, value string) (*models.Patient, bool) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+models.CacheKey(t, value)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.warn(ctx, "redis get failed, treating as miss", err)
		return nil, false
	}

	var p models.Patient
	if err := json.Unmarshal(payload, &p); err != nil {
		r.warn(ctx, "corrupt cache entry, treating as miss", err)
		r.client.Del(ctx, redisKeyPrefix+models.CacheKey(t, value))
		return nil, false
	}
	return &p, true
}

func (r *Redis) Put(ctx context.Context, t models.IdentifierType, value string, p *models.Patient) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		r.warn(ctx, "marshal cache entry failed", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+models.CacheKey(t, value), payload, r.ttl).Err(); err != nil {
		r.warn(ctx, "redis set failed", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, t models.IdentifierType, value string) {
	if err := r.client.Del(ctx, redisKeyPrefix+models.CacheKey(t, value)).Err(); err != nil {
		r.warn(ctx, "redis del failed", err)
	}
}

func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.warn(ctx, "redis del failed during clear", err)
		}
	}
	if err := iter.Err(); err != nil {
		r.warn(ctx, "redis scan failed during clear", err)
	}
}

func (r *Redis) warn(ctx context.Context, msg string, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, "error", err)
	}
}
