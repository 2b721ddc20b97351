package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

const (
	// DefaultCacheTTL время жизни закэшированного результата поиска.
	DefaultCacheTTL = 30 * time.Second

	cacheKeyPrefix = "casetrail:sub:"
)

// RedisCache кэш результатов поиска перед основным хранилищем подписок.
// Ошибки Redis не считаются ошибками поиска: запрос уходит в основное хранилище.
type RedisCache struct {
	client *redis.Client
	store  Store
	ttl    time.Duration
}

// NewRedisCache создает кэширующее хранилище. ttl <= 0 означает DefaultCacheTTL.
func NewRedisCache(client *redis.Client, store Store, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, store: store, ttl: ttl}
}

// CacheKey ключ Redis для пары (источник, сообщение).
func CacheKey(entityID, message string) string {
	return cacheKeyPrefix + entityID + ":" + message
}

// Lookup читает результат из Redis, при промахе обращается к хранилищу и кэширует ответ.
// Пустой результат тоже кэшируется, чтобы события без подписчиков не нагружали базу.
func (c *RedisCache) Lookup(ctx context.Context, entityID, message string) ([]model.CaseID, error) {
	key := CacheKey(entityID, message)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []model.CaseID
		if err := json.Unmarshal(raw, &ids); err == nil {
			return ids, nil
		}
		logger.Log.Warn("Corrupted subscription cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		logger.Log.Warn("Subscription cache read failed", zap.String("key", key), zap.Error(err))
	}

	ids, err := c.store.Lookup(ctx, entityID, message)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(ids); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			logger.Log.Warn("Subscription cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return ids, nil
}

// Invalidate удаляет закэшированный результат для пары.
func (c *RedisCache) Invalidate(ctx context.Context, entityID, message string) error {
	return c.client.Del(ctx, CacheKey(entityID, message)).Err()
}
