package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Store is the narrow interface both the in-process PriceCache and a
// distributed backing store satisfy.
type Store interface {
	Insert(key string, price float64, strategy string)
	Get(key string) (float64, bool)
	Clear()
}

// RedisStore backs the same strategy-keyed TTL semantics with Redis EXPIRE,
// letting the cache be shared across multiple process instances. Eviction
// here is active (Redis expires the key itself) rather than lazy-on-read,
// but Get still reports a miss once expired, matching PriceCache's
// contract.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedisStore wraps an existing Redis client under the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, ctx: context.Background(), prefix: prefix}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + ":" + k
}

func (r *RedisStore) Insert(key string, price float64, strategy string) {
	ttl := ttlFor(strategy)
	r.client.Set(r.ctx, r.key(key), strconv.FormatFloat(price, 'f', -1, 64), ttl)
}

func (r *RedisStore) Get(key string) (float64, bool) {
	val, err := r.client.Get(r.ctx, r.key(key)).Result()
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (r *RedisStore) Clear() {
	iter := r.client.Scan(r.ctx, 0, r.prefix+":*", 0).Iterator()
	for iter.Next(r.ctx) {
		r.client.Del(r.ctx, iter.Val())
	}
}
