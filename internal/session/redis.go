package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jobtracker/apiserver/config"
	"github.com/jobtracker/apiserver/types"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const redisKeyPrefix = "sess:"

// RedisStore keeps sessions as JSON values under sess:<id>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient constructs a go-redis client from config.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}), nil
}

// NewRedisStore wraps client. A zero ttl stores sessions without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (types.SessionData, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.SessionData{}, ErrNotFound
		}
		return types.SessionData{}, oops.Code("SESSION_GET_FAILED").Wrap(err)
	}

	var data types.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return types.SessionData{}, oops.Code("SESSION_DECODE_FAILED").Wrap(err)
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, id string, data types.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+id, raw, r.ttl).Err(); err != nil {
		return oops.Code("SESSION_SET_FAILED").Wrap(err)
	}
	return nil
}

func (r *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").Wrap(err)
	}
	return nil
}

// Ping checks connectivity to the Redis server.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
