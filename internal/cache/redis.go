package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		Protocol: 2,
	})

	return &Redis{client: client}
}

func (r *Redis) Set(ctx context.Context, k string, v any, ttl time.Duration) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, k, value, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, k string, v any) (bool, error) {
	res := r.client.Get(ctx, k)
	if res.Err() != nil {
		if res.Err() == redis.Nil {
			return false, nil
		}
		return false, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(buf, v); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
