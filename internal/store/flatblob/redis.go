package flatblob

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

const DefaultKey = "blog-posts"

// RedisBlob keeps the collection under one Redis string key.
type RedisBlob struct {
	Client *redis.Client
	Key    string
}

func (r *RedisBlob) key() string {
	if r.Key == "" {
		return DefaultKey
	}
	return r.Key
}

func (r *RedisBlob) Load(ctx context.Context) ([]byte, error) {
	val, err := r.Client.Get(ctx, r.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisBlob) Save(ctx context.Context, data []byte) error {
	return r.Client.Set(ctx, r.key(), data, 0).Err()
}
