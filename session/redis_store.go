package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "session:"

// RedisStore keeps AES-GCM sealed session records in Redis with a TTL matching their expiry.
type RedisStore struct {
	client *redis.Client
	sealer *sealer
}

func NewRedisStore(client *redis.Client, encryptionKey []byte) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client not available")
	}
	s, err := newSealer(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("session cipher: %w", err)
	}
	return &RedisStore{client: client, sealer: s}, nil
}

func (r *RedisStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	data, err := r.sealer.seal(sess)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	sess, err := r.sealer.open(data)
	if err != nil {
		r.client.Del(ctx, keyPrefix+id)
		return nil, ErrNotFound
	}
	sess.ID = id

	if sess.Expired(time.Now()) {
		r.client.Del(ctx, keyPrefix+id)
		return nil, ErrNotFound
	}
	return sess, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to remove session from Redis: %w", err)
	}
	return nil
}
