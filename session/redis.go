package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const redisKeyPrefix = "apiary:session:"

// RedisStore keeps sessions in Redis, for deployments where multiple
// instances share session state or sessions must survive restarts. Expiry
// is enforced by Redis key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a session store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put inserts or replaces the session under its reference
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := msgpack.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "session: failed to encode session")
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.Errorf("session: refusing to store already-expired session")
	}
	return s.client.Set(ctx, redisKeyPrefix+sess.Ref, data, ttl).Err()
}

// Get resolves a reference; (nil, nil) when absent or expired
func (s *RedisStore) Get(ctx context.Context, ref string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err = msgpack.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "session: failed to decode session")
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, nil
	}
	return &sess, nil
}

// Delete removes the session; unknown references are a no-op
func (s *RedisStore) Delete(ctx context.Context, ref string) error {
	return s.client.Del(ctx, redisKeyPrefix+ref).Err()
}
