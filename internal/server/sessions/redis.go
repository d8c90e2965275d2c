package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tubeauth:session:"

// RedisStore keeps the token under a per-user key that expires together
// with the refresh token. The user repository is still consulted so a
// missing account is reported instead of silently creating a key.
type RedisStore struct {
	rdb   redis.Cmdable
	users users.Repository
	ttl   time.Duration
}

func NewRedisStore(rdb redis.Cmdable, repo users.Repository, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, users: repo, ttl: ttl}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) ensureUser(ctx context.Context, userID string) error {
	_, err := s.users.GetByID(ctx, userID)
	return err
}

func (s *RedisStore) Persist(ctx context.Context, userID, token string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKey(userID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Current(ctx context.Context, userID string) (string, bool, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return "", false, err
	}
	t, err := s.rdb.Get(ctx, redisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis error: %w", err)
	}
	return t, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
