package auth

import (
	"context"
	"errors"
	"time"

	autherrors "hrcore/internal/auth/errors"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "auth:refresh:"

// TokenStore tracks which refresh-token IDs are still live. A token ID is
// written on issue and consumed exactly once on rotation.
//
//go:generate mockgen -source=token_store.go -destination=mock/token_store_mock.go -package=mock
type TokenStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Consume atomically removes the token ID and returns the user it was
	// issued to. Concurrent calls with the same ID: one wins, the rest get
	// ErrInvalidOrExpiredToken.
	Consume(ctx context.Context, jti string) (string, error)
	// Revoke removes a token ID without returning it (logout, rotation of a
	// replaced token).
	Revoke(ctx context.Context, jti string) error
}

type redisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func (s *redisTokenStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKeyPrefix+jti, userID, ttl).Err()
}

func (s *redisTokenStore) Consume(ctx context.Context, jti string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, refreshKeyPrefix+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", autherrors.ErrInvalidOrExpiredToken
		}
		return "", err
	}
	return userID, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, refreshKeyPrefix+jti).Err()
}
