package auth_test

import (
	"context"
	"testing"
	"time"

	"hrcore/internal/auth"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	autherrors "hrcore/internal/auth/errors"
)

func TestRedisTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save writes the owner under the token key with a ttl", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := auth.NewRedisTokenStore(rdb)

		mock.ExpectSet("auth:refresh:jti-1", "user-1", 7*24*time.Hour).SetVal("OK")

		err := store.Save(ctx, "jti-1", "user-1", 7*24*time.Hour)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("consume removes the token and returns its owner", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := auth.NewRedisTokenStore(rdb)

		mock.ExpectGetDel("auth:refresh:jti-1").SetVal("user-1")

		owner, err := store.Consume(ctx, "jti-1")
		assert.NoError(t, err)
		assert.Equal(t, "user-1", owner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("consuming an absent token fails", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := auth.NewRedisTokenStore(rdb)

		mock.ExpectGetDel("auth:refresh:jti-used").RedisNil()

		_, err := store.Consume(ctx, "jti-used")
		assert.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
	})

	t.Run("revoke deletes without reading", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		store := auth.NewRedisTokenStore(rdb)

		mock.ExpectDel("auth:refresh:jti-1").SetVal(1)

		err := store.Revoke(ctx, "jti-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
